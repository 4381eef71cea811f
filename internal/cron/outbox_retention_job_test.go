package cron

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

func TestOutboxRetentionJobUsesDefaultCutoffs(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	job := newOutboxRetentionJob(t, repo, OutboxRetentionJobParams{})
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := now.Add(-defaultPublishedRetention); !repo.publishedCutoff.Equal(want) {
		t.Fatalf("expected published cutoff %s, got %s", want, repo.publishedCutoff)
	}
	if want := now.Add(-defaultTerminalRetention); !repo.terminalCutoff.Equal(want) {
		t.Fatalf("expected terminal cutoff %s, got %s", want, repo.terminalCutoff)
	}
	if repo.calls != 2 {
		t.Fatalf("expected both deletes, got %d calls", repo.calls)
	}
}

func TestOutboxRetentionJobHonorsOverrides(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	job := newOutboxRetentionJob(t, repo, OutboxRetentionJobParams{Published: time.Hour, Terminal: 2 * time.Hour})
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !repo.publishedCutoff.Equal(now.Add(-time.Hour)) || !repo.terminalCutoff.Equal(now.Add(-2*time.Hour)) {
		t.Fatalf("unexpected cutoffs %s / %s", repo.publishedCutoff, repo.terminalCutoff)
	}
}

func TestOutboxRetentionJobPropagatesError(t *testing.T) {
	repo := &fakeOutboxRetentionRepo{err: errors.New("boom")}
	job := newOutboxRetentionJob(t, repo, OutboxRetentionJobParams{})

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if repo.calls != 1 {
		t.Fatalf("terminal delete should not run after failure, got %d calls", repo.calls)
	}
}

func TestNewOutboxRetentionJobValidates(t *testing.T) {
	if _, err := NewOutboxRetentionJob(OutboxRetentionJobParams{}); err == nil {
		t.Fatal("expected logger error")
	}
}

func newOutboxRetentionJob(t *testing.T, repo *fakeOutboxRetentionRepo, params OutboxRetentionJobParams) *outboxRetentionJob {
	t.Helper()
	params.Logger = logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	params.DB = outboxRetentionTxRunner{}
	params.Repository = repo
	jobIface, err := NewOutboxRetentionJob(params)
	if err != nil {
		t.Fatalf("NewOutboxRetentionJob: %v", err)
	}
	job, ok := jobIface.(*outboxRetentionJob)
	if !ok {
		t.Fatalf("expected outboxRetentionJob, got %T", jobIface)
	}
	return job
}

type fakeOutboxRetentionRepo struct {
	publishedCutoff time.Time
	terminalCutoff  time.Time
	calls           int
	err             error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.publishedCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return 7, nil
}

func (f *fakeOutboxRetentionRepo) DeleteTerminalBefore(tx *gorm.DB, cutoff time.Time) (int64, error) {
	f.calls++
	f.terminalCutoff = cutoff
	return 2, nil
}

type outboxRetentionTxRunner struct{}

func (outboxRetentionTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
