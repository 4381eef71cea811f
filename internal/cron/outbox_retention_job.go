package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

const outboxRetentionJobName = "outbox-retention"

const (
	defaultPublishedRetention = 30 * 24 * time.Hour
	defaultTerminalRetention  = 90 * 24 * time.Hour
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
	DeleteTerminalBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

type OutboxRetentionJobParams struct {
	Logger     *logger.Logger
	DB         txRunner
	Repository outboxRetentionRepo
	// Published bounds how long delivered rows are kept.
	Published time.Duration
	// Terminal bounds how long parked rows are kept for inspection.
	Terminal time.Duration
}

// NewOutboxRetentionJob prunes delivered and parked outbox rows.
// Pending rows are never touched.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	published := params.Published
	if published <= 0 {
		published = defaultPublishedRetention
	}
	terminal := params.Terminal
	if terminal <= 0 {
		terminal = defaultTerminalRetention
	}
	return &outboxRetentionJob{
		logg:      params.Logger,
		db:        params.DB,
		repo:      params.Repository,
		published: published,
		terminal:  terminal,
		now:       time.Now,
	}, nil
}

type outboxRetentionJob struct {
	logg      *logger.Logger
	db        txRunner
	repo      outboxRetentionRepo
	published time.Duration
	terminal  time.Duration
	now       func() time.Time
}

func (j *outboxRetentionJob) Name() string { return outboxRetentionJobName }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	publishedCutoff := now.Add(-j.published)
	terminalCutoff := now.Add(-j.terminal)

	var publishedDeleted, terminalDeleted int64
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		rows, err := j.repo.DeletePublishedBefore(tx, publishedCutoff)
		if err != nil {
			return fmt.Errorf("published rows: %w", err)
		}
		publishedDeleted = rows
		rows, err = j.repo.DeleteTerminalBefore(tx, terminalCutoff)
		if err != nil {
			return fmt.Errorf("terminal rows: %w", err)
		}
		terminalDeleted = rows
		return nil
	})
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"published_cutoff": publishedCutoff,
		"terminal_cutoff":  terminalCutoff,
		"published_pruned": publishedDeleted,
		"terminal_pruned":  terminalDeleted,
	})
	j.logg.Info(logCtx, "outbox retention cleanup complete")
	return nil
}
