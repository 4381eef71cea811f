package writer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	cbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/angelmondragon/scanpay-backend/internal/analytics/types"
	pkgbigquery "github.com/angelmondragon/scanpay-backend/pkg/bigquery"
)

const (
	defaultBatchSize      = 1
	defaultMaxAttempts    = 3
	defaultInitialBackoff = 250 * time.Millisecond
	defaultMaximumBackoff = 2 * time.Second
)

// Config controls the order facts writer.
type Config struct {
	OrderFactsTable string
	BatchSize       int
	RetryPolicy     RetryPolicy
}

// RetryPolicy controls how many times BigQuery inserts are retried.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaximumBackoff time.Duration
}

type tableInserter interface {
	InsertRows(ctx context.Context, table string, rows []any) error
}

// BigQueryWriter appends order fact rows with retries and optional batching.
// Rows carry their event id as the streaming insert id, so a redelivered
// event is deduplicated by BigQuery on a best-effort basis.
type BigQueryWriter struct {
	mu        sync.Mutex
	client    tableInserter
	table     string
	batchSize int
	retry     RetryPolicy

	buffer []types.OrderFactRow
}

// New creates a writer backed by the shared BigQuery client.
func New(client *pkgbigquery.Client, cfg Config) (*BigQueryWriter, error) {
	if client == nil {
		return nil, errors.New("bigquery client required")
	}
	return newWriter(client, cfg)
}

func newWriter(client tableInserter, cfg Config) (*BigQueryWriter, error) {
	table := strings.TrimSpace(cfg.OrderFactsTable)
	if table == "" {
		return nil, errors.New("order facts table is required")
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	retry := cfg.RetryPolicy
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = defaultMaxAttempts
	}
	if retry.InitialBackoff <= 0 {
		retry.InitialBackoff = defaultInitialBackoff
	}
	if retry.MaximumBackoff <= 0 {
		retry.MaximumBackoff = defaultMaximumBackoff
	}
	if retry.MaximumBackoff < retry.InitialBackoff {
		retry.MaximumBackoff = retry.InitialBackoff
	}

	return &BigQueryWriter{
		client:    client,
		table:     table,
		batchSize: batchSize,
		retry:     retry,
	}, nil
}

// InsertOrderFact buffers row and flushes once the batch is full.
func (w *BigQueryWriter) InsertOrderFact(ctx context.Context, row types.OrderFactRow) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buffer = append(w.buffer, row)
	if len(w.buffer) >= w.batchSize {
		return w.flushLocked(ctx)
	}
	return nil
}

// Flush writes any buffered rows immediately.
func (w *BigQueryWriter) Flush(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked(ctx)
}

func (w *BigQueryWriter) flushLocked(ctx context.Context) error {
	if len(w.buffer) == 0 {
		return nil
	}
	rows := make([]any, len(w.buffer))
	for i := range w.buffer {
		rows[i] = &cbigquery.StructSaver{Struct: &w.buffer[i], InsertID: w.buffer[i].EventID}
	}

	if err := w.insertWithRetry(ctx, rows); err != nil {
		return err
	}
	w.buffer = w.buffer[:0]
	return nil
}

func (w *BigQueryWriter) insertWithRetry(ctx context.Context, rows []any) error {
	backoff := w.retry.InitialBackoff
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := w.client.InsertRows(ctx, w.table, rows)
		if err == nil {
			return nil
		}
		if attempt >= w.retry.MaxAttempts || !isRetryableBigQueryError(err) {
			return fmt.Errorf("insert %d rows into %s (attempt %d): %w", len(rows), w.table, attempt, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		backoff = min(backoff*2, w.retry.MaximumBackoff)
	}
}

// isRetryableBigQueryError is true only when every leaf error is transient.
// One bad row poisons the batch, since retrying would fail the same way.
func isRetryableBigQueryError(err error) bool {
	leaves := leafErrors(err)
	if len(leaves) == 0 {
		return false
	}
	for _, leaf := range leaves {
		if !transient(leaf) {
			return false
		}
	}
	return true
}

func leafErrors(err error) []error {
	if err == nil {
		return nil
	}
	var multi *cbigquery.MultiError
	if errors.As(err, &multi) && multi != nil {
		return flatten(*multi)
	}
	var multiVal cbigquery.MultiError
	if errors.As(err, &multiVal) {
		return flatten(multiVal)
	}
	var put cbigquery.PutMultiError
	if errors.As(err, &put) {
		return flattenRows(put)
	}
	var putPtr *cbigquery.PutMultiError
	if errors.As(err, &putPtr) && putPtr != nil {
		return flattenRows(*putPtr)
	}
	var row *cbigquery.RowInsertionError
	if errors.As(err, &row) && row != nil {
		return flatten(row.Errors)
	}
	return []error{err}
}

func flattenRows(rows cbigquery.PutMultiError) []error {
	var out []error
	for _, rowErr := range rows {
		out = append(out, flatten(rowErr.Errors)...)
	}
	return out
}

func flatten(errs cbigquery.MultiError) []error {
	var out []error
	for _, inner := range errs {
		out = append(out, leafErrors(inner)...)
	}
	return out
}

func transient(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusRequestTimeout,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	if st, ok := status.FromError(err); ok && st.Code() != codes.OK {
		switch st.Code() {
		case codes.Aborted, codes.DeadlineExceeded, codes.Internal,
			codes.ResourceExhausted, codes.Unavailable:
			return true
		}
	}
	return false
}
