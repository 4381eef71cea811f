package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/scanpay-backend/internal/analytics/types"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/registry"
)

var testOrderID = uuid.MustParse("00000000-0000-0000-0000-000000000042")

func TestRouterUnsupportedEvent(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	env := types.Envelope{
		EventType: enums.OutboxEventType("unsupported"),
		Payload:   []byte(`{"foo":"bar"}`),
	}
	err := router.Handle(context.Background(), env)
	if !errors.Is(err, ErrUnsupportedEventType) {
		t.Fatalf("expected unsupported error, got %v", err)
	}
}

func TestRouterRoutesToOverride(t *testing.T) {
	handler := &stubHandler{}
	router, writer := newTestRouter(t, map[enums.OutboxEventType]Handler{
		enums.EventOrderCreated: handler,
	})
	env := envelopeFor(t, enums.EventOrderCreated, payloads.OrderCreatedEvent{OrderID: testOrderID, OrderNumber: "SP-1"})

	require.NoError(t, router.Handle(context.Background(), env))
	require.True(t, handler.called)
	created, ok := handler.payload.(*payloads.OrderCreatedEvent)
	require.True(t, ok, "payload decoded into %T", handler.payload)
	assert.Equal(t, "SP-1", created.OrderNumber)
	assert.Empty(t, writer.rows)
}

func TestRouterMalformedPayloadIsNonRetryable(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	for _, payload := range []json.RawMessage{nil, json.RawMessage(`{"order_id":`)} {
		err := router.Handle(context.Background(), types.Envelope{EventType: enums.EventOrderFlagged, Payload: payload})
		var nonRetry registry.NonRetryableError
		require.ErrorAs(t, err, &nonRetry)
	}
}

func TestOrderCreatedRow(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	bundleID := "bundle-1"
	placed := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	env := envelopeFor(t, enums.EventOrderCreated, payloads.OrderCreatedEvent{
		OrderID:                 testOrderID,
		OrderNumber:             "SP-1748772000000",
		UserID:                  "u1",
		Status:                  enums.OrderStatusFlagged,
		ItemCount:               5,
		TotalAmount:             decimal.RequireFromString("57294"),
		FinalAmount:             decimal.RequireFromString("57194.5"),
		DiscountFromPoints:      decimal.RequireFromString("99.5"),
		SpinnerDiscountAmount:   decimal.Zero,
		BundleDiscountAmount:    decimal.Zero,
		PointsRedeemed:          995,
		PointsEarned:            5719,
		BundleID:                &bundleID,
		SuspicionScore:          9,
		NeedsManualVerification: true,
		TriggeredRules:          []string{"Rapid Scanning Time", "High Total Cart Value"},
		PlacedAt:                placed,
	})

	require.NoError(t, router.Handle(context.Background(), env))
	require.Len(t, writer.rows, 1)
	row := writer.rows[0]
	assert.Equal(t, env.EventID, row.EventID)
	assert.Equal(t, "order_created", row.EventType)
	assert.Equal(t, testOrderID.String(), row.OrderID)
	assert.Equal(t, "SP-1748772000000", row.OrderNumber)
	assert.Equal(t, "u1", *row.UserID)
	assert.Equal(t, "flagged", *row.Status)
	assert.Equal(t, int64(5), *row.ItemCount)
	assert.Equal(t, "57294.00", *row.TotalAmount)
	assert.Equal(t, "57194.50", *row.FinalAmount)
	assert.Equal(t, "99.50", *row.DiscountFromPoints)
	assert.Equal(t, "bundle-1", *row.BundleID)
	assert.Nil(t, row.SpinnerRewardCode)
	assert.Equal(t, int64(9), *row.SuspicionScore)
	assert.True(t, *row.NeedsManualVerification)
	assert.Equal(t, []string{"Rapid Scanning Time", "High Total Cart Value"}, row.TriggeredRules)
	assert.True(t, row.Payload.Valid)
}

func TestOrderFlaggedRow(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	env := envelopeFor(t, enums.EventOrderFlagged, payloads.OrderFlaggedEvent{
		OrderID:        testOrderID,
		OrderNumber:    "SP-2",
		UserID:         "u2",
		SuspicionScore: 5,
	})

	require.NoError(t, router.Handle(context.Background(), env))
	require.Len(t, writer.rows, 1)
	row := writer.rows[0]
	assert.Equal(t, "flagged", *row.Status)
	assert.True(t, *row.NeedsManualVerification)
	assert.NotNil(t, row.TriggeredRules)
	assert.Empty(t, row.TriggeredRules)
}

func TestOrderVerifiedRowUsesVerificationTime(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	verifiedAt := time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC)
	env := envelopeFor(t, enums.EventOrderVerified, payloads.OrderVerifiedEvent{
		OrderID:        testOrderID,
		OrderNumber:    "SP-3",
		PreviousStatus: enums.OrderStatusPending,
		VerifiedBy:     "staff-1",
		VerifiedAt:     verifiedAt,
	})

	require.NoError(t, router.Handle(context.Background(), env))
	require.Len(t, writer.rows, 1)
	row := writer.rows[0]
	assert.Equal(t, "verified", *row.Status)
	assert.Equal(t, "staff-1", *row.Actor)
	assert.Equal(t, verifiedAt, row.OccurredAt)
	assert.Nil(t, row.SuspicionScore)
}

func TestOrderDeletedRow(t *testing.T) {
	router, writer := newTestRouter(t, nil)
	env := envelopeFor(t, enums.EventOrderDeleted, payloads.OrderDeletedEvent{
		OrderID:     testOrderID,
		OrderNumber: "SP-4",
		DeletedBy:   "staff-2",
	})

	require.NoError(t, router.Handle(context.Background(), env))
	require.Len(t, writer.rows, 1)
	assert.Equal(t, "order_deleted", writer.rows[0].EventType)
	assert.Equal(t, "staff-2", *writer.rows[0].Actor)
	assert.Nil(t, writer.rows[0].Status)
}

func TestWriterFailureSurfaces(t *testing.T) {
	writer := &stubWriter{err: errors.New("bigquery down")}
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test"}), nil)
	require.NoError(t, err)
	env := envelopeFor(t, enums.EventOrderDeleted, payloads.OrderDeletedEvent{OrderID: testOrderID, OrderNumber: "SP-5"})

	err = router.Handle(context.Background(), env)
	require.Error(t, err)
	var nonRetry registry.NonRetryableError
	assert.False(t, errors.As(err, &nonRetry), "writer failures stay retryable")
}

func newTestRouter(t *testing.T, overrides map[enums.OutboxEventType]Handler) (*Router, *stubWriter) {
	t.Helper()
	writer := &stubWriter{}
	router, err := NewRouter(writer, logger.New(logger.Options{ServiceName: "router-test"}), overrides)
	if err != nil {
		t.Fatalf("construct router: %v", err)
	}
	return router, writer
}

func envelopeFor(t *testing.T, eventType enums.OutboxEventType, payload any) types.Envelope {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return types.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   testOrderID.String(),
		Version:       1,
		OccurredAt:    time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		Payload:       data,
	}
}

type stubHandler struct {
	called  bool
	payload any
}

func (s *stubHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	s.called = true
	s.payload = payload
	return nil
}

type stubWriter struct {
	rows []types.OrderFactRow
	err  error
}

func (s *stubWriter) InsertOrderFact(ctx context.Context, row types.OrderFactRow) error {
	if s.err != nil {
		return s.err
	}
	s.rows = append(s.rows, row)
	return nil
}
