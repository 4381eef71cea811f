package router

import (
	"context"
	"fmt"

	"github.com/angelmondragon/scanpay-backend/internal/analytics/types"
	analyticswriter "github.com/angelmondragon/scanpay-backend/internal/analytics/writer"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/payloads"
)

type orderCreatedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderCreatedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderCreatedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", enums.EventOrderCreated)
	}
	logCtx := h.logg.WithOrderNumber(ctx, event.OrderNumber)

	row, err := baseRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order fact row", err)
		return err
	}
	row.OrderID = event.OrderID.String()
	row.OrderNumber = event.OrderNumber
	row.UserID = stringPtr(event.UserID)
	row.Status = stringPtr(event.Status.String())
	row.ItemCount = int64Ptr(int64(event.ItemCount))
	row.TotalAmount = numericPtr(event.TotalAmount)
	row.FinalAmount = numericPtr(event.FinalAmount)
	row.DiscountFromPoints = numericPtr(event.DiscountFromPoints)
	row.SpinnerDiscountAmount = numericPtr(event.SpinnerDiscountAmount)
	row.BundleDiscountAmount = numericPtr(event.BundleDiscountAmount)
	row.PointsRedeemed = int64Ptr(int64(event.PointsRedeemed))
	row.PointsEarned = int64Ptr(int64(event.PointsEarned))
	row.BundleID = optionalString(event.BundleID)
	row.SpinnerRewardCode = optionalString(event.SpinnerRewardCode)
	row.SuspicionScore = int64Ptr(int64(event.SuspicionScore))
	row.NeedsManualVerification = boolPtr(event.NeedsManualVerification)
	row.TriggeredRules = rulesOrEmpty(event.TriggeredRules)

	return insertFact(logCtx, h.writer, h.logg, row)
}

type orderFlaggedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderFlaggedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderFlaggedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", enums.EventOrderFlagged)
	}
	logCtx := h.logg.WithOrderNumber(ctx, event.OrderNumber)

	row, err := baseRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order fact row", err)
		return err
	}
	row.OrderID = event.OrderID.String()
	row.OrderNumber = event.OrderNumber
	row.UserID = stringPtr(event.UserID)
	row.Status = stringPtr(enums.OrderStatusFlagged.String())
	row.SuspicionScore = int64Ptr(int64(event.SuspicionScore))
	row.NeedsManualVerification = boolPtr(true)
	row.TriggeredRules = rulesOrEmpty(event.TriggeredRules)

	return insertFact(logCtx, h.writer, h.logg, row)
}

type orderVerifiedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderVerifiedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderVerifiedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", enums.EventOrderVerified)
	}
	logCtx := h.logg.WithOrderNumber(ctx, event.OrderNumber)

	row, err := baseRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order fact row", err)
		return err
	}
	row.OrderID = event.OrderID.String()
	row.OrderNumber = event.OrderNumber
	row.Status = stringPtr(enums.OrderStatusVerified.String())
	row.Actor = stringPtr(event.VerifiedBy)
	if !event.VerifiedAt.IsZero() {
		row.OccurredAt = event.VerifiedAt.UTC()
	}

	return insertFact(logCtx, h.writer, h.logg, row)
}

type orderDeletedHandler struct {
	writer Writer
	logg   *logger.Logger
}

func (h *orderDeletedHandler) Handle(ctx context.Context, envelope types.Envelope, payload any) error {
	event, ok := payload.(*payloads.OrderDeletedEvent)
	if !ok {
		return fmt.Errorf("invalid payload for %s", enums.EventOrderDeleted)
	}
	logCtx := h.logg.WithOrderNumber(ctx, event.OrderNumber)

	row, err := baseRow(envelope, event)
	if err != nil {
		h.logg.Error(logCtx, "failed to build order fact row", err)
		return err
	}
	row.OrderID = event.OrderID.String()
	row.OrderNumber = event.OrderNumber
	row.Actor = stringPtr(event.DeletedBy)

	return insertFact(logCtx, h.writer, h.logg, row)
}

func baseRow(envelope types.Envelope, event any) (types.OrderFactRow, error) {
	payloadJSON, err := analyticswriter.EncodeJSON(event)
	if err != nil {
		return types.OrderFactRow{}, fmt.Errorf("encode payload json: %w", err)
	}
	return types.OrderFactRow{
		EventID:        envelope.EventID,
		EventType:      string(envelope.EventType),
		OccurredAt:     envelope.OccurredAt.UTC(),
		TriggeredRules: []string{},
		Payload:        payloadJSON,
	}, nil
}

func insertFact(ctx context.Context, writer Writer, logg *logger.Logger, row types.OrderFactRow) error {
	if err := writer.InsertOrderFact(ctx, row); err != nil {
		logg.Error(ctx, "failed to insert order fact row", err)
		return err
	}
	logg.Info(logg.WithField(ctx, "event_type", row.EventType), "order fact row inserted")
	return nil
}

func rulesOrEmpty(rules []string) []string {
	if rules == nil {
		return []string{}
	}
	return rules
}
