package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/angelmondragon/scanpay-backend/internal/analytics/router"
	"github.com/angelmondragon/scanpay-backend/internal/analytics/types"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/registry"
)

const (
	analyticsConsumerName = "analytics-order-facts"
	flushTimeout          = 10 * time.Second
)

// Handler processes one decoded order envelope.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope) error
}

// HandlerFunc adapts functions to the Handler interface.
type HandlerFunc func(ctx context.Context, envelope types.Envelope) error

// Handle calls the underlying function.
func (fn HandlerFunc) Handle(ctx context.Context, envelope types.Envelope) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, envelope)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *gcppubsub.Message)) error
}

type flusher interface {
	Flush(ctx context.Context) error
}

// Service consumes order events from Pub/Sub while honoring Redis idempotency.
type Service struct {
	subscription receiver
	handler      Handler
	flusher      flusher
	manager      idempotencyChecker
	logg         *logger.Logger
}

// NewService creates the order facts consumer. flush may be nil; when set it
// runs once after Receive returns so buffered rows are not lost on shutdown.
func NewService(subscription *gcppubsub.Subscriber, handler Handler, manager idempotencyChecker, flush flusher, logg *logger.Logger) (*Service, error) {
	if subscription == nil {
		return nil, errors.New("analytics subscription is required")
	}
	if handler == nil {
		return nil, errors.New("analytics handler is required")
	}
	if manager == nil {
		return nil, errors.New("idempotency manager is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	return &Service{
		subscription: subscription,
		handler:      handler,
		flusher:      flush,
		manager:      manager,
		logg:         logg,
	}, nil
}

// processResult tells Run how to settle the message. Malformed or
// undeliverable events are acked so they do not loop forever.
type processResult struct {
	nack bool
}

func deliveryAttempt(msg *gcppubsub.Message) int {
	if msg.DeliveryAttempt == nil {
		return 0
	}
	return *msg.DeliveryAttempt
}

// Run starts consuming analytics messages until the context is canceled.
func (s *Service) Run(ctx context.Context) error {
	err := s.subscription.Receive(ctx, func(innerCtx context.Context, msg *gcppubsub.Message) {
		if s.process(innerCtx, msg).nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
	if s.flusher != nil {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
		defer cancel()
		if flushErr := s.flusher.Flush(flushCtx); flushErr != nil {
			s.logg.Error(flushCtx, "failed to flush order facts on shutdown", flushErr)
		}
	}
	return err
}

func (s *Service) process(ctx context.Context, msg *gcppubsub.Message) processResult {
	fields := map[string]any{"message_id": msg.ID, "delivery_attempt": deliveryAttempt(msg)}
	logCtx := s.logg.WithFields(ctx, fields)

	envelope, err := s.buildEnvelope(msg)
	if err != nil {
		fields["error"] = err.Error()
		s.logg.Warn(s.logg.WithFields(ctx, fields), "invalid order event envelope")
		return processResult{}
	}
	fields["event_id"] = envelope.EventID
	fields["event_type"] = envelope.EventType
	fields["aggregate_type"] = envelope.AggregateType
	fields["aggregate_id"] = envelope.AggregateID
	fields["occurred_at"] = envelope.OccurredAt.Format(time.RFC3339Nano)
	logCtx = s.logg.WithFields(ctx, fields)

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		s.logg.Warn(logCtx, "invalid event id")
		return processResult{}
	}

	already, err := s.manager.CheckAndMarkProcessed(logCtx, analyticsConsumerName, eventID)
	if err != nil {
		s.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		s.logg.Info(logCtx, "event already processed")
		return processResult{}
	}

	if err := s.handler.Handle(logCtx, *envelope); err != nil {
		var nonRetry registry.NonRetryableError
		if errors.Is(err, router.ErrUnsupportedEventType) || errors.As(err, &nonRetry) {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "dropping undeliverable order event")
			return processResult{}
		}
		s.logg.Error(logCtx, "handler error", err)
		if delErr := s.manager.Delete(logCtx, analyticsConsumerName, eventID); delErr != nil {
			s.logg.Error(logCtx, "failed to release idempotency key", delErr)
		}
		return processResult{nack: true}
	}

	s.logg.Info(logCtx, "order event handled")
	return processResult{}
}

// buildEnvelope prefers envelope fields and falls back to message attributes,
// which the outbox publisher always sets.
func (s *Service) buildEnvelope(msg *gcppubsub.Message) (*types.Envelope, error) {
	var stored outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &stored); err != nil {
		return nil, fmt.Errorf("decode payload envelope: %w", err)
	}
	attr := func(key string) string { return strings.TrimSpace(msg.Attributes[key]) }

	eventType, err := enums.ParseOutboxEventType(attr("event_type"))
	if err != nil {
		return nil, fmt.Errorf("event_type: %w", err)
	}
	aggregateType, err := enums.ParseOutboxAggregateType(attr("aggregate_type"))
	if err != nil {
		return nil, fmt.Errorf("aggregate_type: %w", err)
	}
	aggregateID := attr("aggregate_id")
	if aggregateID == "" {
		return nil, errors.New("aggregate_id missing")
	}

	eventID := firstNonEmpty(strings.TrimSpace(stored.EventID), attr("event_id"))
	if eventID == "" {
		return nil, errors.New("event_id missing")
	}

	occurredAt := stored.OccurredAt
	if occurredAt.IsZero() {
		if parsed, err := time.Parse(time.RFC3339Nano, attr("created_at")); err == nil {
			occurredAt = parsed
		}
	}

	version := stored.Version
	if version == 0 {
		if v, err := strconv.Atoi(attr("version")); err == nil {
			version = v
		}
	}

	return &types.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Version:       version,
		OccurredAt:    occurredAt.UTC(),
		Payload:       stored.Data,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
