package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/angelmondragon/scanpay-backend/internal/analytics/types"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/registry"
)

var ErrUnsupportedEventType = errors.New("unsupported analytics event type")

// Writer delivers BigQuery rows produced by analytics handlers.
type Writer interface {
	InsertOrderFact(ctx context.Context, row types.OrderFactRow) error
}

// Handler receives an envelope plus a decoded event payload.
type Handler interface {
	Handle(ctx context.Context, envelope types.Envelope, payload any) error
}

type payloadDecoder interface {
	Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error)
}

// Router dispatches order envelopes to the handler registered for each event type.
type Router struct {
	handlers map[enums.OutboxEventType]Handler
	decoders payloadDecoder
	logg     *logger.Logger
}

// NewRouter wires the default order handlers and allows overrides for specific events.
func NewRouter(writer Writer, logg *logger.Logger, overrides map[enums.OutboxEventType]Handler) (*Router, error) {
	if writer == nil {
		return nil, errors.New("writer is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}

	handlers := map[enums.OutboxEventType]Handler{
		enums.EventOrderCreated:  &orderCreatedHandler{writer: writer, logg: logg},
		enums.EventOrderFlagged:  &orderFlaggedHandler{writer: writer, logg: logg},
		enums.EventOrderVerified: &orderVerifiedHandler{writer: writer, logg: logg},
		enums.EventOrderDeleted:  &orderDeletedHandler{writer: writer, logg: logg},
	}
	for event, custom := range overrides {
		if _, ok := handlers[event]; !ok || custom == nil {
			continue
		}
		handlers[event] = custom
	}

	return &Router{
		handlers: handlers,
		decoders: registry.NewOrderDecoderRegistry(),
		logg:     logg,
	}, nil
}

// Handle decodes the envelope payload and dispatches it.
func (r *Router) Handle(ctx context.Context, envelope types.Envelope) error {
	handler, ok := r.handlers[envelope.EventType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnsupportedEventType, envelope.EventType)
	}
	if len(envelope.Payload) == 0 {
		return registry.NewNonRetryableError(fmt.Errorf("empty payload for %s", envelope.EventType))
	}
	version := envelope.Version
	if version <= 0 {
		version = 1
	}
	payload, err := r.decoders.Decode(envelope.EventType, version, envelope.Payload)
	if err != nil {
		return registry.NewNonRetryableError(fmt.Errorf("decode %s payload: %w", envelope.EventType, err))
	}
	return handler.Handle(ctx, envelope, payload)
}
