package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox"
	"github.com/angelmondragon/scanpay-backend/pkg/outbox/payloads"
)

type decoderFunc func(payload json.RawMessage) (interface{}, error)

type registryKey struct {
	eventType enums.OutboxEventType
	version   int
}

// DecoderRegistry stores versioned payload decoders for consumers.
type DecoderRegistry struct {
	mtx      sync.RWMutex
	registry map[registryKey]decoderFunc
}

// NewDecoderRegistry builds an empty decoder registry.
func NewDecoderRegistry() *DecoderRegistry {
	return &DecoderRegistry{registry: make(map[registryKey]decoderFunc)}
}

// NewOrderDecoderRegistry registers the v1 decoders for every order event.
func NewOrderDecoderRegistry() *DecoderRegistry {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderCreated, 1, typedDecoder[payloads.OrderCreatedEvent]())
	reg.Register(enums.EventOrderFlagged, 1, typedDecoder[payloads.OrderFlaggedEvent]())
	reg.Register(enums.EventOrderVerified, 1, typedDecoder[payloads.OrderVerifiedEvent]())
	reg.Register(enums.EventOrderDeleted, 1, typedDecoder[payloads.OrderDeletedEvent]())
	return reg
}

// Register stores a decoder for the given event type and version.
func (r *DecoderRegistry) Register(eventType enums.OutboxEventType, version int, decoder decoderFunc) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	r.registry[registryKey{eventType: eventType, version: version}] = decoder
}

// Decode runs the decoder registered for the event type and version.
func (r *DecoderRegistry) Decode(eventType enums.OutboxEventType, version int, payload json.RawMessage) (interface{}, error) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	if decoder, ok := r.registry[registryKey{eventType: eventType, version: version}]; ok {
		return decoder(payload)
	}
	return nil, fmt.Errorf("decoder not registered for %s@v%d", eventType, version)
}

// DecodeMessage unwraps a published envelope and decodes its data. Failures
// are non-retryable since redelivery cannot fix a malformed message.
func (r *DecoderRegistry) DecodeMessage(eventType enums.OutboxEventType, data []byte) (outbox.PayloadEnvelope, interface{}, error) {
	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return envelope, nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	payload, err := r.Decode(eventType, envelope.Version, envelope.Data)
	if err != nil {
		return envelope, nil, NewNonRetryableError(err)
	}
	return envelope, payload, nil
}

func typedDecoder[T any]() decoderFunc {
	return func(payload json.RawMessage) (interface{}, error) {
		var decoded T
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return &decoded, nil
	}
}
