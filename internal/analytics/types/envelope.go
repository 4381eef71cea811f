package types

import (
	"encoding/json"
	"time"

	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

// Envelope is an order event as delivered over Pub/Sub.
type Envelope struct {
	EventID       string                    `json:"event_id"`
	EventType     enums.OutboxEventType     `json:"event_type"`
	AggregateType enums.OutboxAggregateType `json:"aggregate_type"`
	AggregateID   string                    `json:"aggregate_id"`
	Version       int                       `json:"version"`
	OccurredAt    time.Time                 `json:"occurred_at"`
	Payload       json.RawMessage           `json:"payload"`
}
