package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/scanpay-backend/pkg/enums"
)

// LoyaltyAccount holds a user's point balance. Version guards concurrent settles.
type LoyaltyAccount struct {
	UserID    string    `gorm:"column:user_id;primaryKey"`
	Balance   int       `gorm:"column:balance;not null"`
	Version   int       `gorm:"column:version;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// LoyaltyEvent is an append-only record of a point movement.
type LoyaltyEvent struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	UserID       string                 `gorm:"column:user_id;not null;index"`
	OrderID      *uuid.UUID             `gorm:"column:order_id;type:uuid"`
	Type         enums.LoyaltyEventType `gorm:"column:type;type:loyalty_event_type;not null"`
	Points       int                    `gorm:"column:points;not null"`
	BalanceAfter int                    `gorm:"column:balance_after;not null"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
}
