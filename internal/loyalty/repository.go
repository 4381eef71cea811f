package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
)

// Repository persists loyalty accounts and their point events.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindOrCreate(ctx context.Context, userID string, openingBalance int) (*models.LoyaltyAccount, bool, error)
	CompareAndSwapBalance(ctx context.Context, userID string, version, balance int) (bool, error)
	AppendEvents(ctx context.Context, events []models.LoyaltyEvent) error
	ListEvents(ctx context.Context, userID string, limit int) ([]models.LoyaltyEvent, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindOrCreate returns the account for userID, inserting it with openingBalance when
// absent. created reports whether this call inserted the row.
func (r *repository) FindOrCreate(ctx context.Context, userID string, openingBalance int) (*models.LoyaltyAccount, bool, error) {
	var acct models.LoyaltyAccount
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error
	if err == nil {
		return &acct, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	acct = models.LoyaltyAccount{UserID: userID, Balance: openingBalance}
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&acct)
	if res.Error != nil {
		return nil, false, res.Error
	}
	created := res.RowsAffected == 1

	if !created {
		if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&acct).Error; err != nil {
			return nil, false, err
		}
	}
	return &acct, created, nil
}

// CompareAndSwapBalance writes balance only when the stored version still matches.
func (r *repository) CompareAndSwapBalance(ctx context.Context, userID string, version, balance int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.LoyaltyAccount{}).
		Where("user_id = ? AND version = ?", userID, version).
		Updates(map[string]any{
			"balance":    balance,
			"version":    version + 1,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AppendEvents(ctx context.Context, events []models.LoyaltyEvent) error {
	if len(events) == 0 {
		return nil
	}
	for i := range events {
		if events[i].ID == uuid.Nil {
			events[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *repository) ListEvents(ctx context.Context, userID string, limit int) ([]models.LoyaltyEvent, error) {
	var events []models.LoyaltyEvent
	q := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}
