package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/enums"
	"github.com/angelmondragon/scanpay-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByExitQRCode(ctx context.Context, code string) (*models.Order, error)
	List(ctx context.Context, filter ListFilter) ([]models.Order, error)
	MarkVerified(ctx context.Context, id uuid.UUID, verifiedBy string, at time.Time) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error)
}

// ListFilter narrows order listings. Zero values mean no filter.
type ListFilter struct {
	Status *enums.OrderStatus
	UserID string
	Limit  int
	// After resumes a listing strictly past the given row.
	After *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("order_number = ?", orderNumber).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByExitQRCode(ctx context.Context, code string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("exit_qr_code = ?", code).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns newest orders first.
func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.Order, error) {
	limit := pagination.NormalizeLimit(filter.Limit)
	q := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.Status != nil {
		q = q.Where("status = ?", *filter.Status)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.After != nil {
		q = q.Where("created_at < ? OR (created_at = ? AND order_number < ?)",
			filter.After.CreatedAt, filter.After.CreatedAt, filter.After.Key)
	}
	var out []models.Order
	if err := q.Order("created_at DESC").Order("order_number DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkVerified flips the order to verified unless it already is. It reports
// whether a row changed.
func (r *repository) MarkVerified(ctx context.Context, id uuid.UUID, verifiedBy string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status <> ?", id, enums.OrderStatusVerified).
		Updates(map[string]any{
			"status":      enums.OrderStatusVerified,
			"verified_at": at,
			"verified_by": verifiedBy,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Order{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) CountByStatus(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	var rows []struct {
		Status enums.OrderStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[enums.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out, nil
}
