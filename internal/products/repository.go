package products

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
)

// Repository defines the persistence surface of the product catalog.
type Repository interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	FindByQRCode(ctx context.Context, qrCodeID string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Count(ctx context.Context) (int64, error)
	Upsert(ctx context.Context, rows []models.Product) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a gorm-backed product repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) FindByQRCode(ctx context.Context, qrCodeID string) (*models.Product, error) {
	var row models.Product
	if err := r.db.WithContext(ctx).Where("qr_code_id = ?", qrCodeID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) List(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	if err := r.db.WithContext(ctx).Order("category ASC").Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Upsert inserts rows, overwriting existing products with the same id.
func (r *repository) Upsert(ctx context.Context, rows []models.Product) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "description", "price", "currency", "qr_code_id", "stock", "image_url",
				"category", "brand", "weight", "ratings", "num_reviews", "nutritional_info", "updated_at",
			}),
		}).
		Create(&rows).Error
}
