package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog listing addressable by id or shelf QR code.
type Product struct {
	ID              string          `gorm:"column:id;primaryKey"`
	Name            string          `gorm:"column:name;not null"`
	Description     string          `gorm:"column:description;not null;default:''"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	Currency        string          `gorm:"column:currency;not null;default:'INR'"`
	QRCodeID        string          `gorm:"column:qr_code_id;not null;uniqueIndex"`
	Stock           int             `gorm:"column:stock;not null;default:0"`
	ImageURL        string          `gorm:"column:image_url;not null;default:''"`
	Category        string          `gorm:"column:category;not null;default:''"`
	Brand           *string         `gorm:"column:brand"`
	Weight          *string         `gorm:"column:weight"`
	Ratings         float64         `gorm:"column:ratings;not null;default:0"`
	NumReviews      int             `gorm:"column:num_reviews;not null;default:0"`
	NutritionalInfo *string         `gorm:"column:nutritional_info"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
