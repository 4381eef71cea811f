package products

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/scanpay-backend/pkg/errors"
)

const (
	DefaultCurrency = "INR"
	DefaultImageURL = "/placeholder.svg"
	DefaultCategory = "General"
	maxRating       = 5.0
)

// Product is the strict catalog schema the pricing engine works with.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	Currency        string          `json:"currency"`
	QRCodeID        string          `json:"qrCodeId"`
	Stock           int             `json:"stock"`
	ImageURL        string          `json:"imageURL"`
	Category        string          `json:"category"`
	Brand           *string         `json:"brand,omitempty"`
	Weight          *string         `json:"weight,omitempty"`
	Ratings         float64         `json:"ratings"`
	NumReviews      int             `json:"numReviews"`
	NutritionalInfo *string         `json:"nutritionalInfo,omitempty"`
}

// Record is a loosely structured catalog entry as it arrives from imports or seeds.
// Every field is optional; Normalize resolves defaults and rejects what cannot be defaulted.
type Record struct {
	ID              string           `json:"id"`
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Price           *decimal.Decimal `json:"price"`
	Currency        *string          `json:"currency"`
	QRCodeID        *string          `json:"qrCodeId"`
	Stock           *int             `json:"stock"`
	ImageURL        *string          `json:"imageURL"`
	Category        *string          `json:"category"`
	Brand           *string          `json:"brand"`
	Weight          *string          `json:"weight"`
	Ratings         *float64         `json:"ratings"`
	NumReviews      *int             `json:"numReviews"`
	NutritionalInfo *string          `json:"nutritionalInfo"`
}

// Normalize converts a Record into a Product.
//
// Defaults: description "", currency INR, qrCodeId = id, stock 0, imageURL placeholder,
// category General, ratings 0 (clamped to [0,5]), numReviews 0. Blank optional strings become nil.
func Normalize(rec Record) (Product, error) {
	id := strings.TrimSpace(rec.ID)
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	name := trimmed(rec.Name)
	if name == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product name is required").
			WithDetails(map[string]any{"productId": id})
	}
	if rec.Price == nil {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product price is required").
			WithDetails(map[string]any{"productId": id})
	}
	if rec.Price.IsNegative() {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product price must be non-negative").
			WithDetails(map[string]any{"productId": id})
	}

	p := Product{
		ID:              id,
		Name:            name,
		Description:     trimmed(rec.Description),
		Price:           *rec.Price,
		Currency:        strings.ToUpper(orDefault(trimmed(rec.Currency), DefaultCurrency)),
		QRCodeID:        orDefault(trimmed(rec.QRCodeID), id),
		ImageURL:        orDefault(trimmed(rec.ImageURL), DefaultImageURL),
		Category:        orDefault(trimmed(rec.Category), DefaultCategory),
		Brand:           optional(rec.Brand),
		Weight:          optional(rec.Weight),
		NutritionalInfo: optional(rec.NutritionalInfo),
	}

	if rec.Stock != nil {
		if *rec.Stock < 0 {
			return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product stock must be non-negative").
				WithDetails(map[string]any{"productId": id})
		}
		p.Stock = *rec.Stock
	}
	if rec.Ratings != nil {
		p.Ratings = clampRating(*rec.Ratings)
	}
	if rec.NumReviews != nil && *rec.NumReviews > 0 {
		p.NumReviews = *rec.NumReviews
	}
	return p, nil
}

func clampRating(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > maxRating:
		return maxRating
	default:
		return v
	}
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func optional(v *string) *string {
	t := trimmed(v)
	if t == "" {
		return nil
	}
	return &t
}

// FromModel maps a persisted row into the catalog schema.
func FromModel(m models.Product) Product {
	return Product{
		ID:              m.ID,
		Name:            m.Name,
		Description:     m.Description,
		Price:           m.Price,
		Currency:        m.Currency,
		QRCodeID:        m.QRCodeID,
		Stock:           m.Stock,
		ImageURL:        m.ImageURL,
		Category:        m.Category,
		Brand:           m.Brand,
		Weight:          m.Weight,
		Ratings:         m.Ratings,
		NumReviews:      m.NumReviews,
		NutritionalInfo: m.NutritionalInfo,
	}
}

// ToModel maps the catalog schema onto the products table.
func (p Product) ToModel() models.Product {
	return models.Product{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Price:           p.Price,
		Currency:        p.Currency,
		QRCodeID:        p.QRCodeID,
		Stock:           p.Stock,
		ImageURL:        p.ImageURL,
		Category:        p.Category,
		Brand:           p.Brand,
		Weight:          p.Weight,
		Ratings:         p.Ratings,
		NumReviews:      p.NumReviews,
		NutritionalInfo: p.NutritionalInfo,
	}
}

// PriceBook maps product ids to current catalog prices.
type PriceBook map[string]decimal.Decimal

// NewPriceBook indexes the given products by id.
func NewPriceBook(items []Product) PriceBook {
	book := make(PriceBook, len(items))
	for _, p := range items {
		book[p.ID] = p.Price
	}
	return book
}

// Price returns the catalog price for id. Missing ids report ok=false.
func (b PriceBook) Price(id string) (decimal.Decimal, bool) {
	price, ok := b[id]
	return price, ok
}
