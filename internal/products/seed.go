package products

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/scanpay-backend/pkg/db/models"
	"github.com/angelmondragon/scanpay-backend/pkg/logger"
)

type seedRow struct {
	id, name, description, category, qr, brand, weight string
	price, stock, reviews                               int64
	ratings                                             float64
}

var demoRows = []seedRow{
	{id: "1", name: "Toned Milk", description: "Fresh pasteurised toned milk", category: "Dairy", qr: "SP-DAIRY-001", brand: "Amul", weight: "1L", price: 68, stock: 120, reviews: 310, ratings: 4.4},
	{id: "2", name: "Wireless Bluetooth Headphones", description: "Over-ear headphones with 30h battery", category: "Electronics", qr: "SP-ELEC-002", brand: "boAt", price: 2999, stock: 40, reviews: 812, ratings: 4.3},
	{id: "3", name: "Organic Basmati Rice", description: "Aged long grain basmati rice", category: "Grocery", qr: "SP-GROC-003", brand: "India Gate", weight: "5kg", price: 649, stock: 80, reviews: 402, ratings: 4.5},
	{id: "4", name: "Cotton T-Shirt", description: "Crew neck combed cotton tee", category: "Apparel", qr: "SP-APPAREL-004", brand: "BasicWear", price: 499, stock: 60, reviews: 145, ratings: 4.0},
	{id: "5", name: "Laptop Backpack", description: "Water resistant 15.6 inch backpack", category: "Accessories", qr: "SP-ACC-005", brand: "Skybags", price: 2999, stock: 25, reviews: 230, ratings: 4.2},
	{id: "6", name: "Green Tea Bags", description: "Pack of 100 natural green tea bags", category: "Beverages", qr: "SP-BEV-006", brand: "Lipton", price: 299, stock: 90, reviews: 520, ratings: 4.1},
	{id: "7", name: "Stainless Steel Lunch Box", description: "Three tier insulated tiffin", category: "Home & Kitchen", qr: "SP-KITCHEN-007", brand: "Milton", price: 599, stock: 35, reviews: 98, ratings: 4.0},
	{id: "8", name: "Yoga Mat", description: "6mm anti-slip yoga mat", category: "Fitness", qr: "SP-FIT-008", brand: "Boldfit", price: 999, stock: 30, reviews: 660, ratings: 4.4},
	{id: "9", name: "Coffee Beans", description: "Medium roast arabica beans", category: "Beverages", qr: "SP-BEV-009", brand: "Blue Tokai", weight: "500g", price: 799, stock: 45, reviews: 375, ratings: 4.6},
	{id: "10", name: "LED Desk Lamp", description: "Dimmable desk lamp with USB port", category: "Home & Kitchen", qr: "SP-HOME-010", brand: "Philips", price: 1499, stock: 20, reviews: 188, ratings: 4.3},
	{id: "11", name: "Whey Protein Powder", description: "Chocolate flavoured whey protein", category: "Fitness", qr: "SP-FIT-011", brand: "MuscleBlaze", weight: "1kg", price: 2499, stock: 28, reviews: 940, ratings: 4.2},
	{id: "12", name: "Bluetooth Speaker", description: "Portable speaker with deep bass", category: "Electronics", qr: "SP-ELEC-012", brand: "JBL", price: 1999, stock: 32, reviews: 701, ratings: 4.5},
	{id: "13", name: "Vitamin C Skincare Serum", description: "Brightening face serum", category: "Beauty", qr: "SP-BEAUTY-013", brand: "Minimalist", weight: "30ml", price: 699, stock: 50, reviews: 1204, ratings: 4.3},
	{id: "14", name: "Notebook Set", description: "Set of 4 ruled notebooks", category: "Stationery", qr: "SP-STAT-014", brand: "Classmate", price: 399, stock: 100, reviews: 89, ratings: 4.1},
	{id: "15", name: "Insulated Water Bottle", description: "1L stainless steel bottle", category: "Fitness", qr: "SP-FIT-015", brand: "Milton", price: 599, stock: 70, reviews: 433, ratings: 4.4},
	{id: "16", name: "Gaming Mouse", description: "RGB mouse with adjustable DPI", category: "Electronics", qr: "SP-ELEC-016", brand: "Logitech", price: 1299, stock: 26, reviews: 512, ratings: 4.5},
	{id: "17", name: "Almond Oil", description: "Cold pressed sweet almond oil", category: "Beauty", qr: "SP-BEAUTY-017", brand: "Dabur", weight: "200ml", price: 249, stock: 64, reviews: 276, ratings: 4.2},
	{id: "18", name: "Board Game", description: "Family strategy board game", category: "Toys & Games", qr: "SP-TOYS-018", brand: "Funskool", price: 899, stock: 18, reviews: 154, ratings: 4.6},
	{id: "19", name: "Kitchen Knife Set", description: "Five piece stainless knife set", category: "Home & Kitchen", qr: "SP-KITCHEN-019", brand: "Pigeon", price: 1799, stock: 15, reviews: 120, ratings: 4.1},
	{id: "20", name: "Fast Phone Charger", description: "20W USB-C fast charger", category: "Electronics", qr: "SP-ELEC-020", brand: "Samsung", price: 799, stock: 55, reviews: 867, ratings: 4.4},
	{id: "21", name: "Honey (Pure)", description: "Raw forest honey", category: "Grocery", qr: "SP-GROC-021", brand: "Dabur", weight: "500g", price: 349, stock: 75, reviews: 690, ratings: 4.3},
	{id: "22", name: "Dark Chocolate", description: "70 percent cocoa dark chocolate", category: "Snacks", qr: "SP-FOOD-022", brand: "Amul", weight: "150g", price: 199, stock: 110, reviews: 358, ratings: 4.5},
	{id: "23", name: "Sunflower Oil", description: "Refined sunflower oil", category: "Grocery", qr: "SP-GROC-023", brand: "Fortune", weight: "1L", price: 189, stock: 95, reviews: 215, ratings: 4.0},
	{id: "24", name: "Extra Virgin Olive Oil", description: "Cold extracted olive oil", category: "Grocery", qr: "SP-GROC-024", brand: "Figaro", weight: "1L", price: 899, stock: 40, reviews: 167, ratings: 4.4},
	{id: "25", name: "Coconut Oil", description: "Pure coconut oil", category: "Grocery", qr: "SP-GROC-025", brand: "Parachute", weight: "1L", price: 299, stock: 85, reviews: 544, ratings: 4.5},
	{id: "26", name: "Whole Wheat Atta", description: "Stone ground whole wheat flour", category: "Grocery", qr: "SP-GROC-026", brand: "Aashirvaad", weight: "5kg", price: 289, stock: 90, reviews: 812, ratings: 4.4},
	{id: "27", name: "Multigrain Atta", description: "Six grain flour blend", category: "Grocery", qr: "SP-GROC-027", brand: "Aashirvaad", weight: "5kg", price: 349, stock: 60, reviews: 410, ratings: 4.3},

	{id: "prod-001", name: "Chewing Gum", description: "Fresh mint chewing gum", category: "Food & Beverages", qr: "SP-FOOD-001", brand: "FreshMint", price: 50, stock: 100, reviews: 156, ratings: 4.2},
	{id: "prod-002", name: "Basic T-Shirt", description: "Comfortable cotton t-shirt", category: "Apparel", qr: "SP-APPAREL-001", brand: "BasicWear", price: 899, stock: 50, reviews: 234, ratings: 4.1},
	{id: "prod-003", name: "Smart Speaker Echo", description: "Voice-controlled smart speaker", category: "Electronics", qr: "SP-AUDIO-001", brand: "EchoTech", price: 12999, stock: 25, reviews: 445, ratings: 4.6},
	{id: "prod-004", name: "Wireless Headphones", description: "Premium wireless headphones", category: "Electronics", qr: "SP-PHONE-001", brand: "AudioPro", price: 15999, stock: 30, reviews: 892, ratings: 4.7},
	{id: "prod-005", name: "Pencil Set", description: "Set of 12 graphite pencils", category: "Stationery", qr: "SP-STATIONARY-001", brand: "WriteRight", price: 150, stock: 75, reviews: 67, ratings: 4.0},
	{id: "prod-006", name: "Energy Bar", description: "Oats and nuts energy bar", category: "Food & Beverages", qr: "SP-FOOD-002", brand: "FitFuel", price: 120, stock: 60, reviews: 98, ratings: 4.3},
	{id: "prod-007", name: "Denim Jeans", description: "Slim fit stretch denim", category: "Apparel", qr: "SP-APPAREL-002", brand: "DenimCo", price: 2499, stock: 40, reviews: 321, ratings: 4.4},
	{id: "prod-008", name: "Coffee Mug", description: "Ceramic coffee mug", category: "Home & Kitchen", qr: "SP-KITCHEN-001", brand: "KitchenWare", price: 299, stock: 80, reviews: 123, ratings: 4.2},
}

// DemoCatalog returns the demo storefront catalog as raw records.
func DemoCatalog() []Record {
	out := make([]Record, 0, len(demoRows))
	for _, row := range demoRows {
		price := decimal.NewFromInt(row.price)
		stock := int(row.stock)
		reviews := int(row.reviews)
		rec := Record{
			ID:          row.id,
			Name:        &row.name,
			Description: &row.description,
			Price:       &price,
			QRCodeID:    &row.qr,
			Stock:       &stock,
			Category:    &row.category,
			Brand:       &row.brand,
			Ratings:     &row.ratings,
			NumReviews:  &reviews,
		}
		if row.weight != "" {
			rec.Weight = &row.weight
		}
		out = append(out, rec)
	}
	return out
}

// Seed normalizes records and upserts them. It returns the number of rows written.
func Seed(ctx context.Context, repo Repository, records []Record) (int, error) {
	rows := make([]models.Product, 0, len(records))
	for _, rec := range records {
		p, err := Normalize(rec)
		if err != nil {
			return 0, fmt.Errorf("normalize product %q: %w", rec.ID, err)
		}
		rows = append(rows, p.ToModel())
	}
	if err := repo.Upsert(ctx, rows); err != nil {
		return 0, fmt.Errorf("upsert products: %w", err)
	}
	return len(rows), nil
}

// SeedIfEmpty loads the demo catalog when the products table has no rows.
func SeedIfEmpty(ctx context.Context, repo Repository, logg *logger.Logger) error {
	n, err := repo.Count(ctx)
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if n > 0 {
		return nil
	}
	written, err := Seed(ctx, repo, DemoCatalog())
	if err != nil {
		return err
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "count", written), "seeded demo product catalog")
	}
	return nil
}
