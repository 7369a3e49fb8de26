// Package seed loads a small demonstration catalogue for local development.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/domain"
	"github.com/hammad-gujjar/dacci-apparel-sub000/internal/pkg"
)

// Summary reports how many rows of each resource were inserted. Rows whose id
// already exists are skipped, so running the seed twice inserts nothing the
// second time.
type Summary map[string]int64

// Total is the number of inserted rows across all resources.
func (s Summary) Total() int64 {
	var n int64
	for _, v := range s {
		n += v
	}
	return n
}

// Run inserts the demonstration catalogue in one transaction.
func Run(ctx context.Context, db *gorm.DB, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	data := catalogue(time.Now().UTC())
	summary := Summary{}

	err := pkg.WithTx(ctx, db, func(tx *gorm.DB) error {
		for _, set := range data {
			res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(set.rows)
			if res.Error != nil {
				return fmt.Errorf("seed %s: %w", set.resource, res.Error)
			}
			summary[set.resource] = res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.InfoContext(ctx, "seed completed", slog.Int64("inserted", summary.Total()))
	return summary, nil
}

type rowSet struct {
	resource string
	rows     any
}

func base(id string, created time.Time) domain.BaseModel {
	return domain.BaseModel{ID: id, CreatedAt: created, UpdatedAt: created}
}

// catalogue returns the seed rows in foreign-key order. One product, one
// coupon and two media items start in the trash so every view has content.
func catalogue(now time.Time) []rowSet {
	at := func(minutes int) time.Time { return now.Add(-time.Duration(minutes) * time.Minute) }
	trashed := func(minutes int) *time.Time {
		t := at(minutes)
		return &t
	}

	categories := []domain.Category{
		{BaseModel: base("cat-men", at(300)), Name: "Men", Slug: "men"},
		{BaseModel: base("cat-women", at(299)), Name: "Women", Slug: "women"},
		{BaseModel: base("cat-kids", at(298)), Name: "Kids", Slug: "kids"},
	}

	products := []domain.Product{
		{BaseModel: base("prd-oxford", at(290)), Name: "Oxford Shirt", Slug: "oxford-shirt", CategoryID: "cat-men", MRP: 1999, SellingPrice: 1499, DiscountPercentage: 25, Media: []string{"med-oxford"}},
		{BaseModel: base("prd-chino", at(289)), Name: "Slim Chino", Slug: "slim-chino", CategoryID: "cat-men", MRP: 1499, SellingPrice: 1199, DiscountPercentage: 20},
		{BaseModel: base("prd-wrap", at(288)), Name: "Wrap Dress", Slug: "wrap-dress", CategoryID: "cat-women", MRP: 2499, SellingPrice: 1999, DiscountPercentage: 20, Media: []string{"med-wrap"}},
		{BaseModel: base("prd-dino", at(287)), Name: "Dino Tee", Slug: "dino-tee", CategoryID: "cat-kids", MRP: 499, SellingPrice: 399, DiscountPercentage: 20},
		{BaseModel: domain.BaseModel{ID: "prd-cap", CreatedAt: at(286), UpdatedAt: at(10), DeletedAt: trashed(10)}, Name: "Old Logo Cap", Slug: "old-logo-cap", CategoryID: "cat-kids", MRP: 299, SellingPrice: 199, DiscountPercentage: 33},
	}

	variants := []domain.Variant{
		{BaseModel: base("var-oxford-m", at(280)), ProductID: "prd-oxford", Color: "White", Size: "M", SKU: "OXF-WHT-M", MRP: 1999, SellingPrice: 1499, DiscountPercentage: 25},
		{BaseModel: base("var-oxford-l", at(279)), ProductID: "prd-oxford", Color: "White", Size: "L", SKU: "OXF-WHT-L", MRP: 1999, SellingPrice: 1499, DiscountPercentage: 25},
		{BaseModel: base("var-wrap-s", at(278)), ProductID: "prd-wrap", Color: "Rust", Size: "S", SKU: "WRP-RST-S", MRP: 2499, SellingPrice: 1999, DiscountPercentage: 20},
	}

	coupons := []domain.Coupon{
		{BaseModel: base("cpn-welcome", at(270)), Code: "WELCOME10", DiscountPercentage: 10, MinShoppingAmount: 999, Validity: now.AddDate(0, 3, 0).Format(time.DateOnly)},
		{BaseModel: domain.BaseModel{ID: "cpn-summer", CreatedAt: at(269), UpdatedAt: at(20), DeletedAt: trashed(20)}, Code: "SUMMER25", DiscountPercentage: 25, MinShoppingAmount: 1999, Validity: now.AddDate(0, -1, 0).Format(time.DateOnly)},
	}

	customers := []domain.Customer{
		{BaseModel: base("cus-asha", at(260)), Name: "Asha Verma", Email: "asha@example.com", Phone: "+91 98100 00001", Address: "12 Park Street, Kolkata", IsEmailVerified: true},
		{BaseModel: base("cus-ravi", at(259)), Name: "Ravi Nair", Email: "ravi@example.com", Phone: "+91 98100 00002", Address: "4 MG Road, Bengaluru"},
	}

	reviews := []domain.Review{
		{BaseModel: base("rev-1", at(250)), ProductID: "prd-oxford", CustomerID: "cus-asha", Rating: 5, Title: "Crisp fit", Review: "Holds shape after many washes."},
		{BaseModel: base("rev-2", at(249)), ProductID: "prd-dino", CustomerID: "cus-ravi", Rating: 4, Title: "Kids love it", Review: "Print is bright, sizing runs small."},
	}

	media := []domain.Media{
		{BaseModel: base("med-oxford", at(240)), AssetKey: "uploads/oxford.jpg", SecureURL: "https://cdn.example.com/uploads/oxford.jpg", Alt: "Oxford shirt", Title: "Oxford"},
		{BaseModel: base("med-wrap", at(239)), AssetKey: "uploads/wrap.jpg", SecureURL: "https://cdn.example.com/uploads/wrap.jpg", Alt: "Wrap dress", Title: "Wrap"},
		{BaseModel: base("med-banner", at(238)), AssetKey: "uploads/banner.jpg", SecureURL: "https://cdn.example.com/uploads/banner.jpg", Alt: "Sale banner", Title: "Banner"},
		{BaseModel: domain.BaseModel{ID: "med-old-1", CreatedAt: at(237), UpdatedAt: at(30), DeletedAt: trashed(30)}, AssetKey: "uploads/old-1.jpg", SecureURL: "https://cdn.example.com/uploads/old-1.jpg", Alt: "Retired shot"},
		{BaseModel: domain.BaseModel{ID: "med-old-2", CreatedAt: at(236), UpdatedAt: at(30), DeletedAt: trashed(30)}, AssetKey: "uploads/old-2.jpg", SecureURL: "https://cdn.example.com/uploads/old-2.jpg", Alt: "Retired shot"},
	}

	return []rowSet{
		{resource: "categories", rows: &categories},
		{resource: "products", rows: &products},
		{resource: "variants", rows: &variants},
		{resource: "coupons", rows: &coupons},
		{resource: "customers", rows: &customers},
		{resource: "reviews", rows: &reviews},
		{resource: "media", rows: &media},
	}
}
