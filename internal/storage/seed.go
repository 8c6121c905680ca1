package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/storefront/internal/models"
)

// DemoCatalog - демонстрационный набор товаров.
func DemoCatalog(now time.Time) []models.Product {
	p := func(name, desc, price, category string, stock int, featured bool) models.Product {
		return models.Product{
			Name:        name,
			Description: desc,
			Price:       decimal.RequireFromString(price),
			Category:    category,
			Stock:       stock,
			Image:       "/images/placeholder.png",
			IsActive:    true,
			Featured:    featured,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}
	return []models.Product{
		p("Wireless Headphones", "Over-ear headphones with noise cancelling", "89.99", "electronics", 25, true),
		p("Mechanical Keyboard", "Tenkeyless keyboard with brown switches", "64.50", "electronics", 40, false),
		p("Cotton T-Shirt", "Plain crew neck t-shirt", "12.00", "clothing", 120, false),
		p("Rain Jacket", "Lightweight waterproof jacket", "49.90", "clothing", 30, true),
		p("The Go Programming Language", "Donovan and Kernighan", "34.99", "books", 15, true),
		p("Ceramic Mug", "350 ml stoneware mug", "8.50", "home", 200, false),
		p("Yoga Mat", "6 mm non-slip mat", "22.00", "sports", 60, false),
		p("Building Blocks Set", "500 pieces", "29.99", "toys", 35, false),
		p("Face Cream", "Daily moisturiser, 50 ml", "15.75", "beauty", 80, false),
		p("Dark Chocolate", "85% cocoa, 100 g", "3.20", "food", 300, false),
	}
}

// SeedDemoCatalog добавляет демонстрационные товары, которых ещё нет в хранилище.
// Возвращает количество добавленных товаров.
func SeedDemoCatalog(ctx context.Context, store ProductStore, now time.Time) (int, error) {
	const op = "storage.SeedDemoCatalog"
	added := 0
	for _, p := range DemoCatalog(now) {
		_, err := store.GetProductByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, ErrNotFound) {
			return added, fmt.Errorf("%s: %w", op, err)
		}
		if _, err := store.CreateProduct(ctx, p); err != nil {
			return added, fmt.Errorf("%s: %w", op, err)
		}
		added++
	}
	return added, nil
}
