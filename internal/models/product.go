package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categories - допустимые категории товаров.
var Categories = []string{"electronics", "clothing", "books", "home", "sports", "toys", "beauty", "food"}

// Product - товар каталога.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Image       string          `json:"image"`
	IsActive    bool            `json:"isActive"`
	Featured    bool            `json:"featured"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ProductInput - данные для создания товара.
type ProductInput struct {
	Name        string          `json:"name" validate:"required,min=2,max=100"`
	Description string          `json:"description" validate:"max=1000"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"required,oneof=electronics clothing books home sports toys beauty food"`
	Stock       int             `json:"stock" validate:"gte=0"`
	Image       string          `json:"image" validate:"max=500"`
	IsActive    *bool           `json:"isActive"`
	Featured    bool            `json:"featured"`
}

// ProductPatch - частичное обновление товара; nil означает «не менять».
type ProductPatch struct {
	Name        *string          `json:"name" validate:"omitempty,min=2,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category" validate:"omitempty,oneof=electronics clothing books home sports toys beauty food"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Image       *string          `json:"image" validate:"omitempty,max=500"`
	IsActive    *bool            `json:"isActive"`
	Featured    *bool            `json:"featured"`
}

// ProductQuery - параметры публичного списка товаров.
type ProductQuery struct {
	Category  string
	Search    string
	Featured  *bool
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}
