package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus - статус заказа.
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderConfirmed  OrderStatus = "confirmed"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

// PaymentStatus - статус оплаты заказа.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// OrderItem - позиция заказа. Название и цена фиксируются в момент оформления.
type OrderItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ShippingAddress - адрес доставки.
type ShippingAddress struct {
	FullName   string `json:"fullName" validate:"required,min=2,max=100"`
	Address    string `json:"address" validate:"required,min=5,max=200"`
	City       string `json:"city" validate:"required,min=2,max=100"`
	PostalCode string `json:"postalCode" validate:"required,min=3,max=20"`
	Phone      string `json:"phone" validate:"required,min=7,max=20"`
}

// Trimmed возвращает адрес без пробелов по краям полей.
func (a ShippingAddress) Trimmed() ShippingAddress {
	return ShippingAddress{
		FullName:   strings.TrimSpace(a.FullName),
		Address:    strings.TrimSpace(a.Address),
		City:       strings.TrimSpace(a.City),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

// Order - заказ покупателя.
type Order struct {
	ID                int64           `json:"id"`
	UserID            int64           `json:"userId"`
	OrderNumber       string          `json:"orderNumber"`
	Items             []OrderItem     `json:"items"`
	ShippingAddress   ShippingAddress `json:"shippingAddress"`
	PaymentMethod     string          `json:"paymentMethod"`
	Status            OrderStatus     `json:"status"`
	PaymentStatus     PaymentStatus   `json:"paymentStatus"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	ShippingCost      decimal.Decimal `json:"shippingCost"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	TrackingNumber    *string         `json:"trackingNumber"`
	Notes             string          `json:"notes"`
	AdminNotes        string          `json:"adminNotes"`
	CreatedAt         time.Time       `json:"createdAt"`
	UpdatedAt         time.Time       `json:"updatedAt"`
	EstimatedDelivery *time.Time      `json:"estimatedDelivery"`
}

// CartItem - строка корзины во входящем запросе.
type CartItem struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"required,gt=0,max=100"`
}

// OrderInput - данные для оформления заказа.
type OrderInput struct {
	Items           []CartItem      `json:"items" validate:"required,min=1,max=50,dive"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod" validate:"required,oneof=card paypal bank_transfer cash_on_delivery"`
	Notes           string          `json:"notes" validate:"max=500"`
}

// OrderUpdate - административное изменение заказа; nil означает «не менять».
type OrderUpdate struct {
	Status         *OrderStatus   `json:"status"`
	PaymentStatus  *PaymentStatus `json:"paymentStatus"`
	TrackingNumber *string        `json:"trackingNumber" validate:"omitempty,max=100"`
	AdminNotes     *string        `json:"notes" validate:"omitempty,max=1000"`
}

// Change - запись журнала изменений заказа.
type Change struct {
	Field    string `json:"field"`
	OldValue any    `json:"oldValue"`
	NewValue any    `json:"newValue"`
}

// OrderFilter - условия выборки заказов в хранилище.
type OrderFilter struct {
	UserID *int64       // nil - заказы всех пользователей
	Status *OrderStatus // nil - любой статус
}

// OrderQuery - параметры списка заказов.
type OrderQuery struct {
	Status    string
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
	AdminView bool
}

// OrderSummary - краткое представление заказа без деталей доставки и оплаты.
type OrderSummary struct {
	ID            int64           `json:"id"`
	OrderNumber   string          `json:"orderNumber"`
	Status        OrderStatus     `json:"status"`
	PaymentStatus PaymentStatus   `json:"paymentStatus"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ItemCount     int             `json:"itemCount"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// Summary возвращает краткое представление заказа.
func (o Order) Summary() OrderSummary {
	count := 0
	for _, it := range o.Items {
		count += it.Quantity
	}
	return OrderSummary{
		ID:            o.ID,
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		TotalAmount:   o.TotalAmount,
		ItemCount:     count,
		CreatedAt:     o.CreatedAt,
	}
}

// Page - страница результатов с общим числом записей.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
