package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/storefront/internal/models"
)

const orderColumns = `id, user_id, order_number, items, shipping_address, payment_method, status,
			      payment_status, subtotal, shipping_cost, total_amount, tracking_number, notes,
			      admin_notes, created_at, updated_at, estimated_delivery`

func scanOrder(row rowScanner) (models.Order, error) {
	var (
		o                 models.Order
		items, address    []byte
		status, payStatus string
		tracking          sql.NullString
		estimated         sql.NullTime
	)
	if err := row.Scan(&o.ID, &o.UserID, &o.OrderNumber, &items, &address, &o.PaymentMethod,
		&status, &payStatus, &o.Subtotal, &o.ShippingCost, &o.TotalAmount, &tracking, &o.Notes,
		&o.AdminNotes, &o.CreatedAt, &o.UpdatedAt, &estimated); err != nil {
		return models.Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return models.Order{}, fmt.Errorf("decode items: %w", err)
	}
	if err := json.Unmarshal(address, &o.ShippingAddress); err != nil {
		return models.Order{}, fmt.Errorf("decode shipping address: %w", err)
	}
	o.Status = models.OrderStatus(status)
	o.PaymentStatus = models.PaymentStatus(payStatus)
	if tracking.Valid {
		o.TrackingNumber = &tracking.String
	}
	if estimated.Valid {
		o.EstimatedDelivery = &estimated.Time
	}
	return o, nil
}

func encodeOrderJSON(o models.Order) (items, address []byte, err error) {
	if items, err = json.Marshal(o.Items); err != nil {
		return nil, nil, err
	}
	if address, err = json.Marshal(o.ShippingAddress); err != nil {
		return nil, nil, err
	}
	return items, address, nil
}

// CreateOrder сохраняет новый заказ.
func (s *Storage) CreateOrder(ctx context.Context, order models.Order) (models.Order, error) {
	const op = "storage.postgresql.CreateOrder"
	if err := checkCtx(ctx, op); err != nil {
		return models.Order{}, err
	}

	items, address, err := encodeOrderJSON(order)
	if err != nil {
		return models.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO orders (user_id, order_number, items, shipping_address, payment_method,
			      status, payment_status, subtotal, shipping_cost, total_amount, tracking_number,
			      notes, admin_notes, created_at, updated_at, estimated_delivery)
			  VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			  RETURNING id`
	err = s.DB.QueryRowContext(ctx, query,
		order.UserID, order.OrderNumber, string(items), string(address), order.PaymentMethod,
		string(order.Status), string(order.PaymentStatus), order.Subtotal, order.ShippingCost,
		order.TotalAmount, order.TrackingNumber, order.Notes, order.AdminNotes,
		order.CreatedAt, order.UpdatedAt, order.EstimatedDelivery,
	).Scan(&order.ID)
	if err != nil {
		return models.Order{}, wrap(op, err)
	}
	return order, nil
}

// GetOrder возвращает заказ по ID.
func (s *Storage) GetOrder(ctx context.Context, id int64) (models.Order, error) {
	const op = "storage.postgresql.GetOrder"
	if err := checkCtx(ctx, op); err != nil {
		return models.Order{}, err
	}
	o, err := scanOrder(s.DB.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return models.Order{}, wrap(op, err)
	}
	return o, nil
}

// UpdateOrder обновляет изменяемые поля заказа.
func (s *Storage) UpdateOrder(ctx context.Context, order models.Order) error {
	const op = "storage.postgresql.UpdateOrder"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE orders
			  SET status = $1, payment_status = $2, tracking_number = $3, admin_notes = $4,
			      updated_at = $5, estimated_delivery = $6
			  WHERE id = $7`
	res, err := s.DB.ExecContext(ctx, query,
		string(order.Status), string(order.PaymentStatus), order.TrackingNumber, order.AdminNotes,
		order.UpdatedAt, order.EstimatedDelivery, order.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}

// ListOrders возвращает заказы по фильтру в порядке ID.
func (s *Storage) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	const op = "storage.postgresql.ListOrders"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		conds = append(conds, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + orderColumns + ` FROM orders`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id`

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}
