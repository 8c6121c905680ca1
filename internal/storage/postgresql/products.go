package postgresql

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/storefront/internal/models"
)

const productColumns = `id, name, description, price, category, stock, image, is_active, featured, created_at, updated_at`

func scanProduct(row rowScanner) (models.Product, error) {
	var p models.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Category, &p.Stock,
		&p.Image, &p.IsActive, &p.Featured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// CreateProduct сохраняет новый товар.
func (s *Storage) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	const op = "storage.postgresql.CreateProduct"
	if err := checkCtx(ctx, op); err != nil {
		return models.Product{}, err
	}

	query := `INSERT INTO products (name, description, price, category, stock, image,
			      is_active, featured, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			  RETURNING id`
	err := s.DB.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, product.Category, product.Stock,
		product.Image, product.IsActive, product.Featured, product.CreatedAt, product.UpdatedAt,
	).Scan(&product.ID)
	if err != nil {
		return models.Product{}, wrap(op, err)
	}
	return product, nil
}

// GetProduct возвращает товар по ID.
func (s *Storage) GetProduct(ctx context.Context, id int64) (models.Product, error) {
	const op = "storage.postgresql.GetProduct"
	if err := checkCtx(ctx, op); err != nil {
		return models.Product{}, err
	}
	p, err := scanProduct(s.DB.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return models.Product{}, wrap(op, err)
	}
	return p, nil
}

// GetProductByName возвращает товар по названию без учёта регистра.
func (s *Storage) GetProductByName(ctx context.Context, name string) (models.Product, error) {
	const op = "storage.postgresql.GetProductByName"
	if err := checkCtx(ctx, op); err != nil {
		return models.Product{}, err
	}
	p, err := scanProduct(s.DB.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE LOWER(name) = LOWER($1) LIMIT 1`, name))
	if err != nil {
		return models.Product{}, wrap(op, err)
	}
	return p, nil
}

// ListProducts возвращает все товары в порядке ID.
func (s *Storage) ListProducts(ctx context.Context) ([]models.Product, error) {
	const op = "storage.postgresql.ListProducts"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

const updateProductQuery = `UPDATE products
			  SET name = $1, description = $2, price = $3, category = $4, stock = $5,
			      image = $6, is_active = $7, featured = $8, updated_at = $9
			  WHERE id = $10`

// UpdateProduct обновляет товар.
func (s *Storage) UpdateProduct(ctx context.Context, product models.Product) error {
	const op = "storage.postgresql.UpdateProduct"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, updateProductQuery,
		product.Name, product.Description, product.Price, product.Category, product.Stock,
		product.Image, product.IsActive, product.Featured, product.UpdatedAt, product.ID)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}

// UpdateProducts обновляет несколько товаров в одной транзакции.
func (s *Storage) UpdateProducts(ctx context.Context, products []models.Product) error {
	const op = "storage.postgresql.UpdateProducts"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return wrap(op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, p := range products {
		res, err := tx.ExecContext(ctx, updateProductQuery,
			p.Name, p.Description, p.Price, p.Category, p.Stock,
			p.Image, p.IsActive, p.Featured, p.UpdatedAt, p.ID)
		if err != nil {
			return wrap(op, err)
		}
		if err := expectOne(fmt.Sprintf("%s: product %d", op, p.ID), res); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return wrap(op, err)
	}
	return nil
}

// DeleteProduct удаляет товар.
func (s *Storage) DeleteProduct(ctx context.Context, id int64) error {
	const op = "storage.postgresql.DeleteProduct"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	res, err := s.DB.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return wrap(op, err)
	}
	return expectOne(op, res)
}
