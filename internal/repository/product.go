package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	inErrors "github.com/sportshop/ecommerce/internal/errors"
)

const productColumns = "id, name, category, price, stock, description, image, created_at, updated_at"

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	var price pgtype.Numeric
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Category,
		&price,
		&p.Stock,
		&p.Description,
		&p.Image,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Product{}, err
	}
	p.Price = decimalFromNumeric(price)
	return p, nil
}

func (q *Queries) FindProducts(
	c context.Context,
	param FindProductsParams,
) ([]Product, int64, error) {
	where := " WHERE 1=1"
	args := []interface{}{}
	if param.Category != "" {
		args = append(args, param.Category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if param.Search != "" {
		args = append(args, "%"+param.Search+"%")
		where += fmt.Sprintf(" AND (name ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}

	var total int64
	err := q.pool.QueryRow(c, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	page := param.Page
	if page < 1 {
		page = 1
	}
	limit := param.Limit
	if limit < 1 {
		limit = 10
	}
	args = append(args, limit, (page-1)*limit)
	query := "SELECT " + productColumns + " FROM products" + where +
		fmt.Sprintf(" ORDER BY name LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := q.pool.Query(c, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	products := []Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, p)
	}
	return products, total, rows.Err()
}

func (q *Queries) FindProductById(c context.Context, id uuid.UUID) (Product, error) {
	row := q.pool.QueryRow(
		c,
		"SELECT "+productColumns+" FROM products WHERE id = $1",
		id,
	)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, inErrors.ErrProductNotFound
	}
	return p, err
}

func (q *Queries) InsertProduct(
	c context.Context,
	param InsertProductParams,
) (Product, error) {
	row := q.pool.QueryRow(
		c,
		`INSERT INTO products (id, name, category, price, stock, description, image)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+productColumns,
		uuid.New(),
		param.Name,
		param.Category,
		numericFromDecimal(param.Price),
		param.Stock,
		param.Description,
		param.Image,
	)
	return scanProduct(row)
}

// DecrementProductStock is the hard stock check: a single conditional update
// that only applies when enough stock remains. Concurrent decrements on the
// same product serialize on the row, so stock can never go negative.
func (q *Queries) DecrementProductStock(
	c context.Context,
	id uuid.UUID,
	quantity int32,
) (Product, error) {
	row := q.pool.QueryRow(
		c,
		`UPDATE products
		 SET stock = stock - $2, updated_at = now()
		 WHERE id = $1 AND stock >= $2
		 RETURNING `+productColumns,
		id,
		quantity,
	)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// either the product is unknown or the precondition failed
		if _, probeErr := q.FindProductById(c, id); probeErr != nil {
			return Product{}, probeErr
		}
		return Product{}, inErrors.ErrInsufficientStock
	}
	return p, err
}

// IncrementProductStock is the compensating operation for a previously
// succeeded decrement.
func (q *Queries) IncrementProductStock(
	c context.Context,
	id uuid.UUID,
	quantity int32,
) (Product, error) {
	row := q.pool.QueryRow(
		c,
		`UPDATE products
		 SET stock = stock + $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+productColumns,
		id,
		quantity,
	)
	p, err := scanProduct(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, inErrors.ErrProductNotFound
	}
	return p, err
}
