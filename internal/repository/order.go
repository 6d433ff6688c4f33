package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	inErrors "github.com/sportshop/ecommerce/internal/errors"
)

const orderColumns = "id, user_id, user_email, items, total, shipping_address, payment_method, status, COALESCE(idempotency_key, ''), created_at"

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	var items []byte
	var total pgtype.Numeric
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.UserEmail,
		&items,
		&total,
		&o.ShippingAddress,
		&o.PaymentMethod,
		&o.Status,
		&o.IdempotencyKey,
		&o.CreatedAt,
	)
	if err != nil {
		return Order{}, err
	}
	if err := json.Unmarshal(items, &o.Items); err != nil {
		return Order{}, fmt.Errorf("failed unmarshaling order items with error=%w", err)
	}
	o.Total = decimalFromNumeric(total)
	return o, nil
}

// InsertOrder appends an immutable order record. When the order carries an
// idempotency key that has been recorded before, the previously created order
// is returned instead and the second result is true.
func (q *Queries) InsertOrder(c context.Context, order Order) (Order, bool, error) {
	var key interface{}
	if order.IdempotencyKey != "" {
		key = order.IdempotencyKey
	}

	items, err := json.Marshal(order.Items)
	if err != nil {
		return Order{}, false, fmt.Errorf("failed marshaling order items with error=%w", err)
	}

	tag, err := q.pool.Exec(
		c,
		`INSERT INTO orders (id, user_id, user_email, items, total, shipping_address, payment_method, status, idempotency_key)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (idempotency_key) DO NOTHING`,
		order.ID,
		order.UserID,
		order.UserEmail,
		items,
		numericFromDecimal(order.Total),
		order.ShippingAddress,
		order.PaymentMethod,
		order.Status,
		key,
	)
	if err != nil {
		return Order{}, false, err
	}
	if tag.RowsAffected() == 0 {
		existing, err := q.FindOrderByIdempotencyKey(c, order.IdempotencyKey)
		if err != nil {
			return Order{}, false, err
		}
		return existing, true, nil
	}

	inserted, err := q.FindOrderById(c, order.ID)
	if err != nil {
		return Order{}, false, err
	}
	return inserted, false, nil
}

func (q *Queries) FindOrderById(c context.Context, id uuid.UUID) (Order, error) {
	row := q.pool.QueryRow(
		c,
		"SELECT "+orderColumns+" FROM orders WHERE id = $1",
		id,
	)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, inErrors.ErrOrderNotFound
	}
	return o, err
}

func (q *Queries) FindOrdersByUserId(c context.Context, userId uuid.UUID) ([]Order, error) {
	rows, err := q.pool.Query(
		c,
		"SELECT "+orderColumns+" FROM orders WHERE user_id = $1 ORDER BY created_at DESC",
		userId,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (q *Queries) FindOrderByIdempotencyKey(c context.Context, key string) (Order, error) {
	if key == "" {
		return Order{}, inErrors.ErrOrderNotFound
	}
	row := q.pool.QueryRow(
		c,
		"SELECT "+orderColumns+" FROM orders WHERE idempotency_key = $1",
		key,
	)
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, inErrors.ErrOrderNotFound
	}
	return o, err
}
