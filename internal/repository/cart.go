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

func (q *Queries) FindCartByUserId(c context.Context, userId uuid.UUID) (Cart, error) {
	var cart Cart
	var items []byte
	var total pgtype.Numeric
	err := q.pool.QueryRow(
		c,
		"SELECT user_id, items, total, version, updated_at FROM carts WHERE user_id = $1",
		userId,
	).Scan(&cart.UserID, &items, &total, &cart.Version, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, inErrors.ErrCartNotFound
	}
	if err != nil {
		return Cart{}, err
	}
	if err := json.Unmarshal(items, &cart.Items); err != nil {
		return Cart{}, fmt.Errorf("failed unmarshaling cart items with error=%w", err)
	}
	cart.Total = decimalFromNumeric(total)
	return cart, nil
}

// SaveCart is a conditional write on the cart's version stamp. A cart with
// version 0 has never been persisted and is inserted; any other version must
// still match the stored row or the write fails with ErrCartConflict and the
// caller re-reads and retries.
func (q *Queries) SaveCart(c context.Context, cart Cart) (Cart, error) {
	items, err := json.Marshal(cart.Items)
	if err != nil {
		return Cart{}, fmt.Errorf("failed marshaling cart items with error=%w", err)
	}

	if cart.Version == 0 {
		tag, err := q.pool.Exec(
			c,
			`INSERT INTO carts (user_id, items, total, version, updated_at)
			 VALUES ($1, $2, $3, 1, now())
			 ON CONFLICT (user_id) DO NOTHING`,
			cart.UserID,
			items,
			numericFromDecimal(cart.Total),
		)
		if err != nil {
			return Cart{}, err
		}
		if tag.RowsAffected() == 0 {
			return Cart{}, inErrors.ErrCartConflict
		}
		cart.Version = 1
		return cart, nil
	}

	tag, err := q.pool.Exec(
		c,
		`UPDATE carts
		 SET items = $2, total = $3, version = version + 1, updated_at = now()
		 WHERE user_id = $1 AND version = $4`,
		cart.UserID,
		items,
		numericFromDecimal(cart.Total),
		cart.Version,
	)
	if err != nil {
		return Cart{}, err
	}
	if tag.RowsAffected() == 0 {
		return Cart{}, inErrors.ErrCartConflict
	}
	cart.Version++
	return cart, nil
}

func (q *Queries) DeleteCart(c context.Context, userId uuid.UUID) error {
	_, err := q.pool.Exec(c, "DELETE FROM carts WHERE user_id = $1", userId)
	return err
}
