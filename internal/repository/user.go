package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	inErrors "github.com/sportshop/ecommerce/internal/errors"
)

const userColumns = "id, email, password, name, address, created_at"

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &u.Address, &u.CreatedAt)
	return u, err
}

func (q *Queries) InsertUser(c context.Context, user User) (User, error) {
	row := q.pool.QueryRow(
		c,
		`INSERT INTO users (id, email, password, name, address)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+userColumns,
		user.ID,
		user.Email,
		user.Password,
		user.Name,
		user.Address,
	)
	return scanUser(row)
}

func (q *Queries) FindUserByEmail(c context.Context, email string) (User, error) {
	row := q.pool.QueryRow(
		c,
		"SELECT "+userColumns+" FROM users WHERE email = $1",
		email,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, inErrors.ErrInvalidCredentials
	}
	return u, err
}

func (q *Queries) FindUserById(c context.Context, id uuid.UUID) (User, error) {
	row := q.pool.QueryRow(
		c,
		"SELECT "+userColumns+" FROM users WHERE id = $1",
		id,
	)
	u, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, inErrors.ErrInvalidCredentials
	}
	return u, err
}
