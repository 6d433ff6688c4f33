package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// CartItem is a price/name snapshot taken when the item was added to the
// cart; later product mutations do not affect it.
type CartItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int32           `json:"quantity"`
	Image     string          `json:"image"`
}

type Cart struct {
	UserID    uuid.UUID       `json:"userId"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	Version   int64           `json:"version"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

type Order struct {
	ID              uuid.UUID       `json:"id"`
	UserID          uuid.UUID       `json:"userId"`
	UserEmail       string          `json:"userEmail"`
	Items           []CartItem      `json:"items"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress string          `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Status          string          `json:"status"`
	IdempotencyKey  string          `json:"-"`
	CreatedAt       time.Time       `json:"createdAt"`
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

type FindProductsParams struct {
	Category string
	Search   string
	Page     int32
	Limit    int32
}

type InsertProductParams struct {
	Name        string
	Category    string
	Price       decimal.Decimal
	Stock       int32
	Description string
	Image       string
}

type ProductStore interface {
	FindProducts(c context.Context, param FindProductsParams) ([]Product, int64, error)
	FindProductById(c context.Context, id uuid.UUID) (Product, error)
	InsertProduct(c context.Context, param InsertProductParams) (Product, error)
	DecrementProductStock(c context.Context, id uuid.UUID, quantity int32) (Product, error)
	IncrementProductStock(c context.Context, id uuid.UUID, quantity int32) (Product, error)
}

type CartStore interface {
	FindCartByUserId(c context.Context, userId uuid.UUID) (Cart, error)
	SaveCart(c context.Context, cart Cart) (Cart, error)
	DeleteCart(c context.Context, userId uuid.UUID) error
}

type OrderStore interface {
	InsertOrder(c context.Context, order Order) (Order, bool, error)
	FindOrderById(c context.Context, id uuid.UUID) (Order, error)
	FindOrdersByUserId(c context.Context, userId uuid.UUID) ([]Order, error)
	FindOrderByIdempotencyKey(c context.Context, key string) (Order, error)
}

type UserStore interface {
	InsertUser(c context.Context, user User) (User, error)
	FindUserByEmail(c context.Context, email string) (User, error)
	FindUserById(c context.Context, id uuid.UUID) (User, error)
}

type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}
