package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sportshop/ecommerce/internal/cart/otel"
	inErrors "github.com/sportshop/ecommerce/internal/errors"
	"github.com/sportshop/ecommerce/internal/log"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/repository"
)

// maxSaveRetries bounds how often a save is retried after losing a
// concurrent update race on the same cart.
const maxSaveRetries = 3

type CartService struct {
	carts    repository.CartStore
	products repository.ProductStore
}

func NewCartService(carts repository.CartStore, products repository.ProductStore) CartService {
	return CartService{carts: carts, products: products}
}

// GetCart returns the user's cart. A user who never added anything gets an
// empty cart, not an error.
func (svc CartService) GetCart(c context.Context, userId uuid.UUID) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService GetCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService GetCart").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyProcess, "finding cart in database").
		Logger()

	logger.Info().Msg("finding cart in database")
	cart, err := svc.carts.FindCartByUserId(c, userId)
	if err != nil {
		if errors.Is(err, inErrors.ErrCartNotFound) {
			logger.Info().Msg("cart not found, returning empty cart")
			return emptyCart(userId), nil
		}
		err = fmt.Errorf("failed finding cart for userId=%s with error=%w", userId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	logger.Info().Any(log.KeyCart, cart).Msg("found cart in database")

	return cart, nil
}

// AddItem puts quantity units of a product into the cart, merging with an
// existing line for the same product. The stock check here is advisory only,
// checkout re-verifies against the authoritative count.
func (svc CartService) AddItem(
	c context.Context,
	userId uuid.UUID,
	productId uuid.UUID,
	quantity int32,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService AddItem").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyProductID, productId.String()).
		Int32(log.KeyQuantity, quantity).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product").Logger()
	logger.Info().Msg("finding product")
	product, err := svc.products.FindProductById(c, productId)
	if err != nil {
		err = fmt.Errorf(
			"failed finding productId=%s with error=%w",
			productId.String(),
			err,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Cart{}, err
	}
	logger.Info().Msg("found product")

	var lastErr error
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
		cart, err := svc.carts.FindCartByUserId(c, userId)
		if err != nil {
			if !errors.Is(err, inErrors.ErrCartNotFound) {
				err = fmt.Errorf(
					"failed finding cart for userId=%s with error=%w",
					userId.String(),
					err,
				)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return repository.Cart{}, err
			}
			cart = emptyCart(userId)
		}

		logger = logger.With().Str(log.KeyProcess, "merging item into cart").Logger()
		merged := false
		for i, item := range cart.Items {
			if item.ProductID != productId {
				continue
			}
			if item.Quantity+quantity > product.Stock {
				err := fmt.Errorf(
					"%w for product: %s",
					inErrors.ErrInsufficientStock,
					product.Name,
				)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return repository.Cart{}, err
			}
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
		if !merged {
			if quantity > product.Stock {
				err := fmt.Errorf(
					"%w for product: %s",
					inErrors.ErrInsufficientStock,
					product.Name,
				)
				inOtel.RecordError(err, span)
				logger.Error().Err(err).Msg(err.Error())
				return repository.Cart{}, err
			}
			cart.Items = append(cart.Items, repository.CartItem{
				ProductID: product.ID,
				Name:      product.Name,
				Price:     product.Price,
				Quantity:  quantity,
				Image:     product.Image,
			})
		}
		cart.Total = computeTotal(cart.Items)

		logger = logger.With().
			Str(log.KeyProcess, "saving cart").
			Int64(log.KeyCartVersion, cart.Version).
			Logger()
		logger.Info().Msg("saving cart")
		saved, err := svc.carts.SaveCart(c, cart)
		if err == nil {
			logger.Info().
				Int(log.KeyCartItems, len(saved.Items)).
				Str(log.KeyCartTotal, saved.Total.String()).
				Msg("saved cart")
			return saved, nil
		}
		if !errors.Is(err, inErrors.ErrCartConflict) {
			err = fmt.Errorf("failed saving cart with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Cart{}, err
		}
		lastErr = err
		logger.Info().Msg("cart was modified concurrently, retrying")
	}

	lastErr = fmt.Errorf("failed saving cart after %d attempts with error=%w", maxSaveRetries, lastErr)
	inOtel.RecordError(lastErr, span)
	logger.Error().Err(lastErr).Msg(lastErr.Error())
	return repository.Cart{}, lastErr
}

// RemoveItem drops a product line from the cart entirely.
func (svc CartService) RemoveItem(
	c context.Context,
	userId uuid.UUID,
	productId uuid.UUID,
) (repository.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService RemoveItem").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyProductID, productId.String()).
		Logger()

	var lastErr error
	for attempt := 0; attempt < maxSaveRetries; attempt++ {
		logger = logger.With().Str(log.KeyProcess, "loading cart").Logger()
		logger.Info().Msg("loading cart")
		cart, err := svc.carts.FindCartByUserId(c, userId)
		if err != nil {
			if errors.Is(err, inErrors.ErrCartNotFound) {
				logger.Info().Msg("cart not found, returning empty cart")
				return emptyCart(userId), nil
			}
			err = fmt.Errorf(
				"failed finding cart for userId=%s with error=%w",
				userId.String(),
				err,
			)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Cart{}, err
		}

		logger = logger.With().Str(log.KeyProcess, "removing item from cart").Logger()
		items := make([]repository.CartItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			if item.ProductID == productId {
				continue
			}
			items = append(items, item)
		}
		cart.Items = items
		cart.Total = computeTotal(cart.Items)

		logger = logger.With().
			Str(log.KeyProcess, "saving cart").
			Int64(log.KeyCartVersion, cart.Version).
			Logger()
		logger.Info().Msg("saving cart")
		saved, err := svc.carts.SaveCart(c, cart)
		if err == nil {
			logger.Info().
				Int(log.KeyCartItems, len(saved.Items)).
				Str(log.KeyCartTotal, saved.Total.String()).
				Msg("saved cart")
			return saved, nil
		}
		if !errors.Is(err, inErrors.ErrCartConflict) {
			err = fmt.Errorf("failed saving cart with error=%w", err)
			inOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return repository.Cart{}, err
		}
		lastErr = err
		logger.Info().Msg("cart was modified concurrently, retrying")
	}

	lastErr = fmt.Errorf("failed saving cart after %d attempts with error=%w", maxSaveRetries, lastErr)
	inOtel.RecordError(lastErr, span)
	logger.Error().Err(lastErr).Msg(lastErr.Error())
	return repository.Cart{}, lastErr
}

// ClearCart removes the cart row. Reading it afterwards yields an empty cart.
func (svc CartService) ClearCart(c context.Context, userId uuid.UUID) error {
	c, span := otel.Tracer.Start(c, "CartService ClearCart")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "CartService ClearCart").
		Str(log.KeyUserID, userId.String()).
		Str(log.KeyProcess, "deleting cart").
		Logger()

	logger.Info().Msg("deleting cart")
	if err := svc.carts.DeleteCart(c, userId); err != nil {
		err = fmt.Errorf("failed deleting cart for userId=%s with error=%w", userId.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted cart")

	return nil
}

func emptyCart(userId uuid.UUID) repository.Cart {
	return repository.Cart{
		UserID:    userId,
		Items:     []repository.CartItem{},
		Total:     decimal.Zero,
		Version:   0,
		UpdatedAt: time.Now(),
	}
}

func computeTotal(items []repository.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt32(item.Quantity)))
	}
	return total
}
