package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/log"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/repository"
	"github.com/sportshop/ecommerce/internal/product/cache"
	"github.com/sportshop/ecommerce/internal/product/otel"
	"github.com/sportshop/ecommerce/product/pkg/request"
	"github.com/sportshop/ecommerce/product/pkg/response"
)

type ProductService struct {
	store repository.ProductStore
	cache *redis.Client
}

func NewProductService(store repository.ProductStore, cache *redis.Client) ProductService {
	return ProductService{store: store, cache: cache}
}

func (svc ProductService) FindProducts(
	c context.Context,
	param request.FindProducts,
) (response.ProductList, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProducts")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProducts").
		Str(log.KeyProcess, "finding products in database").
		Logger()

	page := param.Page
	if page < 1 {
		page = 1
	}
	limit := param.Limit
	if limit < 1 {
		limit = 10
	}

	logger.Info().Msg("finding products in database")
	products, total, err := svc.store.FindProducts(c, repository.FindProductsParams{
		Category: param.Category,
		Search:   param.Search,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		err = fmt.Errorf("failed finding products with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.ProductList{}, err
	}
	logger.Info().Msgf("found %d products (total: %d)", len(products), total)

	totalPages := total / int64(limit)
	if total%int64(limit) != 0 {
		totalPages++
	}
	return response.ProductList{
		Products: products,
		Pagination: response.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func (svc ProductService) FindProductById(
	c context.Context,
	id uuid.UUID,
) (repository.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService FindProductById")
	defer span.End()

	cacheKey := fmt.Sprintf(cache.KeyProducts, id.String())
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService FindProductById").
		Str(log.KeyProductID, id.String()).
		Str(log.KeyCacheKey, cacheKey).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding product in cache").Logger()
	logger.Trace().Msg("finding product in cache")
	jsonCache, err := svc.cache.Get(c, cacheKey).Result()
	if err == nil {
		product := repository.Product{}
		if err := json.Unmarshal([]byte(jsonCache), &product); err == nil {
			logger.Info().Msg("found product in cache")
			return product, nil
		}
		logger.Info().Err(err).Msg("failed unmarshaling cached product, falling back to db")
	}

	logger = logger.With().Str(log.KeyProcess, "finding product in database").Logger()
	logger.Info().Msg("finding product in database")
	product, err := svc.store.FindProductById(c, id)
	if err != nil {
		err = fmt.Errorf("failed finding productId=%s with error=%w", id.String(), err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Product{}, err
	}
	logger.Info().Msg("found product in database")

	logger = logger.With().Str(log.KeyProcess, "inserting product to cache").Logger()
	productJson, err := json.Marshal(product)
	if err == nil {
		if err := svc.cache.Set(c, cacheKey, productJson, cache.ProductTTL).Err(); err != nil {
			logger.Info().Err(err).Msg("failed inserting product to cache")
		}
	}

	return product, nil
}

func (svc ProductService) InsertProduct(
	c context.Context,
	param request.InsertProduct,
) (repository.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService InsertProduct")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService InsertProduct").
		Str(log.KeyProductName, param.Name).
		Str(log.KeyProcess, "inserting product to database").
		Logger()

	logger.Info().Msg("inserting product to database")
	product, err := svc.store.InsertProduct(c, repository.InsertProductParams{
		Name:        param.Name,
		Category:    param.Category,
		Price:       param.Price,
		Stock:       param.Stock,
		Description: param.Description,
		Image:       param.Image,
	})
	if err != nil {
		err = fmt.Errorf("failed inserting product with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Product{}, err
	}
	logger.Info().Msg("inserted product to database")

	return product, nil
}

// DecrementStock performs the atomic conditional decrement and drops the
// cached copy so reads after a sale observe the new count.
func (svc ProductService) DecrementStock(
	c context.Context,
	id uuid.UUID,
	quantity int32,
) (repository.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService DecrementStock")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService DecrementStock").
		Str(log.KeyProductID, id.String()).
		Int32(log.KeyQuantity, quantity).
		Str(log.KeyProcess, "decrementing product stock").
		Logger()

	logger.Info().Msg("decrementing product stock")
	product, err := svc.store.DecrementProductStock(c, id, quantity)
	if err != nil {
		err = fmt.Errorf(
			"failed decrementing stock for productId=%s with error=%w",
			id.String(),
			err,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Product{}, err
	}
	logger = logger.With().Int32(log.KeyProductStock, product.Stock).Logger()
	logger.Info().Msg("decremented product stock")

	svc.invalidateCache(c, logger, id)

	return product, nil
}

// IncrementStock compensates an earlier decrement from the same checkout.
func (svc ProductService) IncrementStock(
	c context.Context,
	id uuid.UUID,
	quantity int32,
) (repository.Product, error) {
	c, span := otel.Tracer.Start(c, "ProductService IncrementStock")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "ProductService IncrementStock").
		Str(log.KeyProductID, id.String()).
		Int32(log.KeyQuantity, quantity).
		Str(log.KeyProcess, "incrementing product stock").
		Logger()

	logger.Info().Msg("incrementing product stock")
	product, err := svc.store.IncrementProductStock(c, id, quantity)
	if err != nil {
		err = fmt.Errorf(
			"failed incrementing stock for productId=%s with error=%w",
			id.String(),
			err,
		)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return repository.Product{}, err
	}
	logger = logger.With().Int32(log.KeyProductStock, product.Stock).Logger()
	logger.Info().Msg("incremented product stock")

	svc.invalidateCache(c, logger, id)

	return product, nil
}

func (svc ProductService) invalidateCache(c context.Context, logger zerolog.Logger, id uuid.UUID) {
	cacheKey := fmt.Sprintf(cache.KeyProducts, id.String())
	if err := svc.cache.Del(c, cacheKey).Err(); err != nil {
		logger.Info().
			Str(log.KeyCacheKey, cacheKey).
			Err(err).
			Msg("failed deleting product from cache")
	}
}
