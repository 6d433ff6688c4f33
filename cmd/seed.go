package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/config"
	"github.com/sportshop/ecommerce/internal/infra"
	"github.com/sportshop/ecommerce/internal/log"
	"github.com/sportshop/ecommerce/internal/repository"
)

const seedFile = "seed/products.seed.json"

type seedProduct struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int32           `json:"stock"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
}

func runSeeder(c context.Context) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, common.AppSeeder).
		Str(log.KeyTag, "main runSeeder").
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing config").Logger()
	logger.Info().Msg("initializing config")
	c = logger.WithContext(c)
	cfg := config.InitConfig(c, common.AppSportShop)
	logger.Info().Msg("initialized config")

	logger = logger.With().Str(log.KeyProcess, "initializing database").Logger()
	logger.Info().Msg("initializing database")
	c = logger.WithContext(c)
	pool := infra.NewDatabaseClient(c, cfg.Database)
	defer pool.Close()
	logger.Info().Msg("initialized database")

	logger = logger.With().Str(log.KeyProcess, "reading seed file").Logger()
	logger.Info().Msgf("reading seed file %s", seedFile)
	raw, err := os.ReadFile(seedFile)
	if err != nil {
		err = fmt.Errorf("failed reading seed file with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	seeds := []seedProduct{}
	if err := json.Unmarshal(raw, &seeds); err != nil {
		err = fmt.Errorf("failed unmarshaling seed file with error=%w", err)
		logger.Fatal().Err(err).Msg(err.Error())
	}
	logger.Info().Msgf("read %d products from seed file", len(seeds))

	logger = logger.With().Str(log.KeyProcess, "inserting products").Logger()
	queries := repository.New(pool)
	for _, seed := range seeds {
		product, err := queries.InsertProduct(c, repository.InsertProductParams{
			Name:        seed.Name,
			Category:    seed.Category,
			Price:       seed.Price,
			Stock:       seed.Stock,
			Description: seed.Description,
			Image:       seed.Image,
		})
		if err != nil {
			logger.Error().
				Err(err).
				Str(log.KeyProductName, seed.Name).
				Msg("failed inserting product")
			continue
		}
		logger.Info().
			Str(log.KeyProductID, product.ID.String()).
			Str(log.KeyProductName, product.Name).
			Msg("inserted product")
	}
	logger.Info().Msg("seeding finished")
}
