package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/log"
)

func Start() {
	logger := log.InitLogger("/var/log/sport-shop.log", os.Getenv("APP_ENV")).
		With().
		Str(log.KeyAppName, common.AppSportShop).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	rootCmd := &cobra.Command{Use: "sport-shop"}
	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "server",
			Short: "Run the storefront api server",
			Run: func(cmd *cobra.Command, args []string) {
				runServer(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Seed the product catalog",
			Run: func(cmd *cobra.Command, args []string) {
				runSeeder(cmd.Context())
			},
		},
	)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}
