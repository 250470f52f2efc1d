package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AliObeid01/dynamic-classified-api/infra/postgres"
	"github.com/AliObeid01/dynamic-classified-api/internal/seeder"
	"github.com/AliObeid01/dynamic-classified-api/pkg/config"
)

func main() {
	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, _ := zapConfig.Build()
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	zap.L().Info("Catalog seeder starting...")

	appConfig := config.Read()
	zap.L().Info("Seeder config loaded",
		zap.String("catalogAPIURL", appConfig.CatalogAPIURL),
	)

	pgRepository := postgres.NewPgRepository(
		appConfig.PostgresHost,
		appConfig.PostgresDatabase,
		appConfig.PostgresUsername,
		appConfig.PostgresPassword,
		appConfig.PostgresPort,
	)
	defer pgRepository.Close()

	client := seeder.NewClient(appConfig.CatalogAPIURL)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		zap.L().Info("Shutdown signal received, stopping seeder...")
		cancel()
	}()

	if err := seeder.NewSeeder(client, pgRepository).Run(ctx); err != nil {
		zap.L().Fatal("Catalog sync failed", zap.Error(err))
	}

	zap.L().Info("Your database is ready now")
}
