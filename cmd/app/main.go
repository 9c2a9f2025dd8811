package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/leporo/sqlf"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/api"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/relay"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	measurementservice "github.com/sbpr-app/sbpr_backend/internal/app/measurement"
	"github.com/sbpr-app/sbpr_backend/internal/app/messagebus"
	settingsservice "github.com/sbpr-app/sbpr_backend/internal/app/settings"
	transferservice "github.com/sbpr-app/sbpr_backend/internal/app/transfer"
	"github.com/sbpr-app/sbpr_backend/internal/config"
	"github.com/sbpr-app/sbpr_backend/internal/domain"
	"github.com/sbpr-app/sbpr_backend/internal/domain/measurement"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config/config.yaml", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	logger := initLogger(cfg)

	bus := messagebus.New(logger)
	bus.Register(measurement.EventRecorded, func(event domain.Event) error {
		logger.Info("processed new measurement event")
		return nil
	})

	sqlf.SetDialect(sqlf.NoDialect)

	db, err := storage.Open(cfg.DB.Path)
	if err != nil {
		panic("failed to open database: " + err.Error())
	}

	server := api.NewServer(
		api.Addr(cfg.Server.Host, cfg.Server.Port),
		api.Logger(logger),
		api.DBContext(storage.DB{DB: db}),
		api.MeasurementService(measurementservice.New(logger)),
		api.SettingsService(settingsservice.New(logger)),
		api.TransferService(transferservice.New(logger)),
		api.RelayClient(relay.NewClient(cfg.Relay.UpstreamURL, cfg.Relay.Timeout)),
		api.MessageBus(bus),
	)

	ctx := context.Background()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error)

	go func() {
		defer close(errCh)
		errCh <- server.Start()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server was not shutdown gracefully", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server closed with unexpected error", "error", err)
			}
		}
	}
	logger.Info("server shutdown")
}

func initLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	switch cfg.App.Env {
	case config.Development:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: true,
			Level:     slog.LevelDebug,
		})
	case config.Production:
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			AddSource: false,
			Level:     slog.LevelInfo,
		})
	default:
		panic("invalid env")
	}

	return slog.New(handler)
}
