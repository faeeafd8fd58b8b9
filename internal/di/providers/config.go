// Package providers contains dependency injection providers for the DocShelf server.
package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/docshelf/docshelf-server/internal/config"
	"github.com/docshelf/docshelf-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(_ do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Format:      cfg.Logger.Format,
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.WithFields(map[string]any{
		"environment":     cfg.App.Environment,
		"log_level":       cfg.Logger.Level,
		"data_dir":        cfg.Storage.DataDir,
		"db_driver":       cfg.Database.Driver,
		"storage_backend": cfg.Storage.Backend,
	}).Info("Starting DocShelf Server")

	return log, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}
