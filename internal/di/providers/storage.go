package providers

import (
	"context"
	"fmt"

	"github.com/samber/do/v2"

	"github.com/docshelf/docshelf-server/internal/blob"
	"github.com/docshelf/docshelf-server/internal/config"
	"github.com/docshelf/docshelf-server/internal/logger"
)

// ProvideBlobStorage provides the document file storage for the configured backend.
func ProvideBlobStorage(i do.Injector) (blob.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	switch cfg.Storage.Backend {
	case config.BackendS3:
		s3cfg := cfg.Storage.S3
		storage, err := blob.NewS3(context.Background(), blob.S3Config{
			Bucket:    s3cfg.Bucket,
			Region:    s3cfg.Region,
			Endpoint:  s3cfg.Endpoint,
			AccessKey: s3cfg.AccessKey,
			SecretKey: s3cfg.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 storage: %w", err)
		}
		log.Info("Blob storage initialized", "backend", config.BackendS3, "bucket", s3cfg.Bucket)
		return storage, nil

	case config.BackendLocal, "":
		storage, err := blob.NewLocal(cfg.Storage.PublicDir)
		if err != nil {
			return nil, fmt.Errorf("local storage: %w", err)
		}
		log.Info("Blob storage initialized", "backend", config.BackendLocal, "path", cfg.Storage.PublicDir)
		return storage, nil

	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
	}
}
