package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/canvasflow/canvasflow/pkg/persistence"
	"github.com/canvasflow/canvasflow/pkg/persistence/file"
	"github.com/canvasflow/canvasflow/pkg/persistence/postgresql"
	"github.com/canvasflow/canvasflow/pkg/persistence/redis"
)

// NewPersistence builds the persistence layer from a database URL. The URL
// scheme selects the backend: postgres://, redis://, or a directory path for
// file storage.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) persistence.Persistence {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		p, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return p
	case strings.HasPrefix(databaseURL, "redis://"), strings.HasPrefix(databaseURL, "rediss://"):
		p, err := redis.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			panic(err)
		}

		return p
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://"))
	}
}
