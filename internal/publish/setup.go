package publish

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/a3tai/mcp-filing-extractor/internal/config"
)

// FromConfig connects every sink enabled in cfg. The returned close function
// releases the clients and is safe to call when no sink is configured.
func FromConfig(ctx context.Context, cfg *config.Config, fs afero.Fs, logger *zap.Logger) (*Publisher, func(), error) {
	var (
		sinks   []Sink
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && logger != nil {
				logger.Warn("failed to close publisher client", zap.Error(err))
			}
		}
	}
	fail := func(err error) (*Publisher, func(), error) {
		closeAll()
		return nil, func() {}, err
	}

	if cfg.GCSBucket != "" {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fail(fmt.Errorf("failed to create storage client: %w", err))
		}
		closers = append(closers, client.Close)
		sinks = append(sinks, NewGCSSink(BucketStore(client, cfg.GCSBucket), fs, DefaultObjectPrefix))
	}

	if cfg.FirestoreProject != "" {
		client, err := firestore.NewClient(ctx, cfg.FirestoreProject)
		if err != nil {
			return fail(fmt.Errorf("failed to create firestore client: %w", err))
		}
		closers = append(closers, client.Close)
		sinks = append(sinks, NewFirestoreSink(FirestoreStore(client), cfg.FirestoreCollection))
	}

	if cfg.PostgresDSN != "" {
		pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
		if err != nil {
			return fail(fmt.Errorf("failed to connect to database: %w", err))
		}
		closers = append(closers, func() error { pool.Close(); return nil })

		sink := NewPostgresSink(pool)
		if err := sink.EnsureSchema(ctx); err != nil {
			return fail(err)
		}
		sinks = append(sinks, sink)
	}

	return NewPublisher(logger, sinks...), closeAll, nil
}
