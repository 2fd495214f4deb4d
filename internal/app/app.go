// Package app wires configuration, storage and the matching services together for the entry points.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/imadgeboyega/kiekky-weekly/internal/common/database"
	"github.com/imadgeboyega/kiekky-weekly/internal/config"
	"github.com/imadgeboyega/kiekky-weekly/internal/matching"
	"github.com/imadgeboyega/kiekky-weekly/internal/storage/firestore"
	"github.com/imadgeboyega/kiekky-weekly/internal/storage/memory"
	"github.com/imadgeboyega/kiekky-weekly/internal/storage/postgres"
	"github.com/imadgeboyega/kiekky-weekly/internal/storage/redislock"
	"go.uber.org/zap"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Repo      matching.Repository
	Locker    matching.Locker
	Generator *matching.Generator
	Service   matching.Service

	closers []func() error
}

// New opens the configured store and lock and builds the services. Close releases them.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	repo, err := a.openStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo

	locker, err := a.openLocker(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Locker = locker

	a.Generator = matching.NewGenerator(repo,
		matching.WithEmitter(matching.MultiEmitter(
			matching.NewLogEmitter(logger),
			matching.NewMetricsEmitter(),
		)),
		matching.WithLocker(locker),
		matching.WithWriteConcurrency(cfg.WriteConcurrency),
		matching.WithLoadTimeout(cfg.LoadTimeout),
	)
	a.Service = matching.NewService(repo, a.Generator)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (matching.Repository, error) {
	cfg := a.Config

	switch cfg.StoreBackend {
	case config.StorePostgres:
		a.Logger.Info("connecting to postgres")
		db, err := database.NewPostgresDBFromURL(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)

		repo := postgres.NewRepository(db)
		if cfg.MigrateOnStart {
			a.Logger.Info("applying schema")
			if err := repo.Migrate(ctx); err != nil {
				return nil, err
			}
		}
		return repo, nil

	case config.StoreFirestore:
		a.Logger.Info("connecting to firestore", zap.String("project", cfg.FirestoreProjectID))
		client, err := firestore.NewClient(ctx, firestore.ClientConfig{
			ProjectID:       cfg.FirestoreProjectID,
			CredentialsFile: cfg.FirestoreCredentialsFile,
			CredentialsJSON: cfg.FirestoreCredentialsJSON,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Close)
		return firestore.NewRepository(client), nil

	case config.StoreMemory:
		if cfg.FixtureFile == "" {
			a.Logger.Warn("memory store without fixture, starting empty")
			return memory.NewStore(), nil
		}
		a.Logger.Info("loading fixture", zap.String("file", cfg.FixtureFile))
		return memory.NewStoreFromFixture(cfg.FixtureFile)

	default:
		return nil, fmt.Errorf("invalid store backend: %s", cfg.StoreBackend)
	}
}

// openLocker prefers Redis so runs are exclusive across processes; without it the lock only
// covers this process.
func (a *App) openLocker(ctx context.Context) (matching.Locker, error) {
	if a.Config.RedisURL == "" {
		a.Logger.Warn("redis not configured, using in-process run lock")
		return memory.NewLocker(), nil
	}

	client, err := database.NewRedisClientFromURL(ctx, a.Config.RedisURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, client.Close)
	a.Logger.Info("using redis run lock", zap.Duration("ttl", a.Config.LockTTL))
	return redislock.New(client, a.Config.LockTTL), nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
