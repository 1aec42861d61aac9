// cmd/advisor-server/storage.go
package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"loan-advisor/internal/common/config"
	"loan-advisor/internal/common/database"
	"loan-advisor/internal/common/logger"
	"loan-advisor/internal/store"
	"loan-advisor/pkg/seed"
)

// storage holds the selected backends and the clients behind them.
type storage struct {
	Conversations store.ConversationStore
	Catalog       store.Catalog
	Pingers       []database.Pinger

	postgres *database.PostgresClient
	redis    *database.RedisClient
}

func openStorage(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (*storage, error) {
	s := &storage{}

	if cfg.UsesPostgres() {
		err := retryWithBackoff(func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				pg.Close()
				return err
			}
			s.postgres = pg
			return nil
		}, 5, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		s.Pingers = append(s.Pingers, s.postgres)
		zapLog.Info("PostgreSQL connected successfully")
	}

	if cfg.UsesRedis() {
		err := retryWithBackoff(func() error {
			rdb, err := database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rdb.Ping(ctx); err != nil {
				rdb.Close()
				return err
			}
			s.redis = rdb
			return nil
		}, 5, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			s.Close()
			return nil, err
		}
		s.Pingers = append(s.Pingers, s.redis)
		zapLog.Info("Redis connected successfully")
	}

	switch cfg.Storage.Conversations {
	case config.BackendPostgres:
		s.Conversations = store.NewPostgresConversations(s.postgres.DB)
	case config.BackendRedis:
		s.Conversations = store.NewRedisConversations(s.redis.Client, config.GetDuration(cfg.Storage.ConversationTTL))
	default:
		s.Conversations = store.NewMemoryConversations()
	}

	catalog, err := s.openCatalog(cfg, zapLog)
	if err != nil {
		s.Close()
		return nil, err
	}
	if ttl := cfg.Storage.CatalogCacheTTL; ttl > 0 && s.redis != nil {
		catalog = store.NewCachedCatalog(catalog, s.redis.Client, config.GetDuration(ttl), log)
	}
	s.Catalog = catalog

	return s, nil
}

func (s *storage) openCatalog(cfg *config.Config, zapLog *zap.Logger) (store.Catalog, error) {
	switch cfg.Storage.Catalog {
	case config.BackendPostgres:
		return store.NewPostgresCatalog(s.postgres.DB), nil
	case config.BackendElasticsearch:
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, fmt.Errorf("elasticsearch client: %w", err)
		}
		s.Pingers = append(s.Pingers, es)
		return store.NewElasticsearchCatalog(es.Client, cfg.Database.Elasticsearch.LoanIndex), nil
	default:
		loans, err := seed.LoadCatalog(cfg.Storage.CatalogSeedPath)
		if err != nil {
			return nil, fmt.Errorf("load catalog seed %s: %w", cfg.Storage.CatalogSeedPath, err)
		}
		zapLog.Info("Loaded in-memory loan catalog", zap.Int("loans", len(loans)))
		return store.NewMemoryCatalog(loans), nil
	}
}

// Close releases the database connections.
func (s *storage) Close() {
	if s.postgres != nil {
		s.postgres.Close()
	}
	if s.redis != nil {
		s.redis.Close()
	}
}
