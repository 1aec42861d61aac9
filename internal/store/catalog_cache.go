package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"loan-advisor/internal/models"
)

// CatalogCacheKey holds the JSON-encoded active product list.
const CatalogCacheKey = "advisor:catalog:active"

// CachedCatalog is a read-through Redis cache in front of another Catalog.
// Cache failures are logged and served from the underlying catalog.
type CachedCatalog struct {
	next   Catalog
	rdb    redis.Cmdable
	ttl    time.Duration
	logger Logger
}

func NewCachedCatalog(next Catalog, rdb redis.Cmdable, ttl time.Duration, log Logger) *CachedCatalog {
	return &CachedCatalog{next: next, rdb: rdb, ttl: ttl, logger: log}
}

func (c *CachedCatalog) ActiveLoans(ctx context.Context) ([]models.LoanProduct, error) {
	raw, err := c.rdb.Get(ctx, CatalogCacheKey).Bytes()
	switch {
	case err == nil:
		var loans []models.LoanProduct
		if jsonErr := json.Unmarshal(raw, &loans); jsonErr == nil {
			return loans, nil
		}
		c.logger.Warn("discarding undecodable catalog cache entry", map[string]interface{}{"key": CatalogCacheKey})
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("catalog cache read failed", map[string]interface{}{"error": err.Error()})
	}

	loans, err := c.next.ActiveLoans(ctx)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(loans); err == nil {
		if err := c.rdb.Set(ctx, CatalogCacheKey, payload, c.ttl).Err(); err != nil {
			c.logger.Warn("catalog cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return loans, nil
}

// GetLoan answers from the cached active list when possible.
func (c *CachedCatalog) GetLoan(ctx context.Context, id string) (*models.LoanProduct, error) {
	if raw, err := c.rdb.Get(ctx, CatalogCacheKey).Bytes(); err == nil {
		var loans []models.LoanProduct
		if json.Unmarshal(raw, &loans) == nil {
			for i := range loans {
				if loans[i].ID == id {
					return &loans[i], nil
				}
			}
		}
	}
	return c.next.GetLoan(ctx, id)
}

// Invalidate drops the cached list.
func (c *CachedCatalog) Invalidate(ctx context.Context) error {
	return c.rdb.Del(ctx, CatalogCacheKey).Err()
}
