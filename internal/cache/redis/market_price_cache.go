package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/bazaarbot/internal/domain"
)

// MarketPriceCache implements domain.MarketPriceCache using Redis hashes.
// Each template's tracked market price is stored at key "mktprice:{id}" with
// fields "price" and "ts" (Unix second timestamp). Prices are whole currency
// units per single item.
type MarketPriceCache struct {
	rdb *redis.Client
}

// NewMarketPriceCache creates a MarketPriceCache backed by the given Client.
func NewMarketPriceCache(c *Client) *MarketPriceCache {
	return &MarketPriceCache{rdb: c.rdb}
}

func marketPriceKey(templateID string) string {
	return "mktprice:" + templateID
}

// SetPrice stores the tracked market price for a template.
func (mc *MarketPriceCache) SetPrice(ctx context.Context, templateID string, price int64, ts time.Time) error {
	fields := map[string]interface{}{
		"price": strconv.FormatInt(price, 10),
		"ts":    strconv.FormatInt(ts.Unix(), 10),
	}
	if err := mc.rdb.HSet(ctx, marketPriceKey(templateID), fields).Err(); err != nil {
		return fmt.Errorf("redis: set market price %s: %w", templateID, err)
	}
	return nil
}

// GetPrice retrieves the tracked market price for a template. It returns
// domain.ErrNotFound when no price is tracked.
func (mc *MarketPriceCache) GetPrice(ctx context.Context, templateID string) (int64, error) {
	vals, err := mc.rdb.HGetAll(ctx, marketPriceKey(templateID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis: get market price %s: %w", templateID, err)
	}
	priceStr, ok := vals["price"]
	if !ok {
		return 0, domain.ErrNotFound
	}
	price, err := strconv.ParseInt(priceStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis: parse market price %s: %w", templateID, err)
	}
	return price, nil
}

// Compile-time interface check.
var _ domain.MarketPriceCache = (*MarketPriceCache)(nil)
