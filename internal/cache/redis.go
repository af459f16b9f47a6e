// Package cache stores cart snapshots in Redis as one JSON document per owner.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/cartsession/internal/domain"
	"github.com/nikolayk812/cartsession/internal/port"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type Config struct {
	Prefix string
	TTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		Prefix: "cart:",
		TTL:    7 * 24 * time.Hour,
	}
}

type redisCartCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// New returns a CartCache backed by client. A zero TTL keeps snapshots forever.
func New(client *redis.Client, cfg Config) port.CartCache {
	return &redisCartCache{
		client: client,
		prefix: cfg.Prefix,
		ttl:    cfg.TTL,
	}
}

type cachedLine struct {
	LineID      uuid.UUID       `json:"line_id"`
	ProductID   string          `json:"product_id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
}

func (c *redisCartCache) Save(ctx context.Context, ownerID string, lines []domain.CartLine) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	if len(lines) == 0 {
		return c.Delete(ctx, ownerID)
	}

	data, err := json.Marshal(mapDomainToCached(lines))
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	if err := c.client.Set(ctx, c.key(ownerID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("client.Set: %w", err)
	}

	return nil
}

func (c *redisCartCache) Load(ctx context.Context, ownerID string) ([]domain.CartLine, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("ownerID is empty")
	}

	data, err := c.client.Get(ctx, c.key(ownerID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("client.Get: %w", err)
	}

	var cached []cachedLine
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil, fmt.Errorf("json.Unmarshal: %w", err)
	}

	lines, err := mapCachedToDomain(cached)
	if err != nil {
		return nil, fmt.Errorf("mapCachedToDomain: %w", err)
	}

	return lines, nil
}

func (c *redisCartCache) Delete(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return fmt.Errorf("ownerID is empty")
	}

	if err := c.client.Del(ctx, c.key(ownerID)).Err(); err != nil {
		return fmt.Errorf("client.Del: %w", err)
	}

	return nil
}

func (c *redisCartCache) key(ownerID string) string {
	return c.prefix + ownerID
}

func mapDomainToCached(lines []domain.CartLine) []cachedLine {
	cached := make([]cachedLine, 0, len(lines))

	for _, line := range lines {
		cached = append(cached, cachedLine{
			LineID:      line.ID,
			ProductID:   line.Product.ID,
			Name:        line.Product.Name,
			Price:       line.Product.Price.Amount,
			Currency:    line.Product.Price.Currency.String(),
			Image:       line.Product.Image,
			Description: line.Product.Description,
			Quantity:    line.Quantity,
		})
	}

	return cached
}

func mapCachedToDomain(cached []cachedLine) ([]domain.CartLine, error) {
	var lines []domain.CartLine

	for _, cl := range cached {
		unit, err := currency.ParseISO(cl.Currency)
		if err != nil {
			return nil, fmt.Errorf("currency[%s] is not valid: %w", cl.Currency, err)
		}

		lines = append(lines, domain.CartLine{
			ID: cl.LineID,
			Product: domain.Product{
				ID:          cl.ProductID,
				Name:        cl.Name,
				Price:       domain.Money{Amount: cl.Price, Currency: unit},
				Image:       cl.Image,
				Description: cl.Description,
			},
			Quantity: cl.Quantity,
		})
	}

	return lines, nil
}
