package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/cartsession/internal/cache"
	"github.com/nikolayk812/cartsession/internal/cart"
	"github.com/nikolayk812/cartsession/internal/config"
	"github.com/nikolayk812/cartsession/internal/port"
	"github.com/nikolayk812/cartsession/internal/remote"
	"github.com/nikolayk812/cartsession/internal/repository"
	"github.com/nikolayk812/cartsession/internal/session"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// cartSession bundles the store with the resources it was built from.
type cartSession struct {
	store  *cart.Store
	client *remote.Client
	close  func()
}

func (a *app) newRemoteClient(cred session.Credential) (*remote.Client, error) {
	timeout, err := a.cfg.RemoteTimeout()
	if err != nil {
		return nil, err
	}

	unit, err := a.cfg.CurrencyUnit()
	if err != nil {
		return nil, err
	}

	client, err := remote.New(remote.Config{
		BaseURL:  a.cfg.Remote.BaseURL,
		Token:    cred.Token,
		Currency: unit,
		ImageRewrite: remote.ImageHostRewrite{
			From: a.cfg.Remote.ImageHost.From,
			To:   a.cfg.Remote.ImageHost.To,
		},
		Timeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("remote.New: %w", err)
	}

	return client, nil
}

func (a *app) openSession(ctx context.Context) (*cartSession, error) {
	cred := session.FromToken(a.cfg.Session.Token)
	if cred.Expired(time.Now()) {
		a.logger.Warn("session token has expired, backend calls will likely be rejected",
			zap.Time("expires_at", cred.ExpiresAt))
	}

	client, err := a.newRemoteClient(cred)
	if err != nil {
		return nil, err
	}

	cartCache, closeCache, err := a.openCache(ctx)
	if err != nil {
		return nil, err
	}

	unit, err := a.cfg.CurrencyUnit()
	if err != nil {
		closeCache()
		return nil, err
	}

	store := cart.New(ctx, client, cartCache, cred,
		cart.WithLogger(a.logger),
		cart.WithCurrency(unit),
		cart.WithCacheRestore(a.cfg.Cache.RestoreAnonymous),
	)

	return &cartSession{
		store:  store,
		client: client,
		close: func() {
			store.Wait()
			closeCache()
		},
	}, nil
}

func (a *app) openCache(ctx context.Context) (port.CartCache, func(), error) {
	switch a.cfg.Cache.Backend {
	case config.CachePostgres:
		pool, err := pgxpool.New(ctx, a.cfg.Cache.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("pgxpool.New: %w", err)
		}
		return repository.NewCartCache(pool), pool.Close, nil

	case config.CacheRedis:
		ttl, err := a.cfg.RedisTTL()
		if err != nil {
			return nil, nil, err
		}

		client := redis.NewClient(&redis.Options{Addr: a.cfg.Cache.RedisAddr})
		closeFn := func() {
			if err := client.Close(); err != nil {
				a.logger.Warn("redis close failed", zap.Error(err))
			}
		}
		return cache.New(client, cache.Config{Prefix: a.cfg.Cache.RedisPrefix, TTL: ttl}), closeFn, nil

	default:
		return nil, func() {}, nil
	}
}
