package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	catalogapp "github.com/dwikikusuma/supershop-pos/internal/catalog/app"
	catalogmem "github.com/dwikikusuma/supershop-pos/internal/catalog/infra/memory"
	catalogpg "github.com/dwikikusuma/supershop-pos/internal/catalog/infra/postgres"
	"github.com/dwikikusuma/supershop-pos/internal/catalog/infra/rediscache"
	catalogsqlite "github.com/dwikikusuma/supershop-pos/internal/catalog/infra/sqlite"
	orderapp "github.com/dwikikusuma/supershop-pos/internal/order/app"
	ordermem "github.com/dwikikusuma/supershop-pos/internal/order/infra/memory"
	orderpg "github.com/dwikikusuma/supershop-pos/internal/order/infra/postgres"
	ordersqlite "github.com/dwikikusuma/supershop-pos/internal/order/infra/sqlite"
	"github.com/dwikikusuma/supershop-pos/migrations"
	"github.com/dwikikusuma/supershop-pos/pkg/config"
	"github.com/dwikikusuma/supershop-pos/pkg/postgres"
	"github.com/dwikikusuma/supershop-pos/pkg/sqlite"
)

type stores struct {
	db      *sql.DB
	redis   *redis.Client
	catalog catalogapp.EntryRepo
	orders  orderapp.OrderRepo
}

func openStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*stores, error) {
	st := &stores{}

	switch cfg.StoreDriver {
	case "memory":
		st.catalog = catalogmem.NewEntryRepo()
		st.orders = ordermem.NewOrderRepo()
	case "sqlite":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(db, migrations.SQLite, "sqlite"); err != nil {
			db.Close()
			return nil, err
		}
		st.db = db
		st.catalog = catalogsqlite.NewEntryRepo(db)
		st.orders = ordersqlite.NewOrderRepo(db)
	case "postgres":
		db, err := postgres.Open(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(db, migrations.Postgres, "postgres"); err != nil {
			db.Close()
			return nil, err
		}
		st.db = db
		st.catalog = catalogpg.NewEntryRepo(db)
		st.orders = orderpg.NewOrderRepo(db)
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	log.Info("store ready", slog.String("driver", cfg.StoreDriver))

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			st.Close()
			return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
		}
		st.redis = client
		st.catalog = rediscache.NewCachedRepo(st.catalog, client, log)
		log.Info("redis ready", slog.String("addr", cfg.RedisAddr))
	}

	return st, nil
}

func (s *stores) ping(ctx context.Context) error {
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.PingContext(ctx))
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Ping(ctx).Err())
	}
	return errors.Join(errs...)
}

func (s *stores) Close() error {
	var errs []error
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}
