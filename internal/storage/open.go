package storage

import (
	"context"
	"fmt"

	"kinotut-bot/internal/catalog"
	"kinotut-bot/internal/config"
)

// Backend is a catalog.Store that can also seed an empty catalog and release its connection.
type Backend interface {
	catalog.Store
	Init(ctx context.Context) error
	Close(ctx context.Context) error
}

var (
	_ Backend = (*File)(nil)
	_ Backend = (*Mongo)(nil)
	_ Backend = (*Redis)(nil)
)

func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch cfg.StorageDriver {
	case "", "file":
		return NewFile(cfg.DBPath), nil
	case "mongo":
		return NewMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case "redis":
		return NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
