package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kinotut-bot/internal/catalog"
)

const redisCatalogKey = "kinotut:catalog"

// Redis keeps the catalog JSON under a single key.
type Redis struct {
	client *redis.Client
}

func NewRedis(ctx context.Context, addr, password string, db int) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &Redis{client: client}, nil
}

func (r *Redis) Load(ctx context.Context) (*catalog.Document, error) {
	b, err := r.client.Get(ctx, redisCatalogKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, catalog.ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	var doc catalog.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	normalize(&doc)
	return &doc, nil
}

func (r *Redis) Save(ctx context.Context, doc *catalog.Document) error {
	b, err := encode(doc)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, redisCatalogKey, b, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *Redis) Init(ctx context.Context) error {
	b, err := encode(catalog.NewDocument())
	if err != nil {
		return err
	}
	return r.client.SetNX(ctx, redisCatalogKey, b, 0).Err()
}

func (r *Redis) Close(ctx context.Context) error {
	return r.client.Close()
}
