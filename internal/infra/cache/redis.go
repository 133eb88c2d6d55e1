package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace  = "mk"
	paymentPrefix = "payment"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	SetNX(context.Context, string, any, time.Duration) *redis.BoolCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// Redis 接続の薄いラッパー
type Client struct {
	store cmdable
	raw   *redis.Client
}

// New は REDIS_URL から接続して疎通確認する
func New(ctx context.Context, url string) (*Client, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = 3 * time.Second
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Client{store: raw, raw: raw}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.store.Ping(ctx).Err()
}

func (c *Client) Close() error {
	if c.raw == nil {
		return nil
	}
	return c.raw.Close()
}

func (c *Client) key(parts ...string) string {
	k := keyNamespace
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// 決済IDの再送ガード（SETNX）
type ReplayGuard struct {
	client *Client
	ttl    time.Duration
}

func NewReplayGuard(client *Client, ttl time.Duration) (*ReplayGuard, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if ttl <= 0 {
		return nil, errors.New("ttl must be positive")
	}
	return &ReplayGuard{client: client, ttl: ttl}, nil
}

// 既に処理済み（キーが残っている）なら true
func (g *ReplayGuard) CheckAndMark(ctx context.Context, paymentID string) (bool, error) {
	if paymentID == "" {
		return false, errors.New("payment id is required")
	}
	set, err := g.client.store.SetNX(ctx, g.client.key(paymentPrefix, paymentID), "1", g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("set payment replay key: %w", err)
	}
	return !set, nil
}

func (g *ReplayGuard) Release(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return errors.New("payment id is required")
	}
	return g.client.store.Del(ctx, g.client.key(paymentPrefix, paymentID)).Err()
}
