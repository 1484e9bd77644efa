//go:build !integration

package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"telegram-markov-bot/internal/domain/model"
)

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }

// newMapRedis wires the mock to a plain map, recording TTLs.
func newMapRedis() (*mockRedisClient, map[string]string, map[string]time.Duration) {
	var mu sync.Mutex
	data := map[string]string{}
	ttls := map[string]time.Duration{}
	counters := map[string]int64{}
	m := &mockRedisClient{
		GetFunc: func(_ context.Context, key string) (string, error) {
			mu.Lock()
			defer mu.Unlock()
			v, ok := data[key]
			if !ok {
				return "", Nil
			}
			return v, nil
		},
		SetFunc: func(_ context.Context, key string, value interface{}, exp time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			switch v := value.(type) {
			case []byte:
				data[key] = string(v)
			default:
				data[key] = fmt.Sprint(v)
			}
			ttls[key] = exp
			return nil
		},
		DelFunc: func(_ context.Context, keys ...string) error {
			mu.Lock()
			defer mu.Unlock()
			for _, k := range keys {
				delete(data, k)
				delete(ttls, k)
				delete(counters, k)
			}
			return nil
		},
		IncrFunc: func(_ context.Context, key string) (int64, error) {
			mu.Lock()
			defer mu.Unlock()
			counters[key]++
			return counters[key], nil
		},
		ExpireFunc: func(_ context.Context, key string, exp time.Duration) error {
			mu.Lock()
			defer mu.Unlock()
			ttls[key] = exp
			return nil
		},
		PingFunc:  func(context.Context) error { return nil },
		CloseFunc: func() error { return nil },
	}
	return m, data, ttls
}

// mockSettingsRepo is the file-backed layer beneath the cache.
type mockSettingsRepo struct {
	LoadFunc func(ctx context.Context, chatID int64) (model.ChatSettings, error)
	SaveFunc func(ctx context.Context, chatID int64, s model.ChatSettings) error
}

func (m *mockSettingsRepo) Load(ctx context.Context, chatID int64) (model.ChatSettings, error) {
	return m.LoadFunc(ctx, chatID)
}
func (m *mockSettingsRepo) Save(ctx context.Context, chatID int64, s model.ChatSettings) error {
	return m.SaveFunc(ctx, chatID, s)
}
