//go:build !integration

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain/model"
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func TestSettingsCacheDecorator(t *testing.T) {
	ctx := context.Background()
	stored := model.DefaultChatSettings()
	stored.MinSamples = 12

	t.Run("Load should return from cache on hit", func(t *testing.T) {
		cached, _ := json.Marshal(stored)
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				if key != "chat_settings:-100" {
					t.Errorf("unexpected key %q", key)
				}
				return string(cached), nil
			},
		}
		innerCalled := false
		inner := &mockSettingsRepo{
			LoadFunc: func(ctx context.Context, chatID int64) (model.ChatSettings, error) {
				innerCalled = true
				return model.ChatSettings{}, nil
			},
		}

		d := NewSettingsCacheDecorator(inner, mockRedis, time.Hour, nopLogger())
		got, err := d.Load(ctx, -100)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if innerCalled {
			t.Error("inner repository should not be called on a cache hit")
		}
		if got != stored {
			t.Errorf("got %+v, want %+v", got, stored)
		}
	})

	t.Run("Load should fill the cache on miss", func(t *testing.T) {
		mockRedis, data, ttls := newMapRedis()
		calls := 0
		inner := &mockSettingsRepo{
			LoadFunc: func(ctx context.Context, chatID int64) (model.ChatSettings, error) {
				calls++
				return stored, nil
			},
		}
		d := NewSettingsCacheDecorator(inner, mockRedis, 30*time.Minute, nopLogger())

		for i := 0; i < 3; i++ {
			got, err := d.Load(ctx, 7)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if got != stored {
				t.Errorf("got %+v, want %+v", got, stored)
			}
		}
		if calls != 1 {
			t.Errorf("inner called %d times, want 1", calls)
		}
		if _, ok := data["chat_settings:7"]; !ok {
			t.Error("value was not cached")
		}
		if ttls["chat_settings:7"] != 30*time.Minute {
			t.Errorf("ttl = %v", ttls["chat_settings:7"])
		}
	})

	t.Run("Load should fall through when redis fails", func(t *testing.T) {
		mockRedis := &mockRedisClient{
			GetFunc: func(ctx context.Context, key string) (string, error) {
				return "", errors.New("connection refused")
			},
			SetFunc: func(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
				return errors.New("connection refused")
			},
		}
		inner := &mockSettingsRepo{
			LoadFunc: func(ctx context.Context, chatID int64) (model.ChatSettings, error) {
				return stored, nil
			},
		}
		d := NewSettingsCacheDecorator(inner, mockRedis, time.Hour, nopLogger())
		got, err := d.Load(ctx, 1)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != stored {
			t.Errorf("got %+v", got)
		}
	})

	t.Run("Save should invalidate the cache", func(t *testing.T) {
		var deletedKeys []string
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				deletedKeys = append(deletedKeys, keys...)
				return nil
			},
		}
		var saved model.ChatSettings
		inner := &mockSettingsRepo{
			SaveFunc: func(ctx context.Context, chatID int64, s model.ChatSettings) error {
				saved = s
				return nil
			},
		}
		d := NewSettingsCacheDecorator(inner, mockRedis, time.Hour, nopLogger())
		if err := d.Save(ctx, 42, stored); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if saved != stored {
			t.Error("inner repository did not receive the record")
		}
		if len(deletedKeys) != 1 || deletedKeys[0] != "chat_settings:42" {
			t.Errorf("deleted keys = %v", deletedKeys)
		}
	})

	t.Run("Save should keep the cache when the write fails", func(t *testing.T) {
		delCalled := false
		mockRedis := &mockRedisClient{
			DelFunc: func(ctx context.Context, keys ...string) error {
				delCalled = true
				return nil
			},
		}
		inner := &mockSettingsRepo{
			SaveFunc: func(ctx context.Context, chatID int64, s model.ChatSettings) error {
				return errors.New("disk full")
			},
		}
		d := NewSettingsCacheDecorator(inner, mockRedis, time.Hour, nopLogger())
		if err := d.Save(ctx, 42, stored); err == nil {
			t.Fatal("expected error")
		}
		if delCalled {
			t.Error("cache should not be touched when the save failed")
		}
	})

	t.Run("slow miss-fill should not resurrect a record older than a save", func(t *testing.T) {
		mockRedis, _, _ := newMapRedis()
		var mu sync.Mutex
		file := model.DefaultChatSettings()
		file.AutoReplyChanceN = 3

		readDone := make(chan struct{})
		release := make(chan struct{})
		var blockOnce sync.Once
		inner := &mockSettingsRepo{
			LoadFunc: func(ctx context.Context, chatID int64) (model.ChatSettings, error) {
				mu.Lock()
				s := file
				mu.Unlock()
				blockOnce.Do(func() {
					close(readDone)
					<-release
				})
				return s, nil
			},
			SaveFunc: func(ctx context.Context, chatID int64, s model.ChatSettings) error {
				mu.Lock()
				file = s
				mu.Unlock()
				return nil
			},
		}
		d := NewSettingsCacheDecorator(inner, mockRedis, time.Hour, nopLogger())

		readerDone := make(chan struct{})
		go func() {
			defer close(readerDone)
			if _, err := d.Load(ctx, 5); err != nil {
				t.Errorf("reader load: %v", err)
			}
		}()
		<-readDone

		updated := model.DefaultChatSettings()
		updated.AutoReplyChanceN = 7
		saveDone := make(chan error, 1)
		go func() { saveDone <- d.Save(ctx, 5, updated) }()

		select {
		case <-saveDone:
			t.Fatal("save finished while a miss-fill for the same chat was in flight")
		case <-time.After(50 * time.Millisecond):
		}
		close(release)
		<-readerDone
		if err := <-saveDone; err != nil {
			t.Fatalf("save: %v", err)
		}

		got, err := d.Load(ctx, 5)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.AutoReplyChanceN != 7 {
			t.Fatalf("chance after save = %d, want 7", got.AutoReplyChanceN)
		}

		got.AutoReplyEnabled = !got.AutoReplyEnabled
		if err := d.Save(ctx, 5, got); err != nil {
			t.Fatalf("save: %v", err)
		}
		mu.Lock()
		defer mu.Unlock()
		if file.AutoReplyChanceN != 7 {
			t.Errorf("toggle wrote chance %d, want 7", file.AutoReplyChanceN)
		}
	})
}

func TestStateRepo(t *testing.T) {
	ctx := context.Background()
	client, data, ttls := newMapRedis()
	repo := NewStateRepo(client)
	key := model.DialogKey{ChatID: -5, UserID: 10}

	st, err := repo.GetState(ctx, key)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.Step.Pending() {
		t.Fatalf("expected idle state, got %q", st.Step)
	}

	if err := repo.SetState(ctx, key, &model.DialogState{Step: model.StepAwaitingMaxLen}); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if ttls["settings_dialog:-5:10"] != 15*time.Minute {
		t.Errorf("ttl = %v", ttls["settings_dialog:-5:10"])
	}
	st, err = repo.GetState(ctx, key)
	if err != nil {
		t.Fatalf("GetState: %v", err)
	}
	if st.Step != model.StepAwaitingMaxLen {
		t.Errorf("step = %q", st.Step)
	}

	other, _ := repo.GetState(ctx, model.DialogKey{ChatID: -5, UserID: 11})
	if other.Step.Pending() {
		t.Error("state leaked to another user")
	}

	if err := repo.SetState(ctx, key, &model.DialogState{Step: model.StepIdle}); err != nil {
		t.Fatalf("SetState idle: %v", err)
	}
	if _, ok := data["settings_dialog:-5:10"]; ok {
		t.Error("idle state should remove the key")
	}
}

func TestRateLimiter(t *testing.T) {
	ctx := context.Background()
	client, _, ttls := newMapRedis()
	rl := NewRateLimiter(client)
	key := UserCommandKey(-1, 2, "gen")

	for i := 0; i < 3; i++ {
		ok, err := rl.Allow(ctx, key, 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	ok, err := rl.Allow(ctx, key, 3, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("4th call should be limited")
	}
	if ttls[key] != time.Minute {
		t.Errorf("window = %v", ttls[key])
	}

	ok, _ = rl.Allow(ctx, UserCommandKey(-1, 3, "gen"), 3, time.Minute)
	if !ok {
		t.Error("another user must have its own budget")
	}
}

func TestRateLimiterRedisError(t *testing.T) {
	client := &mockRedisClient{
		IncrFunc: func(ctx context.Context, key string) (int64, error) {
			return 0, errors.New("down")
		},
	}
	ok, err := NewRateLimiter(client).Allow(context.Background(), "k", 1, time.Second)
	if err == nil || ok {
		t.Errorf("ok=%v err=%v", ok, err)
	}
}
