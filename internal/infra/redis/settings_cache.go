package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"telegram-markov-bot/internal/domain/model"
	"telegram-markov-bot/internal/domain/ports/repository"
	"telegram-markov-bot/internal/infra/keylock"
	"telegram-markov-bot/internal/infra/metrics"
)

var _ repository.SettingsRepository = (*settingsCacheDecorator)(nil)

// settingsCacheDecorator serves settings reads from Redis. Every incoming group
// message reads the chat settings, so the file is hit only on a miss.
// A miss-fill and a save-plus-invalidate never interleave for the same chat,
// otherwise a slow reader could put a record older than the last save back.
type settingsCacheDecorator struct {
	inner repository.SettingsRepository
	cache RedisClient
	ttl   time.Duration
	locks *keylock.Map
	log   *zerolog.Logger
}

func NewSettingsCacheDecorator(inner repository.SettingsRepository, cache RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.SettingsRepository {
	l := logger.With().Str("component", "SettingsCache").Logger()
	return &settingsCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		locks: keylock.New(),
		log:   &l,
	}
}

func settingsKey(chatID int64) string {
	return fmt.Sprintf("chat_settings:%d", chatID)
}

func (d *settingsCacheDecorator) Load(ctx context.Context, chatID int64) (model.ChatSettings, error) {
	key := settingsKey(chatID)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var s model.ChatSettings
		if json.Unmarshal([]byte(val), &s) == nil {
			metrics.IncCacheRequest("settings", "hit")
			return s, nil
		}
	} else if !errors.Is(err, Nil) {
		d.log.Warn().Err(err).Int64("chat_id", chatID).Msg("settings cache read failed")
	}

	metrics.IncCacheRequest("settings", "miss")
	unlock := d.locks.Lock(chatID)
	defer unlock()
	s, err := d.inner.Load(ctx, chatID)
	if err != nil {
		return s, err
	}
	if data, merr := json.Marshal(s); merr == nil {
		if serr := d.cache.Set(ctx, key, data, d.ttl); serr != nil {
			d.log.Warn().Err(serr).Int64("chat_id", chatID).Msg("settings cache write failed")
		}
	}
	return s, nil
}

// Save writes through and invalidates the cached copy.
func (d *settingsCacheDecorator) Save(ctx context.Context, chatID int64, s model.ChatSettings) error {
	unlock := d.locks.Lock(chatID)
	defer unlock()
	if err := d.inner.Save(ctx, chatID, s); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, settingsKey(chatID)); err != nil {
		d.log.Warn().Err(err).Int64("chat_id", chatID).Msg("settings cache invalidation failed")
	}
	return nil
}
