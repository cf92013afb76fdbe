// Package cache кэширует справочные данные (категории, карточки продавцов)
// в памяти процесса или в Redis. Значения хранятся в JSON, поэтому
// вызывающий код всегда получает собственную копию.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ignatzorin/cocreate-backend/internal/logger"
)

// Store бэкенд кэша.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Cache Store плюс схлопывание параллельных загрузок одного ключа.
type Cache struct {
	store Store
	group singleflight.Group
}

func New(store Store) *Cache {
	return &Cache{store: store}
}

// Invalidate удаляет ключи. Ошибка бэкенда только логируется:
// запись уже прошла в БД, а ключ истечёт по TTL.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if err := c.store.Delete(ctx, keys...); err != nil {
		logger.WithComponent("cache").WithError(err).Warn("не удалось удалить ключи")
	}
}

// InvalidatePrefix удаляет все ключи с префиксом.
func (c *Cache) InvalidatePrefix(ctx context.Context, prefix string) {
	if err := c.store.DeletePrefix(ctx, prefix); err != nil {
		logger.WithComponent("cache").WithError(err).WithField("prefix", prefix).Warn("не удалось сбросить префикс")
	}
}

// GetOrLoad отдаёт значение из кэша или вызывает load и кладёт результат на ttl.
// Недоступный бэкенд не ломает запрос: значение просто грузится из источника.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T
	log := logger.WithComponent("cache").WithField("key", key)

	if raw, ok, err := c.store.Get(ctx, key); err != nil {
		log.WithError(err).Warn("чтение из кэша")
	} else if ok {
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		log.Warn("повреждённое значение в кэше")
	}

	raw, err, _ := c.group.Do(key, func() (interface{}, error) {
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("cache: marshal %s: %w", key, err)
		}
		if err := c.store.Set(ctx, key, data, ttl); err != nil {
			log.WithError(err).Warn("запись в кэш")
		}
		return data, nil
	})
	if err != nil {
		return zero, err
	}

	var v T
	if err := json.Unmarshal(raw.([]byte), &v); err != nil {
		return zero, fmt.Errorf("cache: unmarshal %s: %w", key, err)
	}
	return v, nil
}
