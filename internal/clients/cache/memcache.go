package cache

import (
	"encoding/json"
	"net/url"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"max.ks1230/expense-tracker/internal/logger"
	"max.ks1230/expense-tracker/internal/model/forecast"
)

const keyPrefix = "forecast:"

type MemcacheClient struct {
	client *memcache.Client
}

type config interface {
	Hosts() []string
}

func NewMemcache(config config) (*MemcacheClient, error) {
	logger.Info("memcached hosts", zap.Strings("hosts", config.Hosts()))
	mc := memcache.New(config.Hosts()...)
	return &MemcacheClient{mc}, mc.Ping()
}

// formatKey keeps arbitrary usernames within memcached's key alphabet.
func formatKey(username string) string {
	return keyPrefix + url.QueryEscape(username)
}

func (mc *MemcacheClient) CacheForecast(username string, batch forecast.Batch) error {
	logger.Info("cache forecast", zap.String("user", username), zap.Int("week", batch.Week))
	value, err := json.Marshal(batch)
	if err != nil {
		return errors.Wrap(err, "marshal forecast")
	}
	return mc.client.Set(&memcache.Item{
		Key:   formatKey(username),
		Value: value,
	})
}

func (mc *MemcacheClient) GetForecast(username string) (forecast.Batch, error) {
	logger.Info("get forecast from cache", zap.String("user", username))
	item, err := mc.client.Get(formatKey(username))
	if err != nil {
		return forecast.Batch{}, err
	}
	var batch forecast.Batch
	if err = json.Unmarshal(item.Value, &batch); err != nil {
		return forecast.Batch{}, errors.Wrap(err, "unmarshal forecast")
	}
	return batch, nil
}

func (mc *MemcacheClient) InvalidateForecast(username string) error {
	logger.Info("invalidate forecast", zap.String("user", username))
	err := mc.client.Delete(formatKey(username))
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		return err
	}
	return nil
}
