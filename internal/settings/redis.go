package settings

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "sms-connector:settings"

// RedisStore keeps the configuration in a single hash.
type RedisStore struct {
	client redis.Cmdable
	key    string
}

func NewRedisStore(client redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{client: client, key: key}
}

func (s *RedisStore) Load(ctx context.Context) (Configuration, error) {
	values, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return Configuration{}, fmt.Errorf("failed to read settings hash %s: %w", s.key, err)
	}

	return Configuration{
		TargetEmail:     values[KeyTargetEmail],
		LicenseKey:      values[KeyLicenseKey],
		SetupCompleted:  parseBool(values[KeySetupCompleted]),
		ConfigValidated: parseBool(values[KeyConfigValid]),
	}, nil
}

func (s *RedisStore) Save(ctx context.Context, cfg Configuration) error {
	err := s.client.HSet(ctx, s.key,
		KeyTargetEmail, cfg.TargetEmail,
		KeyLicenseKey, cfg.LicenseKey,
		KeySetupCompleted, strconv.FormatBool(cfg.SetupCompleted),
		KeyConfigValid, strconv.FormatBool(cfg.ConfigValidated),
	).Err()
	if err != nil {
		return fmt.Errorf("failed to write settings hash %s: %w", s.key, err)
	}
	return nil
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
