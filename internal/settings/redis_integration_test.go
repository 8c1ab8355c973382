//go:build integration

package settings

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	key := "sms-connector-test:settings:" + uuid.NewString()
	defer client.Del(ctx, key)

	store := NewRedisStore(client, key)

	empty, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, Configuration{}, empty)

	cfg := Configuration{
		TargetEmail:     "a@b.com",
		LicenseKey:      "ABC123",
		SetupCompleted:  true,
		ConfigValidated: false,
	}
	require.NoError(t, store.Save(ctx, cfg))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	values, err := client.HGetAll(ctx, key).Result()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		KeyTargetEmail:    "a@b.com",
		KeyLicenseKey:     "ABC123",
		KeySetupCompleted: "true",
		KeyConfigValid:    "false",
	}, values)

	cfg.SetupCompleted = false
	cfg.ConfigValidated = true
	require.NoError(t, store.Save(ctx, cfg))

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
