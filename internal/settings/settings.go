package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Keys of the persisted configuration, shared by every backend.
const (
	KeySetupCompleted = "setup_completed"
	KeyTargetEmail    = "target_email"
	KeyLicenseKey     = "license_key"
	KeyConfigValid    = "config_valid"
)

// Configuration is the user-owned forwarding configuration. Values are
// snapshots: the core never mutates them.
type Configuration struct {
	TargetEmail     string `json:"target_email"`
	LicenseKey      string `json:"license_key"`
	SetupCompleted  bool   `json:"setup_completed"`
	ConfigValidated bool   `json:"config_valid"`
}

// NormalizedLicenseKey returns the license key the way the relay validates it.
func (c Configuration) NormalizedLicenseKey() string {
	return NormalizeLicenseKey(c.LicenseKey)
}

// Complete reports whether forwarding may be attempted.
func (c Configuration) Complete() bool {
	return strings.TrimSpace(c.TargetEmail) != "" && c.NormalizedLicenseKey() != ""
}

func NormalizeLicenseKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}

type Store interface {
	Load(ctx context.Context) (Configuration, error)
	Save(ctx context.Context, cfg Configuration) error
}

type Config struct {
	Driver   string
	FilePath string
	RedisKey string
}

const (
	DriverFile  = "file"
	DriverRedis = "redis"
)

// NewStore returns the backend selected by cfg. client is only used by the
// redis driver.
func NewStore(cfg Config, client redis.Cmdable) (Store, error) {
	switch cfg.Driver {
	case DriverFile, "":
		return NewFileStore(cfg.FilePath), nil
	case DriverRedis:
		if client == nil {
			return nil, errors.New("redis settings store requires a redis client")
		}
		return NewRedisStore(client, cfg.RedisKey), nil
	default:
		return nil, fmt.Errorf("unknown settings driver %q", cfg.Driver)
	}
}
