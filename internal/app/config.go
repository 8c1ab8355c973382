package app

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/redis/go-redis/v9"

	"sms-connector/internal/dedup"
	"sms-connector/internal/listener"
	"sms-connector/internal/metrics"
	"sms-connector/internal/notifier"
	"sms-connector/internal/relay"
	"sms-connector/internal/server"
	"sms-connector/internal/settings"
	"sms-connector/internal/smtp"
)

type configProvider interface {
	GetServerConfig() server.Config
	NatsEnabled() bool
	GetNatsConfig() listener.NatsConfig
	RedisRequired() bool
	GetRedisOptions() *redis.Options
	GetSettingsConfig() settings.Config
	GetRelayConfig() relay.Config
	EmailEnabled() bool
	GetEmailTransport() string
	GetSmtpConfig() smtp.Config
	GetAwsConfig() aws.Config
	GetSesSender() (string, string)
	GetNotificationsConfig() notifier.Config
	GetDedupConfig() dedup.Config
	GetMetricsConfig() metrics.Config
	GetDeviceIdOverride() string
}
