package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"sms-connector/internal/dedup"
	"sms-connector/internal/listener"
	"sms-connector/internal/metrics"
	"sms-connector/internal/notifier"
	"sms-connector/internal/relay"
	"sms-connector/internal/server"
	"sms-connector/internal/settings"
	"sms-connector/internal/smtp"
)

const (
	TransportSmtp = "smtp"
	TransportSes  = "ses"
)

type LogConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" validate:"omitempty,oneof=text json"`
}

type ServerConfig struct {
	Port         int    `yaml:"port" validate:"required"`
	WebhookToken string `yaml:"webhook_token"`
}

type NatsConfig struct {
	Url     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	Db       int    `yaml:"db"`
}

type SettingsConfig struct {
	Driver   string `yaml:"driver" validate:"required,oneof=file redis"`
	FilePath string `yaml:"file_path" validate:"required_if=Driver file"`
	RedisKey string `yaml:"redis_key"`
}

type RelayConfig struct {
	Url   string `yaml:"url" validate:"required,url"`
	Shape string `yaml:"shape" validate:"required,oneof=device session"`
}

type EmailConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Transport string `yaml:"transport" validate:"omitempty,oneof=smtp ses"`
}

type SmtpConfig struct {
	Host             string `yaml:"host"`
	Port             int    `yaml:"port"`
	User             string `yaml:"user"`
	Password         string `yaml:"password"`
	From             string `yaml:"from"`
	FromName         string `yaml:"from_name"`
	StartTls         bool   `yaml:"starttls"`
	AllowInsecureTls bool   `yaml:"allow_insecure_tls"`
}

type SesConfig struct {
	BaseEndpoint string `yaml:"base_endpoint"`
	From         string `yaml:"from"`
	FromName     string `yaml:"from_name"`
	sdkConfig    aws.Config
}

type NotificationsConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Platform    string `yaml:"platform" validate:"omitempty,oneof=memory redis"`
	RedisPrefix string `yaml:"redis_prefix"`
	HistorySize int    `yaml:"history_size" validate:"gte=0"`
}

type DedupConfig struct {
	Enabled bool `yaml:"enabled"`
	Window  int  `yaml:"window" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled         bool `yaml:"enabled"`
	CollectInterval int  `yaml:"collect_interval" validate:"gte=0"`
}

type DeviceConfig struct {
	Id string `yaml:"id"`
}

type Config struct {
	Log           LogConfig           `yaml:"log"`
	Server        ServerConfig        `yaml:"server" validate:"required"`
	Nats          NatsConfig          `yaml:"nats"`
	Redis         RedisConfig         `yaml:"redis"`
	Settings      SettingsConfig      `yaml:"settings" validate:"required"`
	Relay         RelayConfig         `yaml:"relay" validate:"required"`
	Email         EmailConfig         `yaml:"email"`
	Smtp          SmtpConfig          `yaml:"smtp"`
	Ses           SesConfig           `yaml:"ses"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Dedup         DedupConfig         `yaml:"dedup"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Device        DeviceConfig        `yaml:"device"`
}

func NewFromYaml(filePath string) (*Config, error) {
	yamlContent, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return NewFromYamlContent(yamlContent)
}

func NewFromYamlContent(yamlContent []byte) (*Config, error) {
	cfg := &Config{}
	yamlString := os.ExpandEnv(string(yamlContent))
	reader := strings.NewReader(yamlString)

	if err := cfg.load(reader); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) load(r io.Reader) error {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	decodeErr := decoder.Decode(c)
	validate := validator.New(validator.WithRequiredStructEnabled())
	err := validate.Struct(c)

	if decodeErr != nil && err != nil {
		return fmt.Errorf("%w\n%w", err, decodeErr)
	}
	if decodeErr != nil {
		return decodeErr
	}
	if err != nil {
		return err
	}

	if err = c.validateDependencies(); err != nil {
		return err
	}

	if !c.Email.Enabled || c.GetEmailTransport() != TransportSes {
		return nil
	}

	awsConfig, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return err
	}

	if c.Ses.BaseEndpoint != "" {
		awsConfig.BaseEndpoint = aws.String(c.Ses.BaseEndpoint)
	}

	c.Ses.sdkConfig = awsConfig
	return nil
}

// validateDependencies checks the rules spanning several sections.
func (c *Config) validateDependencies() error {
	var errs []error

	if c.RedisRequired() && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required by the settings, notifications or dedup configuration"))
	}

	if c.Email.Enabled && c.GetEmailTransport() == TransportSmtp {
		if c.Smtp.Host == "" {
			errs = append(errs, errors.New("smtp.host is required when email is enabled"))
		}
		if c.Smtp.From == "" {
			errs = append(errs, errors.New("smtp.from is required when email is enabled"))
		}
	}

	if c.Email.Enabled && c.GetEmailTransport() == TransportSes && c.Ses.From == "" {
		errs = append(errs, errors.New("ses.from is required when the ses transport is selected"))
	}

	if c.Dedup.Enabled && c.Dedup.Window == 0 {
		errs = append(errs, errors.New("dedup.window is required when dedup is enabled"))
	}

	return errors.Join(errs...)
}

func (c *Config) GetLogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) GetLogFormat() string {
	if c.Log.Format == "" {
		return "text"
	}
	return c.Log.Format
}

func (c *Config) GetServerConfig() server.Config {
	return server.Config{
		Port:         c.Server.Port,
		WebhookToken: c.Server.WebhookToken,
	}
}

func (c *Config) NatsEnabled() bool {
	return c.Nats.Url != ""
}

func (c *Config) GetNatsConfig() listener.NatsConfig {
	return listener.NatsConfig{
		Url:     c.Nats.Url,
		Subject: c.Nats.Subject,
	}
}

func (c *Config) RedisRequired() bool {
	return c.Settings.Driver == settings.DriverRedis ||
		(c.Notifications.Enabled && c.Notifications.Platform == notifier.PlatformRedis) ||
		c.Dedup.Enabled
}

func (c *Config) GetRedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.Db,
	}
}

func (c *Config) GetSettingsConfig() settings.Config {
	return settings.Config{
		Driver:   c.Settings.Driver,
		FilePath: c.Settings.FilePath,
		RedisKey: c.Settings.RedisKey,
	}
}

func (c *Config) GetRelayConfig() relay.Config {
	// validated by the oneof rule
	shape, _ := relay.ParseShape(c.Relay.Shape)
	return relay.Config{
		Url:   c.Relay.Url,
		Shape: shape,
	}
}

func (c *Config) EmailEnabled() bool {
	return c.Email.Enabled
}

func (c *Config) GetEmailTransport() string {
	if c.Email.Transport == "" {
		return TransportSmtp
	}
	return c.Email.Transport
}

func (c *Config) GetSmtpConfig() smtp.Config {
	port := c.Smtp.Port
	if port == 0 {
		port = 465
	}
	return smtp.Config{
		Host:             c.Smtp.Host,
		Port:             port,
		User:             c.Smtp.User,
		Password:         c.Smtp.Password,
		From:             c.Smtp.From,
		FromName:         c.Smtp.FromName,
		StartTls:         c.Smtp.StartTls,
		AllowInsecureTls: c.Smtp.AllowInsecureTls,
	}
}

func (c *Config) GetAwsConfig() aws.Config {
	return c.Ses.sdkConfig
}

func (c *Config) GetSesSender() (string, string) {
	return c.Ses.From, c.Ses.FromName
}

func (c *Config) GetNotificationsConfig() notifier.Config {
	platform := c.Notifications.Platform
	if platform == "" {
		platform = notifier.PlatformMemory
	}
	return notifier.Config{
		Enabled:     c.Notifications.Enabled,
		Platform:    platform,
		RedisPrefix: c.Notifications.RedisPrefix,
		HistorySize: c.Notifications.HistorySize,
	}
}

func (c *Config) GetDedupConfig() dedup.Config {
	return dedup.Config{
		Enabled: c.Dedup.Enabled,
		Window:  time.Duration(c.Dedup.Window) * time.Second,
	}
}

func (c *Config) GetMetricsConfig() metrics.Config {
	return metrics.Config{
		Enabled:         c.Metrics.Enabled,
		CollectInterval: time.Duration(c.Metrics.CollectInterval) * time.Second,
	}
}

func (c *Config) GetDeviceIdOverride() string {
	return c.Device.Id
}
