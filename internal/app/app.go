package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"sync"

	"github.com/redis/go-redis/v9"

	"sms-connector/internal/awsutils"
	"sms-connector/internal/dedup"
	"sms-connector/internal/device"
	"sms-connector/internal/email"
	"sms-connector/internal/listener"
	"sms-connector/internal/metrics"
	"sms-connector/internal/notifier"
	"sms-connector/internal/pipeline"
	"sms-connector/internal/relay"
	"sms-connector/internal/server"
	"sms-connector/internal/settings"
	"sms-connector/internal/smtp"
)

type source interface {
	Run(ctx context.Context) error
}

type sourceFunc func(ctx context.Context) error

func (f sourceFunc) Run(ctx context.Context) error { return f(ctx) }

type App struct {
	serverCfg server.Config
	natsCfg   *listener.NatsConfig

	redis     *redis.Client
	store     settings.Store
	notifier  *notifier.Notifier
	memory    *notifier.MemoryPlatform
	metrics   *metrics.Metrics
	forwarder *pipeline.Forwarder
	logger    *slog.Logger
}

func New(cp configProvider) (*App, error) {
	a := &App{
		serverCfg: cp.GetServerConfig(),
		logger:    slog.With("component", "app"),
	}

	if cp.NatsEnabled() {
		natsCfg := cp.GetNatsConfig()
		a.natsCfg = &natsCfg
	}

	var redisClient redis.Cmdable
	if cp.RedisRequired() {
		a.redis = redis.NewClient(cp.GetRedisOptions())
		redisClient = a.redis
	}

	store, err := settings.NewStore(cp.GetSettingsConfig(), redisClient)
	if err != nil {
		return nil, err
	}
	a.store = store

	notificationsCfg := cp.GetNotificationsConfig()
	var platform notifier.Platform
	switch notificationsCfg.Platform {
	case notifier.PlatformRedis:
		platform = notifier.NewRedisPlatform(redisClient, notificationsCfg.RedisPrefix, notificationsCfg.Enabled, notificationsCfg.HistorySize)
	default:
		a.memory = notifier.NewMemoryPlatform(notificationsCfg.Enabled, notificationsCfg.HistorySize)
		platform = a.memory
	}
	a.notifier = notifier.New(platform)

	mailer, err := newMailer(cp)
	if err != nil {
		return nil, err
	}

	a.forwarder = pipeline.NewForwarder(
		pipeline.Config{
			DeviceId:     device.ID(cp.GetDeviceIdOverride()),
			EmailEnabled: cp.EmailEnabled(),
		},
		relay.New(cp.GetRelayConfig()),
		mailer,
		a.notifier,
	)

	if dedupCfg := cp.GetDedupConfig(); dedupCfg.Enabled {
		a.forwarder.WithGuard(dedup.NewGuard(a.redis, dedupCfg))
	}

	if metricsCfg := cp.GetMetricsConfig(); metricsCfg.Enabled {
		a.metrics = metrics.New(metricsCfg)
		a.forwarder.WithMetrics(a.metrics)
	}

	return a, nil
}

func newMailer(cp configProvider) (*email.Delivery, error) {
	switch cp.GetEmailTransport() {
	case "ses":
		from, fromName := cp.GetSesSender()
		builder := smtp.NewMessageBuilder(mail.Address{Name: fromName, Address: from})
		return email.NewDelivery(awsutils.NewSesEmailClient(cp.GetAwsConfig(), builder)), nil
	case "smtp", "":
		return email.NewDelivery(smtp.New(cp.GetSmtpConfig())), nil
	default:
		return nil, fmt.Errorf("unknown email transport %q", cp.GetEmailTransport())
	}
}

// Run serves every source until ctx is done or a source fails, then waits
// for in-flight messages before returning.
func (a *App) Run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	a.notifier.SetOngoing(ctx, pipeline.IdleText)

	dispatcher := listener.NewDispatcher(ctx, a.store, func(ctx context.Context, msg listener.InboundMessage, cfg settings.Configuration) {
		a.forwarder.Process(ctx, msg, cfg)
	})

	var wg sync.WaitGroup

	for name, src := range a.sources(dispatcher) {
		name, src := name, src
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := src.Run(ctx); err != nil {
				a.logger.Error(fmt.Sprintf("%s stopped, error: %v, shutting down", name, err))
				cancel()
			}
		}()
	}

	if a.metrics != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.metrics.RunCollector(ctx)
		}()
	}

	wg.Wait()
	dispatcher.Wait()

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn(fmt.Sprintf("failed to close redis client: %v", err))
		}
	}
}

func (a *App) sources(d *listener.Dispatcher) map[string]source {
	srv := server.NewServer(a.serverCfg, d)
	if a.memory != nil {
		srv.WithNotifications(a.memory)
	}
	if a.metrics != nil {
		srv.WithMetrics(a.metrics.Handler())
	}

	sources := map[string]source{"http": sourceFunc(srv.ListenAndServe)}

	if a.natsCfg != nil {
		sources["nats"] = listener.NewNatsSource(*a.natsCfg, d)
	}

	return sources
}
