package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sms-connector/internal/email"
	"sms-connector/internal/listener"
	"sms-connector/internal/relay"
	"sms-connector/internal/settings"
)

const (
	IdleText       = "Awaiting new messages..."
	ValidatingText = "Validating license..."
	SendingText    = "Sending email..."
)

const (
	titleSuccess          = "SMS synced"
	titleRejected         = "Send failed"
	titleServerError      = "Server error"
	titleNoConnection     = "No connection"
	titleEmailFailed      = "Email delivery failed"
	titleConfigIncomplete = "Configuration incomplete"

	messageNoConnection     = "Could not reach the relay. Check your internet connection."
	messageConfigIncomplete = "License key or target email not configured."
)

type Config struct {
	DeviceId     string
	EmailEnabled bool
}

// Forwarder runs one message through validation, the relay and the optional
// email hop, reporting each step through the notifier.
type Forwarder struct {
	cfg      Config
	relay    relayService
	mailer   mailService
	notifier notifierService
	guard    duplicateGuard
	metrics  metricsRecorder
	logger   *slog.Logger
}

func NewForwarder(cfg Config, relayClient relayService, mailer mailService, notifier notifierService) *Forwarder {
	return &Forwarder{
		cfg:      cfg,
		relay:    relayClient,
		mailer:   mailer,
		notifier: notifier,
		guard:    noopGuard{},
		metrics:  noopMetrics{},
		logger:   slog.With("pipe", "forward"),
	}
}

func (f *Forwarder) WithGuard(guard duplicateGuard) *Forwarder {
	f.guard = guard
	return f
}

func (f *Forwarder) WithMetrics(metrics metricsRecorder) *Forwarder {
	f.metrics = metrics
	return f
}

// Process handles one message with the configuration snapshot cfg. It always
// leaves the ongoing notification idle.
func (f *Forwarder) Process(ctx context.Context, msg listener.InboundMessage, cfg settings.Configuration) Result {
	logger := f.logger.With("message", msg.ID)
	logger.Info(fmt.Sprintf("processing sms from %s", msg.Sender))

	f.metrics.TaskStarted()
	result := f.process(ctx, logger, msg, cfg)
	f.metrics.TaskFinished(result.Outcome)

	f.notifier.SetOngoing(context.WithoutCancel(ctx), IdleText)
	logger.Info(fmt.Sprintf("finished with outcome %s", result.Outcome))

	return result
}

func (f *Forwarder) process(ctx context.Context, logger *slog.Logger, msg listener.InboundMessage, cfg settings.Configuration) Result {
	f.notifier.SetOngoing(ctx, fmt.Sprintf("Processing SMS from %s", msg.Sender))

	if !cfg.Complete() {
		logger.Error("license key or target email not configured")
		f.notifier.PostOutcome(ctx, titleConfigIncomplete, messageConfigIncomplete, true)
		return Result{Outcome: OutcomeConfigIncomplete, Reason: messageConfigIncomplete}
	}

	if f.guard.Seen(ctx, msg.Sender, msg.Body) {
		logger.Info("duplicate message, skipping")
		return Result{Outcome: OutcomeDuplicate}
	}

	f.notifier.SetOngoing(ctx, ValidatingText)

	payload := relay.NewPayload(f.relay.Shape(), cfg, f.cfg.DeviceId, msg.Sender, msg.Body, msg.ReceivedAt)

	start := time.Now()
	relayMessage, err := f.relay.Send(ctx, payload)
	f.metrics.ObserveRelay(time.Since(start))

	if err != nil {
		if ctx.Err() != nil {
			logger.Warn(fmt.Sprintf("abandoned while calling relay: %v", ctx.Err()))
			return Result{Outcome: OutcomeAbandoned, Reason: ctx.Err().Error()}
		}
		return f.relayFailure(ctx, logger, err)
	}

	logger.Info(fmt.Sprintf("relay accepted: %s", relayMessage))

	if !f.cfg.EmailEnabled {
		f.notifier.PostOutcome(ctx, titleSuccess, relayMessage, false)
		return Result{Outcome: OutcomeSuccess, Reason: relayMessage}
	}

	f.notifier.SetOngoing(ctx, SendingText)

	to := strings.TrimSpace(cfg.TargetEmail)
	subject, body := email.Compose(msg.Sender, msg.Body, msg.ReceivedAt)

	if !f.mailer.Send(ctx, to, subject, body) {
		if ctx.Err() != nil {
			logger.Warn(fmt.Sprintf("abandoned while sending email: %v", ctx.Err()))
			return Result{Outcome: OutcomeAbandoned, Reason: ctx.Err().Error()}
		}
		reason := fmt.Sprintf("The SMS was relayed but the email to %s could not be sent.", to)
		f.notifier.PostOutcome(ctx, titleEmailFailed, reason, true)
		return Result{Outcome: OutcomeEmailDeliveryFailed, Reason: reason}
	}

	f.notifier.PostOutcome(ctx, titleSuccess, relayMessage, false)
	return Result{Outcome: OutcomeSuccess, Reason: relayMessage}
}

func (f *Forwarder) relayFailure(ctx context.Context, logger *slog.Logger, err error) Result {
	var serverErr *relay.ServerError
	var rejectedErr *relay.RejectedError

	switch {
	case errors.As(err, &serverErr):
		logger.Error(fmt.Sprintf("relay answered with status %d", serverErr.Code))
		message := fmt.Sprintf("The relay returned error: %d. Try again later.", serverErr.Code)
		f.notifier.PostOutcome(ctx, titleServerError, message, true)
		return Result{Outcome: OutcomeServerError, Reason: message, StatusCode: serverErr.Code}

	case errors.As(err, &rejectedErr):
		outcome := OutcomeRelayRejected
		if errors.Is(err, relay.ErrMalformedResponse) {
			outcome = OutcomeMalformedResponse
		}
		logger.Error(fmt.Sprintf("relay rejected the message: %s", rejectedErr.Reason))
		f.notifier.PostOutcome(ctx, titleRejected, rejectedErr.Reason, true)
		return Result{Outcome: outcome, Reason: rejectedErr.Reason}

	default:
		logger.Error(fmt.Sprintf("failed to reach relay, error: %v", err))
		f.notifier.PostOutcome(ctx, titleNoConnection, messageNoConnection, true)
		return Result{Outcome: OutcomeConnectionError, Reason: err.Error()}
	}
}
