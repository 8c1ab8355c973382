package pipeline

import (
	"context"
	"time"

	"sms-connector/internal/relay"
)

type relayService interface {
	Shape() relay.PayloadShape
	Send(ctx context.Context, payload relay.Payload) (string, error)
}

type mailService interface {
	Send(ctx context.Context, to, subject, body string) bool
}

type notifierService interface {
	SetOngoing(ctx context.Context, text string)
	PostOutcome(ctx context.Context, title, message string, isError bool)
}

type duplicateGuard interface {
	Seen(ctx context.Context, sender, body string) bool
}

type metricsRecorder interface {
	TaskStarted()
	TaskFinished(outcome string)
	ObserveRelay(d time.Duration)
}

type noopGuard struct{}

func (noopGuard) Seen(context.Context, string, string) bool { return false }

type noopMetrics struct{}

func (noopMetrics) TaskStarted()               {}
func (noopMetrics) TaskFinished(string)        {}
func (noopMetrics) ObserveRelay(time.Duration) {}
