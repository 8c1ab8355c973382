package email

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"sms-connector/internal/smtp"
)

// TimestampLayout is used for the received-at line of forwarded messages.
const TimestampLayout = "2006-01-02 15:04:05"

type transport interface {
	Send(ctx context.Context, msg smtp.Message) error
}

// Delivery is the second hop: it re-sends a relayed SMS by email.
type Delivery struct {
	transport transport
	logger    *slog.Logger
}

func NewDelivery(t transport) *Delivery {
	return &Delivery{
		transport: t,
		logger:    slog.With("component", "email"),
	}
}

// Send submits one message off the calling goroutine and waits for it. It
// reports whether the transport accepted the message; errors and panics of
// the transport are logged, never returned.
func (d *Delivery) Send(ctx context.Context, to, subject, body string) bool {
	done := make(chan error, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("transport panic: %v", r)
			}
		}()
		done <- d.transport.Send(ctx, smtp.Message{To: to, Subject: subject, Body: body})
	}()

	select {
	case err := <-done:
		if err != nil {
			d.logger.Error(fmt.Sprintf("failed to send email to %s, error: %v", to, err))
			return false
		}
		d.logger.Info(fmt.Sprintf("email sent to %s", to))
		return true
	case <-ctx.Done():
		d.logger.Warn(fmt.Sprintf("email to %s abandoned: %v", to, ctx.Err()))
		return false
	}
}

// Compose renders the subject and plain-text body forwarded for one SMS.
func Compose(sender, body string, receivedAt time.Time) (string, string) {
	subject := fmt.Sprintf("New SMS from %s", sender)

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Sender: %s\n", sender))
	b.WriteString(fmt.Sprintf("Received at: %s\n", receivedAt.Local().Format(TimestampLayout)))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n")

	return subject, b.String()
}
