package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// OngoingID identifies the single persistent status notification.
const OngoingID int64 = 1

const (
	ServiceChannelID = "sms_monitor"
	StatusChannelID  = "sms_status"
	ongoingTitle     = "SMS Connector"
)

var channels = []Channel{
	{
		ID:          ServiceChannelID,
		Name:        "SMS monitoring",
		Description: "Shows that incoming SMS are being watched",
		Importance:  PriorityLow,
	},
	{
		ID:          StatusChannelID,
		Name:        "SMS delivery status",
		Description: "Result of each SMS forwarded to the relay",
		Importance:  PriorityDefault,
	},
}

// Notifier reflects pipeline progress on the host notification platform.
// It never fails its callers: platform errors are logged.
type Notifier struct {
	platform Platform
	logger   *slog.Logger
	now      func() time.Time

	mu            sync.Mutex
	channelsReady bool
	lastID        atomic.Int64
}

func New(platform Platform) *Notifier {
	n := &Notifier{
		platform: platform,
		logger:   slog.With("component", "notifier"),
		now:      time.Now,
	}
	n.lastID.Store(OngoingID)
	return n
}

// EnsureChannels creates the notification channels once. It is safe to call
// repeatedly; a failed attempt is retried on the next call.
func (n *Notifier) EnsureChannels(ctx context.Context) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channelsReady {
		return nil
	}

	for _, channel := range channels {
		if err := n.platform.CreateChannel(ctx, channel); err != nil {
			return fmt.Errorf("failed to create channel %s: %w", channel.ID, err)
		}
	}

	n.channelsReady = true
	return nil
}

// SetOngoing replaces the text of the persistent status notification.
func (n *Notifier) SetOngoing(ctx context.Context, text string) {
	n.post(ctx, Notification{
		ID:        OngoingID,
		ChannelID: ServiceChannelID,
		Title:     ongoingTitle,
		Text:      text,
		Icon:      IconOngoing,
		Priority:  PriorityLow,
		Ongoing:   true,
	})
}

// PostOutcome raises a dismissible notification styled by isError.
func (n *Notifier) PostOutcome(ctx context.Context, title, message string, isError bool) {
	notification := Notification{
		ID:         n.lastID.Add(1),
		ChannelID:  StatusChannelID,
		Title:      title,
		Text:       message,
		Icon:       IconSuccess,
		Priority:   PriorityDefault,
		Color:      ColorSuccess,
		AutoCancel: true,
		IsError:    isError,
	}

	if isError {
		notification.Icon = IconError
		notification.Priority = PriorityHigh
		notification.Color = ColorError
	}

	n.post(ctx, notification)
}

func (n *Notifier) post(ctx context.Context, notification Notification) {
	if !n.platform.PermissionGranted(ctx) {
		n.logger.Debug(fmt.Sprintf("notification permission denied, dropping %q", notification.Text))
		return
	}

	if err := n.EnsureChannels(ctx); err != nil {
		n.logger.Error(fmt.Sprintf("failed to set up notification channels: %v", err))
		return
	}

	notification.PostedAt = n.now()
	if err := n.platform.Notify(ctx, notification); err != nil {
		n.logger.Error(fmt.Sprintf("failed to post notification %d: %v", notification.ID, err))
	}
}
