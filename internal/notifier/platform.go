package notifier

import (
	"context"
	"time"
)

type Priority string

const (
	PriorityLow     Priority = "low"
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
)

const (
	IconOngoing = "ic_dialog_email"
	IconSuccess = "stat_sys_upload_done"
	IconError   = "stat_notify_error"

	ColorSuccess uint32 = 0xFF00FF00
	ColorError   uint32 = 0xFFFF0000
)

// Channel groups notifications, created once per platform.
type Channel struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Importance  Priority `json:"importance"`
}

type Notification struct {
	ID         int64     `json:"id"`
	ChannelID  string    `json:"channel_id"`
	Title      string    `json:"title"`
	Text       string    `json:"text"`
	Icon       string    `json:"icon"`
	Priority   Priority  `json:"priority"`
	Color      uint32    `json:"color,omitempty"`
	Ongoing    bool      `json:"ongoing"`
	AutoCancel bool      `json:"auto_cancel"`
	IsError    bool      `json:"is_error"`
	PostedAt   time.Time `json:"posted_at"`
}

// Platform is the host notification surface.
type Platform interface {
	PermissionGranted(ctx context.Context) bool
	CreateChannel(ctx context.Context, channel Channel) error
	Notify(ctx context.Context, n Notification) error
}

const (
	PlatformMemory = "memory"
	PlatformRedis  = "redis"
)

type Config struct {
	Enabled     bool
	Platform    string
	RedisPrefix string
	HistorySize int
}
