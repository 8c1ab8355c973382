package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisPrefix = "sms-connector:notifications"

// RedisPlatform publishes notifications for an external UI: channels in a
// hash, the ongoing notification in a key, outcomes in a capped list and on
// a pub/sub channel.
type RedisPlatform struct {
	client      redis.Cmdable
	prefix      string
	granted     bool
	historySize int64
}

func NewRedisPlatform(client redis.Cmdable, prefix string, granted bool, historySize int) *RedisPlatform {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	if historySize <= 0 {
		historySize = defaultHistorySize
	}
	return &RedisPlatform{
		client:      client,
		prefix:      prefix,
		granted:     granted,
		historySize: int64(historySize),
	}
}

func (p *RedisPlatform) ChannelsKey() string { return p.prefix + ":channels" }
func (p *RedisPlatform) OngoingKey() string  { return p.prefix + ":ongoing" }
func (p *RedisPlatform) OutcomesKey() string { return p.prefix + ":outcomes" }
func (p *RedisPlatform) EventsTopic() string { return p.prefix + ":events" }

func (p *RedisPlatform) PermissionGranted(_ context.Context) bool {
	return p.granted
}

func (p *RedisPlatform) CreateChannel(ctx context.Context, channel Channel) error {
	data, err := json.Marshal(channel)
	if err != nil {
		return fmt.Errorf("failed to marshal channel: %w", err)
	}
	return p.client.HSetNX(ctx, p.ChannelsKey(), channel.ID, data).Err()
}

func (p *RedisPlatform) Notify(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if n.Ongoing {
		return p.client.Set(ctx, p.OngoingKey(), data, 0).Err()
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, p.OutcomesKey(), data)
		pipe.LTrim(ctx, p.OutcomesKey(), 0, p.historySize-1)
		pipe.Publish(ctx, p.EventsTopic(), data)
		return nil
	})
	return err
}
