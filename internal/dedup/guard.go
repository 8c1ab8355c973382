package dedup

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "sms-connector:dedup:"

type Config struct {
	Enabled bool
	Window  time.Duration
}

type mutexFactory interface {
	NewMutex(name string, options ...redsync.Option) *redsync.Mutex
}

// Guard reports messages already forwarded within the window. The lock taken
// for a message is never released: it expires with the window.
type Guard struct {
	rs     mutexFactory
	window time.Duration
	logger *slog.Logger
}

func NewGuard(client redis.UniversalClient, cfg Config) *Guard {
	return &Guard{
		rs:     redsync.New(goredis.NewPool(client)),
		window: cfg.Window,
		logger: slog.With("component", "dedup"),
	}
}

// Key identifies a message by sender and body.
func Key(sender, body string) string {
	sum := sha256.Sum256([]byte(sender + "\x00" + body))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Seen reports whether the message was already claimed. Redis failures fail
// open so an outage never drops messages.
func (g *Guard) Seen(ctx context.Context, sender, body string) bool {
	mutex := g.rs.NewMutex(Key(sender, body), redsync.WithExpiry(g.window), redsync.WithTries(1), redsync.WithFailFast(true))

	err := mutex.LockContext(ctx)
	if err == nil {
		return false
	}

	if isTaken(err) {
		return true
	}

	g.logger.Warn(fmt.Sprintf("duplicate check failed, forwarding anyway: %v", err))
	return false
}

func isTaken(err error) bool {
	var taken *redsync.ErrTaken
	var nodeTaken *redsync.ErrNodeTaken
	return errors.As(err, &taken) || errors.As(err, &nodeTaken) || errors.Is(err, redsync.ErrFailed)
}
