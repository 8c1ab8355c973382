package listener

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"sms-connector/internal/settings"
)

type settingsStore interface {
	Load(ctx context.Context) (settings.Configuration, error)
}

// Handler processes one message with the configuration snapshot taken when
// the batch arrived.
type Handler func(ctx context.Context, msg InboundMessage, cfg settings.Configuration)

// Dispatcher turns inbound batches into tracked background tasks, one per
// message. Tasks run on the daemon context, not on the context of the
// source that delivered the batch.
type Dispatcher struct {
	ctx    context.Context
	store  settingsStore
	handle Handler
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewDispatcher(ctx context.Context, store settingsStore, handle Handler) *Dispatcher {
	return &Dispatcher{
		ctx:    ctx,
		store:  store,
		handle: handle,
		logger: slog.With("component", "listener"),
	}
}

// Dispatch never blocks on the work it starts and never reports failures to
// the caller.
func (d *Dispatcher) Dispatch(messages []InboundMessage) {
	if len(messages) == 0 {
		return
	}

	if err := d.ctx.Err(); err != nil {
		d.logger.Warn(fmt.Sprintf("shutting down, discarding %d messages", len(messages)))
		return
	}

	cfg, err := d.store.Load(d.ctx)
	if err != nil {
		d.logger.Error(fmt.Sprintf("failed to load settings, discarding %d messages: %v", len(messages), err))
		return
	}

	if !cfg.SetupCompleted {
		d.logger.Info(fmt.Sprintf("setup not completed, discarding %d messages", len(messages)))
		return
	}

	for _, msg := range messages {
		msg := msg
		d.logger.Info(fmt.Sprintf("received sms from %s", msg.Sender), "message", msg.ID)

		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					d.logger.Error(fmt.Sprintf("task panicked: %v", r), "message", msg.ID)
				}
			}()
			d.handle(d.ctx, msg, cfg)
		}()
	}
}

// Wait blocks until every dispatched task has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
