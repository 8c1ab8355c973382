package listener

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	natspkg "github.com/nats-io/nats.go"
)

const DefaultSubject = "sms.received"

type NatsConfig struct {
	Url     string
	Subject string
}

type dispatcher interface {
	Dispatch(messages []InboundMessage)
}

// NatsSource feeds batches published on a NATS subject to the dispatcher.
type NatsSource struct {
	cfg        NatsConfig
	dispatcher dispatcher
	logger     *slog.Logger
	now        func() time.Time
}

func NewNatsSource(cfg NatsConfig, d dispatcher) *NatsSource {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	return &NatsSource{
		cfg:        cfg,
		dispatcher: d,
		logger:     slog.With("component", "nats"),
		now:        time.Now,
	}
}

// Run subscribes until ctx is done, then drains the connection. Batches
// delivered during the drain arrive after shutdown, so the dispatcher logs
// and drops them.
func (s *NatsSource) Run(ctx context.Context) error {
	nc, err := natspkg.Connect(s.cfg.Url, natspkg.Name("sms-connector"))
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}

	if _, err = nc.Subscribe(s.cfg.Subject, func(msg *natspkg.Msg) {
		s.handle(msg.Data)
	}); err != nil {
		nc.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", s.cfg.Subject, err)
	}

	s.logger.Info(fmt.Sprintf("listening on subject %s", s.cfg.Subject))

	<-ctx.Done()

	if err = nc.Drain(); err != nil {
		s.logger.Warn(fmt.Sprintf("failed to drain nats connection: %v", err))
		nc.Close()
	}
	return nil
}

func (s *NatsSource) handle(data []byte) {
	messages, err := DecodeBatch(data, s.now())
	if err != nil {
		s.logger.Warn(fmt.Sprintf("dropping undecodable batch: %v", err))
		return
	}
	s.dispatcher.Dispatch(messages)
}
