package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
)

type Client struct {
	cfg     Config
	builder *MessageBuilder
}

func New(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		builder: NewMessageBuilder(mail.Address{Name: cfg.FromName, Address: cfg.From}),
	}
}

func (c *Client) Builder() *MessageBuilder {
	return c.builder
}

// Send submits one message. The connection uses implicit TLS unless the
// server is configured for STARTTLS; cancelling ctx aborts the exchange.
func (c *Client) Send(ctx context.Context, msg Message) error {
	message, err := c.builder.Build(msg)
	if err != nil {
		return err
	}

	tlsCfg := &tls.Config{
		ServerName:         c.cfg.Host,
		InsecureSkipVerify: c.cfg.AllowInsecureTls,
	}

	server := fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port)
	conn, err := c.dial(ctx, server, tlsCfg)
	if err != nil {
		return err
	}

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, c.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}

	defer func() { _ = client.Close() }()

	if err := client.Hello("localhost"); err != nil {
		return err
	}

	if c.cfg.StartTls {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsCfg); err != nil {
				return err
			}
		}
	}

	if c.cfg.User != "" {
		auth := smtp.PlainAuth("", c.cfg.User, c.cfg.Password, c.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return err
	}

	if err := client.Mail(c.builder.From().Address); err != nil {
		return err
	}
	if err := client.Rcpt(to.Address); err != nil {
		return err
	}

	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write(message); err != nil {
		_ = writer.Close()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (c *Client) dial(ctx context.Context, server string, tlsCfg *tls.Config) (net.Conn, error) {
	if c.cfg.StartTls {
		return (&net.Dialer{}).DialContext(ctx, "tcp", server)
	}
	return (&tls.Dialer{Config: tlsCfg}).DialContext(ctx, "tcp", server)
}
