package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	statusSuccess   = "success"
	statusError     = "error"
	fallbackMessage = "empty response from server"
)

type Config struct {
	Url   string
	Shape PayloadShape
}

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type response struct {
	Status  *string `json:"status"`
	Message *string `json:"message"`
}

// Client posts payloads to the relay endpoint, one attempt each.
type Client struct {
	cfg        Config
	httpClient httpClient
	logger     *slog.Logger
}

// New builds a relay client on the default transport. Redirects are followed
// and no timeout is set beyond the transport's own.
func New(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:     slog.With("component", "relay"),
	}
}

func (c *Client) Shape() PayloadShape {
	return c.cfg.Shape
}

// Send delivers the payload and returns the relay's success message. Every
// failure is one of *ConnectionError, *ServerError or *RejectedError.
func (c *Client) Send(ctx context.Context, payload Payload) (string, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal relay payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Url, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &ConnectionError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ServerError{Code: resp.StatusCode}
	}

	// the body can only be consumed once, everything below works on raw
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &ConnectionError{Err: err}
	}

	c.logger.Debug(fmt.Sprintf("relay answered: %s", raw))

	return c.interpret(raw)
}

func (c *Client) interpret(raw []byte) (string, error) {
	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		c.logger.Warn(fmt.Sprintf("failed to parse relay response: %v", err))
		return "", &RejectedError{Reason: ErrMalformedResponse.Error(), Err: ErrMalformedResponse}
	}

	status := statusError
	if r.Status != nil {
		status = *r.Status
	}

	message := fallbackMessage
	if r.Message != nil {
		message = *r.Message
	}

	if status != statusSuccess {
		return "", &RejectedError{Reason: message}
	}

	return message, nil
}
