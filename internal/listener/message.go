package listener

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

const UnknownSender = "unknown"

// InboundMessage is one received SMS. It is consumed once and never stored.
type InboundMessage struct {
	ID         string
	Sender     string
	Body       string
	ReceivedAt time.Time
}

// NewInboundMessage applies the intake defaults: a blank sender becomes
// UnknownSender and a zero time becomes now.
func NewInboundMessage(sender, body string, receivedAt time.Time, now time.Time) InboundMessage {
	if strings.TrimSpace(sender) == "" {
		sender = UnknownSender
	}
	if receivedAt.IsZero() {
		receivedAt = now
	}
	return InboundMessage{
		ID:         uuid.NewString(),
		Sender:     sender,
		Body:       body,
		ReceivedAt: receivedAt,
	}
}

type wireMessage struct {
	Sender     string `json:"sender" validate:"required_without=Body"`
	Body       string `json:"body" validate:"required_without=Sender"`
	ReceivedAt string `json:"received_at"`
}

type wireBatch struct {
	Messages []wireMessage `json:"messages" validate:"required,min=1,dive"`
}

type wireEnvelope struct {
	Messages json.RawMessage `json:"messages"`
	wireMessage
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DecodeBatch reads a batch of messages. Both {"messages":[...]} and a single
// message object are accepted. Unknown fields are rejected and every message
// needs a sender or a body.
func DecodeBatch(data []byte, now time.Time) ([]InboundMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("empty batch")
	}

	var envelope wireEnvelope
	if err := decodeStrict(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}

	batch := wireBatch{Messages: []wireMessage{envelope.wireMessage}}
	if envelope.Messages != nil {
		if bytes.Equal(bytes.TrimSpace(envelope.Messages), []byte("null")) {
			return nil, errors.New("invalid batch: messages is null")
		}
		if envelope.wireMessage != (wireMessage{}) {
			return nil, errors.New("invalid batch: messages mixed with single message fields")
		}
		batch.Messages = nil
		if err := decodeStrict(envelope.Messages, &batch.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode batch: %w", err)
		}
	}

	if err := validate.Struct(batch); err != nil {
		return nil, fmt.Errorf("invalid batch: %w", err)
	}

	messages := make([]InboundMessage, 0, len(batch.Messages))
	for _, m := range batch.Messages {
		messages = append(messages, NewInboundMessage(m.Sender, m.Body, parseTime(m.ReceivedAt), now))
	}
	return messages, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after batch")
	}
	return nil
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
