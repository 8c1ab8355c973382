package mocks

import (
	"context"
	"sync"

	"sms-connector/internal/relay"
)

type RelayMock struct {
	mu       sync.Mutex
	shape    relay.PayloadShape
	message  string
	err      error
	block    bool
	payloads []relay.Payload
}

type RelayMockOptions func(*RelayMock)

func RelayMessage(message string) RelayMockOptions {
	return func(m *RelayMock) {
		m.message = message
	}
}

func RelayError(err error) RelayMockOptions {
	return func(m *RelayMock) {
		m.err = err
	}
}

func RelayShape(shape relay.PayloadShape) RelayMockOptions {
	return func(m *RelayMock) {
		m.shape = shape
	}
}

// RelayBlocks makes Send wait for the context to be done.
func RelayBlocks() RelayMockOptions {
	return func(m *RelayMock) {
		m.block = true
	}
}

func NewRelayMock(opts ...RelayMockOptions) *RelayMock {
	m := &RelayMock{
		shape:   relay.ShapeDevice,
		message: "ok",
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *RelayMock) Shape() relay.PayloadShape {
	return m.shape
}

func (m *RelayMock) Send(ctx context.Context, payload relay.Payload) (string, error) {
	m.mu.Lock()
	m.payloads = append(m.payloads, payload)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", &relay.ConnectionError{Err: ctx.Err()}
	}
	if m.err != nil {
		return "", m.err
	}
	return m.message, nil
}

func (m *RelayMock) Payloads() []relay.Payload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]relay.Payload{}, m.payloads...)
}
