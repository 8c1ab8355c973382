package mocks

import (
	"context"
	"sync"
)

type SentMail struct {
	To      string
	Subject string
	Body    string
}

type MailerMock struct {
	mu     sync.Mutex
	result bool
	block  bool
	sent   []SentMail
}

type MailerMockOptions func(*MailerMock)

func MailerFails() MailerMockOptions {
	return func(m *MailerMock) {
		m.result = false
	}
}

func MailerBlocks() MailerMockOptions {
	return func(m *MailerMock) {
		m.block = true
	}
}

func NewMailerMock(opts ...MailerMockOptions) *MailerMock {
	m := &MailerMock{result: true}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MailerMock) Send(ctx context.Context, to, subject, body string) bool {
	m.mu.Lock()
	m.sent = append(m.sent, SentMail{To: to, Subject: subject, Body: body})
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return false
	}
	return m.result
}

func (m *MailerMock) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMail{}, m.sent...)
}
