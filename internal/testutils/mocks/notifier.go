package mocks

import (
	"context"
	"sync"
)

type Outcome struct {
	Title   string
	Message string
	IsError bool
}

// NotifierMock records the ongoing texts and outcomes in call order.
type NotifierMock struct {
	mu       sync.Mutex
	ongoing  []string
	outcomes []Outcome
}

func NewNotifierMock() *NotifierMock {
	return &NotifierMock{}
}

func (m *NotifierMock) SetOngoing(_ context.Context, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ongoing = append(m.ongoing, text)
}

func (m *NotifierMock) PostOutcome(_ context.Context, title, message string, isError bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, Outcome{Title: title, Message: message, IsError: isError})
}

func (m *NotifierMock) Ongoing() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.ongoing...)
}

func (m *NotifierMock) Outcomes() []Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Outcome{}, m.outcomes...)
}
