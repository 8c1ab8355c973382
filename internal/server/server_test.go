//go:build unit

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sms-connector/internal/listener"
	"sms-connector/internal/notifier"
	"sms-connector/internal/testutils/mocks"
)

type dispatcherMock struct {
	batches [][]listener.InboundMessage
}

func (m *dispatcherMock) Dispatch(messages []listener.InboundMessage) {
	m.batches = append(m.batches, messages)
}

func newTestServer(cfg Config) (*Server, *dispatcherMock) {
	d := &dispatcherMock{}
	s := NewServer(cfg, d)
	_, s.logger = mocks.NewLoggerMock()
	s.now = func() time.Time { return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC) }
	return s, d
}

func post(t *testing.T, h http.Handler, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages", strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestPostMessagesAccepted(t *testing.T) {
	s, d := newTestServer(Config{})

	rec := post(t, s.Router(), `{"messages":[{"sender":"BANK","body":"a"},{"sender":"","body":"b"}]}`, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"accepted":2}`, rec.Body.String())
	require.Len(t, d.batches, 1)
	assert.Equal(t, "BANK", d.batches[0][0].Sender)
	assert.Equal(t, listener.UnknownSender, d.batches[0][1].Sender)
}

func TestPostSingleMessage(t *testing.T) {
	s, d := newTestServer(Config{})

	rec := post(t, s.Router(), `{"sender":"BANK","body":"a"}`, nil)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.JSONEq(t, `{"accepted":1}`, rec.Body.String())
	require.Len(t, d.batches, 1)
}

func TestPostInvalidJson(t *testing.T) {
	s, d := newTestServer(Config{})

	rec := post(t, s.Router(), `{"messages":`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
	assert.Empty(t, d.batches)
}

func TestPostRejectsUnrecognizedObjects(t *testing.T) {
	s, d := newTestServer(Config{})
	router := s.Router()

	for _, body := range []string{`{}`, `{"messages":null}`, `{"msg":{"sender":"BANK","body":"x"}}`} {
		rec := post(t, router, body, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
		assert.Contains(t, rec.Body.String(), "error", body)
	}
	assert.Empty(t, d.batches)
}

func TestWebhookToken(t *testing.T) {
	s, d := newTestServer(Config{WebhookToken: "secret"})
	router := s.Router()

	assert.Equal(t, http.StatusUnauthorized, post(t, router, `{"sender":"A"}`, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, post(t, router, `{"sender":"A"}`, map[string]string{"Authorization": "Bearer nope"}).Code)
	assert.Equal(t, http.StatusAccepted, post(t, router, `{"sender":"A"}`, map[string]string{"Authorization": "Bearer secret"}).Code)
	assert.Len(t, d.batches, 1)
}

func TestHealthCheck(t *testing.T) {
	s, _ := newTestServer(Config{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-check", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec = httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health-check", nil).WithContext(ctx))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNotifications(t *testing.T) {
	platform := notifier.NewMemoryPlatform(true, 10)
	n := notifier.New(platform)
	n.SetOngoing(context.TODO(), "Awaiting new messages...")
	n.PostOutcome(context.TODO(), "SMS synced", "ok", false)

	s, _ := newTestServer(Config{})
	s.WithNotifications(platform)

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snapshot notifier.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	require.NotNil(t, snapshot.Ongoing)
	assert.Equal(t, "Awaiting new messages...", snapshot.Ongoing.Text)
	require.Len(t, snapshot.Outcomes, 1)
	assert.Equal(t, "SMS synced", snapshot.Outcomes[0].Title)
}

func TestNotificationsNotMountedWithoutSource(t *testing.T) {
	s, _ := newTestServer(Config{})

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/notifications", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(Config{})
	s.WithMetrics(promhttp.Handler())

	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	s, _ := newTestServer(Config{Port: 0})
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not stop")
	}
}
