//go:build unit

package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRelayServer(t *testing.T, status int, body string) (*httptest.Server, *[]byte) {
	t.Helper()

	var received []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json; charset=utf-8", r.Header.Get("Content-Type"))
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return server, &received
}

func send(t *testing.T, url string) (string, error) {
	t.Helper()

	client := New(Config{Url: url, Shape: ShapeDevice})
	payload := NewPayload(ShapeDevice, bankConfiguration(), "dev-1", "BANK", "You spent $10", receivedAt)
	return client.Send(context.TODO(), payload)
}

func TestSendSuccess(t *testing.T) {
	t.Parallel()

	server, received := newRelayServer(t, http.StatusOK, `{"status":"success","message":"ok"}`)

	message, err := send(t, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", message)

	var body map[string]string
	require.NoError(t, json.Unmarshal(*received, &body))
	assert.Equal(t, "ABC123", body["license_key"])
	assert.Equal(t, "BANK", body["sender_number"])
}

func TestSendSuccessWithoutMessage(t *testing.T) {
	t.Parallel()

	server, _ := newRelayServer(t, http.StatusOK, `{"status":"success"}`)

	message, err := send(t, server.URL)
	require.NoError(t, err)
	assert.Equal(t, "empty response from server", message)
}

func TestSendRejected(t *testing.T) {
	t.Parallel()

	server, _ := newRelayServer(t, http.StatusOK, `{"status":"error","message":"invalid license"}`)

	_, err := send(t, server.URL)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "invalid license", rejected.Reason)
	assert.NotErrorIs(t, err, ErrMalformedResponse)
}

func TestSendAbsentStatusIsRejected(t *testing.T) {
	t.Parallel()

	server, _ := newRelayServer(t, http.StatusOK, `{"message":"quota exceeded"}`)

	_, err := send(t, server.URL)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "quota exceeded", rejected.Reason)
}

func TestSendUnknownStatusIsRejected(t *testing.T) {
	t.Parallel()

	server, _ := newRelayServer(t, http.StatusOK, `{"status":"success_filtered"}`)

	_, err := send(t, server.URL)

	var rejected *RejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "empty response from server", rejected.Reason)
}

func TestSendMalformedBodies(t *testing.T) {
	t.Parallel()

	for _, body := range []string{"", "<html>Moved</html>", `["success"]`, `{"status":`} {
		server, _ := newRelayServer(t, http.StatusOK, body)

		_, err := send(t, server.URL)

		var rejected *RejectedError
		require.ErrorAs(t, err, &rejected, body)
		assert.ErrorIs(t, err, ErrMalformedResponse, body)
		assert.Equal(t, "invalid response", err.Error(), body)
	}
}

func TestSendServerError(t *testing.T) {
	t.Parallel()

	server, _ := newRelayServer(t, http.StatusInternalServerError, `{"status":"success"}`)

	_, err := send(t, server.URL)

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, 500, serverErr.Code)
	assert.EqualError(t, err, "server error: 500")
}

func TestSendConnectionError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := send(t, url)

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, err.Error(), "connection error")
}

func TestSendFollowsRedirect(t *testing.T) {
	t.Parallel()

	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"success","message":"stored"}`))
	}))
	t.Cleanup(target.Close)

	script := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/echo", http.StatusFound)
	}))
	t.Cleanup(script.Close)

	message, err := send(t, script.URL)
	require.NoError(t, err)
	assert.Equal(t, "stored", message)
}

func TestSendCancelledContext(t *testing.T) {
	t.Parallel()

	server, _ := newRelayServer(t, http.StatusOK, `{"status":"success"}`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(Config{Url: server.URL, Shape: ShapeDevice})
	_, err := client.Send(ctx, NewPayload(ShapeDevice, bankConfiguration(), "dev-1", "BANK", "x", receivedAt))

	var connErr *ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.True(t, errors.Is(err, context.Canceled))
}
