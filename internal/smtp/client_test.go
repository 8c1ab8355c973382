//go:build unit

package smtp

import (
	"context"
	"mime"
	"net"
	"net/mail"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newBuilder() *MessageBuilder {
	b := NewMessageBuilder(mail.Address{Name: "SMS Connector", Address: "relay@example.com"})
	b.now = func() time.Time { return fixedNow }
	return b
}

func TestBuildPlainTextMessage(t *testing.T) {
	t.Parallel()

	raw, err := newBuilder().Build(Message{
		To:      "a@b.com",
		Subject: "New SMS from BANK",
		Body:    "Sender: BANK\nMessage: You spent $10",
	})
	require.NoError(t, err)

	msg := string(raw)
	assert.True(t, strings.HasPrefix(msg, "From: \"SMS Connector\" <relay@example.com>\r\n"))
	assert.Contains(t, msg, "To: <a@b.com>\r\n")
	assert.Contains(t, msg, "Date: Sat, 09 Mar 2024 14:05:07 +0000\r\n")
	assert.Contains(t, msg, "Subject: New SMS from BANK\r\n")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=utf-8\r\n")
	assert.Contains(t, msg, "\r\n\r\nSender: BANK\r\nMessage: You spent $10")

	parsed, err := mail.ReadMessage(strings.NewReader(msg))
	require.NoError(t, err)
	assert.Equal(t, "New SMS from BANK", parsed.Header.Get("Subject"))
}

func TestBuildEncodesNonAsciiSubject(t *testing.T) {
	t.Parallel()

	raw, err := newBuilder().Build(Message{To: "a@b.com", Subject: "Novo SMS de João", Body: "Olá"})
	require.NoError(t, err)

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)

	subject, err := new(mime.WordDecoder).DecodeHeader(parsed.Header.Get("Subject"))
	require.NoError(t, err)
	assert.Equal(t, "Novo SMS de João", subject)
	assert.Contains(t, string(raw), "Ol=C3=A1")
}

func TestBuildFoldsLongSubject(t *testing.T) {
	t.Parallel()

	subject := strings.Repeat("word ", 40)
	raw, err := newBuilder().Build(Message{To: "a@b.com", Subject: subject, Body: "x"})
	require.NoError(t, err)

	header := strings.SplitN(string(raw), "\r\n\r\n", 2)[0]
	for _, line := range strings.Split(header, "\r\n") {
		assert.LessOrEqual(t, len(line), 78, line)
	}

	parsed, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(subject), strings.TrimSpace(parsed.Header.Get("Subject")))
}

func TestBuildWithFakeRecipient(t *testing.T) {
	t.Parallel()

	_, err := newBuilder().Build(Message{To: "not-an-address", Subject: "s", Body: "b"})
	assert.EqualError(t, err, "mail: missing '@' or angle-addr")
}

func TestBuildWithoutSender(t *testing.T) {
	t.Parallel()

	_, err := NewMessageBuilder(mail.Address{}).Build(Message{To: "a@b.com"})
	assert.EqualError(t, err, "sender address not configured")
}

func TestClientSendConnectionRefused(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())

	client := New(Config{Host: "127.0.0.1", Port: port, From: "relay@example.com", User: "u", Password: "p"})
	err = client.Send(context.TODO(), Message{To: "a@b.com", Subject: "s", Body: "b"})
	assert.Error(t, err)
}

func TestClientSendCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(Config{Host: "127.0.0.1", Port: 465, From: "relay@example.com"})
	err := client.Send(ctx, Message{To: "a@b.com", Subject: "s", Body: "b"})
	assert.Error(t, err)
}
