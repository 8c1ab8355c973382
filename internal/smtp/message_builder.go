package smtp

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

type MessageBuilder struct {
	from mail.Address
	now  func() time.Time
}

func NewMessageBuilder(from mail.Address) *MessageBuilder {
	return &MessageBuilder{from: from, now: time.Now}
}

func (b *MessageBuilder) From() mail.Address {
	return b.from
}

func (b *MessageBuilder) Build(msg Message) ([]byte, error) {
	if b.from.Address == "" {
		return nil, errors.New("sender address not configured")
	}

	to, err := mail.ParseAddress(msg.To)
	if err != nil {
		return nil, err
	}

	headers := [][2]string{
		{"From", b.from.String()},
		{"To", to.String()},
		{"Date", b.now().Format(time.RFC1123Z)},
		{"Subject", mime.QEncoding.Encode("utf-8", msg.Subject)},
		{"MIME-Version", "1.0"},
		{"Content-Type", "text/plain; charset=utf-8"},
		{"Content-Transfer-Encoding", "quoted-printable"},
	}

	var buf bytes.Buffer

	for _, header := range headers {
		if err := b.writeFoldedHeader(&buf, header[0], header[1]); err != nil {
			return nil, fmt.Errorf("failed to write header %s: %w", header[0], err)
		}
	}

	if _, err := buf.Write([]byte("\r\n")); err != nil {
		return nil, fmt.Errorf("failed to write newline after headers: %w", err)
	}

	writer := quotedprintable.NewWriter(&buf)
	if _, err = writer.Write([]byte(normalizeLineEndings(msg.Body))); err != nil {
		return nil, fmt.Errorf("failed to write body: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close quoted-printable writer: %w", err)
	}

	if _, err = buf.Write([]byte("\r\n")); err != nil {
		return nil, fmt.Errorf("failed to write blank line after body: %w", err)
	}

	return buf.Bytes(), nil
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func (b *MessageBuilder) canFoldHeader(key string) bool {
	unfoldable := []string{
		"From", "To", "Cc", "Bcc", "Reply-To", "Sender",
		"Content-Type", "Content-Disposition", "Content-Transfer-Encoding",
	}

	for _, header := range unfoldable {
		if strings.EqualFold(key, header) {
			return false
		}
	}

	return true
}

func (b *MessageBuilder) writeFoldedHeader(target io.Writer, key, value string) error {
	headerLine := fmt.Sprintf("%s: %s\r\n", key, value)

	if len(headerLine) > 998 {
		maxValueLen := 998 - len(key) - 4
		if maxValueLen > 0 {
			value = value[:maxValueLen]
			headerLine = fmt.Sprintf("%s: %s\r\n", key, value)
		}
	}

	if !b.canFoldHeader(key) || len(headerLine) <= 78 {
		_, err := io.WriteString(target, headerLine)
		return err
	}

	// fold on whitespace only, continuation lines start with a single space
	words := strings.Split(value, " ")
	line := key + ":"
	var folded strings.Builder

	for _, word := range words {
		if len(line)+1+len(word) > 76 && len(line) > len(key)+1 {
			folded.WriteString(line + "\r\n")
			line = ""
		}
		line += " " + word
	}
	folded.WriteString(line + "\r\n")

	_, err := io.WriteString(target, folded.String())
	return err
}
