//go:build integration

package smtp

import (
	"context"
	"os"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientSendIntegration(t *testing.T) {
	port, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	client := New(Config{
		User:             os.Getenv("SMTP_USER"),
		Password:         os.Getenv("SMTP_PASS"),
		Host:             os.Getenv("SMTP_HOST"),
		Port:             port,
		From:             os.Getenv("SMTP_FROM"),
		FromName:         "SMS Connector",
		StartTls:         os.Getenv("SMTP_STARTTLS") == "true",
		AllowInsecureTls: true,
	})

	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := client.Send(context.Background(), Message{
				To:      os.Getenv("SMTP_TO"),
				Subject: "New SMS from BANK",
				Body:    "Sender: BANK\nMessage: You spent $10",
			})
			require.NoError(t, err)
		}()
	}

	wg.Wait()
}
