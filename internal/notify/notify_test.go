package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPNotifier_Validation(t *testing.T) {
	_, err := NewSMTPNotifier(SMTPConfig{Host: "mail", Port: 25, From: "aet@example.org"})
	assert.Error(t, err)

	_, err = NewSMTPNotifier(SMTPConfig{Host: "mail", Port: 25, Recipients: []string{"a@example.org"}})
	assert.Error(t, err)
}

func TestSMTPNotifier_Notify(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{
		Host:       "mail.example.org",
		Port:       587,
		Username:   "aet",
		Password:   "secret",
		From:       "aet@example.org",
		Recipients: []string{"a@example.org", "b@example.org"},
	})
	require.NoError(t, err)
	n.now = func() time.Time { return time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC) }

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	var gotAuth smtp.Auth
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotMsg = addr, a, from, to, msg
		return nil
	}

	err = n.Notify(context.Background(), "Successful AET Update", "line one\n\nline two")
	require.NoError(t, err)

	assert.Equal(t, "mail.example.org:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "aet@example.org", gotFrom)
	assert.Equal(t, []string{"a@example.org", "b@example.org"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "To: a@example.org,b@example.org\r\n")
	assert.Contains(t, msg, "Subject: Successful AET Update\r\n")
	assert.Contains(t, msg, "\r\n\r\nline one\r\n\r\nline two\r\n")
}

func TestSMTPNotifier_NoAuthWithoutUsername(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{Host: "relay", Port: 25, From: "aet@example.org", Recipients: []string{"a@example.org"}})
	require.NoError(t, err)

	var gotAuth smtp.Auth = smtp.PlainAuth("", "x", "y", "relay")
	n.send = func(_ string, a smtp.Auth, _ string, _ []string, _ []byte) error {
		gotAuth = a
		return nil
	}

	require.NoError(t, n.Notify(context.Background(), "s", "b"))
	assert.Nil(t, gotAuth)
}

func TestSMTPNotifier_SendError(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{Host: "relay", Port: 25, From: "aet@example.org", Recipients: []string{"a@example.org"}})
	require.NoError(t, err)

	relayErr := errors.New("connection refused")
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return relayErr }

	err = n.Notify(context.Background(), "s", "b")
	assert.ErrorIs(t, err, relayErr)
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	require.NoError(t, n.Notify(context.Background(), "Unsuccessful AET Update", "boom"))

	out := buf.String()
	assert.True(t, strings.Contains(out, `subject="Unsuccessful AET Update"`), out)
	assert.Contains(t, out, "body=boom")
}
