// Package mailport is the outbound-email port SPEC_FULL.md §4.7 describes:
// a fixed interface the identity and registry services send notification
// mail through, with a production adapter and a dev/no-op adapter, never
// reimplemented internally.
package mailport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers outbound email.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the dev/no-op adapter: it logs the message instead of
// delivering it, for local development and tests.
type LogSender struct {
	Logger *slog.Logger
}

// NewLogSender builds a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{Logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("mail: would send", "to", msg.To, "subject", msg.Subject)
	return nil
}

// HTTPSender is the production adapter: it posts to a transactional-email
// HTTP API (an SES/SendGrid-style endpoint) rather than speaking SMTP
// directly.
type HTTPSender struct {
	endpoint string
	apiKey   string
	from     string
	client   *http.Client
}

// NewHTTPSender builds an HTTPSender against a transactional email API
// reachable at endpoint, authenticated with apiKey, sending as from.
func NewHTTPSender(endpoint, apiKey, from string) *HTTPSender {
	return &HTTPSender{endpoint: endpoint, apiKey: apiKey, from: from, client: &http.Client{}}
}

func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if s.endpoint == "" {
		return fmt.Errorf("mailport: no endpoint configured")
	}

	form := url.Values{}
	form.Set("from", s.from)
	form.Set("to", msg.To)
	form.Set("subject", msg.Subject)
	form.Set("text", msg.Body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("building mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider responded %d", resp.StatusCode)
	}
	return nil
}
