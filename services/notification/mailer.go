package notification

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPMailer sends email through an HTTP mail provider (Mailgun-style
// form-encoded messages endpoint with API-key basic auth).
type HTTPMailer struct {
	endpoint string
	apiKey   string
	sender   string
	client   *http.Client
}

func NewHTTPMailer(endpoint, apiKey, sender string) *HTTPMailer {
	return &HTTPMailer{
		endpoint: endpoint,
		apiKey:   apiKey,
		sender:   sender,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (m *HTTPMailer) Send(ctx context.Context, recipient, subject, body string) error {
	form := url.Values{}
	form.Set("from", m.sender)
	form.Set("to", recipient)
	form.Set("subject", subject)
	form.Set("text", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth("api", m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mail provider rejected message (code %d)", resp.StatusCode)
	}
	return nil
}
