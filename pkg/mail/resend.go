package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const resendEndpoint = "https://api.resend.com/emails"

// Message is a single outbound email.
type Message struct {
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// Mailer sends a message. Implementations are best-effort collaborators;
// callers decide what a failure means.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResendMailer delivers messages through the Resend REST API.
type ResendMailer struct {
	apiKey string
	from   string
	client *http.Client
}

// NewResend builds a Resend-backed mailer.
func NewResend(apiKey, from string, timeout time.Duration) *ResendMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ResendMailer{
		apiKey: apiKey,
		from:   from,
		client: &http.Client{Timeout: timeout},
	}
}

// Send posts the message. A non-2xx response is an error.
func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	payload := struct {
		From string `json:"from"`
		Message
	}{From: m.from, Message: msg}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("resend responded %d: %s", resp.StatusCode, snippet)
	}

	return nil
}
