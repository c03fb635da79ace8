// Package sendgrid implements the outbound email client against a
// SendGrid-compatible mail API.
package sendgrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ignite/newsletter-service/internal/config"
	"github.com/ignite/newsletter-service/internal/domain"
)

// HTTPDoer is the interface for executing HTTP requests.
// *http.Client satisfies this interface.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client is a mail API client. It is safe for concurrent use and carries
// no per-send mutable state.
type Client struct {
	baseURL    string
	apiKey     string
	sender     domain.SubscriberEmail
	httpClient HTTPDoer
}

// NewClient creates a new mail API client with the configured sender and
// request timeout.
func NewClient(cfg config.EmailConfig, sender domain.SubscriberEmail) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		sender:  sender,
		httpClient: &http.Client{
			Timeout: cfg.Timeout(),
		},
	}
}

type sendRequest struct {
	Personalizations []personalization `json:"personalizations"`
	From             emailAddress      `json:"from"`
	Subject          string            `json:"subject"`
	Content          []bodyContent     `json:"content"`
}

type personalization struct {
	To []emailAddress `json:"to"`
}

type emailAddress struct {
	Email string `json:"email"`
}

type bodyContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Send delivers one templated message to one recipient via a single POST to
// /v3/mail/send. Exactly one outbound call is made per invocation; there is
// no retry or buffering, the caller owns retry policy. Any transport error
// or non-2xx response is returned as an error.
func (c *Client) Send(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error {
	payload := sendRequest{
		Personalizations: []personalization{
			{To: []emailAddress{{Email: recipient.String()}}},
		},
		From:    emailAddress{Email: c.sender.String()},
		Subject: subject,
		Content: []bodyContent{
			{Type: "text/plain", Value: textBody},
			{Type: "text/html", Value: htmlBody},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding send request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("mail API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	// Drain for connection reuse
	io.Copy(io.Discard, resp.Body)
	return nil
}
