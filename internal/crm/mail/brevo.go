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

// DefaultBrevoURL is the transactional email endpoint.
const DefaultBrevoURL = "https://api.brevo.com/v3/smtp/email"

// BrevoConfig configures the Brevo client. Recipient receives every
// contact notification; the sender must be a verified Brevo sender.
type BrevoConfig struct {
	APIKey string
	APIURL string

	Recipient   string
	SenderEmail string
	SenderName  string

	// Location is the time zone of the date shown in the email.
	Location *time.Location
}

// BrevoClient sends contact notifications through Brevo.
type BrevoClient struct {
	cfg        BrevoConfig
	HTTPClient *http.Client
}

func NewBrevoClient(cfg BrevoConfig) *BrevoClient {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultBrevoURL
	}
	if cfg.SenderEmail == "" {
		cfg.SenderEmail = cfg.Recipient
	}
	if cfg.SenderName == "" {
		cfg.SenderName = "AB Odyssée"
	}
	return &BrevoClient{
		cfg: cfg,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type brevoAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type brevoEmail struct {
	Sender      brevoAddress   `json:"sender"`
	To          []brevoAddress `json:"to"`
	ReplyTo     brevoAddress   `json:"replyTo"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	TextContent string         `json:"textContent"`
}

type brevoResponse struct {
	MessageID string `json:"messageId"`
}

// SendContact renders m and sends it, replying to the visitor. It returns
// the provider's message id.
func (c *BrevoClient) SendContact(ctx context.Context, m ContactMessage) (string, error) {
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = time.Now()
	}

	html, text, err := Render(m, c.cfg.Location)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(brevoEmail{
		Sender:      brevoAddress{Email: c.cfg.SenderEmail, Name: c.cfg.SenderName},
		To:          []brevoAddress{{Email: c.cfg.Recipient}},
		ReplyTo:     brevoAddress{Email: m.Email, Name: m.Name},
		Subject:     m.Subject(),
		HTMLContent: html,
		TextContent: text,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode email: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, bytes.NewReader(body), map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"api-key":      c.cfg.APIKey,
	})
	if err != nil {
		return "", err
	}

	var out brevoResponse
	if err := decodeJSON(resp, &out); err != nil {
		return "", err
	}
	return out.MessageID, nil
}

// doRequest performs an HTTP request against the configured endpoint.
func (c *BrevoClient) doRequest(
	ctx context.Context,
	method string,
	body io.Reader,
	headers map[string]string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.APIURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	return resp, nil
}

// decodeJSON decodes a 2xx response into target, or returns an *APIError.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp, bodyBytes)
	}

	if len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
