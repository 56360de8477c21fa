package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the Resend emails endpoint.
const DefaultEndpoint = "https://api.resend.com/emails"

// APIError is returned when the mail API answers with a non-2xx status.
type APIError struct {
	Status int
	Body   string
}

func (e APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("mail api: status %d", e.Status)
	}
	return fmt.Sprintf("mail api: status %d: %s", e.Status, e.Body)
}

// HTTPSender posts messages to a Resend-compatible JSON API.
type HTTPSender struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// HTTPOption configures HTTPSender.
type HTTPOption func(*HTTPSender)

// WithHTTPClient overrides the HTTP client (default: 15s timeout).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(s *HTTPSender) {
		if c != nil {
			s.client = c
		}
	}
}

// NewHTTPSender constructs an HTTPSender. endpoint defaults to DefaultEndpoint.
func NewHTTPSender(endpoint, apiKey string, opts ...HTTPOption) (*HTTPSender, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("mail: api key required")
	}
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	s := &HTTPSender{
		endpoint: endpoint,
		apiKey:   apiKey,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

type apiAttachment struct {
	Filename    string `json:"filename"`
	Content     string `json:"content"`
	ContentType string `json:"content_type,omitempty"`
}

type apiMessage struct {
	From        string          `json:"from"`
	To          []string        `json:"to"`
	Bcc         []string        `json:"bcc,omitempty"`
	ReplyTo     string          `json:"reply_to,omitempty"`
	Subject     string          `json:"subject"`
	HTML        string          `json:"html,omitempty"`
	Text        string          `json:"text,omitempty"`
	Attachments []apiAttachment `json:"attachments,omitempty"`
}

// Send delivers msg with a single POST. There is no retry.
func (s *HTTPSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	body := apiMessage{
		From:    strings.TrimSpace(msg.From),
		To:      nonEmpty(msg.To),
		Bcc:     nonEmpty(msg.Bcc),
		ReplyTo: strings.TrimSpace(msg.ReplyTo),
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	if len(body.Bcc) == 0 {
		body.Bcc = nil
	}
	for _, a := range msg.Attachments {
		body.Attachments = append(body.Attachments, apiAttachment{
			Filename:    a.Filename,
			Content:     base64.StdEncoding.EncodeToString(a.Content),
			ContentType: a.ContentType,
		})
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("mail api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
