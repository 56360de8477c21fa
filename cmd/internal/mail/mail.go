// Package mail defines the outbound transactional-email boundary.
//
// Transports are interchangeable behind Sender. HTTPSender talks to a Resend-compatible
// JSON API; LogSender only records that a message would have been sent.
package mail

import (
	"context"
	"errors"
	"log/slog"
	"strings"
)

var (
	// ErrInvalidMessage is returned when a message lacks a sender, recipient, subject or body.
	ErrInvalidMessage = errors.New("invalid mail message")
)

// Attachment is a file carried by a message.
type Attachment struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Message is one outbound email.
type Message struct {
	From        string
	To          []string
	Bcc         []string
	ReplyTo     string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// Validate checks the fields every transport needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.From) == "" || strings.TrimSpace(m.Subject) == "" {
		return ErrInvalidMessage
	}
	if len(nonEmpty(m.To)) == 0 {
		return ErrInvalidMessage
	}
	if strings.TrimSpace(m.HTML) == "" && strings.TrimSpace(m.Text) == "" {
		return ErrInvalidMessage
	}
	for _, a := range m.Attachments {
		if strings.TrimSpace(a.Filename) == "" || len(a.Content) == 0 {
			return ErrInvalidMessage
		}
	}
	return nil
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender is the default sender when no mail API is configured.
// It logs envelope metadata only; bodies carry bearer links and are never logged.
type LogSender struct {
	Log *slog.Logger
}

// Send validates msg and logs its envelope.
func (s LogSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.InfoContext(ctx, "mail.send.skipped",
		"reason", "no_transport",
		"to_count", len(nonEmpty(msg.To)),
		"bcc_count", len(nonEmpty(msg.Bcc)),
		"attachments", len(msg.Attachments),
	)
	return nil
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
