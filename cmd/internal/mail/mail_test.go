package mail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

func validMessage() Message {
	return Message{
		From:    "Resumes <resume@example.com>",
		To:      []string{"jo@x.com"},
		Bcc:     []string{"owner@example.com"},
		ReplyTo: "owner@example.com",
		Subject: "Your requested resume",
		HTML:    "<p>hello</p>",
		Text:    "hello",
		Attachments: []Attachment{{
			Filename:    "resume.pdf",
			ContentType: "application/pdf",
			Content:     []byte("%PDF-1.4"),
		}},
	}
}

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Message)
		ok     bool
	}{
		{name: "valid", mutate: func(*Message) {}, ok: true},
		{name: "text only", mutate: func(m *Message) { m.HTML = "" }, ok: true},
		{name: "missing from", mutate: func(m *Message) { m.From = " " }},
		{name: "blank recipients", mutate: func(m *Message) { m.To = []string{"", " "} }},
		{name: "missing subject", mutate: func(m *Message) { m.Subject = "" }},
		{name: "missing body", mutate: func(m *Message) { m.HTML, m.Text = "", "" }},
		{name: "empty attachment", mutate: func(m *Message) { m.Attachments[0].Content = nil }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			m := validMessage()
			tc.mutate(&m)
			err := m.Validate()
			if tc.ok && err != nil {
				t.Fatalf("expected valid, got %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrInvalidMessage) {
				t.Fatalf("expected ErrInvalidMessage, got %v", err)
			}
		})
	}
}

func TestHTTPSender_Send(t *testing.T) {
	t.Parallel()

	var got apiMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	s, err := NewHTTPSender(srv.URL, "re_test_key")
	if err != nil {
		t.Fatalf("NewHTTPSender: %v", err)
	}
	if err := s.Send(context.Background(), validMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}

	if auth != "Bearer re_test_key" {
		t.Fatalf("authorization header=%q", auth)
	}
	if got.Subject != "Your requested resume" || len(got.To) != 1 || got.To[0] != "jo@x.com" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if len(got.Bcc) != 1 || got.ReplyTo != "owner@example.com" {
		t.Fatalf("bcc/reply_to not forwarded: %+v", got)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(got.Attachments))
	}
	raw, err := base64.StdEncoding.DecodeString(got.Attachments[0].Content)
	if err != nil || string(raw) != "%PDF-1.4" {
		t.Fatalf("attachment content mismatch: %q err=%v", raw, err)
	}
}

func TestHTTPSender_APIError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"domain not verified"}`))
	}))
	defer srv.Close()

	s, err := NewHTTPSender(srv.URL, "re_test_key")
	if err != nil {
		t.Fatalf("NewHTTPSender: %v", err)
	}
	err = s.Send(context.Background(), validMessage())

	var apiErr APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", apiErr.Status)
	}
}

func TestHTTPSender_RequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewHTTPSender("", "  "); err == nil {
		t.Fatalf("expected error for missing api key")
	}
}

func TestLogSender(t *testing.T) {
	t.Parallel()

	s := LogSender{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}
	if err := s.Send(context.Background(), validMessage()); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := s.Send(context.Background(), Message{}); !errors.Is(err, ErrInvalidMessage) {
		t.Fatalf("expected ErrInvalidMessage, got %v", err)
	}
}
