// Package main provides a CI-friendly smoke test for a running resumegate server.
//
// It validates:
//   - liveness and readiness probes
//   - CORS preflight on the intake route
//   - intake accepts a valid request and rejects unknown fields
//   - decision links: missing token, forged token, unknown id
//   - replaying a minted deny link for an unknown id stays 404
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"resumegate/cmd/security/token"
)

const maxReadBytes = 1 << 20 // 1MiB

type smokeClient struct {
	base    string
	origin  string
	http    *http.Client
	timeout time.Duration
	verbose bool
}

func main() {
	var (
		baseURL = flag.String("url", "http://127.0.0.1:8080", "Server base URL")
		origin  = flag.String("origin", "http://localhost:4321", "Origin header to send")
		email   = flag.String("email", "smoke@example.com", "Requester email for the intake step")
		secret  = flag.String("secret", "", "Token secret for minted links (default: RG_TOKEN_SECRET)")
		timeout = flag.Duration("timeout", 7*time.Second, "Per-step timeout")
		verbose = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	if err := validateBaseURL(*baseURL); err != nil {
		fatalf("invalid -url: %v", err)
	}
	if strings.TrimSpace(*secret) == "" {
		*secret = os.Getenv("RG_TOKEN_SECRET")
	}

	c := &smokeClient{
		base:    strings.TrimRight(*baseURL, "/"),
		origin:  *origin,
		http:    &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse }},
		timeout: *timeout,
		verbose: *verbose,
	}
	root := context.Background()

	mustStatus(root, c, http.MethodGet, "/healthz", nil, http.StatusOK)
	mustStatus(root, c, http.MethodGet, "/readyz", nil, http.StatusOK)

	mustPreflight(root, c)

	mustIntake(root, c, map[string]string{
		"name":    "Smoke Test",
		"email":   *email,
		"company": "Smoke Co",
		"reason":  fmt.Sprintf("smoke run %d", time.Now().UnixNano()),
	}, http.StatusOK)
	mustIntake(root, c, map[string]string{
		"name":    "Smoke Test",
		"email":   *email,
		"company": "Smoke Co",
		"reason":  "extra field",
		"extra":   "nope",
	}, http.StatusBadRequest)

	mustStatus(root, c, http.MethodGet, "/api/resume-decision", nil, http.StatusBadRequest)
	mustStatus(root, c, http.MethodGet, "/api/resume-decision?token=not.a-token", nil, http.StatusBadRequest)

	if strings.TrimSpace(*secret) == "" {
		fmt.Println("SKIP: minted-link checks (no -secret or RG_TOKEN_SECRET)")
		fmt.Println("OK")
		return
	}

	codec, err := token.NewCodec([]byte(strings.TrimSpace(*secret)))
	if err != nil {
		fatalf("token codec: %v", err)
	}
	unknownID := ulid.Make().String()
	for _, action := range []token.Action{token.ActionApprove, token.ActionDeny, token.ActionDeny} {
		tok, err := codec.Issue(unknownID, action, time.Now(), time.Hour)
		if err != nil {
			fatalf("mint %s: %v", action, err)
		}
		mustStatus(root, c, http.MethodGet, "/api/resume-decision?token="+url.QueryEscape(tok), nil, http.StatusNotFound)
	}

	fmt.Printf("OK: unknown_id=%s\n", unknownID)
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	if strings.TrimSpace(u.Host) == "" {
		return errors.New("missing host")
	}
	return nil
}

func (c *smokeClient) do(parent context.Context, method, path string, body []byte, header http.Header) (int, http.Header, []byte) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		fatalf("%s %s: build request: %v", method, path, err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.origin != "" && req.Header.Get("Origin") == "" {
		req.Header.Set("Origin", c.origin)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		fatalf("%s %s: %v", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxReadBytes))
	if err != nil {
		fatalf("%s %s: read body: %v", method, path, err)
	}
	if c.verbose {
		fmt.Printf("%s %s -> %d\n", method, redact(path), resp.StatusCode)
	}
	return resp.StatusCode, resp.Header, b
}

func mustStatus(ctx context.Context, c *smokeClient, method, path string, body []byte, want int) []byte {
	got, _, b := c.do(ctx, method, path, body, nil)
	if got != want {
		fatalf("%s %s: status=%d want=%d body=%q", method, redact(path), got, want, truncate(b))
	}
	return b
}

func mustPreflight(ctx context.Context, c *smokeClient) {
	h := http.Header{}
	h.Set("Access-Control-Request-Method", http.MethodPost)
	h.Set("Access-Control-Request-Headers", "content-type")

	status, hdr, _ := c.do(ctx, http.MethodOptions, "/api/resume-request", nil, h)
	if status != http.StatusNoContent {
		fatalf("preflight: status=%d want=204", status)
	}
	if hdr.Get("Access-Control-Allow-Origin") == "" {
		fatalf("preflight: missing Access-Control-Allow-Origin")
	}
	if !strings.Contains(hdr.Get("Access-Control-Allow-Methods"), http.MethodPost) {
		fatalf("preflight: POST not allowed: %q", hdr.Get("Access-Control-Allow-Methods"))
	}
}

func mustIntake(ctx context.Context, c *smokeClient, payload map[string]string, want int) {
	body, err := json.Marshal(payload)
	if err != nil {
		fatalf("intake: marshal: %v", err)
	}
	h := http.Header{}
	h.Set("Content-Type", "application/json")

	status, _, b := c.do(ctx, http.MethodPost, "/api/resume-request", body, h)
	if status != want {
		fatalf("intake: status=%d want=%d body=%q", status, want, truncate(b))
	}
	if want != http.StatusOK {
		return
	}
	var resp struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(b, &resp); err != nil || !resp.OK {
		fatalf("intake: unexpected body %q (err=%v)", truncate(b), err)
	}
}

// redact keeps decision tokens out of CI logs.
func redact(path string) string {
	if i := strings.Index(path, "token="); i >= 0 {
		return path[:i] + "token=REDACTED"
	}
	return path
}

func truncate(b []byte) string {
	const n = 200
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "FAIL: "+format+"\n", args...)
	os.Exit(1)
}
