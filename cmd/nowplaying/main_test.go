package main

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()

	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	return cmd.ExecuteContext(context.Background())
}

func TestRootCmd_RequiresOut(t *testing.T) {
	err := execute(t, "--once")
	if err == nil || !strings.Contains(err.Error(), `"out"`) {
		t.Fatalf("expected missing --out error, got %v", err)
	}
}

func TestRootCmd_RejectsTinyInterval(t *testing.T) {
	out := filepath.Join(t.TempDir(), "np.json")
	err := execute(t, "--out", out, "--interval", "10ms", "--log-format", "json")
	if err == nil || !strings.Contains(err.Error(), "--interval") {
		t.Fatalf("expected interval error, got %v", err)
	}
}

func TestRootCmd_RequiresCredentials(t *testing.T) {
	t.Setenv("SPOTIFY_CLIENT_ID", "")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "")
	t.Setenv("SPOTIFY_REFRESH_TOKEN", "")

	out := filepath.Join(t.TempDir(), "np.json")
	err := execute(t, "--out", out, "--once", "--log-format", "json")
	if err == nil || !strings.Contains(err.Error(), "SPOTIFY_CLIENT_ID") {
		t.Fatalf("expected credential error, got %v", err)
	}
}
