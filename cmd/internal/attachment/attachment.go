// Package attachment fetches the single file mailed to approved requesters.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"
)

var (
	// ErrNotFound is returned when the configured object does not exist.
	ErrNotFound = errors.New("attachment not found")
	// ErrEmpty is returned when the object exists but has no content.
	ErrEmpty = errors.New("attachment empty")
	// ErrTooLarge is returned when the object exceeds maxObjectBytes. It is never truncated.
	ErrTooLarge = errors.New("attachment too large")
)

// maxObjectBytes bounds how much of an object is read into memory.
const maxObjectBytes = 20 << 20

// readObject reads r fully, failing with ErrTooLarge past limit and ErrEmpty on no content.
func readObject(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: over %d bytes", ErrTooLarge, limit)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}

// File is a fetched attachment.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Source returns the attachment. Each call performs one fetch.
type Source interface {
	Fetch(ctx context.Context) (File, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (File, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context) (File, error) { return f(ctx) }

// displayName returns name when set, otherwise the last path element of key.
func displayName(name, key string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return path.Base(key)
}

// contentTypeFor guesses a MIME type from the file name; PDF is the fallback.
func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/pdf"
}
