// Package nowplaying keeps a small JSON file describing what the site owner is listening to.
package nowplaying

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// Source tells where a snapshot's track came from.
type Source string

const (
	SourceCurrentlyPlaying Source = "currently-playing"
	SourceRecentlyPlayed   Source = "recently-played"
	SourceNone             Source = "none"
	SourceError            Source = "error"
)

// Track is the subset of a Spotify track the site renders.
type Track struct {
	Name       string   `json:"name"`
	Artists    []string `json:"artists"`
	Album      string   `json:"album"`
	ImageURL   string   `json:"imageUrl"`
	SpotifyURL string   `json:"spotifyUrl"`
}

// Snapshot is the file format. Track is null when nothing is known.
type Snapshot struct {
	UpdatedAt string `json:"updatedAt"`
	IsPlaying bool   `json:"isPlaying"`
	Source    Source `json:"source"`
	Track     *Track `json:"track"`
}

// sameContent reports whether a and b differ only in UpdatedAt.
func sameContent(a, b Snapshot) bool {
	if a.IsPlaying != b.IsPlaying || a.Source != b.Source {
		return false
	}
	switch {
	case a.Track == nil || b.Track == nil:
		return a.Track == nil && b.Track == nil
	default:
		ta, tb := *a.Track, *b.Track
		return ta.Name == tb.Name &&
			ta.Album == tb.Album &&
			ta.ImageURL == tb.ImageURL &&
			ta.SpotifyURL == tb.SpotifyURL &&
			slices.Equal(ta.Artists, tb.Artists)
	}
}

// readSnapshot loads path. A missing or unreadable file yields ok=false.
func readSnapshot(path string) (Snapshot, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}
	var s Snapshot
	if err := json.Unmarshal(b, &s); err != nil {
		// A corrupt file is simply replaced on the next write.
		return Snapshot{}, false, nil
	}
	return s, true, nil
}

// writeSnapshot replaces path atomically: temp file in the same directory, fsync, rename.
func writeSnapshot(path string, s Snapshot) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
