package nowplaying

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Player is the playback API the updater polls.
type Player interface {
	CurrentlyPlaying(ctx context.Context) (*Track, bool, error)
	RecentlyPlayed(ctx context.Context) (*Track, error)
}

// Result describes one update pass.
type Result struct {
	Snapshot Snapshot
	Written  bool
}

// Updater refreshes the snapshot file at Path.
type Updater struct {
	player Player
	path   string
	log    *slog.Logger
	now    func() time.Time
}

// UpdaterOption configures Updater.
type UpdaterOption func(*Updater)

// WithLogger sets the updater logger.
func WithLogger(log *slog.Logger) UpdaterOption {
	return func(u *Updater) {
		if log != nil {
			u.log = log
		}
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) UpdaterOption {
	return func(u *Updater) {
		if now != nil {
			u.now = now
		}
	}
}

// NewUpdater constructs an Updater writing to path.
func NewUpdater(player Player, path string, opts ...UpdaterOption) (*Updater, error) {
	if player == nil {
		return nil, errors.New("nowplaying: nil player")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("nowplaying: empty output path")
	}
	u := &Updater{
		player: player,
		path:   path,
		log:    slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(u)
		}
	}
	return u, nil
}

// Run performs one pass: fetch, compare with the file on disk, write when changed.
//
// On API failure the previous track is kept, the snapshot is marked source "error" and not playing,
// and the error is returned after the write.
func (u *Updater) Run(ctx context.Context) (Result, error) {
	prev, hadPrev, err := readSnapshot(u.path)
	if err != nil {
		u.log.WarnContext(ctx, "nowplaying.read.fail", "path", u.path, "err", err)
	}

	next, fetchErr := u.fetch(ctx)
	if fetchErr != nil {
		next = Snapshot{Source: SourceError, IsPlaying: false, Track: prev.Track}
		u.log.ErrorContext(ctx, "nowplaying.fetch.fail", "err", fetchErr)
	}
	next.UpdatedAt = u.now().UTC().Format(time.RFC3339)

	if hadPrev && sameContent(prev, next) {
		u.log.DebugContext(ctx, "nowplaying.unchanged", "source", string(next.Source))
		return Result{Snapshot: prev, Written: false}, fetchErr
	}

	if err := writeSnapshot(u.path, next); err != nil {
		return Result{Snapshot: next}, errors.Join(fetchErr, err)
	}

	attrs := []any{"source", string(next.Source), "is_playing", next.IsPlaying}
	if next.Track != nil {
		attrs = append(attrs, "track", next.Track.Name)
	}
	u.log.InfoContext(ctx, "nowplaying.write.ok", attrs...)
	return Result{Snapshot: next, Written: true}, fetchErr
}

// Loop runs Run every interval until ctx is done. Pass errors are logged, not fatal.
func (u *Updater) Loop(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		_, _ = u.Run(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}

func (u *Updater) fetch(ctx context.Context) (Snapshot, error) {
	track, playing, err := u.player.CurrentlyPlaying(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if track != nil {
		return Snapshot{Source: SourceCurrentlyPlaying, IsPlaying: playing, Track: track}, nil
	}

	track, err = u.player.RecentlyPlayed(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if track != nil {
		return Snapshot{Source: SourceRecentlyPlayed, IsPlaying: false, Track: track}, nil
	}
	return Snapshot{Source: SourceNone, IsPlaying: false}, nil
}
