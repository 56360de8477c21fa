package nowplaying

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	DefaultAPIBase  = "https://api.spotify.com"
)

// Credentials are the long-lived app credentials plus the owner's refresh token.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
}

// Validate reports which credential is missing.
func (c Credentials) Validate() error {
	var missing []string
	if strings.TrimSpace(c.ClientID) == "" {
		missing = append(missing, "SPOTIFY_CLIENT_ID")
	}
	if strings.TrimSpace(c.ClientSecret) == "" {
		missing = append(missing, "SPOTIFY_CLIENT_SECRET")
	}
	if strings.TrimSpace(c.RefreshToken) == "" {
		missing = append(missing, "SPOTIFY_REFRESH_TOKEN")
	}
	if len(missing) > 0 {
		return fmt.Errorf("nowplaying: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// StatusError is a non-success response from the Web API.
type StatusError struct {
	Endpoint string
	Status   int
}

func (e StatusError) Error() string {
	return fmt.Sprintf("spotify %s: status %d", e.Endpoint, e.Status)
}

// Client reads playback state from the Spotify Web API.
type Client struct {
	http    *http.Client
	apiBase string
}

// ClientOption configures Client.
type ClientOption func(*clientOptions)

type clientOptions struct {
	tokenURL string
	apiBase  string
	base     *http.Client
}

// WithTokenURL overrides the OAuth token endpoint (tests).
func WithTokenURL(u string) ClientOption {
	return func(o *clientOptions) { o.tokenURL = u }
}

// WithAPIBase overrides the Web API origin (tests).
func WithAPIBase(u string) ClientOption {
	return func(o *clientOptions) { o.apiBase = strings.TrimRight(u, "/") }
}

// WithBaseHTTPClient sets the transport used for both token refresh and API calls.
func WithBaseHTTPClient(c *http.Client) ClientOption {
	return func(o *clientOptions) { o.base = c }
}

// NewClient builds a Client whose access token is refreshed on demand from creds.
func NewClient(ctx context.Context, creds Credentials, opts ...ClientOption) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	o := clientOptions{
		tokenURL: DefaultTokenURL,
		apiBase:  DefaultAPIBase,
		base:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	conf := &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			TokenURL:  o.tokenURL,
			AuthStyle: oauth2.AuthStyleInHeader,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, o.base)
	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: creds.RefreshToken})

	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = o.base.Timeout
	return &Client{http: hc, apiBase: o.apiBase}, nil
}

type apiTrack struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
	Album struct {
		Name   string `json:"name"`
		Images []struct {
			URL string `json:"url"`
		} `json:"images"`
	} `json:"album"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (t *apiTrack) toTrack() *Track {
	if t == nil || t.Name == "" {
		return nil
	}
	out := &Track{
		Name:       t.Name,
		Artists:    make([]string, 0, len(t.Artists)),
		Album:      t.Album.Name,
		SpotifyURL: t.ExternalURLs.Spotify,
	}
	for _, a := range t.Artists {
		out.Artists = append(out.Artists, a.Name)
	}
	// Spotify lists images largest first.
	if len(t.Album.Images) > 0 {
		out.ImageURL = t.Album.Images[0].URL
	}
	return out
}

type currentlyPlayingResponse struct {
	IsPlaying bool      `json:"is_playing"`
	Item      *apiTrack `json:"item"`
}

type recentlyPlayedResponse struct {
	Items []struct {
		Track *apiTrack `json:"track"`
	} `json:"items"`
}

// CurrentlyPlaying returns the active track. A nil track means nothing (or a non-track item,
// such as a podcast episode) is playing.
func (c *Client) CurrentlyPlaying(ctx context.Context) (*Track, bool, error) {
	var body currentlyPlayingResponse
	ok, err := c.get(ctx, "/v1/me/player/currently-playing", &body)
	if err != nil || !ok {
		return nil, false, err
	}
	if body.Item == nil || (body.Item.Type != "" && body.Item.Type != "track") {
		return nil, false, nil
	}
	return body.Item.toTrack(), body.IsPlaying, nil
}

// RecentlyPlayed returns the last played track, or nil when history is empty.
func (c *Client) RecentlyPlayed(ctx context.Context) (*Track, error) {
	var body recentlyPlayedResponse
	ok, err := c.get(ctx, "/v1/me/player/recently-played?limit=1", &body)
	if err != nil || !ok || len(body.Items) == 0 {
		return nil, err
	}
	return body.Items[0].Track.toTrack(), nil
}

// get decodes a JSON body into dst. ok is false for 204 No Content.
func (c *Client) get(ctx context.Context, path string, dst any) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		_, _ = io.Copy(io.Discard, resp.Body)
		return false, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		endpoint, _, _ := strings.Cut(path, "?")
		return false, StatusError{Endpoint: endpoint, Status: resp.StatusCode}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, fmt.Errorf("spotify %s: decode: %w", path, err)
	}
	return true, nil
}
