// Command nowplaying writes the owner's current (or last) Spotify track to a JSON file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"resumegate/cmd/internal/app"
	"resumegate/cmd/internal/nowplaying"
)

type options struct {
	out       string
	once      bool
	interval  time.Duration
	logLevel  string
	logFormat string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "nowplaying",
		Short: "Write the current Spotify track to a JSON file",
		Long: `nowplaying polls the Spotify Web API with a long-lived refresh token and keeps a
small JSON file up to date. Credentials come from SPOTIFY_CLIENT_ID, SPOTIFY_CLIENT_SECRET
and SPOTIFY_REFRESH_TOKEN.`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.out, "out", "", "Output JSON file (required)")
	cmd.Flags().BoolVar(&opts.once, "once", false, "Run a single update and exit")
	cmd.Flags().DurationVar(&opts.interval, "interval", 30*time.Second, "Polling interval")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", app.EnvString("RG_LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", app.EnvString("RG_LOG_FORMAT", "pretty"), "Log format (json|pretty)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func run(ctx context.Context, opts options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := app.NewLogger(app.Config{LogLevel: opts.logLevel, LogFormat: opts.logFormat})

	if !opts.once && opts.interval < time.Second {
		return fmt.Errorf("--interval must be at least 1s, got %s", opts.interval)
	}

	creds := nowplaying.Credentials{
		ClientID:     strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_ID")),
		ClientSecret: strings.TrimSpace(os.Getenv("SPOTIFY_CLIENT_SECRET")),
		RefreshToken: strings.TrimSpace(os.Getenv("SPOTIFY_REFRESH_TOKEN")),
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := nowplaying.NewClient(ctx, creds)
	if err != nil {
		log.Error("nowplaying.config.fail", "err", err)
		return err
	}
	u, err := nowplaying.NewUpdater(client, opts.out, nowplaying.WithLogger(log))
	if err != nil {
		return err
	}

	if opts.once {
		_, err := u.Run(ctx)
		return err
	}

	log.Info("nowplaying.start", "out", opts.out, "interval", opts.interval.String())
	err = u.Loop(ctx, opts.interval)
	log.Info("nowplaying.stop")
	return err
}
