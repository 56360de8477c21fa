// Package app wires the resumegate server runtime: config, logging, metrics, backends and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"resumegate/cmd/internal/request"
	requestapi "resumegate/cmd/internal/request/api"
	"resumegate/cmd/security/token"
)

// App is the resumegate server runtime: it owns the HTTP server and backend lifecycles.
type App struct {
	cfg Config
	log Logger

	backends *backends
	metrics  *Metrics
	handler  http.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	secret, err := token.ParseSecret(cfg.TokenSecret, token.MinSecretBytes)
	if err != nil {
		return nil, err
	}
	codec, err := token.NewCodec(secret)
	if err != nil {
		return nil, err
	}

	b, err := openBackends(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	metrics := NewMetrics()
	svc, err := request.NewService(request.Config{
		ApproverEmail: cfg.ApproverEmail,
		MailFrom:      cfg.MailFrom,
		SiteOrigin:    cfg.SiteOrigin,
		DecisionTTL:   cfg.DecisionTTL,
		RecordTTL:     cfg.RecordTTL,
	}, b.store, codec, b.mail, b.files,
		request.WithLogger(log),
		request.WithObserver(metrics),
	)
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	api, err := requestapi.NewHandler(log, svc, requestapi.LoadConfigFromEnv())
	if err != nil {
		_ = b.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	registerHTTP(mux, log, metrics, b.ping, api)

	return &App{
		cfg:      cfg,
		log:      log,
		backends: b,
		metrics:  metrics,
		handler:  buildHandler(mux, cfg, log, metrics),
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 30*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "store", a.cfg.StoreBackend())

	purgeCtx, stopPurge := context.WithCancel(ctx)
	purgeDone := make(chan struct{})
	go func() {
		defer close(purgeDone)
		runPurger(purgeCtx, a.backends.store, a.cfg.StoreSweepInterval, a.log)
	}()
	// The purger must be idle before backends close.
	closeBackends := func() error {
		stopPurge()
		<-purgeDone
		return a.backends.Close()
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		_ = closeBackends()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		_ = closeBackends()
		return err
	}

	if err := closeBackends(); err != nil {
		a.log.Error("backends.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
