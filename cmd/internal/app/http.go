package app

import (
	"context"
	"net/http"
	"time"

	requestapi "resumegate/cmd/internal/request/api"
)

// pinger reports backend readiness.
type pinger func(ctx context.Context) error

func registerHTTP(mux *http.ServeMux, log Logger, metrics *Metrics, ready pinger, api *requestapi.Handler) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := ready(ctx); err != nil {
				http.Error(w, "store not ready", http.StatusServiceUnavailable)
				log.Info("readyz.store.not_ready", "err", err)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	if metrics != nil {
		mux.Handle("/metrics", metrics.Handler())
	}

	if api != nil {
		api.Register(mux)
	}
}

// routeLabel keeps the metrics route label bounded.
func routeLabel(r *http.Request) string {
	switch p := r.URL.Path; p {
	case "/healthz", "/readyz", "/metrics", requestapi.SubmitPath, requestapi.DecisionPath:
		return p
	default:
		return "other"
	}
}

// buildHandler wires the middleware chain around mux, outermost first:
// logging+metrics, recover, security headers, CORS. Recovered panics are logged as 500s.
func buildHandler(mux http.Handler, cfg Config, log Logger, metrics *Metrics) http.Handler {
	var h http.Handler = mux
	h = WithCORS(h, cfg.CORSOrigin)
	h = WithSecurityHeaders(h)
	h = WithRecover(h, log)
	h = WithRequestLogging(h, log, metrics, routeLabel)
	return h
}
