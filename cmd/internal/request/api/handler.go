package requestapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"resumegate/cmd/internal/request"
)

const (
	SubmitPath   = "/api/resume-request"
	DecisionPath = request.DecisionPath
)

const invalidLinkMessage = "invalid or expired link"

// Service is the request workflow the handler drives.
type Service interface {
	Submit(ctx context.Context, in request.Intake) (request.Submission, error)
	Decide(ctx context.Context, raw string) (request.Result, error)
}

// Handler wires the intake and decision endpoints to a Service.
type Handler struct {
	log     *slog.Logger
	cfg     Config
	svc     Service
	limiter *ipLimiter
	now     func() time.Time
}

// HandlerOption configures optional handler dependencies.
type HandlerOption func(*Handler)

// WithClock overrides the clock used by the submit limiter (tests).
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// NewHandler constructs a request Handler.
func NewHandler(log *slog.Logger, svc Service, cfg Config, opts ...HandlerOption) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("requestapi: nil service")
	}
	if log == nil {
		log = slog.Default()
	}
	cfg = cfg.normalized()

	h := &Handler{
		log:     log,
		cfg:     cfg,
		svc:     svc,
		limiter: newIPLimiter(cfg.SubmitIPMax, cfg.SubmitIPWindow),
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires request routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc(SubmitPath, h.handleSubmit)
	mux.HandleFunc(DecisionPath, h.handleDecision)
}

type submitRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Reason  string `json:"reason"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST, OPTIONS")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if ip := clientIP(r, h.cfg.TrustProxy); ip != nil {
		if ok, retry := h.limiter.Allow(ip.String(), h.now()); !ok {
			h.log.WarnContext(r.Context(), "request.submit.rate_limited", "ip", ip.String())
			writeRateLimited(w, retry)
			return
		}
	}

	var req submitRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	sub, err := h.svc.Submit(r.Context(), request.Intake{
		Name:    req.Name,
		Email:   req.Email,
		Company: req.Company,
		Reason:  req.Reason,
	})
	if err != nil {
		status, msg := h.errorStatus(r.Context(), "request.submit.fail", err)
		writeError(w, status, msg)
		return
	}

	h.log.InfoContext(r.Context(), "request.submit.accepted", "request_id", sub.ID)
	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *Handler) handleDecision(w http.ResponseWriter, r *http.Request) {
	// Deciding has side effects, so HEAD (link previews, prefetchers) is refused too.
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET, OPTIONS")
		writePage(w, http.StatusMethodNotAllowed, "Method not allowed", "Use the link from the email.")
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("token"))
	if raw == "" {
		writePage(w, http.StatusBadRequest, "Invalid link", invalidLinkMessage)
		return
	}

	res, err := h.svc.Decide(r.Context(), raw)
	if err != nil {
		status, msg := h.errorStatus(r.Context(), "request.decide.fail", err)
		title := "Error"
		if status == http.StatusBadRequest {
			title = "Invalid link"
		}
		writePage(w, status, title, msg)
		return
	}

	status, title, msg := outcomePage(res)
	writePage(w, status, title, msg)
}

// errorStatus maps an error kind to its HTTP status and public message.
// Dependency and unknown errors are logged with their cause; the response never carries it.
func (h *Handler) errorStatus(ctx context.Context, event string, err error) (int, string) {
	switch {
	case errors.Is(err, request.ErrValidation):
		return http.StatusBadRequest, request.PublicMessage(err, "invalid request")
	case errors.Is(err, request.ErrAuthToken):
		return http.StatusBadRequest, invalidLinkMessage
	case errors.Is(err, request.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, request.ErrDependency):
		h.log.ErrorContext(ctx, event, "err", err)
		return http.StatusInternalServerError, request.PublicMessage(err, "internal error")
	default:
		h.log.ErrorContext(ctx, event, "err", err)
		return http.StatusInternalServerError, "internal error"
	}
}
