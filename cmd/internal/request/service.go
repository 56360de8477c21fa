package request

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"resumegate/cmd/internal/attachment"
	"resumegate/cmd/internal/mail"
	"resumegate/cmd/security/token"
)

// DecisionPath is the route decision links point at.
const DecisionPath = "/api/resume-decision"

// Config carries the process-wide settings the service needs. It is never mutated after New.
type Config struct {
	ApproverEmail string
	MailFrom      string
	SiteOrigin    string
	DecisionTTL   time.Duration
	RecordTTL     time.Duration
}

// Observer receives domain events for metrics.
type Observer interface {
	Submitted(result string)
	Decided(outcome Outcome)
	MailSent(kind string, err error)
}

type nopObserver struct{}

func (nopObserver) Submitted(string)       {}
func (nopObserver) Decided(Outcome)        {}
func (nopObserver) MailSent(string, error) {}

// Submission is the result of a successful intake.
type Submission struct {
	ID         string
	ApproveURL string
	DenyURL    string
	ExpiresAt  time.Time
}

// Result is the outcome of handling one decision link.
type Result struct {
	Outcome Outcome
	Action  token.Action
	// Record is the state after handling; zero when Outcome is OutcomeNotFound.
	Record Record
}

// Service runs request intake and decision handling.
type Service struct {
	cfg    Config
	store  Store
	codec  *token.Codec
	mailer mail.Sender
	files  attachment.Source
	log    *slog.Logger
	obs    Observer
	now    func() time.Time
	locks  keyedMutex
}

// Option configures the Service.
type Option func(*Service) error

// WithLogger sets the service logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) error {
		if log != nil {
			s.log = log
		}
		return nil
	}
}

// WithObserver sets the metrics observer.
func WithObserver(obs Observer) Option {
	return func(s *Service) error {
		if obs != nil {
			s.obs = obs
		}
		return nil
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(s *Service) error {
		if now == nil {
			return ErrInvalidInput
		}
		s.now = now
		return nil
	}
}

// NewService constructs a Service with safe defaults.
func NewService(cfg Config, store Store, codec *token.Codec, mailer mail.Sender, files attachment.Source, opts ...Option) (*Service, error) {
	if store == nil || codec == nil || mailer == nil || files == nil {
		return nil, ErrInvalidInput
	}
	cfg.SiteOrigin = strings.TrimRight(strings.TrimSpace(cfg.SiteOrigin), "/")
	if cfg.SiteOrigin == "" || strings.TrimSpace(cfg.ApproverEmail) == "" || strings.TrimSpace(cfg.MailFrom) == "" {
		return nil, ErrInvalidInput
	}
	if cfg.DecisionTTL <= 0 {
		cfg.DecisionTTL = token.DefaultTTL
	}
	if cfg.RecordTTL <= 0 {
		cfg.RecordTTL = DefaultRecordTTL
	}

	s := &Service{
		cfg:    cfg,
		store:  store,
		codec:  codec,
		mailer: mailer,
		files:  files,
		log:    slog.Default(),
		obs:    nopObserver{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Submit validates the form, stores a pending record and emails the approver both decision links.
func (s *Service) Submit(ctx context.Context, in Intake) (Submission, error) {
	const op = "request.Submit"

	requester, bad := in.normalize()
	if len(bad) > 0 {
		s.obs.Submitted("invalid")
		return Submission{}, ValidationError{Fields: bad}
	}

	now := s.now()
	id, err := newULID(now)
	if err != nil {
		s.obs.Submitted("error")
		return Submission{}, OpError{Op: op, Kind: ErrDependency, Msg: "could not create request", Err: err}
	}

	rec := Record{
		ID:        id,
		Status:    StatusPending,
		CreatedAt: now,
		Requester: requester,
	}
	if err := s.store.Put(ctx, rec, s.cfg.RecordTTL); err != nil {
		s.obs.Submitted("error")
		return Submission{}, dependencyError(op, "could not save request", err)
	}

	approveTok, err := s.codec.Issue(id, token.ActionApprove, now, s.cfg.DecisionTTL)
	if err != nil {
		s.obs.Submitted("error")
		return Submission{}, OpError{Op: op, Kind: ErrDependency, Msg: "could not create links", Err: err}
	}
	denyTok, err := s.codec.Issue(id, token.ActionDeny, now, s.cfg.DecisionTTL)
	if err != nil {
		s.obs.Submitted("error")
		return Submission{}, OpError{Op: op, Kind: ErrDependency, Msg: "could not create links", Err: err}
	}

	sub := Submission{
		ID:         id,
		ApproveURL: s.decisionURL(approveTok),
		DenyURL:    s.decisionURL(denyTok),
		ExpiresAt:  now.Add(s.cfg.DecisionTTL).Truncate(time.Second),
	}

	msg, err := s.notificationMessage(requester, sub)
	if err != nil {
		s.obs.Submitted("error")
		return Submission{}, OpError{Op: op, Kind: ErrDependency, Msg: "could not compose notification", Err: err}
	}
	err = s.mailer.Send(ctx, msg)
	s.obs.MailSent("notification", err)
	if err != nil {
		s.obs.Submitted("error")
		return Submission{}, dependencyError(op, "could not send notification", err)
	}

	s.obs.Submitted("ok")
	s.log.InfoContext(ctx, "request.submit.ok", "request_id", id)
	return sub, nil
}

// Decide verifies a decision link and applies it to the referenced record.
//
// Approve fetches the attachment and sends the approval email before the record is
// persisted as approved; any failure there leaves the record pending so the link can be
// clicked again. Replays of decided records are no-ops.
func (s *Service) Decide(ctx context.Context, raw string) (Result, error) {
	const op = "request.Decide"

	claims, err := s.codec.Decode(raw)
	if err != nil {
		return Result{}, OpError{Op: op, Kind: ErrAuthToken, Msg: "invalid or expired link"}
	}

	unlock := s.locks.Lock(claims.ID)
	defer unlock()

	cur, err := s.load(ctx, claims.ID)
	if err != nil {
		return Result{}, dependencyError(op, "could not load request", err)
	}

	tr := Decide(cur, claims, s.now())
	res := Result{Outcome: tr.Outcome, Action: claims.Action}
	if cur != nil {
		res.Record = cur.Clone()
	}

	if tr.Next != nil {
		if tr.SendApproval {
			if err := s.sendApproval(ctx, *cur); err != nil {
				s.log.ErrorContext(ctx, "request.decide.approval.fail", "request_id", claims.ID, "err", err)
				return Result{}, err
			}
		}
		res, err = s.persist(ctx, claims, *tr.Next, res)
		if err != nil {
			return Result{}, dependencyError(op, "could not save decision", err)
		}
	}

	s.obs.Decided(res.Outcome)
	s.log.InfoContext(ctx, "request.decide.done",
		"request_id", claims.ID,
		"action", string(claims.Action),
		"outcome", string(res.Outcome),
	)
	return res, nil
}

func (s *Service) load(ctx context.Context, id string) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// persist writes next only while the record is still pending. Losing that race means another
// decider finished first; its state is reported instead.
func (s *Service) persist(ctx context.Context, claims token.Claims, next Record, res Result) (Result, error) {
	err := s.store.PutIfStatus(ctx, claims.ID, StatusPending, next)
	switch {
	case err == nil:
		res.Record = next.Clone()
		return res, nil
	case errors.Is(err, ErrConflict), errors.Is(err, ErrNotFound):
		cur, loadErr := s.load(ctx, claims.ID)
		if loadErr != nil {
			return Result{}, loadErr
		}
		s.log.WarnContext(ctx, "request.decide.lost_race", "request_id", claims.ID)
		if cur == nil {
			return Result{Outcome: OutcomeNotFound, Action: claims.Action}, nil
		}
		return Result{Outcome: OutcomeAlreadyDecided, Action: claims.Action, Record: cur.Clone()}, nil
	default:
		return Result{}, err
	}
}

func (s *Service) sendApproval(ctx context.Context, rec Record) error {
	const op = "request.Decide"

	file, err := s.files.Fetch(ctx)
	if err != nil {
		return dependencyError(op, "resume file unavailable", err)
	}

	html, text, err := render(approvalHTML, approvalText, approvalData{Requester: rec.Requester, FileName: file.Name})
	if err != nil {
		return dependencyError(op, "could not compose email", err)
	}

	msg := mail.Message{
		From:    s.cfg.MailFrom,
		To:      []string{rec.Requester.Email},
		Bcc:     []string{s.cfg.ApproverEmail},
		ReplyTo: s.cfg.ApproverEmail,
		Subject: "Resume for " + rec.Requester.Company,
		HTML:    html,
		Text:    text,
		Attachments: []mail.Attachment{{
			Filename:    file.Name,
			ContentType: file.ContentType,
			Content:     file.Data,
		}},
	}
	err = s.mailer.Send(ctx, msg)
	s.obs.MailSent("approval", err)
	if err != nil {
		return dependencyError(op, "could not send email", err)
	}
	return nil
}

func (s *Service) notificationMessage(r Requester, sub Submission) (mail.Message, error) {
	html, text, err := render(notificationHTML, notificationText, notificationData{
		Requester:  r,
		ApproveURL: sub.ApproveURL,
		DenyURL:    sub.DenyURL,
		ExpiresAt:  sub.ExpiresAt.UTC().Format(time.RFC1123),
	})
	if err != nil {
		return mail.Message{}, err
	}
	return mail.Message{
		From:    s.cfg.MailFrom,
		To:      []string{s.cfg.ApproverEmail},
		ReplyTo: r.Email,
		Subject: "Resume request: " + r.Name + " (" + r.Company + ")",
		HTML:    html,
		Text:    text,
	}, nil
}

func (s *Service) decisionURL(tok string) string {
	return s.cfg.SiteOrigin + DecisionPath + "?token=" + url.QueryEscape(tok)
}
