package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"resumegate/cmd/internal/attachment"
	"resumegate/cmd/internal/mail"
	"resumegate/cmd/internal/request"
)

// backends holds the external resources the app owns. Stores built on them do not
// close them; Close here does.
type backends struct {
	store request.Store
	files attachment.Source
	mail  mail.Sender

	pool  *pgxpool.Pool
	redis *redis.Client
	// closers run in reverse order on shutdown.
	closers []io.Closer
}

func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.redis != nil {
		if err := b.redis.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.pool != nil {
		b.pool.Close()
	}
	return errors.Join(errs...)
}

func openBackends(ctx context.Context, cfg Config, log Logger) (_ *backends, err error) {
	b := &backends{}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	if err := b.openStore(ctx, cfg, log); err != nil {
		return nil, err
	}
	if err := b.openAttachment(ctx, cfg, log); err != nil {
		return nil, err
	}
	if err := b.openMail(cfg, log); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *backends) openStore(ctx context.Context, cfg Config, log Logger) error {
	switch backend := cfg.StoreBackend(); backend {
	case StorePostgres:
		pool, err := NewDBPool(ctx, cfg)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		b.pool = pool

		st, err := request.NewPostgresStore(pool, request.WithSchema(cfg.DBSchema))
		if err != nil {
			return err
		}
		if err := st.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("postgres schema: %w", err)
		}
		if n, err := st.PurgeExpired(ctx); err != nil {
			log.Warn("store.purge.fail", "err", err)
		} else if n > 0 {
			log.Info("store.purge.ok", "rows", n)
		}
		b.store = st

	case StoreRedis:
		client, err := NewRedisClient(ctx, cfg)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		b.redis = client

		st, err := request.NewRedisStore(client, request.WithRedisPrefix(cfg.RedisPrefix))
		if err != nil {
			return err
		}
		b.store = st

	default:
		// Records are lost on restart; fine for local dev only.
		log.Warn("store.memory", "note", "records do not survive restarts")
		b.store = request.NewMemoryStore()
	}

	log.Info("store.ready", "backend", cfg.StoreBackend())
	return nil
}

func (b *backends) openAttachment(ctx context.Context, cfg Config, log Logger) error {
	if cfg.S3Bucket != "" {
		src, err := attachment.NewS3Source(ctx, attachment.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
			Key:      cfg.AttachmentKey,
			Name:     cfg.AttachmentName,
		})
		if err != nil {
			return fmt.Errorf("s3 attachment: %w", err)
		}
		b.files = src
		log.Info("attachment.ready", "backend", "s3", "bucket", cfg.S3Bucket, "key", cfg.AttachmentKey)
		return nil
	}

	src, err := attachment.OpenBlobSource(ctx, cfg.AttachmentURL, cfg.AttachmentKey, cfg.AttachmentName)
	if err != nil {
		return fmt.Errorf("blob attachment: %w", err)
	}
	b.files = src
	b.closers = append(b.closers, src)
	log.Info("attachment.ready", "backend", "blob", "key", cfg.AttachmentKey)
	return nil
}

func (b *backends) openMail(cfg Config, log Logger) error {
	if cfg.MailAPIKey == "" {
		log.Warn("mail.disabled", "note", "RG_MAIL_API_KEY is empty; emails are logged, not sent")
		b.mail = mail.LogSender{Log: log}
		return nil
	}
	s, err := mail.NewHTTPSender(cfg.MailAPIURL, cfg.MailAPIKey)
	if err != nil {
		return err
	}
	b.mail = s
	return nil
}

// ping checks the store backend when it is network-backed.
func (b *backends) ping(ctx context.Context) error {
	if p, ok := b.store.(request.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// runPurger removes expired records every interval until ctx is done. Stores that expire
// natively (Redis) are left alone.
func runPurger(ctx context.Context, store request.Store, interval time.Duration, log Logger) {
	p, ok := store.(request.Purger)
	if !ok || interval <= 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
		n, err := p.PurgeExpired(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			log.Warn("store.purge.fail", "err", err)
		case n > 0:
			log.Info("store.purge.ok", "rows", n)
		}
	}
}
