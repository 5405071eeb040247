package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/stepper/internal/config"
	"github.com/aretw0/stepper/pkg/adapters/file"
	"github.com/aretw0/stepper/pkg/adapters/memory"
	redisStore "github.com/aretw0/stepper/pkg/adapters/redis"
	"github.com/aretw0/stepper/pkg/persistence/middleware"
	"github.com/aretw0/stepper/pkg/ports"
	"github.com/aretw0/stepper/pkg/session"
)

// Persistence is the session store selected by configuration, with its
// middlewares applied, and the distributed locker when the backend has one.
type Persistence struct {
	Store  ports.SessionStore
	Locker ports.DistributedLocker

	closers []func() error
}

// OpenPersistence builds the store for cfg. The redis backend is pinged so a bad
// address fails here rather than on the first command.
func OpenPersistence(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{}

	var base ports.SessionStore
	switch cfg.Backend {
	case config.BackendMemory, "":
		base = memory.NewStore()
	case config.BackendFile:
		base = file.New(cfg.Path)
	case config.BackendRedis:
		rs := redisStore.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisStore.WithPrefix(cfg.Redis.Prefix),
			redisStore.WithTTL(cfg.Redis.TTL),
		)
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, fmt.Errorf("redis unavailable at %s: %w", cfg.Redis.Addr, err)
		}
		base = rs
		p.Locker = redisStore.NewLocker(rs.Client(), rs.Prefix())
		p.closers = append(p.closers, rs.Close)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	mws, err := storeMiddlewares(cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Store = middleware.Chain(base, mws...)

	logger.Debug("session store ready",
		"backend", cfg.Backend,
		"encrypted", cfg.EncryptionKey != "",
		"redact", len(cfg.Redact),
		"distributed_lock", p.Locker != nil,
	)
	return p, nil
}

// storeMiddlewares returns redaction (outermost) then encryption, so values are
// masked before they are sealed.
func storeMiddlewares(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewRedactMiddleware(cfg.Redact))
	}
	if cfg.EncryptionKey == "" {
		return mws, nil
	}

	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for i, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return append(mws, middleware.NewEncryptionMiddleware(enc)), nil
}

// Manager returns a session manager over the store, using the locker when present.
func (p *Persistence) Manager(logger *slog.Logger) *session.Manager {
	opts := []session.Option{session.WithLogger(logger)}
	if p.Locker != nil {
		opts = append(opts, session.WithLocker(p.Locker))
	}
	return session.NewManager(p.Store, opts...)
}

// Close releases backend connections.
func (p *Persistence) Close() error {
	var errs []error
	for _, c := range p.closers {
		errs = append(errs, c())
	}
	p.closers = nil
	return errors.Join(errs...)
}
