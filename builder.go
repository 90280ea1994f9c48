package authcore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/veltrix-io/authcore/directory"
	"github.com/veltrix-io/authcore/internal/audit"
	"github.com/veltrix-io/authcore/internal/flows"
	"github.com/veltrix-io/authcore/internal/rate"
	"github.com/veltrix-io/authcore/password"
	"github.com/veltrix-io/authcore/revocation"
	"github.com/veltrix-io/authcore/strategy"
	"github.com/veltrix-io/authcore/token"
)

// Builder assembles an [Engine]. A builder is single-use: Build succeeds at
// most once.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	directory Directory
	verifier  IdentityVerifier
	hasher    PasswordHasher

	strategies map[string]Strategy
	auditSink  AuditSink

	built bool
}

// New returns a builder preloaded with the default config.
func New() *Builder {
	return &Builder{
		config:     defaultConfig(),
		strategies: map[string]Strategy{},
	}
}

// WithConfig replaces the entire config. Call before other With methods
// that mutate config fields.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the Redis client backing revocation and the login
// throttle. Without it the engine falls back to an in-process revocation
// store, which is only safe for a single-instance deployment.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithDirectory supplies the user directory. Required.
func (b *Builder) WithDirectory(dir Directory) *Builder {
	b.directory = dir
	return b
}

// WithIdentityVerifier supplies the federated-provider oracle. When set,
// Build registers the [StrategyGoogle] strategy.
func (b *Builder) WithIdentityVerifier(v IdentityVerifier) *Builder {
	b.verifier = v
	return b
}

// WithPasswordHasher overrides the default Argon2id hasher, e.g. with
// [password.Bcrypt] for directories holding legacy hashes.
func (b *Builder) WithPasswordHasher(h PasswordHasher) *Builder {
	b.hasher = h
	return b
}

// WithStrategy registers (or overrides) a named authentication strategy.
func (b *Builder) WithStrategy(name string, s Strategy) *Builder {
	if name != "" && s != nil {
		b.strategies[name] = s
	}
	return b
}

// WithAuditSink supplies the audit event consumer. Only used when
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles the in-process metrics counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the default strategies, and
// returns a ready engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.directory == nil {
		return nil, errors.New("directory required")
	}
	if cfg.Throttle.Enabled && b.redis == nil {
		return nil, errors.New("login throttle requires redis client")
	}

	hasher := b.hasher
	if hasher == nil {
		ph, err := password.NewArgon2(password.Config{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		})
		if err != nil {
			return nil, err
		}
		hasher = ph
	}

	manager, err := token.NewManager(token.Config{
		Secret:     cloneBytes(cfg.Token.Secret),
		AccessTTL:  cfg.Token.AccessTTL,
		RefreshTTL: cfg.Token.RefreshTTL,
		Issuer:     cfg.Token.Issuer,
		Leeway:     cfg.Token.Leeway,
	})
	if err != nil {
		return nil, err
	}

	var revoked revocation.Store
	if b.redis != nil {
		revoked = revocation.NewRedisStore(b.redis, cfg.Revocation.RedisPrefix)
	} else {
		revoked = revocation.NewMemoryStore()
	}

	tokens, err := token.NewService(manager, revoked)
	if err != nil {
		return nil, err
	}

	engine := &Engine{
		config:    cfg,
		directory: b.directory,
		hasher:    hasher,
		tokens:    tokens,
		revoked:   revoked,
		audit:     audit.NewDispatcher(audit.Config(cfg.Audit), b.auditSink),
		metrics:   NewMetrics(cfg.Metrics),
	}

	if cfg.Throttle.Enabled {
		engine.limiter = rate.New(b.redis, rate.Config{
			EnableIPThrottle: cfg.Throttle.EnableIPThrottle,
			MaxAttempts:      cfg.Throttle.MaxAttempts,
			Cooldown:         cfg.Throttle.Cooldown,
		})
	}

	strategies := make(map[string]Strategy, len(b.strategies)+2)

	pw, err := strategy.NewPassword(b.directory, hasher)
	if err != nil {
		return nil, err
	}
	strategies[StrategyEmailPassword] = pw

	if b.verifier != nil {
		fed, err := strategy.NewFederated(b.directory, b.verifier, func(ctx context.Context, user *directory.User) {
			engine.userProvisioned(ctx, user)
		})
		if err != nil {
			return nil, err
		}
		strategies[StrategyGoogle] = fed
	}

	for name, s := range b.strategies {
		strategies[name] = s
	}
	engine.strategies = strategies

	engine.flows = flows.New(engine.flowDeps())

	b.built = true

	return engine, nil
}
