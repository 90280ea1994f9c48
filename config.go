package authcore

import (
	"errors"
	"time"
)

// Config collects every engine tuning knob. Zero value is not usable; start
// from the defaults applied by [New] and override fields before
// [Builder.WithConfig].
type Config struct {
	Token      TokenConfig
	Password   PasswordConfig
	Revocation RevocationConfig
	Throttle   ThrottleConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
}

// TokenConfig holds the signing and lifetime parameters for both token
// kinds.
type TokenConfig struct {
	// Secret is the HMAC-SHA256 signing key. Required; 32 bytes or more.
	Secret []byte
	// AccessTTL bounds how long a revoked grant stays usable.
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Issuer, when set, is stamped into claims and enforced on verify.
	Issuer string
	// Leeway tolerates clock skew between issuer and verifier, at most
	// two minutes.
	Leeway time.Duration
}

// PasswordConfig tunes the default Argon2id hasher.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
	// UpgradeOnLogin transparently re-hashes stored passwords with the
	// current parameters on the next successful password login.
	UpgradeOnLogin bool
}

// RevocationConfig controls the revocation store key layout.
type RevocationConfig struct {
	RedisPrefix string
}

// ThrottleConfig controls the fixed-window login throttle. Requires Redis.
type ThrottleConfig struct {
	Enabled          bool
	EnableIPThrottle bool
	MaxAttempts      int
	Cooldown         time.Duration
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

func defaultConfig() Config {
	return Config{
		Token: TokenConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Revocation: RevocationConfig{
			RedisPrefix: "rv",
		},
		Throttle: ThrottleConfig{
			Enabled:          false,
			EnableIPThrottle: true,
			MaxAttempts:      5,
			Cooldown:         15 * time.Minute,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate fails fast on the first invalid field.
func (c *Config) Validate() error {
	// Token
	if len(c.Token.Secret) == 0 {
		return errors.New("Token Secret is required")
	}
	if len(c.Token.Secret) < 32 {
		return errors.New("Token Secret must be >= 256 bits")
	}
	if c.Token.AccessTTL <= 0 {
		return errors.New("Token AccessTTL must be > 0")
	}
	if c.Token.RefreshTTL <= 0 {
		return errors.New("Token RefreshTTL must be > 0")
	}
	if c.Token.RefreshTTL < c.Token.AccessTTL {
		return errors.New("Token RefreshTTL must be >= AccessTTL")
	}
	if c.Token.Leeway < 0 {
		return errors.New("Token Leeway must be >= 0")
	}
	if c.Token.Leeway > 2*time.Minute {
		return errors.New("Token Leeway must be <= 2m")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Throttle
	if c.Throttle.Enabled {
		if c.Throttle.MaxAttempts <= 0 {
			return errors.New("Throttle MaxAttempts must be > 0 when throttle is enabled")
		}
		if c.Throttle.Cooldown <= 0 {
			return errors.New("Throttle Cooldown must be > 0 when throttle is enabled")
		}
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when audit is enabled")
	}

	return nil
}
