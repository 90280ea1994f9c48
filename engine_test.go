package authcore

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/veltrix-io/authcore/directory"
	"github.com/veltrix-io/authcore/password"
)

const (
	testEmail    = "alice@example.com"
	testPassword = "correct-horse-battery"
)

func newTestRedis(t *testing.T) (redis.UniversalClient, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis failed: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return client, mr
}

// testConfig keeps argon2 at the parameter floor so engine tests stay fast.
func testConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Secret = []byte("test-secret-0123456789abcdef0123456789")
	cfg.Password.Memory = 8192
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Password.SaltLength = 16
	cfg.Password.KeyLength = 16
	return cfg
}

func newTestHasher(t *testing.T) *password.Argon2 {
	t.Helper()

	hasher, err := password.NewArgon2(password.Config{
		Memory:      8192,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	})
	if err != nil {
		t.Fatalf("NewArgon2 failed: %v", err)
	}
	return hasher
}

func seedDirectory(t *testing.T) *directory.Memory {
	t.Helper()

	dir := directory.NewMemory()
	hash, err := newTestHasher(t).Hash(testPassword)
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if _, err := dir.Create(context.Background(), &User{
		ID:           "u-alice",
		Name:         "Alice",
		Email:        testEmail,
		PasswordHash: hash,
		Apps:         []string{"billing", "dashboard"},
	}); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	return dir
}

func newTestEngine(t *testing.T, mutate func(*Builder)) (*Engine, *directory.Memory) {
	t.Helper()

	dir := seedDirectory(t)
	b := New().
		WithConfig(testConfig()).
		WithDirectory(dir).
		WithPasswordHasher(newTestHasher(t))
	if mutate != nil {
		mutate(b)
	}

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine, dir
}

func passwordCreds(email, pw string) Credentials {
	return Credentials{
		"email":    email,
		"password": pw,
	}
}

// stubVerifier resolves external tokens from a fixed table.
type stubVerifier struct {
	claims map[string]*IdentityClaim
}

func (v *stubVerifier) VerifyExternalToken(_ context.Context, token string) (*IdentityClaim, error) {
	claim, ok := v.claims[token]
	if !ok {
		return nil, errors.New("token rejected by provider")
	}
	return claim, nil
}

// drainAudit closes the engine and collects everything the sink received.
func drainAudit(engine *Engine, sink *ChannelSink) []AuditEvent {
	engine.Close()

	var events []AuditEvent
	for {
		select {
		case event := <-sink.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func requireEvent(t *testing.T, events []AuditEvent, eventType string) AuditEvent {
	t.Helper()

	for _, event := range events {
		if event.EventType == eventType {
			return event
		}
	}
	t.Fatalf("no %q event in %d events", eventType, len(events))
	return AuditEvent{}
}
