// Package lockout throttles brute-force login attempts: repeated failures for
// the same phone+IP pair hard-lock that pair for a cooldown period. State
// lives in Redis when configured, otherwise in process memory.
package lockout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	dErrors "gramsuvidha/pkg/domain-errors"
)

// Config controls the failure window and lock behavior.
type Config struct {
	MaxAttempts  int
	Window       time.Duration
	LockDuration time.Duration
}

// DefaultConfig: 5 attempts per 15 minutes, then locked for 15 minutes.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  5,
		Window:       15 * time.Minute,
		LockDuration: 15 * time.Minute,
	}
}

// Store tracks failure counts and locks per identifier.
type Store interface {
	IncrFailure(ctx context.Context, key string, window time.Duration) (int, error)
	Lock(ctx context.Context, key string, d time.Duration) error
	IsLocked(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context, key string) error
}

// Service is consulted by the login flow before and after password checks.
type Service struct {
	store  Store
	cfg    Config
	logger *slog.Logger
}

func New(store Store, cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{store: store, cfg: cfg, logger: logger}
}

func key(phone, ip string) string {
	return fmt.Sprintf("%s|%s", phone, ip)
}

// Check fails with bad_request while the identifier is locked. Store faults
// degrade open: an unavailable lockout backend must not take logins down.
func (s *Service) Check(ctx context.Context, phone, ip string) error {
	if s == nil {
		return nil
	}
	locked, err := s.store.IsLocked(ctx, key(phone, ip))
	if err != nil {
		s.logger.WarnContext(ctx, "lockout check failed, allowing login", "error", err)
		return nil
	}
	if locked {
		return dErrors.New(dErrors.CodeBadRequest, "too many failed login attempts, try again later")
	}
	return nil
}

// RecordFailure counts a failed login and locks the identifier once the
// attempt budget for the window is exhausted.
func (s *Service) RecordFailure(ctx context.Context, phone, ip string) {
	if s == nil {
		return
	}
	k := key(phone, ip)
	count, err := s.store.IncrFailure(ctx, k, s.cfg.Window)
	if err != nil {
		s.logger.WarnContext(ctx, "lockout failure record failed", "error", err)
		return
	}
	if count >= s.cfg.MaxAttempts {
		if err := s.store.Lock(ctx, k, s.cfg.LockDuration); err != nil {
			s.logger.WarnContext(ctx, "lockout lock failed", "error", err)
			return
		}
		s.logger.WarnContext(ctx, "login lockout triggered",
			"phone", phone,
			"failures", count,
		)
	}
}

// Clear resets state after a successful login.
func (s *Service) Clear(ctx context.Context, phone, ip string) {
	if s == nil {
		return
	}
	if err := s.store.Clear(ctx, key(phone, ip)); err != nil {
		s.logger.WarnContext(ctx, "lockout clear failed", "error", err)
	}
}
