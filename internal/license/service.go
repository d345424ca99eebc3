package license

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiranshivaraju/licensegate/internal/cache"
	"github.com/kiranshivaraju/licensegate/internal/store"
	"github.com/kiranshivaraju/licensegate/pkg/models"
)

// Result is the outcome of a validation request. License is set only when
// the outcome is OutcomeAccepted.
type Result struct {
	Outcome Outcome
	License *models.License
}

// Service runs the validation pipeline: normalize the key, read the record,
// evaluate, and issue at most one conditional write. Any store or cache
// failure surfaces as an error, kept distinct from policy rejections which
// are ordinary Results.
type Service struct {
	store     store.Store
	cache     cache.Cache
	timeout   time.Duration
	resultTTL time.Duration
	now       func() time.Time
}

// NewService creates a validation Service. timeout bounds one full
// read+decide+write cycle; resultTTL controls how long accepted states are
// cached.
func NewService(s store.Store, c cache.Cache, timeout, resultTTL time.Duration) *Service {
	return &Service{
		store:     s,
		cache:     c,
		timeout:   timeout,
		resultTTL: resultTTL,
		now:       time.Now,
	}
}

// Validate checks licenseKey for deviceID and, on first success, binds the
// license to the device. Re-validation from the bound device is an
// idempotent accept. Lookup is case-insensitive.
func (s *Service) Validate(ctx context.Context, licenseKey, deviceID string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := models.NormalizeKey(licenseKey)

	// Fast path: a cached accepted state for the bound device. Conflicting
	// devices always fall through to the store so a conflict is never
	// decided from the cache.
	if lic, ok := s.cachedResult(ctx, key); ok && lic.BoundTo(deviceID) && lic.IsActive {
		if dec := Evaluate(lic, deviceID, s.now()); dec.Outcome == OutcomeAccepted {
			s.touchAudit(ctx, key)
			return &Result{Outcome: OutcomeAccepted, License: lic}, nil
		}
	}

	rec, err := s.store.GetLicenseByKey(ctx, key)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load license: %w", err)
	}

	dec := Evaluate(rec, deviceID, s.now())
	if dec.Outcome != OutcomeAccepted {
		return &Result{Outcome: dec.Outcome}, nil
	}

	if !dec.WriteNeeded {
		s.touchAudit(ctx, key)
		s.cacheResult(ctx, key, rec)
		return &Result{Outcome: OutcomeAccepted, License: rec}, nil
	}

	updated, err := s.store.ActivateLicense(ctx, key, deviceID)
	switch {
	case errors.Is(err, store.ErrDeviceConflict):
		// Lost a race: another device bound between read and write.
		return &Result{Outcome: OutcomeDeviceConflict}, nil
	case errors.Is(err, store.ErrNotFound):
		return &Result{Outcome: OutcomeNotFound}, nil
	case err != nil:
		return nil, fmt.Errorf("activate license: %w", err)
	}

	s.cacheResult(ctx, key, updated)
	return &Result{Outcome: OutcomeAccepted, License: updated}, nil
}

// Invalidate drops the cached state for a license. Called after admin writes.
func (s *Service) Invalidate(ctx context.Context, licenseKey string) {
	key := models.NormalizeKey(licenseKey)
	if err := s.cache.Delete(ctx, cache.ValidationResultKey(key)); err != nil {
		slog.Warn("license cache invalidation failed", "key", key, "error", err)
	}
}

func (s *Service) cachedResult(ctx context.Context, key string) (*models.License, bool) {
	data, ok, err := s.cache.Get(ctx, cache.ValidationResultKey(key))
	if err != nil || !ok {
		return nil, false
	}
	var lic models.License
	if err := json.Unmarshal(data, &lic); err != nil {
		return nil, false
	}
	return &lic, true
}

func (s *Service) cacheResult(ctx context.Context, key string, lic *models.License) {
	data, err := json.Marshal(lic)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cache.ValidationResultKey(key), data, s.resultTTL); err != nil {
		slog.Warn("license cache write failed", "key", key, "error", err)
	}
}

// touchAudit records the validation time on the idempotent accept path.
// Audit-only and best effort; a failure never fails the request.
func (s *Service) touchAudit(ctx context.Context, key string) {
	if err := s.store.TouchLastValidated(ctx, key); err != nil {
		slog.Warn("last validated touch failed", "key", key, "error", err)
	}
}
