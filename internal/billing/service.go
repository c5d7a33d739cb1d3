package billing

import (
	"context"
	"errors"
	"time"
)

// Service manages billing settings and exposes the qualification gate and
// price clamp as pure helpers.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidSettings = errors.New("invalid billing settings")

// Repository abstracts settings persistence (single logical row).
type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Put(ctx context.Context, s Settings) error
}

func (s *Service) Get(ctx context.Context) (Settings, error) {
	return s.repo.Get(ctx)
}

func (s *Service) Update(ctx context.Context, next Settings) (Settings, error) {
	if err := ValidateSettings(next); err != nil {
		return Settings{}, err
	}
	next.UpdatedAt = s.clock().UTC()
	if err := s.repo.Put(ctx, next); err != nil {
		return Settings{}, err
	}
	return next, nil
}

func ValidateSettings(s Settings) error {
	if s.MinDurationSeconds < 0 {
		return ErrInvalidSettings
	}
	if s.BasePriceMinor < 0 {
		return ErrInvalidSettings
	}
	if s.SurgeMultiplier < 1 || s.ExclusiveMultiplier < 1 {
		return ErrInvalidSettings
	}
	if s.DisputeWindowHours <= 0 {
		return ErrInvalidSettings
	}
	if s.MinPriceMinor < 0 || s.MaxPriceMinor < s.MinPriceMinor {
		return ErrInvalidSettings
	}
	return nil
}

// Qualify classifies a call as billable. Pure; the boundary is inclusive.
func Qualify(durationSeconds, minDurationSeconds int) bool {
	return durationSeconds >= minDurationSeconds
}

// ClampPrice bounds a computed price into the settings window.
func ClampPrice(s Settings, priceMinor int64) int64 {
	if priceMinor > s.MaxPriceMinor {
		priceMinor = s.MaxPriceMinor
	}
	if priceMinor < s.MinPriceMinor {
		priceMinor = s.MinPriceMinor
	}
	return priceMinor
}
