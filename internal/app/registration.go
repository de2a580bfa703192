package app

import (
	"context"
	"fmt"
	"time"

	"github.com/neomorfeo/wafd/internal/domain"
)

// RegistrationNumberGenerator issues H<hijriYear><sequence> numbers. The
// sequence continues from the latest issued number regardless of year.
// It does not serialize callers itself; PilgrimService holds a lock around
// generation and insert.
type RegistrationNumberGenerator struct {
	now func() time.Time
}

// NewRegistrationNumberGenerator creates a generator reading the given clock.
// A nil clock means time.Now.
func NewRegistrationNumberGenerator(now func() time.Time) *RegistrationNumberGenerator {
	if now == nil {
		now = time.Now
	}
	return &RegistrationNumberGenerator{now: now}
}

// Next returns the number following the latest one stored in pilgrims.
func (g *RegistrationNumberGenerator) Next(ctx context.Context, pilgrims domain.PilgrimRepository) (string, error) {
	latest, ok, err := pilgrims.LatestRegistrationNumber(ctx)
	if err != nil {
		return "", fmt.Errorf("loading latest registration number: %w", err)
	}

	sequence := 0
	if ok {
		sequence, err = domain.RegistrationSequence(latest)
		if err != nil {
			return "", err
		}
	}

	return domain.FormatRegistrationNumber(domain.HijriYear(g.now()), sequence+1), nil
}
