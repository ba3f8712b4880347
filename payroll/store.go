/*
store.go - Collaborator interfaces for pay guide lookup

PURPOSE:
  The engine itself never fetches anything. Callers use a GuideLookup to
  find the pay guide effective at a shift's start, then hand both to
  Calculate. Different implementations back this with SQLite or memory.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite-backed guides, shifts, holidays
  - payroll/store/memory.go: In-memory for tests and the CLI

EXAMPLE:
  guide, err := lookup.GuideAt(ctx, shift.Start)
  if payroll.IsNotFound(err) {
      // no guide covers this shift
  }
  res, err := payroll.Calculate(shift, *guide)
*/
package payroll

import (
	"context"
	"time"
)

// GuideLookup finds the pay guide effective at an instant. When several
// guides are effective the one with the latest EffectiveFrom wins.
// Returns ErrGuideNotFound when none is.
type GuideLookup interface {
	GuideAt(ctx context.Context, at time.Time) (*PayGuide, error)
}

// GuideStore extends GuideLookup with guide persistence.
type GuideStore interface {
	GuideLookup

	SaveGuide(ctx context.Context, g PayGuide) error
	GetGuide(ctx context.Context, id GuideID) (*PayGuide, error)
	ListGuides(ctx context.Context) ([]PayGuide, error)
}

// LatestEffective picks the guide effective at `at` with the latest
// EffectiveFrom. Stores use it to resolve GuideAt consistently.
func LatestEffective(guides []PayGuide, at time.Time) (*PayGuide, error) {
	var best *PayGuide
	for i := range guides {
		g := &guides[i]
		if !g.EffectiveAt(at) {
			continue
		}
		if best == nil || g.EffectiveFrom.After(best.EffectiveFrom) {
			best = g
		}
	}
	if best == nil {
		return nil, ErrGuideNotFound
	}
	out := *best
	return &out, nil
}
