// Package store provides GuideStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/pay-engine/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/CLI)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	guides map[payroll.GuideID]payroll.PayGuide
}

var _ payroll.GuideStore = (*Memory)(nil)

func NewMemory(guides ...payroll.PayGuide) *Memory {
	m := &Memory{guides: make(map[payroll.GuideID]payroll.PayGuide)}
	for _, g := range guides {
		m.guides[g.ID] = g
	}
	return m
}

// SaveGuide inserts or replaces a guide by ID.
func (m *Memory) SaveGuide(_ context.Context, g payroll.PayGuide) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guides[g.ID] = g
	return nil
}

func (m *Memory) GetGuide(_ context.Context, id payroll.GuideID) (*payroll.PayGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.guides[id]
	if !ok {
		return nil, payroll.ErrGuideNotFound
	}
	return &g, nil
}

// ListGuides returns guides ordered by EffectiveFrom, then ID.
func (m *Memory) ListGuides(_ context.Context) ([]payroll.PayGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sortedLocked(), nil
}

func (m *Memory) GuideAt(_ context.Context, at time.Time) (*payroll.PayGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return payroll.LatestEffective(m.sortedLocked(), at)
}

func (m *Memory) sortedLocked() []payroll.PayGuide {
	result := make([]payroll.PayGuide, 0, len(m.guides))
	for _, g := range m.guides {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].EffectiveFrom.Equal(result[j].EffectiveFrom) {
			return result[i].EffectiveFrom.Before(result[j].EffectiveFrom)
		}
		return result[i].ID < result[j].ID
	})
	return result
}
