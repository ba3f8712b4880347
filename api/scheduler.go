/*
scheduler.go - Automated public holiday sync

PURPOSE:
  Periodically checks stored pay guides for Australian public holidays
  missing from their calendar and stores them, so a guide written before a
  holiday was gazetted (or without a holiday list at all) still pays
  holiday rates.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Only guides in an Australian timezone are considered
  - Only national holidays and those of the guide's StateTerritory are
    stored; a guide without one gets national holidays only
  - Holidays come from awards.HolidaysBetween over the guide's effective
    window (one year from EffectiveFrom when open-ended)
  - A holiday already on the guide (same date and state) is skipped, so
    every run after the first is a no-op

CONFIGURATION:
  - CheckInterval: How often to check (default: 24 hours)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewHolidayScheduler(store, logger)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - awards/holidays.go: Holiday generation
  - store/sqlite/sqlite.go: SaveHoliday, hydrate
*/
package api

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/warp/pay-engine/awards"
	"github.com/warp/pay-engine/payroll"
	"github.com/warp/pay-engine/store/sqlite"
)

// HolidayScheduler keeps stored guides' holiday calendars complete.
type HolidayScheduler struct {
	Store         *sqlite.Store
	Logger        *slog.Logger
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewHolidayScheduler creates a new scheduler.
func NewHolidayScheduler(store *sqlite.Store, logger *slog.Logger) *HolidayScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HolidayScheduler{
		Store:         store,
		Logger:        logger.With("component", "holiday-scheduler"),
		CheckInterval: 24 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (hs *HolidayScheduler) Start() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if !hs.Enabled {
		hs.Logger.Info("disabled, not starting")
		return
	}
	if hs.ticker != nil {
		return
	}

	hs.ticker = time.NewTicker(hs.CheckInterval)
	hs.stop = make(chan struct{})
	hs.wg.Add(1)

	go hs.run()

	hs.Logger.Info("started", "interval", hs.CheckInterval)
}

// Stop stops the scheduler and waits for a running sync to finish.
func (hs *HolidayScheduler) Stop() {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if hs.ticker != nil {
		hs.ticker.Stop()
		close(hs.stop)
		hs.wg.Wait()
		hs.ticker = nil
		hs.Logger.Info("stopped")
	}
}

func (hs *HolidayScheduler) run() {
	defer hs.wg.Done()

	// Run immediately on start
	hs.sync()

	for {
		select {
		case <-hs.ticker.C:
			hs.sync()
		case <-hs.stop:
			return
		}
	}
}

func (hs *HolidayScheduler) sync() {
	added, err := hs.SyncOnce(context.Background())
	if err != nil {
		hs.Logger.Error("sync failed", "error", err)
		return
	}
	if added > 0 {
		hs.Logger.Info("sync completed", "added", added)
	}
}

// SyncOnce runs a single pass and returns how many holidays were stored.
func (hs *HolidayScheduler) SyncOnce(ctx context.Context) (int, error) {
	guides, err := hs.Store.ListGuides(ctx)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, g := range guides {
		if !strings.HasPrefix(g.Timezone, "Australia/") {
			continue
		}
		loc, err := payroll.LoadZone(g.Timezone)
		if err != nil {
			hs.Logger.Warn("skipping guide", "guide_id", g.ID, "error", err)
			continue
		}

		from := payroll.DateOf(g.EffectiveFrom.In(loc))
		to := from.AddMonths(12).AddDays(-1)
		if g.EffectiveTo != nil {
			to = payroll.DateOf(g.EffectiveTo.In(loc))
		}

		have := make(map[string]bool, len(g.PublicHolidays))
		for _, h := range g.PublicHolidays {
			have[holidayKey(h)] = true
		}
		for _, h := range awards.ForState(awards.HolidaysBetween(from, to), g.StateTerritory) {
			if have[holidayKey(h)] {
				continue
			}
			// Calendar IDs repeat across guides; the store assigns its own.
			h.ID = ""
			if _, err := hs.Store.SaveHoliday(ctx, g.ID, h); err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}

func holidayKey(h payroll.PublicHoliday) string {
	return h.Date.String() + "|" + h.StateTerritory
}
