/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	guides and shifts for demos. Each scenario stores one or more preset
	guides from the awards package and a set of shifts that exercise a
	specific part of the engine.

AVAILABLE SCENARIOS:

	retail-christmas:   Retail guide, a week spanning Christmas and Boxing Day
	hospitality-nights: Combining late-night and early-morning loadings
	guide-change:       Two financial-year guides, shifts either side of 1 July

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Store preset guides via the guide factory
 3. Store shifts for one employee (Sydney wall-clock times)

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "retail-christmas"}

	GET /api/periods/summary?at=2024-12-25T00:00:00Z&tz=Australia/Sydney

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: PeriodSummary and GetShiftPay read what scenarios store
  - awards/presets.go: Guide documents
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/warp/pay-engine/awards"
	"github.com/warp/pay-engine/payroll"
	"github.com/warp/pay-engine/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "retail-christmas",
		Name:        "Retail Christmas Week",
		Description: "Weekday, public holiday and Saturday shifts under the retail guide",
		Category:    "penalties",
	},
	{
		ID:          "hospitality-nights",
		Name:        "Hospitality Nights",
		Description: "Late-night and early-morning loadings that combine across midnight",
		Category:    "penalties",
	},
	{
		ID:          "guide-change",
		Name:        "Financial Year Change",
		Description: "Base rate rise on 1 July; each shift priced under the guide in force at its start",
		Category:    "guides",
	},
}

// ScenarioEmployee owns every shift a scenario stores.
const ScenarioEmployee = "emp-demo"

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario resets the database and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "retail-christmas":
		load = h.loadRetailChristmasScenario
	case "hospitality-nights":
		load = h.loadHospitalityNightsScenario
	case "guide-change":
		load = h.loadGuideChangeScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("no scenario %q", req.ScenarioID))
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadRetailChristmasScenario(ctx context.Context) error {
	if err := h.savePreset(ctx, "retail", "retail-fy2025", "26.55", 2024); err != nil {
		return err
	}
	return h.saveShifts(ctx, []demoShift{
		{day: sydneyDay(2024, time.December, 23), start: 9, end: 17, breakAt: 12},
		{day: sydneyDay(2024, time.December, 24), start: 12, end: 21, breakAt: 16},
		{day: sydneyDay(2024, time.December, 25), start: 8, end: 14},
		{day: sydneyDay(2024, time.December, 26), start: 10, end: 16},
		{day: sydneyDay(2024, time.December, 28), start: 9, end: 17, breakAt: 13},
	})
}

func (h *Handler) loadHospitalityNightsScenario(ctx context.Context) error {
	if err := h.savePreset(ctx, "hospitality", "hospitality-fy2025", "24.10", 2024); err != nil {
		return err
	}
	return h.saveShifts(ctx, []demoShift{
		{day: sydneyDay(2024, time.September, 2), start: 18, end: 26, breakAt: 22},
		{day: sydneyDay(2024, time.September, 3), start: 20, end: 28},
		{day: sydneyDay(2024, time.September, 6), start: 17, end: 27, breakAt: 21},
		{day: sydneyDay(2024, time.September, 7), start: 16, end: 23},
	})
}

func (h *Handler) loadGuideChangeScenario(ctx context.Context) error {
	if err := h.savePreset(ctx, "retail", "retail-fy2024", "25.65", 2023); err != nil {
		return err
	}
	if err := h.savePreset(ctx, "retail", "retail-fy2025", "26.55", 2024); err != nil {
		return err
	}
	return h.saveShifts(ctx, []demoShift{
		{day: sydneyDay(2024, time.June, 27), start: 9, end: 17, breakAt: 12},
		{day: sydneyDay(2024, time.June, 28), start: 9, end: 17, breakAt: 12},
		{day: sydneyDay(2024, time.July, 1), start: 9, end: 17, breakAt: 12},
		{day: sydneyDay(2024, time.July, 2), start: 9, end: 17, breakAt: 12},
	})
}

// =============================================================================
// HELPERS
// =============================================================================

// demoShift is a shift in Sydney wall-clock hours on day. Hours past 24
// run into the next morning. breakAt, when set, starts a 30 minute break.
type demoShift struct {
	day        time.Time
	start, end int
	breakAt    int
}

func sydneyDay(year int, month time.Month, day int) time.Time {
	loc, err := time.LoadLocation(awards.Timezone)
	if err != nil {
		loc = time.UTC
	}
	return time.Date(year, month, day, 0, 0, 0, 0, loc)
}

func (h *Handler) savePreset(ctx context.Context, preset, id, baseRate string, fyStart int) error {
	doc, err := awards.Preset(preset, id, baseRate, fyStart)
	if err != nil {
		return err
	}
	guide, err := h.GuideFactory.ParseGuide(doc)
	if err != nil {
		return fmt.Errorf("preset %s: %w", id, err)
	}
	return h.Store.SaveGuide(ctx, *guide)
}

func (h *Handler) saveShifts(ctx context.Context, demo []demoShift) error {
	for _, d := range demo {
		at := func(hour int) time.Time {
			return time.Date(d.day.Year(), d.day.Month(), d.day.Day(), hour, 0, 0, 0, d.day.Location())
		}
		shift := payroll.Shift{Start: at(d.start), End: at(d.end)}
		if d.breakAt != 0 {
			shift.Breaks = []payroll.BreakPeriod{{Start: at(d.breakAt), End: at(d.breakAt).Add(30 * time.Minute)}}
		}
		if err := shift.Validate(); err != nil {
			return err
		}
		if _, err := h.Store.SaveShift(ctx, sqlite.ShiftRecord{Shift: shift, EmployeeID: ScenarioEmployee}); err != nil {
			return err
		}
	}
	return nil
}
