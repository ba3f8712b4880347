/*
Package factory provides JSON and YAML to Go pay guide conversion.

PURPOSE:
  Converts pay guide documents into payroll.PayGuide values. Award rates
  change every financial year; keeping them in documents means payroll
  staff can publish a new guide without a code change, and guides can be
  stored as-is in the database.

JSON SCHEMA:
  {
    "id": "retail-2024",
    "name": "General Retail Award 2024",
    "base_rate": "25.65",
    "timezone": "Australia/Sydney",
    "effective_from": "2024-07-01",
    "effective_to": "2025-06-30",
    "allow_penalty_combination": false,
    "regular_hours_threshold": "8",
    "state_territory": "NSW",
    "penalties": [
      {"id": "sat", "name": "Saturday", "day_of_week": "saturday",
       "start": "00:00", "end": "00:00", "multiplier": "1.25"},
      {"id": "ph", "name": "Public holiday", "public_holiday": true,
       "start": "00:00", "end": "00:00", "multiplier": "2.25"}
    ],
    "overtime": [
      {"id": "ot-mon", "name": "Overtime", "day_of_week": "monday",
       "start": "00:00", "end": "00:00",
       "first_three_hours_mult": "1.5", "after_three_hours_mult": "2.0"}
    ],
    "public_holidays": [
      {"date": "2024-12-25", "name": "Christmas Day", "multiplier": "2.25"}
    ]
  }

CONVENTIONS:
  - Money and multipliers are decimal strings, never floats
  - Times of day are "HH:MM"; end <= start wraps past midnight
  - "active" defaults to true
  - Date-only effective_from is local midnight in the guide's timezone;
    date-only effective_to is the last instant of that local day
  - Rules without an id get "<guide id>-penalty-N" / "<guide id>-overtime-N"

USAGE:
  f := factory.NewGuideFactory()
  guide, err := f.ParseGuide(jsonString)
  guide, err := f.ParseGuideYAML(yamlBytes)

  // From a preset
  guide, err := f.ParseGuide(awards.RetailAwardJSON("retail-2024", "25.65"))

SEE ALSO:
  - payroll/types.go: PayGuide definition
  - awards/presets.go: ready-made award guides
  - store/sqlite/sqlite.go: persists the JSON form
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/payroll"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT SCHEMA TYPES
// =============================================================================

// GuideJSON is the document form of a pay guide.
type GuideJSON struct {
	ID                      string         `json:"id" yaml:"id" validate:"required"`
	Name                    string         `json:"name" yaml:"name"`
	BaseRate                string         `json:"base_rate" yaml:"base_rate" validate:"required,decimal"`
	Timezone                string         `json:"timezone" yaml:"timezone" validate:"required"`
	EffectiveFrom           string         `json:"effective_from" yaml:"effective_from" validate:"required"`
	EffectiveTo             string         `json:"effective_to,omitempty" yaml:"effective_to,omitempty"`
	MinimumShiftHours       string         `json:"minimum_shift_hours,omitempty" yaml:"minimum_shift_hours,omitempty" validate:"omitempty,decimal"`
	MaximumShiftHours       string         `json:"maximum_shift_hours,omitempty" yaml:"maximum_shift_hours,omitempty" validate:"omitempty,decimal"`
	AllowPenaltyCombination bool           `json:"allow_penalty_combination,omitempty" yaml:"allow_penalty_combination,omitempty"`
	RegularHoursThreshold   string         `json:"regular_hours_threshold,omitempty" yaml:"regular_hours_threshold,omitempty" validate:"omitempty,decimal"`
	StateTerritory          string         `json:"state_territory,omitempty" yaml:"state_territory,omitempty"`
	Penalties               []PenaltyJSON  `json:"penalties,omitempty" yaml:"penalties,omitempty" validate:"dive"`
	Overtime                []OvertimeJSON `json:"overtime,omitempty" yaml:"overtime,omitempty" validate:"dive"`
	PublicHolidays          []HolidayJSON  `json:"public_holidays,omitempty" yaml:"public_holidays,omitempty" validate:"dive"`
}

// WindowJSON is the shared time window of penalty and overtime rules.
type WindowJSON struct {
	DayOfWeek     string `json:"day_of_week,omitempty" yaml:"day_of_week,omitempty" validate:"omitempty,weekday"`
	PublicHoliday bool   `json:"public_holiday,omitempty" yaml:"public_holiday,omitempty"`
	Start         string `json:"start" yaml:"start" validate:"required,timeofday"`
	End           string `json:"end" yaml:"end" validate:"required,timeofday"`
	Active        *bool  `json:"active,omitempty" yaml:"active,omitempty"` // Default true
}

// PenaltyJSON represents a penalty rate rule.
type PenaltyJSON struct {
	ID         string `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string `json:"name" yaml:"name"`
	WindowJSON `yaml:",inline"`
	Multiplier string `json:"multiplier" yaml:"multiplier" validate:"required,decimal"`
}

// OvertimeJSON represents an overtime rule.
type OvertimeJSON struct {
	ID              string `json:"id,omitempty" yaml:"id,omitempty"`
	Name            string `json:"name" yaml:"name"`
	WindowJSON      `yaml:",inline"`
	FirstThreeHours string `json:"first_three_hours_mult" yaml:"first_three_hours_mult" validate:"required,decimal"`
	AfterThreeHours string `json:"after_three_hours_mult" yaml:"after_three_hours_mult" validate:"required,decimal"`
}

// HolidayJSON represents a public holiday.
type HolidayJSON struct {
	ID             string `json:"id,omitempty" yaml:"id,omitempty"`
	Date           string `json:"date" yaml:"date" validate:"required,localdate"`
	Name           string `json:"name" yaml:"name" validate:"required"`
	StateTerritory string `json:"state_territory,omitempty" yaml:"state_territory,omitempty"`
	Multiplier     string `json:"multiplier,omitempty" yaml:"multiplier,omitempty" validate:"omitempty,decimal"`
}

// =============================================================================
// GUIDE FACTORY
// =============================================================================

// GuideFactory converts guide documents to payroll.PayGuide.
type GuideFactory struct{}

// NewGuideFactory creates a new guide factory.
func NewGuideFactory() *GuideFactory {
	return &GuideFactory{}
}

// ParseGuide parses a JSON string into a PayGuide.
func (f *GuideFactory) ParseGuide(jsonStr string) (*payroll.PayGuide, error) {
	var gj GuideJSON
	if err := json.Unmarshal([]byte(jsonStr), &gj); err != nil {
		return nil, fmt.Errorf("failed to parse guide JSON: %w", err)
	}
	return f.FromJSON(gj)
}

// ParseGuideYAML parses a YAML document into a PayGuide.
func (f *GuideFactory) ParseGuideYAML(data []byte) (*payroll.PayGuide, error) {
	var gj GuideJSON
	if err := yaml.Unmarshal(data, &gj); err != nil {
		return nil, fmt.Errorf("failed to parse guide YAML: %w", err)
	}
	return f.FromJSON(gj)
}

// ParseGuideFile reads a guide document from disk. Files ending in .yaml or
// .yml are parsed as YAML; anything else as JSON.
func (f *GuideFactory) ParseGuideFile(path string) (*payroll.PayGuide, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read guide %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return f.ParseGuideYAML(data)
	default:
		return f.ParseGuide(string(data))
	}
}

// FromJSON converts GuideJSON to a validated payroll.PayGuide.
func (f *GuideFactory) FromJSON(gj GuideJSON) (*payroll.PayGuide, error) {
	if errs := ValidateStruct(gj); len(errs) > 0 {
		return nil, validationError(gj.ID, errs)
	}

	loc, err := payroll.LoadZone(gj.Timezone)
	if err != nil {
		return nil, err
	}
	fail := func(field string, err error) error {
		return &payroll.GuideError{GuideID: payroll.GuideID(gj.ID), Field: field, Reason: err.Error()}
	}

	guide := &payroll.PayGuide{
		ID:                      payroll.GuideID(gj.ID),
		Name:                    gj.Name,
		BaseRate:                decimal.RequireFromString(gj.BaseRate),
		Timezone:                gj.Timezone,
		AllowPenaltyCombination: gj.AllowPenaltyCombination,
		StateTerritory:          gj.StateTerritory,
	}

	if guide.EffectiveFrom, err = parseInstant(gj.EffectiveFrom, loc, false); err != nil {
		return nil, fail("effective_from", err)
	}
	if gj.EffectiveTo != "" {
		to, err := parseInstant(gj.EffectiveTo, loc, true)
		if err != nil {
			return nil, fail("effective_to", err)
		}
		guide.EffectiveTo = &to
	}
	guide.MinimumShiftHours = optionalDecimal(gj.MinimumShiftHours)
	guide.MaximumShiftHours = optionalDecimal(gj.MaximumShiftHours)
	if gj.RegularHoursThreshold != "" {
		guide.RegularHoursThreshold = decimal.RequireFromString(gj.RegularHoursThreshold)
	}

	for i, pj := range gj.Penalties {
		w, err := parseWindow(pj.WindowJSON)
		if err != nil {
			return nil, fail(fmt.Sprintf("penalties[%d]", i), err)
		}
		guide.PenaltyTimeFrames = append(guide.PenaltyTimeFrames, payroll.PenaltyTimeFrame{
			ID:         ruleID(pj.ID, gj.ID, "penalty", i),
			Name:       pj.Name,
			TimeWindow: w,
			Multiplier: decimal.RequireFromString(pj.Multiplier),
		})
	}

	for i, oj := range gj.Overtime {
		w, err := parseWindow(oj.WindowJSON)
		if err != nil {
			return nil, fail(fmt.Sprintf("overtime[%d]", i), err)
		}
		guide.OvertimeTimeFrames = append(guide.OvertimeTimeFrames, payroll.OvertimeTimeFrame{
			ID:                  ruleID(oj.ID, gj.ID, "overtime", i),
			Name:                oj.Name,
			TimeWindow:          w,
			FirstThreeHoursMult: decimal.RequireFromString(oj.FirstThreeHours),
			AfterThreeHoursMult: decimal.RequireFromString(oj.AfterThreeHours),
		})
	}

	for _, hj := range gj.PublicHolidays {
		h, err := HolidayFromJSON(hj)
		if err != nil {
			return nil, fail("public_holidays", err)
		}
		guide.PublicHolidays = append(guide.PublicHolidays, h)
	}

	if err := guide.Validate(); err != nil {
		return nil, err
	}
	return guide, nil
}

// HolidayFromJSON converts one holiday document.
func HolidayFromJSON(hj HolidayJSON) (payroll.PublicHoliday, error) {
	d, err := payroll.ParseLocalDate(hj.Date)
	if err != nil {
		return payroll.PublicHoliday{}, err
	}
	h := payroll.PublicHoliday{ID: hj.ID, Date: d, Name: hj.Name, StateTerritory: hj.StateTerritory}
	if hj.Multiplier != "" {
		if h.Multiplier, err = decimal.NewFromString(hj.Multiplier); err != nil {
			return payroll.PublicHoliday{}, fmt.Errorf("holiday %s multiplier: %w", hj.Date, err)
		}
	}
	return h, nil
}

func parseWindow(wj WindowJSON) (payroll.TimeWindow, error) {
	w := payroll.TimeWindow{IsPublicHoliday: wj.PublicHoliday, IsActive: true}
	if wj.Active != nil {
		w.IsActive = *wj.Active
	}

	if !wj.PublicHoliday {
		if wj.DayOfWeek == "" {
			return w, fmt.Errorf("day_of_week is required unless public_holiday is set")
		}
		day, err := payroll.ParseWeekday(wj.DayOfWeek)
		if err != nil {
			return w, err
		}
		w.DayOfWeek = day
	}

	var err error
	if w.Start, err = payroll.ParseTimeOfDay(wj.Start); err != nil {
		return w, err
	}
	if w.End, err = payroll.ParseTimeOfDay(wj.End); err != nil {
		return w, err
	}
	if w.Start == payroll.EndOfDay {
		return w, fmt.Errorf("start cannot be 24:00")
	}
	return w, nil
}

// parseInstant accepts RFC 3339 or a bare date. A bare date resolves to the
// start of that local day, or its last instant when endOfDay is set.
func parseInstant(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	d, err := payroll.ParseLocalDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD or RFC 3339, got %q", s)
	}
	if endOfDay {
		return d.AddDays(1).Midnight(loc).Add(-time.Nanosecond), nil
	}
	return d.Midnight(loc), nil
}

func optionalDecimal(s string) *decimal.Decimal {
	if s == "" {
		return nil
	}
	d := decimal.RequireFromString(s)
	return &d
}

func ruleID(id, guideID, kind string, i int) payroll.RuleID {
	if id != "" {
		return payroll.RuleID(id)
	}
	return payroll.RuleID(fmt.Sprintf("%s-%s-%d", guideID, kind, i+1))
}

// =============================================================================
// REVERSE CONVERSION
// =============================================================================

// ToJSON converts a PayGuide to its document form. Instants are written as
// RFC 3339 in the guide's timezone so a round trip is exact.
func (f *GuideFactory) ToJSON(g *payroll.PayGuide) GuideJSON {
	loc, err := payroll.LoadZone(g.Timezone)
	if err != nil {
		loc = time.UTC
	}

	gj := GuideJSON{
		ID:                      string(g.ID),
		Name:                    g.Name,
		BaseRate:                g.BaseRate.String(),
		Timezone:                g.Timezone,
		EffectiveFrom:           g.EffectiveFrom.In(loc).Format(time.RFC3339Nano),
		AllowPenaltyCombination: g.AllowPenaltyCombination,
		StateTerritory:          g.StateTerritory,
	}
	if g.EffectiveTo != nil {
		gj.EffectiveTo = g.EffectiveTo.In(loc).Format(time.RFC3339Nano)
	}
	if g.MinimumShiftHours != nil {
		gj.MinimumShiftHours = g.MinimumShiftHours.String()
	}
	if g.MaximumShiftHours != nil {
		gj.MaximumShiftHours = g.MaximumShiftHours.String()
	}
	if !g.RegularHoursThreshold.IsZero() {
		gj.RegularHoursThreshold = g.RegularHoursThreshold.String()
	}

	for _, p := range g.PenaltyTimeFrames {
		gj.Penalties = append(gj.Penalties, PenaltyJSON{
			ID:         string(p.ID),
			Name:       p.Name,
			WindowJSON: windowToJSON(p.TimeWindow),
			Multiplier: p.Multiplier.String(),
		})
	}
	for _, o := range g.OvertimeTimeFrames {
		gj.Overtime = append(gj.Overtime, OvertimeJSON{
			ID:              string(o.ID),
			Name:            o.Name,
			WindowJSON:      windowToJSON(o.TimeWindow),
			FirstThreeHours: o.FirstThreeHoursMult.String(),
			AfterThreeHours: o.AfterThreeHoursMult.String(),
		})
	}
	for _, h := range g.PublicHolidays {
		gj.PublicHolidays = append(gj.PublicHolidays, HolidayToJSON(h))
	}
	return gj
}

// HolidayToJSON converts one holiday to its document form.
func HolidayToJSON(h payroll.PublicHoliday) HolidayJSON {
	hj := HolidayJSON{ID: h.ID, Date: h.Date.String(), Name: h.Name, StateTerritory: h.StateTerritory}
	if !h.Multiplier.IsZero() {
		hj.Multiplier = h.Multiplier.String()
	}
	return hj
}

func windowToJSON(w payroll.TimeWindow) WindowJSON {
	wj := WindowJSON{
		PublicHoliday: w.IsPublicHoliday,
		Start:         w.Start.String(),
		End:           w.End.String(),
	}
	if !w.IsPublicHoliday {
		wj.DayOfWeek = strings.ToLower(w.DayOfWeek.String())
	}
	if !w.IsActive {
		inactive := false
		wj.Active = &inactive
	}
	return wj
}

// MarshalGuide renders a guide as indented JSON, the form stored on disk
// and in the database.
func (f *GuideFactory) MarshalGuide(g *payroll.PayGuide) (string, error) {
	data, err := json.MarshalIndent(f.ToJSON(g), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal guide %s: %w", g.ID, err)
	}
	return string(data), nil
}
