/*
Package awards provides ready-made pay guide documents.

PURPOSE:
  Provides JSON pay guides for common award patterns so callers can seed a
  store or price a shift without writing a guide by hand. These are
  starting points; real award rates change every July and vary by
  classification level, so the base rate is always a parameter.

AVAILABLE PRESETS:
  RetailAwardJSON:      Evening loading on weekdays, weekend and public
                        holiday penalties, overtime every day (weekly scope)
  HospitalityAwardJSON: Late night and early morning loadings that combine,
                        weekday overtime (daily scope)

Both cover one Australian financial year (1 July to 30 June) in
Australia/Sydney and carry the national and NSW holidays of that year.

EXAMPLE:
  jsonStr := awards.RetailAwardJSON("retail-fy2025", "26.55", 2024)
  guide, err := factory.NewGuideFactory().ParseGuide(jsonStr)

SEE ALSO:
  - factory/guide.go: document schema
  - holidays.go: holiday calendar generation
*/
package awards

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/payroll"
)

// Timezone is the zone every preset is written for.
const Timezone = "Australia/Sydney"

// State is the jurisdiction every preset carries holidays for.
const State = "NSW"

var weekdays = []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday}

var allDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// =============================================================================
// PRESETS
// =============================================================================

// RetailAwardJSON returns a retail guide for the financial year starting
// 1 July of fyStart.
func RetailAwardJSON(id, baseRate string, fyStart int) string {
	gj := financialYear(id, "General Retail Award", baseRate, fyStart, State)
	gj.MinimumShiftHours = "3"
	gj.MaximumShiftHours = "11.5"

	for _, d := range weekdays {
		gj.Penalties = append(gj.Penalties, penaltyOn(d, "evening", "Evening work", "18:00", "00:00", "1.25"))
	}
	gj.Penalties = append(gj.Penalties,
		penaltyOn(time.Saturday, "saturday", "Saturday", "00:00", "00:00", "1.25"),
		penaltyOn(time.Sunday, "sunday", "Sunday", "00:00", "00:00", "1.5"),
		publicHolidayPenalty("2.25"),
	)
	for _, d := range allDays {
		gj.Overtime = append(gj.Overtime, overtimeOn(d, "1.5", "2.0"))
	}
	return marshal(gj)
}

// HospitalityAwardJSON returns a hospitality guide for the financial year
// starting 1 July of fyStart. Loadings combine additively.
func HospitalityAwardJSON(id, baseRate string, fyStart int) string {
	gj := financialYear(id, "Hospitality Industry Award", baseRate, fyStart, State)
	gj.MinimumShiftHours = "2"
	gj.AllowPenaltyCombination = true
	gj.RegularHoursThreshold = "7.6"

	for _, d := range weekdays {
		gj.Penalties = append(gj.Penalties,
			penaltyOn(d, "late", "Late night", "19:00", "00:00", "1.10"),
			penaltyOn(d, "early", "Early morning", "00:00", "07:00", "1.15"),
		)
	}
	gj.Penalties = append(gj.Penalties,
		penaltyOn(time.Saturday, "saturday", "Saturday", "00:00", "00:00", "1.25"),
		penaltyOn(time.Sunday, "sunday", "Sunday", "00:00", "00:00", "1.5"),
		publicHolidayPenalty("2.25"),
	)
	for _, d := range weekdays {
		gj.Overtime = append(gj.Overtime, overtimeOn(d, "1.5", "2.0"))
	}
	return marshal(gj)
}

// Preset returns a named preset: "retail" or "hospitality".
func Preset(name, id, baseRate string, fyStart int) (string, error) {
	switch strings.ToLower(name) {
	case "retail":
		return RetailAwardJSON(id, baseRate, fyStart), nil
	case "hospitality":
		return HospitalityAwardJSON(id, baseRate, fyStart), nil
	default:
		return "", fmt.Errorf("unknown award preset %q (have %s)", name, strings.Join(PresetNames(), ", "))
	}
}

// PresetNames lists the names Preset accepts.
func PresetNames() []string {
	return []string{"hospitality", "retail"}
}

// =============================================================================
// BUILDERS
// =============================================================================

func financialYear(id, name, baseRate string, fyStart int, state string) factory.GuideJSON {
	from := payroll.NewLocalDate(fyStart, time.July, 1)
	to := payroll.NewLocalDate(fyStart+1, time.June, 30)

	gj := factory.GuideJSON{
		ID:             id,
		Name:           fmt.Sprintf("%s %d-%02d", name, fyStart, (fyStart+1)%100),
		BaseRate:       baseRate,
		Timezone:       Timezone,
		EffectiveFrom:  from.String(),
		EffectiveTo:    to.String(),
		StateTerritory: state,
	}
	for _, h := range ForState(HolidaysBetween(from, to), state) {
		gj.PublicHolidays = append(gj.PublicHolidays, factory.HolidayToJSON(h))
	}
	return gj
}

func penaltyOn(d time.Weekday, key, name, start, end, mult string) factory.PenaltyJSON {
	return factory.PenaltyJSON{
		ID:         fmt.Sprintf("%s-%s", key, dayKey(d)),
		Name:       name,
		WindowJSON: factory.WindowJSON{DayOfWeek: dayKey(d), Start: start, End: end},
		Multiplier: mult,
	}
}

func publicHolidayPenalty(mult string) factory.PenaltyJSON {
	return factory.PenaltyJSON{
		ID:         "public-holiday",
		Name:       "Public holiday",
		WindowJSON: factory.WindowJSON{PublicHoliday: true, Start: "00:00", End: "00:00"},
		Multiplier: mult,
	}
}

func overtimeOn(d time.Weekday, first, after string) factory.OvertimeJSON {
	return factory.OvertimeJSON{
		ID:              "overtime-" + dayKey(d),
		Name:            "Overtime",
		WindowJSON:      factory.WindowJSON{DayOfWeek: dayKey(d), Start: "00:00", End: "00:00"},
		FirstThreeHours: first,
		AfterThreeHours: after,
	}
}

func dayKey(d time.Weekday) string { return strings.ToLower(d.String()) }

func marshal(gj factory.GuideJSON) string {
	b, _ := json.MarshalIndent(gj, "", "  ")
	return string(b)
}
