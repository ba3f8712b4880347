package payroll_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pay-engine/payroll"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func zone(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func at(loc *time.Location, year int, month time.Month, day, hour, minute int) time.Time {
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func tod(s string) payroll.TimeOfDay {
	t, err := payroll.ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

func window(day time.Weekday, start, end string) payroll.TimeWindow {
	return payroll.TimeWindow{DayOfWeek: day, Start: tod(start), End: tod(end), IsActive: true}
}

func holidayWindow(start, end string) payroll.TimeWindow {
	return payroll.TimeWindow{IsPublicHoliday: true, Start: tod(start), End: tod(end), IsActive: true}
}

func penalty(id string, w payroll.TimeWindow, mult string) payroll.PenaltyTimeFrame {
	return payroll.PenaltyTimeFrame{ID: payroll.RuleID(id), Name: id, TimeWindow: w, Multiplier: dec(mult)}
}

func overtime(id string, w payroll.TimeWindow, first, after string) payroll.OvertimeTimeFrame {
	return payroll.OvertimeTimeFrame{
		ID:                  payroll.RuleID(id),
		Name:                id,
		TimeWindow:          w,
		FirstThreeHoursMult: dec(first),
		AfterThreeHoursMult: dec(after),
	}
}

// everyDayOvertime covers all week, so hours accumulate per ISO week.
func everyDayOvertime(first, after string) []payroll.OvertimeTimeFrame {
	var frames []payroll.OvertimeTimeFrame
	for d := time.Sunday; d <= time.Saturday; d++ {
		frames = append(frames, overtime("ot-"+d.String(), window(d, "00:00", "00:00"), first, after))
	}
	return frames
}

// weekdayOvertime covers Monday to Friday only, so hours accumulate per day.
func weekdayOvertime(first, after string) []payroll.OvertimeTimeFrame {
	var frames []payroll.OvertimeTimeFrame
	for d := time.Monday; d <= time.Friday; d++ {
		frames = append(frames, overtime("ot-"+d.String(), window(d, "00:00", "00:00"), first, after))
	}
	return frames
}

func baseGuide(tz string) payroll.PayGuide {
	return payroll.PayGuide{
		ID:            "guide-test",
		Name:          "Test Guide",
		BaseRate:      dec("25.00"),
		Timezone:      tz,
		EffectiveFrom: time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
}

func shift(start, end time.Time, breaks ...payroll.BreakPeriod) payroll.Shift {
	return payroll.Shift{ID: "shift-test", Start: start, End: end, Breaks: breaks}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(2), msgAndArgs...)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.Truef(t, dec(want).Equal(got), "want %s, got %s %v", want, got, msgAndArgs)
}

func calculate(t *testing.T, s payroll.Shift, g payroll.PayGuide, opts ...payroll.CalcOption) payroll.PayCalculationResult {
	t.Helper()
	res, err := payroll.Calculate(s, g, opts...)
	require.NoError(t, err)
	return res
}
