package awards_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pay-engine/awards"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/payroll"
)

func TestEasterSunday(t *testing.T) {
	assert.Equal(t, payroll.NewLocalDate(2019, time.April, 21), awards.EasterSunday(2019))
	assert.Equal(t, payroll.NewLocalDate(2024, time.March, 31), awards.EasterSunday(2024))
	assert.Equal(t, payroll.NewLocalDate(2025, time.April, 20), awards.EasterSunday(2025))
}

func TestHolidays2024(t *testing.T) {
	byName := map[string]payroll.LocalDate{}
	for _, h := range awards.Holidays(2024) {
		byName[h.Name+"/"+h.StateTerritory] = h.Date
	}

	want := map[string]payroll.LocalDate{
		"Good Friday/":        payroll.NewLocalDate(2024, time.March, 29),
		"Easter Monday/":      payroll.NewLocalDate(2024, time.April, 1),
		"Labour Day/VIC":      payroll.NewLocalDate(2024, time.March, 11),
		"King's Birthday/NSW": payroll.NewLocalDate(2024, time.June, 10),
		"Labour Day/NSW":      payroll.NewLocalDate(2024, time.October, 7),
		"Melbourne Cup/VIC":   payroll.NewLocalDate(2024, time.November, 5),
		"Christmas Day/":      payroll.NewLocalDate(2024, time.December, 25),
	}
	for key, d := range want {
		assert.Equal(t, d, byName[key], key)
	}

	hs := awards.Holidays(2024)
	for i := 1; i < len(hs); i++ {
		assert.False(t, hs[i].Date.Before(hs[i-1].Date), "holidays are ordered by date")
	}
}

func TestHolidaysBetween_FinancialYear(t *testing.T) {
	hs := awards.HolidaysBetween(payroll.NewLocalDate(2024, time.July, 1), payroll.NewLocalDate(2025, time.June, 30))

	require.NotEmpty(t, hs)
	assert.Equal(t, "Labour Day", hs[0].Name)
	assert.Equal(t, payroll.NewLocalDate(2024, time.October, 7), hs[0].Date)
	assert.Equal(t, "King's Birthday", hs[len(hs)-1].Name)
	assert.Equal(t, payroll.NewLocalDate(2025, time.June, 9), hs[len(hs)-1].Date)
}

func parse(t *testing.T, doc string) *payroll.PayGuide {
	t.Helper()
	g, err := factory.NewGuideFactory().ParseGuide(doc)
	require.NoError(t, err)
	return g
}

func TestRetailAward(t *testing.T) {
	g := parse(t, awards.RetailAwardJSON("retail-fy2025", "25.00", 2024))
	syd, err := time.LoadLocation(awards.Timezone)
	require.NoError(t, err)

	tests := []struct {
		name         string
		start, end   time.Time
		base, pen, ot string
	}{
		{
			name:  "saturday",
			start: time.Date(2024, time.July, 6, 9, 0, 0, 0, syd),
			end:   time.Date(2024, time.July, 6, 13, 0, 0, 0, syd),
			base:  "0.00", pen: "125.00", ot: "0.00",
		},
		{
			name:  "weekday evening",
			start: time.Date(2024, time.July, 8, 16, 0, 0, 0, syd),
			end:   time.Date(2024, time.July, 8, 20, 0, 0, 0, syd),
			base:  "50.00", pen: "62.50", ot: "0.00",
		},
		{
			name:  "christmas",
			start: time.Date(2024, time.December, 25, 9, 0, 0, 0, syd),
			end:   time.Date(2024, time.December, 25, 17, 0, 0, 0, syd),
			base:  "0.00", pen: "450.00", ot: "0.00",
		},
		{
			name:  "long weekday",
			start: time.Date(2024, time.July, 9, 7, 0, 0, 0, syd),
			end:   time.Date(2024, time.July, 9, 17, 0, 0, 0, syd),
			base:  "200.00", pen: "0.00", ot: "75.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := payroll.Calculate(payroll.Shift{Start: tt.start, End: tt.end}, *g)
			require.NoError(t, err)
			assert.Equal(t, tt.base, res.Breakdown.BasePay.StringFixed(2))
			assert.Equal(t, tt.pen, res.Breakdown.PenaltyPay.StringFixed(2))
			assert.Equal(t, tt.ot, res.Breakdown.OvertimePay.StringFixed(2))
		})
	}
}

func TestHospitalityAward_LoadingsCombineAcrossMidnight(t *testing.T) {
	// GIVEN: Late night 19:00-midnight at 1.10 and early morning
	//        midnight-07:00 at 1.15
	// WHEN: Working Monday 22:00 to Tuesday 02:00
	// THEN: 2h at 1.10 and 2h at 1.15

	g := parse(t, awards.HospitalityAwardJSON("hosp-fy2025", "25.00", 2024))
	syd, err := time.LoadLocation(awards.Timezone)
	require.NoError(t, err)

	res, err := payroll.Calculate(payroll.Shift{
		Start: time.Date(2024, time.July, 8, 22, 0, 0, 0, syd),
		End:   time.Date(2024, time.July, 9, 2, 0, 0, 0, syd),
	}, *g)
	require.NoError(t, err)

	assert.Equal(t, "112.50", res.Breakdown.PenaltyPay.StringFixed(2))
	assert.Equal(t, "0.00", res.Breakdown.BasePay.StringFixed(2))
	require.Len(t, res.AppliedPenalties, 2)
	assert.Equal(t, "Late night", res.AppliedPenalties[0].Name)
	assert.Equal(t, "Early morning", res.AppliedPenalties[1].Name)
}

func TestPreset(t *testing.T) {
	for _, name := range awards.PresetNames() {
		doc, err := awards.Preset(name, name+"-2024", "24.10", 2024)
		require.NoError(t, err)
		parse(t, doc)
	}

	_, err := awards.Preset("mining", "x", "30", 2024)
	assert.Error(t, err)
}

func TestForState(t *testing.T) {
	hs := awards.Holidays(2024)

	national := awards.ForState(hs, "")
	for _, h := range national {
		assert.Empty(t, h.StateTerritory, h.Name)
	}

	nsw := awards.ForState(hs, "nsw")
	states := map[string]bool{}
	for _, h := range nsw {
		states[h.StateTerritory] = true
	}
	assert.True(t, states["NSW"])
	assert.False(t, states["VIC"])
	assert.Len(t, nsw, len(national)+2)
}

func TestPresets_CarryOnlyTheirStatesHolidays(t *testing.T) {
	for _, name := range awards.PresetNames() {
		doc, err := awards.Preset(name, name+"-fy2025", "25.00", 2024)
		require.NoError(t, err)
		g := parse(t, doc)

		assert.Equal(t, awards.State, g.StateTerritory, name)
		for _, h := range g.PublicHolidays {
			assert.NotEqual(t, "VIC", h.StateTerritory, "%s carries %s", name, h.Name)
		}
	}
}
