package awards

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/warp/pay-engine/payroll"
)

// =============================================================================
// PUBLIC HOLIDAY CALENDAR
// =============================================================================

// Holidays returns the Australian public holidays for a calendar year:
// the national days plus the state-scoped days the presets care about.
// Weekend substitution days are not generated.
func Holidays(year int) []payroll.PublicHoliday {
	easter := EasterSunday(year)

	hs := []payroll.PublicHoliday{
		holiday(payroll.NewLocalDate(year, time.January, 1), "New Year's Day", ""),
		holiday(payroll.NewLocalDate(year, time.January, 26), "Australia Day", ""),
		holiday(easter.AddDays(-2), "Good Friday", ""),
		holiday(easter.AddDays(1), "Easter Monday", ""),
		holiday(payroll.NewLocalDate(year, time.April, 25), "Anzac Day", ""),
		holiday(payroll.NewLocalDate(year, time.December, 25), "Christmas Day", ""),
		holiday(payroll.NewLocalDate(year, time.December, 26), "Boxing Day", ""),

		holiday(nthWeekday(year, time.March, time.Monday, 2), "Labour Day", "VIC"),
		holiday(nthWeekday(year, time.June, time.Monday, 2), "King's Birthday", "NSW"),
		holiday(nthWeekday(year, time.June, time.Monday, 2), "King's Birthday", "VIC"),
		holiday(nthWeekday(year, time.October, time.Monday, 1), "Labour Day", "NSW"),
		holiday(nthWeekday(year, time.November, time.Tuesday, 1), "Melbourne Cup", "VIC"),
	}

	sort.SliceStable(hs, func(i, j int) bool { return hs[i].Date.Before(hs[j].Date) })
	return hs
}

// HolidaysBetween returns the holidays of every year touching [from, to],
// keeping those on or between the two dates.
func HolidaysBetween(from, to payroll.LocalDate) []payroll.PublicHoliday {
	var out []payroll.PublicHoliday
	for y := from.Year; y <= to.Year; y++ {
		for _, h := range Holidays(y) {
			if !h.Date.Before(from) && !h.Date.After(to) {
				out = append(out, h)
			}
		}
	}
	return out
}

// ForState keeps the national holidays and those of state. With an empty
// state only national holidays are kept, since a guide without a
// jurisdiction accepts every holiday it carries.
func ForState(hs []payroll.PublicHoliday, state string) []payroll.PublicHoliday {
	var out []payroll.PublicHoliday
	for _, h := range hs {
		if h.StateTerritory == "" || (state != "" && strings.EqualFold(h.StateTerritory, state)) {
			out = append(out, h)
		}
	}
	return out
}

func holiday(d payroll.LocalDate, name, state string) payroll.PublicHoliday {
	id := fmt.Sprintf("%s-%s", d, slug(name))
	if state != "" {
		id += "-" + strings.ToLower(state)
	}
	return payroll.PublicHoliday{ID: id, Date: d, Name: name, StateTerritory: state}
}

func slug(s string) string {
	s = strings.ToLower(strings.ReplaceAll(s, "'", ""))
	return strings.ReplaceAll(s, " ", "-")
}

// EasterSunday computes Western Easter with the anonymous Gregorian
// algorithm.
func EasterSunday(year int) payroll.LocalDate {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return payroll.NewLocalDate(year, time.Month(month), day)
}

// nthWeekday returns the n-th (1-based) given weekday of a month.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) payroll.LocalDate {
	first := payroll.NewLocalDate(year, month, 1)
	shift := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDays(shift + 7*(n-1))
}
