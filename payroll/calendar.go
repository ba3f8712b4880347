package payroll

import "strings"

// =============================================================================
// HOLIDAY CALENDAR - Public holidays in force for one calculation
// =============================================================================

// HolidayCalendar answers whether a local date is a public holiday.
type HolidayCalendar interface {
	HolidayOn(d LocalDate) (PublicHoliday, bool)
}

type holidaySet map[LocalDate]PublicHoliday

// NewHolidayCalendar indexes holidays by date, keeping only those that apply
// in jurisdiction. A holiday without a state or territory applies
// everywhere; an empty jurisdiction accepts every holiday. When two
// holidays share a date the first one listed wins.
func NewHolidayCalendar(holidays []PublicHoliday, jurisdiction string) HolidayCalendar {
	set := make(holidaySet, len(holidays))
	for _, h := range holidays {
		if !appliesIn(h, jurisdiction) {
			continue
		}
		if _, seen := set[h.Date]; seen {
			continue
		}
		set[h.Date] = h
	}
	return set
}

func appliesIn(h PublicHoliday, jurisdiction string) bool {
	if h.StateTerritory == "" || jurisdiction == "" {
		return true
	}
	return strings.EqualFold(h.StateTerritory, jurisdiction)
}

func (s holidaySet) HolidayOn(d LocalDate) (PublicHoliday, bool) {
	h, ok := s[d]
	return h, ok
}

func isHoliday(cal HolidayCalendar, d LocalDate) bool {
	_, ok := cal.HolidayOn(d)
	return ok
}

// NoHolidays is a calendar with no holidays.
type NoHolidays struct{}

func (NoHolidays) HolidayOn(LocalDate) (PublicHoliday, bool) { return PublicHoliday{}, false }
