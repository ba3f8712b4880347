/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's model from the external API contract: instants are RFC 3339
  strings, money and hours are decimal strings, days are names.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Guides:
    GuideDTO (summary), full documents use factory.GuideJSON

  Shifts:
    ShiftRequest, ShiftDTO, BreakDTO

  Calculation:
    CalculateRequest, PayResultDTO, BreakdownDTO, AppliedPenaltyDTO

  Periods:
    PeriodDTO, PeriodSummaryDTO

  Scenarios:
    ScenarioDTO, LoadScenarioRequest

  Errors:
    ErrorResponse

VALIDATION:
  Request types carry validator/v10 struct tags, checked by
  factory.ValidateStruct in the handlers before anything else is parsed.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/guide.go: GuideJSON document type
*/
package api

import (
	"fmt"
	"time"

	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/payroll"
	"github.com/warp/pay-engine/store/sqlite"
)

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string               `json:"error"`
	Details string               `json:"details,omitempty"`
	Fields  []factory.FieldError `json:"fields,omitempty"`
}

// =============================================================================
// GUIDES
// =============================================================================

// GuideDTO summarises a stored guide.
type GuideDTO struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	BaseRate      string  `json:"base_rate"`
	Timezone      string  `json:"timezone"`
	EffectiveFrom string  `json:"effective_from"`
	EffectiveTo   *string `json:"effective_to,omitempty"`
	Penalties     int     `json:"penalties"`
	Overtime      int     `json:"overtime"`
	Holidays      int     `json:"holidays"`
}

// =============================================================================
// SHIFTS
// =============================================================================

// BreakDTO is an unpaid break.
type BreakDTO struct {
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// ShiftRequest creates a shift.
type ShiftRequest struct {
	ID         string     `json:"id,omitempty"`
	EmployeeID string     `json:"employee_id,omitempty"`
	GuideID    string     `json:"guide_id,omitempty"`
	Start      string     `json:"start" validate:"required"`
	End        string     `json:"end" validate:"required"`
	Breaks     []BreakDTO `json:"breaks,omitempty" validate:"dive"`
}

// ShiftDTO represents a shift in API responses.
type ShiftDTO struct {
	ID          string     `json:"id"`
	EmployeeID  string     `json:"employee_id,omitempty"`
	GuideID     string     `json:"guide_id,omitempty"`
	Start       string     `json:"start"`
	End         string     `json:"end"`
	Breaks      []BreakDTO `json:"breaks"`
	WorkedHours string     `json:"worked_hours"`
}

// =============================================================================
// CALCULATION
// =============================================================================

// CalculateRequest prices an ad-hoc shift. Exactly one of Guide (an inline
// document) or GuideID (a stored guide) may be given; with neither, the
// guide effective at the shift start is used.
type CalculateRequest struct {
	Shift        ShiftRequest       `json:"shift"`
	GuideID      string             `json:"guide_id,omitempty" validate:"excluded_with=Guide"`
	Guide        *factory.GuideJSON `json:"guide,omitempty"`
	Jurisdiction string             `json:"jurisdiction,omitempty"`
	PeriodType   string             `json:"period_type,omitempty" validate:"omitempty,period_type"`
}

// BreakdownDTO is the money breakdown.
type BreakdownDTO struct {
	BasePay     string `json:"base_pay"`
	OvertimePay string `json:"overtime_pay"`
	PenaltyPay  string `json:"penalty_pay"`
	TotalPay    string `json:"total_pay"`
}

// AppliedPenaltyDTO is one audit line.
type AppliedPenaltyDTO struct {
	RuleIDs    []string `json:"rule_ids"`
	Name       string   `json:"name"`
	Kind       string   `json:"kind"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Hours      string   `json:"hours"`
	Multiplier string   `json:"multiplier"`
	Pay        string   `json:"pay"`
}

// PayResultDTO is a calculation result.
type PayResultDTO struct {
	ShiftID          string              `json:"shift_id,omitempty"`
	GuideID          string              `json:"guide_id"`
	TotalHours       string              `json:"total_hours"`
	Breakdown        BreakdownDTO        `json:"breakdown"`
	AppliedPenalties []AppliedPenaltyDTO `json:"applied_penalties"`
	Warnings         []string            `json:"warnings"`
}

// CalculationDTO is a stored calculation.
type CalculationDTO struct {
	ID           string `json:"id"`
	GuideID      string `json:"guide_id"`
	GuideVersion int    `json:"guide_version"`
	TotalPay     string `json:"total_pay"`
	CalculatedAt string `json:"calculated_at"`
}

// =============================================================================
// PERIODS
// =============================================================================

// PeriodDTO is a resolved pay period.
type PeriodDTO struct {
	Type      string `json:"type"`
	Timezone  string `json:"timezone"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	// Instants bounding the period: local midnight at the start and the
	// following local midnight after the end.
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// PeriodSummaryDTO totals the stored shifts of one pay period.
type PeriodSummaryDTO struct {
	Period     PeriodDTO    `json:"period"`
	EmployeeID string       `json:"employee_id,omitempty"`
	ShiftCount int          `json:"shift_count"`
	TotalHours string       `json:"total_hours"`
	Breakdown  BreakdownDTO `json:"breakdown"`
	Shifts     []string     `json:"shift_ids"`
	Warnings   []string     `json:"warnings"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toGuideDTO(g payroll.PayGuide) GuideDTO {
	dto := GuideDTO{
		ID:            string(g.ID),
		Name:          g.Name,
		BaseRate:      g.BaseRate.String(),
		Timezone:      g.Timezone,
		EffectiveFrom: g.EffectiveFrom.Format(time.RFC3339),
		Penalties:     len(g.PenaltyTimeFrames),
		Overtime:      len(g.OvertimeTimeFrames),
		Holidays:      len(g.PublicHolidays),
	}
	if g.EffectiveTo != nil {
		to := g.EffectiveTo.Format(time.RFC3339Nano)
		dto.EffectiveTo = &to
	}
	return dto
}

func toShiftDTO(rec sqlite.ShiftRecord) ShiftDTO {
	breaks := make([]BreakDTO, len(rec.Shift.Breaks))
	for i, b := range rec.Shift.Breaks {
		breaks[i] = BreakDTO{Start: b.Start.UTC().Format(time.RFC3339), End: b.End.UTC().Format(time.RFC3339)}
	}
	return ShiftDTO{
		ID:          string(rec.Shift.ID),
		EmployeeID:  rec.EmployeeID,
		GuideID:     string(rec.GuideID),
		Start:       rec.Shift.Start.UTC().Format(time.RFC3339),
		End:         rec.Shift.End.UTC().Format(time.RFC3339),
		Breaks:      breaks,
		WorkedHours: payroll.Hours(rec.Shift.WorkedDuration()).String(),
	}
}

func toBreakdownDTO(b payroll.PayBreakdown) BreakdownDTO {
	return BreakdownDTO{
		BasePay:     b.BasePay.StringFixed(payroll.MoneyPlaces),
		OvertimePay: b.OvertimePay.StringFixed(payroll.MoneyPlaces),
		PenaltyPay:  b.PenaltyPay.StringFixed(payroll.MoneyPlaces),
		TotalPay:    b.TotalPay.StringFixed(payroll.MoneyPlaces),
	}
}

func toPayResultDTO(shiftID payroll.ShiftID, guideID payroll.GuideID, res payroll.PayCalculationResult) PayResultDTO {
	lines := make([]AppliedPenaltyDTO, len(res.AppliedPenalties))
	for i, ap := range res.AppliedPenalties {
		ids := make([]string, len(ap.RuleIDs))
		for j, id := range ap.RuleIDs {
			ids[j] = string(id)
		}
		lines[i] = AppliedPenaltyDTO{
			RuleIDs:    ids,
			Name:       ap.Name,
			Kind:       string(ap.Kind),
			Start:      ap.Start.UTC().Format(time.RFC3339),
			End:        ap.End.UTC().Format(time.RFC3339),
			Hours:      ap.Hours.String(),
			Multiplier: ap.Multiplier.String(),
			Pay:        ap.Pay.StringFixed(payroll.MoneyPlaces),
		}
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return PayResultDTO{
		ShiftID:          string(shiftID),
		GuideID:          string(guideID),
		TotalHours:       res.TotalHours.String(),
		Breakdown:        toBreakdownDTO(res.Breakdown),
		AppliedPenalties: lines,
		Warnings:         warnings,
	}
}

func toPeriodDTO(p payroll.PayPeriod, pt payroll.PeriodType, loc *time.Location) PeriodDTO {
	return PeriodDTO{
		Type:      string(pt),
		Timezone:  loc.String(),
		StartDate: p.Start.String(),
		EndDate:   p.End.String(),
		StartsAt:  p.Start.Midnight(loc).Format(time.RFC3339),
		EndsAt:    p.End.AddDays(1).Midnight(loc).Format(time.RFC3339),
	}
}

func toCalculationDTO(c sqlite.CalculationRecord) CalculationDTO {
	return CalculationDTO{
		ID:           c.ID,
		GuideID:      string(c.GuideID),
		GuideVersion: c.GuideVersion,
		TotalPay:     c.TotalPay.StringFixed(payroll.MoneyPlaces),
		CalculatedAt: c.CalculatedAt.UTC().Format(time.RFC3339),
	}
}

// toShift parses a shift request. Instants must be RFC 3339.
func (req ShiftRequest) toShift() (payroll.Shift, error) {
	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		return payroll.Shift{}, fmt.Errorf("invalid start: %w", err)
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		return payroll.Shift{}, fmt.Errorf("invalid end: %w", err)
	}
	shift := payroll.Shift{ID: payroll.ShiftID(req.ID), Start: start, End: end}
	for i, b := range req.Breaks {
		bs, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			return payroll.Shift{}, fmt.Errorf("invalid breaks[%d].start: %w", i, err)
		}
		be, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			return payroll.Shift{}, fmt.Errorf("invalid breaks[%d].end: %w", i, err)
		}
		shift.Breaks = append(shift.Breaks, payroll.BreakPeriod{Start: bs, End: be})
	}
	return shift, nil
}
