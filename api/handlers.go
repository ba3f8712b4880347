/*
handlers.go - HTTP API handlers for the pay calculation engine

PURPOSE:
  Exposes the pay engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the payroll package. The engine itself is
  pure; everything stateful (guides, shifts, stored results) lives in the
  SQLite store.

ENDPOINTS:
  Guides:
    GET    /api/guides                   List guides
    POST   /api/guides                   Create or replace a guide (JSON or YAML)
    GET    /api/guides/{id}              Full guide document
    DELETE /api/guides/{id}              Delete a guide
    GET    /api/guides/{id}/holidays     Stored holidays for a guide
    POST   /api/guides/{id}/holidays     Add a holiday to a guide

  Shifts:
    GET    /api/shifts                   List shifts (employee_id, from, to)
    POST   /api/shifts                   Record a shift
    GET    /api/shifts/{id}              Get a shift
    DELETE /api/shifts/{id}              Delete a shift
    GET    /api/shifts/{id}/pay          Price a stored shift (result is kept)
    GET    /api/shifts/{id}/calculations Stored results for a shift

  Calculation and periods:
    POST   /api/calculate                Price an ad-hoc shift
    GET    /api/periods/resolve          Pay period containing an instant
    GET    /api/periods/summary          Pay totals per period for stored shifts

GUIDE RESOLUTION:
  A shift pinned to a guide (guide_id) is priced under that guide. An
  unpinned shift is priced under the guide effective at its start.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input (payroll.IsClientError)
  - 404: Guide or shift not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - metrics.go: Prometheus collectors
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/payroll"
	"github.com/warp/pay-engine/store/sqlite"
	"gopkg.in/yaml.v3"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	GuideFactory *factory.GuideFactory
	Metrics      *Metrics
	Logger       *slog.Logger

	// Timezone and WeekStart are used by the period endpoints when the
	// request does not name them.
	Timezone  string
	WeekStart time.Weekday

	// BatchLimit caps concurrent calculations in period summaries.
	BatchLimit int

	// now is the clock for "at" defaults.
	now func() time.Time
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:        store,
		GuideFactory: factory.NewGuideFactory(),
		Metrics:      NewMetrics("payengine"),
		Logger:       logger,
		Timezone:     "UTC",
		WeekStart:    time.Monday,
		BatchLimit:   8,
		now:          time.Now,
	}
}

// =============================================================================
// GUIDE HANDLERS
// =============================================================================

// ListGuides returns a summary of every stored guide.
func (h *Handler) ListGuides(w http.ResponseWriter, r *http.Request) {
	guides, err := h.Store.ListGuides(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list guides", err)
		return
	}

	dtos := make([]GuideDTO, len(guides))
	for i, g := range guides {
		dtos[i] = toGuideDTO(g)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateGuide stores a guide document. The body is JSON unless the
// Content-Type names YAML.
func (h *Handler) CreateGuide(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var doc factory.GuideJSON
	if strings.Contains(r.Header.Get("Content-Type"), "yaml") {
		err = yaml.Unmarshal(body, &doc)
	} else {
		err = json.Unmarshal(body, &doc)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if errs := factory.ValidateStruct(doc); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	guide, err := h.GuideFactory.FromJSON(doc)
	if err != nil {
		writeError(w, statusFor(err), "Invalid pay guide", err)
		return
	}
	if err := h.Store.SaveGuide(r.Context(), *guide); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save guide", err)
		return
	}

	h.Logger.Info("guide saved", "guide_id", guide.ID, "effective_from", guide.EffectiveFrom)
	writeJSON(w, http.StatusCreated, h.GuideFactory.ToJSON(guide))
}

// GetGuide returns the full guide document, stored holidays included.
func (h *Handler) GetGuide(w http.ResponseWriter, r *http.Request) {
	guide, err := h.Store.GetGuide(r.Context(), payroll.GuideID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, statusFor(err), "Failed to get guide", err)
		return
	}
	writeJSON(w, http.StatusOK, h.GuideFactory.ToJSON(guide))
}

// DeleteGuide removes a guide.
func (h *Handler) DeleteGuide(w http.ResponseWriter, r *http.Request) {
	id := payroll.GuideID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetGuideRecord(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to get guide", err)
		return
	}
	if err := h.Store.DeleteGuide(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete guide", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListGuideHolidays returns holidays stored for a guide, global ones
// included. Holidays in the guide document itself are not listed.
func (h *Handler) ListGuideHolidays(w http.ResponseWriter, r *http.Request) {
	id := payroll.GuideID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetGuideRecord(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to get guide", err)
		return
	}

	holidays, err := h.Store.ListHolidays(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}
	dtos := make([]factory.HolidayJSON, len(holidays))
	for i, hol := range holidays {
		dtos[i] = factory.HolidayToJSON(hol)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateGuideHoliday adds a holiday to a guide.
func (h *Handler) CreateGuideHoliday(w http.ResponseWriter, r *http.Request) {
	id := payroll.GuideID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetGuideRecord(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to get guide", err)
		return
	}

	var req factory.HolidayJSON
	if !decodeBody(w, r, &req) {
		return
	}
	hol, err := factory.HolidayFromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid holiday", err)
		return
	}

	saved, err := h.Store.SaveHoliday(r.Context(), id, hol)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save holiday", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.HolidayToJSON(saved))
}

// DeleteHoliday removes a stored holiday by ID.
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// ListShifts returns stored shifts, filtered by employee_id and a start
// range (from inclusive, to exclusive, RFC 3339).
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := sqlite.ShiftFilter{EmployeeID: q.Get("employee_id")}

	var err error
	if filter.From, err = optionalInstant(q.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from", err)
		return
	}
	if filter.To, err = optionalInstant(q.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to", err)
		return
	}

	records, err := h.Store.ListShifts(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}
	dtos := make([]ShiftDTO, len(records))
	for i, rec := range records {
		dtos[i] = toShiftDTO(rec)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateShift validates and stores a shift.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if !decodeBody(w, r, &req) {
		return
	}

	shift, err := req.toShift()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}
	if err := shift.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}
	if req.GuideID != "" {
		if _, err := h.Store.GetGuideRecord(r.Context(), payroll.GuideID(req.GuideID)); err != nil {
			writeError(w, statusFor(err), "Failed to get guide", err)
			return
		}
	}

	rec, err := h.Store.SaveShift(r.Context(), sqlite.ShiftRecord{
		Shift:      shift,
		EmployeeID: req.EmployeeID,
		GuideID:    payroll.GuideID(req.GuideID),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(rec))
}

// GetShift returns a single shift.
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetShift(r.Context(), payroll.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, statusFor(err), "Failed to get shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(*rec))
}

// DeleteShift removes a shift and its stored results.
func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id := payroll.ShiftID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetShift(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to get shift", err)
		return
	}
	if err := h.Store.DeleteShift(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetShiftPay prices a stored shift and keeps the result. Query
// parameters: jurisdiction, period_type.
func (h *Handler) GetShiftPay(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rec, err := h.Store.GetShift(ctx, payroll.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, statusFor(err), "Failed to get shift", err)
		return
	}

	guide, err := h.guideFor(r, *rec)
	if err != nil {
		writeError(w, statusFor(err), "No pay guide for shift", err)
		return
	}
	opts, err := h.calcOptions(r.URL.Query().Get("jurisdiction"), r.URL.Query().Get("period_type"))
	if err != nil {
		writeError(w, statusFor(err), "Invalid query", err)
		return
	}

	res, err := h.calculate(rec.Shift, *guide, opts...)
	if err != nil {
		writeError(w, statusFor(err), "Calculation failed", err)
		return
	}
	dto := toPayResultDTO(rec.Shift.ID, guide.ID, res)

	version := 0
	if gr, err := h.Store.GetGuideRecord(ctx, guide.ID); err == nil {
		version = gr.Version
	}
	resultJSON, err := json.Marshal(dto)
	if err != nil {
		h.Logger.Error("failed to encode calculation", "shift_id", rec.Shift.ID, "error", err)
	} else if _, err := h.Store.SaveCalculation(ctx, sqlite.CalculationRecord{
		ShiftID:      rec.Shift.ID,
		GuideID:      guide.ID,
		GuideVersion: version,
		TotalPay:     res.Breakdown.TotalPay,
		ResultJSON:   string(resultJSON),
	}); err != nil {
		h.Logger.Error("failed to store calculation", "shift_id", rec.Shift.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, dto)
}

// ListShiftCalculations returns stored results for a shift, newest first.
func (h *Handler) ListShiftCalculations(w http.ResponseWriter, r *http.Request) {
	id := payroll.ShiftID(chi.URLParam(r, "id"))
	if _, err := h.Store.GetShift(r.Context(), id); err != nil {
		writeError(w, statusFor(err), "Failed to get shift", err)
		return
	}

	calcs, err := h.Store.ListCalculations(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calculations", err)
		return
	}
	dtos := make([]CalculationDTO, len(calcs))
	for i, c := range calcs {
		dtos[i] = toCalculationDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// CALCULATION HANDLERS
// =============================================================================

// Calculate prices an ad-hoc shift without storing anything.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req CalculateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	shift, err := req.Shift.toShift()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}

	var guide *payroll.PayGuide
	switch {
	case req.Guide != nil:
		guide, err = h.GuideFactory.FromJSON(*req.Guide)
	case req.GuideID != "":
		guide, err = h.Store.GetGuide(r.Context(), payroll.GuideID(req.GuideID))
	default:
		guide, err = h.Store.GuideAt(r.Context(), shift.Start)
	}
	if err != nil {
		writeError(w, statusFor(err), "No pay guide for shift", err)
		return
	}

	opts, err := h.calcOptions(req.Jurisdiction, req.PeriodType)
	if err != nil {
		writeError(w, statusFor(err), "Invalid request", err)
		return
	}
	res, err := h.calculate(shift, *guide, opts...)
	if err != nil {
		writeError(w, statusFor(err), "Calculation failed", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayResultDTO(shift.ID, guide.ID, res))
}

// =============================================================================
// PERIOD HANDLERS
// =============================================================================

// ResolvePeriod returns the pay period containing an instant.
// Query: at (RFC 3339, default now), type (default weekly), tz,
// week_start, anchor (YYYY-MM-DD).
func (h *Handler) ResolvePeriod(w http.ResponseWriter, r *http.Request) {
	pq, err := h.parsePeriodQuery(r)
	if err != nil {
		writeError(w, statusFor(err), "Invalid period query", err)
		return
	}

	p, err := payroll.ResolvePayPeriodRange(pq.at, pq.config.Type, pq.loc.String(), pq.options()...)
	if err != nil {
		writeError(w, statusFor(err), "Failed to resolve period", err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p, pq.config.Type, pq.loc))
}

// PeriodSummary prices stored shifts and totals them per pay period.
// The range is [from, to) when both are given, otherwise the single period
// containing at. Optional employee_id and jurisdiction narrow the result.
func (h *Handler) PeriodSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	pq, err := h.parsePeriodQuery(r)
	if err != nil {
		writeError(w, statusFor(err), "Invalid period query", err)
		return
	}

	from, err := optionalInstant(q.Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid from", err)
		return
	}
	to, err := optionalInstant(q.Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid to", err)
		return
	}
	if from.IsZero() || to.IsZero() {
		p := pq.config.PeriodFor(payroll.DateOf(pq.at.In(pq.loc)))
		from, to = p.Start.Midnight(pq.loc), p.End.AddDays(1).Midnight(pq.loc)
	}
	if !to.After(from) {
		writeError(w, http.StatusBadRequest, "Invalid range", fmt.Errorf("to must be after from"))
		return
	}

	records, err := h.Store.ListShifts(ctx, sqlite.ShiftFilter{
		EmployeeID: q.Get("employee_id"),
		From:       from,
		To:         to,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	byID := make(map[payroll.ShiftID]sqlite.ShiftRecord, len(records))
	shifts := make([]payroll.Shift, len(records))
	for i, rec := range records {
		byID[rec.Shift.ID] = rec
		shifts[i] = rec.Shift
	}
	groups := payroll.GroupByPeriod(shifts, pq.config, pq.loc)

	var items []payroll.BatchItem
	for _, g := range groups {
		for _, s := range g.Shifts {
			guide, err := h.guideFor(r, byID[s.ID])
			if err != nil {
				writeError(w, statusFor(err), fmt.Sprintf("No pay guide for shift %s", s.ID), err)
				return
			}
			items = append(items, payroll.BatchItem{Shift: s, Guide: *guide})
		}
	}

	opts := []payroll.CalcOption{payroll.WithPeriodCheck(pq.config)}
	if j := q.Get("jurisdiction"); j != "" {
		opts = append(opts, payroll.WithJurisdiction(j))
	}
	results, err := payroll.CalculateBatch(ctx, items, h.BatchLimit, opts...)
	if err != nil {
		h.Metrics.recordOutcome(payroll.PayCalculationResult{}, err)
		writeError(w, statusFor(err), "Calculation failed", err)
		return
	}

	summaries := make([]PeriodSummaryDTO, 0, len(groups))
	next := 0
	for _, g := range groups {
		var hours decimal.Decimal
		var total payroll.PayBreakdown
		ids := make([]string, 0, len(g.Shifts))
		warnings := []string{}
		for _, s := range g.Shifts {
			res := results[next]
			next++
			h.Metrics.recordOutcome(res, nil)

			hours = hours.Add(res.TotalHours)
			total.BasePay = total.BasePay.Add(res.Breakdown.BasePay)
			total.PenaltyPay = total.PenaltyPay.Add(res.Breakdown.PenaltyPay)
			total.OvertimePay = total.OvertimePay.Add(res.Breakdown.OvertimePay)
			total.TotalPay = total.TotalPay.Add(res.Breakdown.TotalPay)
			ids = append(ids, string(s.ID))
			for _, warn := range res.Warnings {
				warnings = append(warnings, fmt.Sprintf("shift %s: %s", s.ID, warn))
			}
		}
		summaries = append(summaries, PeriodSummaryDTO{
			Period:     toPeriodDTO(g.Period, pq.config.Type, pq.loc),
			EmployeeID: q.Get("employee_id"),
			ShiftCount: len(g.Shifts),
			TotalHours: hours.String(),
			Breakdown:  toBreakdownDTO(total),
			Shifts:     ids,
			Warnings:   warnings,
		})
	}
	writeJSON(w, http.StatusOK, summaries)
}

// periodQuery is the parsed form of the shared period query parameters.
type periodQuery struct {
	at     time.Time
	loc    *time.Location
	config payroll.PeriodConfig
}

func (pq periodQuery) options() []payroll.PeriodOption {
	opts := []payroll.PeriodOption{payroll.WithWeekStart(pq.config.WeekStart)}
	if pq.config.Anchor != nil {
		opts = append(opts, payroll.WithAnchor(*pq.config.Anchor))
	}
	return opts
}

func (h *Handler) parsePeriodQuery(r *http.Request) (periodQuery, error) {
	q := r.URL.Query()
	pq := periodQuery{at: h.now()}

	if s := q.Get("at"); s != "" {
		at, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return pq, &queryError{param: "at", err: err}
		}
		pq.at = at
	}

	tz := q.Get("tz")
	if tz == "" {
		tz = h.Timezone
	}
	loc, err := payroll.LoadZone(tz)
	if err != nil {
		return pq, err
	}
	pq.loc = loc

	pt := payroll.PeriodWeekly
	if s := q.Get("type"); s != "" {
		if pt, err = payroll.ParsePeriodType(s); err != nil {
			return pq, err
		}
	}
	pq.config = payroll.PeriodConfig{Type: pt, WeekStart: h.WeekStart}

	if s := q.Get("week_start"); s != "" {
		d, err := payroll.ParseWeekday(s)
		if err != nil {
			return pq, &queryError{param: "week_start", err: err}
		}
		pq.config.WeekStart = d
	}
	if s := q.Get("anchor"); s != "" {
		d, err := payroll.ParseLocalDate(s)
		if err != nil {
			return pq, &queryError{param: "anchor", err: err}
		}
		pq.config.Anchor = &d
	}
	return pq, nil
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResetDatabase clears all stored data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Logger.Warn("database reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

// guideFor resolves the guide a stored shift is priced under.
func (h *Handler) guideFor(r *http.Request, rec sqlite.ShiftRecord) (*payroll.PayGuide, error) {
	if rec.GuideID != "" {
		return h.Store.GetGuide(r.Context(), rec.GuideID)
	}
	return h.Store.GuideAt(r.Context(), rec.Shift.Start)
}

func (h *Handler) calcOptions(jurisdiction, periodType string) ([]payroll.CalcOption, error) {
	var opts []payroll.CalcOption
	if jurisdiction != "" {
		opts = append(opts, payroll.WithJurisdiction(jurisdiction))
	}
	if periodType != "" {
		pt, err := payroll.ParsePeriodType(periodType)
		if err != nil {
			return nil, err
		}
		opts = append(opts, payroll.WithPeriodCheck(payroll.PeriodConfig{Type: pt, WeekStart: h.WeekStart}))
	}
	return opts, nil
}

// calculate runs the engine and records metrics.
func (h *Handler) calculate(shift payroll.Shift, guide payroll.PayGuide, opts ...payroll.CalcOption) (payroll.PayCalculationResult, error) {
	start := time.Now()
	res, err := payroll.Calculate(shift, guide, opts...)
	h.Metrics.observeCalculation(time.Since(start), res, err)
	if err != nil {
		h.Logger.Debug("calculation rejected", "guide_id", guide.ID, "error", err)
	}
	return res, err
}

// queryError is a malformed query parameter.
type queryError struct {
	param string
	err   error
}

func (e *queryError) Error() string { return fmt.Sprintf("invalid %s: %v", e.param, e.err) }
func (e *queryError) Unwrap() error { return e.err }

// statusFor maps engine and store errors to HTTP status codes.
func statusFor(err error) int {
	var qe *queryError
	switch {
	case payroll.IsNotFound(err), errors.Is(err, sqlite.ErrShiftNotFound):
		return http.StatusNotFound
	case payroll.IsClientError(err), errors.As(err, &qe):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody decodes a JSON body and runs struct validation. On failure it
// writes the response and returns false.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if errs := factory.ValidateStruct(v); len(errs) > 0 {
		writeValidation(w, errs)
		return false
	}
	return true
}

func optionalInstant(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, s)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeValidation(w http.ResponseWriter, errs []factory.FieldError) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: errs})
}
