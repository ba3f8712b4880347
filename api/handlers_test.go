/*
handlers_test.go - Tests for API handlers

Tests for:
- Ad-hoc calculation with inline, stored and date-resolved guides
- Error status mapping (400 / 404)
- Guide creation from YAML, shift recording and stored results
- Pay period resolution and per-period summaries
- Holiday sync scheduler
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/pay-engine/awards"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/store/sqlite"
	"gopkg.in/yaml.v3"
)

type testServer struct {
	t       *testing.T
	store   *sqlite.Store
	handler *Handler
	router  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := NewHandler(store, nil)
	h.Timezone = awards.Timezone
	return &testServer{t: t, store: store, handler: h, router: NewRouter(h)}
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(ts.t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func retailDoc(t *testing.T, id, rate string, fy int) factory.GuideJSON {
	t.Helper()
	var gj factory.GuideJSON
	require.NoError(t, json.Unmarshal([]byte(awards.RetailAwardJSON(id, rate, fy)), &gj))
	return gj
}

func (ts *testServer) saveRetail(id, rate string, fy int) {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/guides", retailDoc(ts.t, id, rate, fy))
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
}

// =============================================================================
// CALCULATE
// =============================================================================

func TestCalculate_InlineGuide(t *testing.T) {
	// GIVEN: A retail guide sent inline
	// WHEN: Pricing Saturday 09:00-13:00 in Sydney
	// THEN: Four hours at 1.25 are penalty pay
	ts := newTestServer(t)
	gj := retailDoc(t, "retail-fy2025", "25.00", 2024)

	rec := ts.do(http.MethodPost, "/api/calculate", CalculateRequest{
		Shift: ShiftRequest{Start: "2024-07-06T09:00:00+10:00", End: "2024-07-06T13:00:00+10:00"},
		Guide: &gj,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decode[PayResultDTO](t, rec)
	assert.Equal(t, "retail-fy2025", res.GuideID)
	assert.Equal(t, "4", res.TotalHours)
	assert.Equal(t, "0.00", res.Breakdown.BasePay)
	assert.Equal(t, "125.00", res.Breakdown.PenaltyPay)
	assert.Equal(t, "125.00", res.Breakdown.TotalPay)
	require.Len(t, res.AppliedPenalties, 1)
	assert.Equal(t, "Saturday", res.AppliedPenalties[0].Name)
	assert.Equal(t, "1.25", res.AppliedPenalties[0].Multiplier)
	assert.Empty(t, res.Warnings)
}

func TestCalculate_StoredGuides(t *testing.T) {
	// GIVEN: Two financial-year guides in the store
	// WHEN: Pricing a shift without naming a guide, then naming one
	// THEN: The guide in force at the shift start is used unless one is named
	ts := newTestServer(t)
	ts.saveRetail("retail-fy2024", "20.00", 2023)
	ts.saveRetail("retail-fy2025", "25.00", 2024)

	shift := ShiftRequest{Start: "2024-07-08T16:00:00+10:00", End: "2024-07-08T20:00:00+10:00"}

	rec := ts.do(http.MethodPost, "/api/calculate", CalculateRequest{Shift: shift})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[PayResultDTO](t, rec)
	assert.Equal(t, "retail-fy2025", res.GuideID)
	assert.Equal(t, "50.00", res.Breakdown.BasePay)
	assert.Equal(t, "62.50", res.Breakdown.PenaltyPay)
	assert.Equal(t, "112.50", res.Breakdown.TotalPay)

	rec = ts.do(http.MethodPost, "/api/calculate", CalculateRequest{Shift: shift, GuideID: "retail-fy2024"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res = decode[PayResultDTO](t, rec)
	assert.Equal(t, "retail-fy2024", res.GuideID)
	assert.Equal(t, "90.00", res.Breakdown.TotalPay)
}

func TestCalculate_PeriodCheckWarning(t *testing.T) {
	// GIVEN: A guide starting Saturday 1 July 2023
	// WHEN: Pricing a shift that day with a weekly period check
	// THEN: The week began before the guide and a warning is returned
	ts := newTestServer(t)
	ts.saveRetail("retail-fy2024", "20.00", 2023)

	rec := ts.do(http.MethodPost, "/api/calculate", CalculateRequest{
		Shift:      ShiftRequest{Start: "2023-07-01T09:00:00+10:00", End: "2023-07-01T13:00:00+10:00"},
		GuideID:    "retail-fy2024",
		PeriodType: "weekly",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[PayResultDTO](t, rec)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "2023-06-26")
}

func TestCalculate_Errors(t *testing.T) {
	ts := newTestServer(t)
	ts.saveRetail("retail-fy2025", "25.00", 2024)
	gj := retailDoc(t, "inline", "25.00", 2024)

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{
			name:   "malformed body",
			body:   `{"shift": `,
			status: http.StatusBadRequest,
		},
		{
			name:   "missing shift bounds",
			body:   CalculateRequest{},
			status: http.StatusBadRequest,
		},
		{
			name: "end before start",
			body: CalculateRequest{Shift: ShiftRequest{
				Start: "2024-07-08T16:00:00+10:00", End: "2024-07-08T15:00:00+10:00",
			}},
			status: http.StatusBadRequest,
		},
		{
			name: "break outside shift",
			body: CalculateRequest{Shift: ShiftRequest{
				Start:  "2024-07-08T09:00:00+10:00",
				End:    "2024-07-08T17:00:00+10:00",
				Breaks: []BreakDTO{{Start: "2024-07-08T18:00:00+10:00", End: "2024-07-08T18:30:00+10:00"}},
			}},
			status: http.StatusBadRequest,
		},
		{
			name: "guide and guide_id together",
			body: CalculateRequest{
				Shift:   ShiftRequest{Start: "2024-07-08T09:00:00+10:00", End: "2024-07-08T17:00:00+10:00"},
				GuideID: "retail-fy2025",
				Guide:   &gj,
			},
			status: http.StatusBadRequest,
		},
		{
			name: "unknown period type",
			body: CalculateRequest{
				Shift:      ShiftRequest{Start: "2024-07-08T09:00:00+10:00", End: "2024-07-08T17:00:00+10:00"},
				PeriodType: "quarterly",
			},
			status: http.StatusBadRequest,
		},
		{
			name: "unknown guide",
			body: CalculateRequest{
				Shift:   ShiftRequest{Start: "2024-07-08T09:00:00+10:00", End: "2024-07-08T17:00:00+10:00"},
				GuideID: "nope",
			},
			status: http.StatusNotFound,
		},
		{
			name: "no guide in force",
			body: CalculateRequest{
				Shift: ShiftRequest{Start: "2030-07-08T09:00:00+10:00", End: "2030-07-08T17:00:00+10:00"},
			},
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodPost, "/api/calculate", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			resp := decode[ErrorResponse](t, rec)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestCalculate_ValidationFieldsUseJSONNames(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/calculate", CalculateRequest{Shift: ShiftRequest{Start: "2024-07-08T09:00:00Z"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	resp := decode[ErrorResponse](t, rec)
	require.Len(t, resp.Fields, 1)
	assert.Equal(t, "CalculateRequest.shift.end", resp.Fields[0].Field)
	assert.Equal(t, "required", resp.Fields[0].Tag)
}

// =============================================================================
// GUIDES
// =============================================================================

func TestGuides_CreateFromYAML(t *testing.T) {
	// GIVEN: A guide document posted as YAML
	// WHEN: Listing and fetching it
	// THEN: It is stored and served back as JSON
	ts := newTestServer(t)

	doc, err := yaml.Marshal(retailDoc(t, "retail-yaml", "25.00", 2024))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/guides", bytes.NewReader(doc))
	req.Header.Set("Content-Type", "application/yaml")
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodGet, "/api/guides", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]GuideDTO](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "retail-yaml", list[0].ID)
	assert.Equal(t, "25", list[0].BaseRate)
	assert.NotNil(t, list[0].EffectiveTo)

	rec = ts.do(http.MethodGet, "/api/guides/retail-yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[factory.GuideJSON](t, rec)
	assert.Equal(t, "NSW", got.StateTerritory)
	assert.NotEmpty(t, got.Penalties)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/guides/missing", nil).Code)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/guides/retail-yaml", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/api/guides/retail-yaml", nil).Code)
}

func TestGuides_RejectInvalid(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/guides", factory.GuideJSON{ID: "g", Timezone: "UTC", EffectiveFrom: "2024-01-01"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	require.NotEmpty(t, resp.Fields)
	assert.Equal(t, "GuideJSON.base_rate", resp.Fields[0].Field)

	rec = ts.do(http.MethodPost, "/api/guides", factory.GuideJSON{ID: "g", BaseRate: "25", Timezone: "Mars/Olympus", EffectiveFrom: "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGuides_Holidays(t *testing.T) {
	// GIVEN: A stored retail guide
	// WHEN: Adding a holiday through the API
	// THEN: A shift on that day is paid at the public holiday rate
	ts := newTestServer(t)
	ts.saveRetail("retail-fy2025", "25.00", 2024)

	rec := ts.do(http.MethodPost, "/api/guides/retail-fy2025/holidays", factory.HolidayJSON{Date: "2024-08-07", Name: "Bank Holiday"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saved := decode[factory.HolidayJSON](t, rec)
	assert.NotEmpty(t, saved.ID)

	rec = ts.do(http.MethodGet, "/api/guides/retail-fy2025/holidays", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]factory.HolidayJSON](t, rec), 1)

	rec = ts.do(http.MethodPost, "/api/calculate", CalculateRequest{
		Shift: ShiftRequest{Start: "2024-08-07T09:00:00+10:00", End: "2024-08-07T13:00:00+10:00"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "225.00", decode[PayResultDTO](t, rec).Breakdown.PenaltyPay)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/holidays/"+saved.ID, nil).Code)

	rec = ts.do(http.MethodPost, "/api/guides/retail-fy2025/holidays", factory.HolidayJSON{Date: "2024-02-30", Name: "Nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/guides/missing/holidays", factory.HolidayJSON{Date: "2024-08-07", Name: "Bank Holiday"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// =============================================================================
// SHIFTS
// =============================================================================

func TestShifts_RecordAndPay(t *testing.T) {
	// GIVEN: A stored guide and a recorded shift with a break
	// WHEN: Pricing the shift twice
	// THEN: Each result is kept against the shift
	ts := newTestServer(t)
	ts.saveRetail("retail-fy2025", "25.00", 2024)

	rec := ts.do(http.MethodPost, "/api/shifts", ShiftRequest{
		EmployeeID: "emp-1",
		Start:      "2024-07-09T09:00:00+10:00",
		End:        "2024-07-09T17:30:00+10:00",
		Breaks:     []BreakDTO{{Start: "2024-07-09T12:00:00+10:00", End: "2024-07-09T12:30:00+10:00"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	shift := decode[ShiftDTO](t, rec)
	require.NotEmpty(t, shift.ID)
	assert.Equal(t, "8", shift.WorkedHours)
	assert.Equal(t, "2024-07-08T23:00:00Z", shift.Start)

	rec = ts.do(http.MethodGet, "/api/shifts/"+shift.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[ShiftDTO](t, rec).Breaks, 1)

	for i := 0; i < 2; i++ {
		rec = ts.do(http.MethodGet, "/api/shifts/"+shift.ID+"/pay", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		res := decode[PayResultDTO](t, rec)
		assert.Equal(t, shift.ID, res.ShiftID)
		assert.Equal(t, "200.00", res.Breakdown.TotalPay)
	}

	rec = ts.do(http.MethodGet, "/api/shifts/"+shift.ID+"/calculations", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	calcs := decode[[]CalculationDTO](t, rec)
	require.Len(t, calcs, 2)
	assert.Equal(t, "retail-fy2025", calcs[0].GuideID)
	assert.Equal(t, 1, calcs[0].GuideVersion)
	assert.Equal(t, "200.00", calcs[0].TotalPay)

	rec = ts.do(http.MethodGet, "/api/shifts?employee_id=emp-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ShiftDTO](t, rec), 1)

	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/shifts/"+shift.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/shifts/"+shift.ID+"/pay", nil).Code)
}

func TestShifts_Rejects(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/shifts", ShiftRequest{Start: "yesterday", End: "2024-07-09T17:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodPost, "/api/shifts", ShiftRequest{Start: "2024-07-09T09:00:00Z", End: "2024-07-10T17:00:00Z"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "longer than 24 hours")

	rec = ts.do(http.MethodPost, "/api/shifts", ShiftRequest{GuideID: "missing", Start: "2024-07-09T09:00:00Z", End: "2024-07-09T17:00:00Z"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodGet, "/api/shifts?from=last-week", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// PERIODS
// =============================================================================

func TestPeriods_Resolve(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		query      url.Values
		status     int
		start, end string
	}{
		{
			name:   "sunday evening utc is monday in sydney",
			query:  url.Values{"at": {"2024-06-16T15:00:00Z"}, "type": {"weekly"}, "tz": {"Australia/Sydney"}},
			status: http.StatusOK,
			start:  "2024-06-17", end: "2024-06-23",
		},
		{
			name:   "default timezone and type",
			query:  url.Values{"at": {"2024-06-16T15:00:00Z"}},
			status: http.StatusOK,
			start:  "2024-06-17", end: "2024-06-23",
		},
		{
			name:   "sunday week start",
			query:  url.Values{"at": {"2024-06-12T00:00:00Z"}, "tz": {"UTC"}, "week_start": {"sunday"}},
			status: http.StatusOK,
			start:  "2024-06-09", end: "2024-06-15",
		},
		{
			name:   "monthly",
			query:  url.Values{"at": {"2024-02-10T00:00:00Z"}, "type": {"monthly"}, "tz": {"UTC"}},
			status: http.StatusOK,
			start:  "2024-02-01", end: "2024-02-29",
		},
		{
			name:   "anchored fortnight",
			query:  url.Values{"at": {"2024-06-12T00:00:00Z"}, "type": {"fortnightly"}, "tz": {"UTC"}, "anchor": {"2024-06-10"}},
			status: http.StatusOK,
			start:  "2024-06-10", end: "2024-06-23",
		},
		{
			name:   "bad type",
			query:  url.Values{"type": {"quarterly"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad timezone",
			query:  url.Values{"tz": {"Mars/Olympus"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad instant",
			query:  url.Values{"at": {"tomorrow"}},
			status: http.StatusBadRequest,
		},
		{
			name:   "bad week start",
			query:  url.Values{"week_start": {"someday"}},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(http.MethodGet, "/api/periods/resolve?"+tt.query.Encode(), nil)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				return
			}
			p := decode[PeriodDTO](t, rec)
			assert.Equal(t, tt.start, p.StartDate)
			assert.Equal(t, tt.end, p.EndDate)
		})
	}
}

func TestPeriods_SummaryAcrossGuideChange(t *testing.T) {
	// GIVEN: The guide-change scenario (rate rise on 1 July)
	// WHEN: Summarising two weeks either side of 1 July
	// THEN: Each week is priced under its own guide
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "guide-change"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	q := url.Values{
		"from": {"2024-06-24T00:00:00+10:00"},
		"to":   {"2024-07-08T00:00:00+10:00"},
		"type": {"weekly"},
		"tz":   {"Australia/Sydney"},
	}
	rec = ts.do(http.MethodGet, "/api/periods/summary?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summaries := decode[[]PeriodSummaryDTO](t, rec)
	require.Len(t, summaries, 2)

	assert.Equal(t, "2024-06-24", summaries[0].Period.StartDate)
	assert.Equal(t, 2, summaries[0].ShiftCount)
	assert.Equal(t, "15", summaries[0].TotalHours)
	assert.Equal(t, "384.76", summaries[0].Breakdown.TotalPay)

	assert.Equal(t, "2024-07-01", summaries[1].Period.StartDate)
	assert.Equal(t, 2, summaries[1].ShiftCount)
	assert.Equal(t, "398.26", summaries[1].Breakdown.TotalPay)
	assert.Empty(t, summaries[1].Warnings)
}

func TestPeriods_SummaryDefaultsToPeriodContainingAt(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "retail-christmas"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	q := url.Values{"at": {"2024-12-25T00:00:00Z"}, "employee_id": {ScenarioEmployee}}
	rec = ts.do(http.MethodGet, "/api/periods/summary?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	summaries := decode[[]PeriodSummaryDTO](t, rec)
	require.Len(t, summaries, 1)
	s := summaries[0]
	assert.Equal(t, "2024-12-23", s.Period.StartDate)
	assert.Equal(t, "2024-12-29", s.Period.EndDate)
	assert.Equal(t, 5, s.ShiftCount)
	assert.Equal(t, ScenarioEmployee, s.EmployeeID)
	assert.NotEqual(t, "0.00", s.Breakdown.PenaltyPay)
}

func TestScenarios(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]ScenarioDTO](t, rec), len(scenarios))

	for _, s := range scenarios {
		rec = ts.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: s.ID})
		assert.Equal(t, http.StatusOK, rec.Code, s.ID)
	}

	rec = ts.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = ts.do(http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// OPERATIONS
// =============================================================================

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)
	ts.saveRetail("retail-fy2025", "25.00", 2024)

	assert.Equal(t, http.StatusOK, ts.do(http.MethodGet, "/healthz", nil).Code)

	rec := ts.do(http.MethodPost, "/api/calculate", CalculateRequest{
		Shift: ShiftRequest{Start: "2024-07-08T09:00:00+10:00", End: "2024-07-08T13:00:00+10:00"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `payengine_calculations_total{outcome="ok"} 1`)
	assert.Contains(t, body, `payengine_http_requests_total{method="POST",route="/api/calculate",status="200"} 1`)
}

func TestHolidayScheduler_SyncOnce(t *testing.T) {
	// GIVEN: A Sydney guide with no holidays of its own
	// WHEN: Syncing twice
	// THEN: The year's holidays are stored once and priced
	ts := newTestServer(t)
	ctx := context.Background()

	gj := retailDoc(t, "bare", "25.00", 2024)
	gj.PublicHolidays = nil
	rec := ts.do(http.MethodPost, "/api/guides", gj)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	utc := retailDoc(t, "utc", "25.00", 2024)
	utc.Timezone = "UTC"
	utc.PublicHolidays = nil
	rec = ts.do(http.MethodPost, "/api/guides", utc)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	hs := NewHolidayScheduler(ts.store, nil)
	added, err := hs.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Greater(t, added, 0)

	added, err = hs.SyncOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, added)

	utcGuide, err := ts.store.GetGuide(ctx, "utc")
	require.NoError(t, err)
	assert.Empty(t, utcGuide.PublicHolidays)

	rec = ts.do(http.MethodPost, "/api/calculate", CalculateRequest{
		Shift:   ShiftRequest{Start: "2024-12-25T09:00:00+11:00", End: "2024-12-25T13:00:00+11:00"},
		GuideID: "bare",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "225.00", decode[PayResultDTO](t, rec).Breakdown.PenaltyPay)
}

func TestHolidayScheduler_SyncOnce_GuideWithoutState(t *testing.T) {
	// GIVEN: A Sydney guide with no state and a Tuesday evening penalty
	// WHEN: Syncing holidays
	// THEN: Only national holidays are stored, so Melbourne Cup day is an
	//       ordinary Tuesday
	ts := newTestServer(t)
	ctx := context.Background()

	gj := factory.GuideJSON{
		ID:            "sydney-nostate",
		Name:          "No state",
		BaseRate:      "25.00",
		Timezone:      "Australia/Sydney",
		EffectiveFrom: "2024-07-01",
		Penalties: []factory.PenaltyJSON{{
			Name:       "Tuesday evening",
			WindowJSON: factory.WindowJSON{DayOfWeek: "tuesday", Start: "18:00", End: "22:00"},
			Multiplier: "1.5",
		}},
	}
	rec := ts.do(http.MethodPost, "/api/guides", gj)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	added, err := NewHolidayScheduler(ts.store, nil).SyncOnce(ctx)
	require.NoError(t, err)
	assert.Greater(t, added, 0)

	stored, err := ts.store.ListHolidays(ctx, "sydney-nostate")
	require.NoError(t, err)
	for _, h := range stored {
		assert.Empty(t, h.StateTerritory, h.Name)
	}

	rec = ts.do(http.MethodPost, "/api/calculate", CalculateRequest{
		Shift:   ShiftRequest{Start: "2024-11-05T18:00:00+11:00", End: "2024-11-05T20:00:00+11:00"},
		GuideID: "sydney-nostate",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[PayResultDTO](t, rec)
	assert.Equal(t, "75.00", res.Breakdown.PenaltyPay)
	assert.Equal(t, "0.00", res.Breakdown.BasePay)
}

func TestHolidayScheduler_StartStop(t *testing.T) {
	ts := newTestServer(t)
	hs := NewHolidayScheduler(ts.store, nil)
	hs.CheckInterval = time.Hour

	hs.Start()
	hs.Start()
	hs.Stop()
	hs.Stop()

	hs.Enabled = false
	hs.Start()
	hs.Stop()
}
