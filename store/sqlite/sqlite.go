/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists pay guides, shifts, public holidays and calculation results
  using SQLite. In production, the same patterns apply to PostgreSQL - only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  payroll.GuideLookup: Effective guide at an instant
  payroll.GuideStore:  Guide persistence

GUIDE STORAGE:
  Guides are stored as their JSON document (factory.GuideJSON) in
  config_json, with the columns needed for lookup (timezone, effective
  window) denormalised next to it. Each save of an existing ID bumps
  version. Holidays added later through SaveHoliday live in their own
  table and are merged into the guide on read.

KEY TABLES:
  pay_guides:       Guide documents (versioned)
  public_holidays:  Extra holidays, per guide or global (guide_id = '')
  shifts:           Worked shifts with their breaks
  pay_calculations: Stored calculation results for audit

TIMESTAMPS:
  Instants are stored as fixed-width UTC text so that string comparison in
  SQL orders them correctly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. In production with PostgreSQL,
  database-level concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/pay.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  guide, err := store.GuideAt(ctx, shift.Start)

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
  - factory/guide.go: Guide document format
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/payroll"
)

// ErrShiftNotFound is returned when a shift ID is unknown.
var ErrShiftNotFound = errors.New("shift not found")

// timeLayout is RFC 3339 with a fixed nine-digit fraction.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements payroll.GuideStore and shift persistence using SQLite.
type Store struct {
	db      *sql.DB
	mu      sync.RWMutex
	factory *factory.GuideFactory
}

var _ payroll.GuideStore = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db, factory: factory.NewGuideFactory()}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Pay guides (versioned documents)
	CREATE TABLE IF NOT EXISTS pay_guides (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to TEXT,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Effective guide lookup (hot path)
	CREATE INDEX IF NOT EXISTS idx_pay_guides_effective
		ON pay_guides(effective_from DESC, effective_to);

	-- Public holidays added after a guide was published
	CREATE TABLE IF NOT EXISTS public_holidays (
		id TEXT PRIMARY KEY,
		guide_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		state_territory TEXT NOT NULL DEFAULT '',
		multiplier TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_public_holidays_guide_date
		ON public_holidays(guide_id, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_public_holidays_unique
		ON public_holidays(guide_id, date, name, state_territory);

	-- Shifts
	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL DEFAULT '',
		guide_id TEXT NOT NULL DEFAULT '',
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		breaks_json TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_shifts_start
		ON shifts(start_at);
	CREATE INDEX IF NOT EXISTS idx_shifts_employee_start
		ON shifts(employee_id, start_at);

	-- Calculation results (audit trail)
	CREATE TABLE IF NOT EXISTS pay_calculations (
		id TEXT PRIMARY KEY,
		shift_id TEXT NOT NULL,
		guide_id TEXT NOT NULL,
		guide_version INTEGER NOT NULL DEFAULT 0,
		total_pay TEXT NOT NULL,
		result_json TEXT NOT NULL,
		calculated_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pay_calculations_shift
		ON pay_calculations(shift_id, calculated_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PAY GUIDES
// =============================================================================

// GuideRecord is the stored form of a guide.
type GuideRecord struct {
	ID         string
	Name       string
	Timezone   string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

const guideColumns = "id, name, timezone, config_json, version, created_at, updated_at"

// SaveGuide inserts a guide or replaces it, bumping its version.
func (s *Store) SaveGuide(ctx context.Context, g payroll.PayGuide) error {
	doc, err := s.factory.MarshalGuide(&g)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO pay_guides (id, name, timezone, effective_from, effective_to, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone,
			effective_from = excluded.effective_from,
			effective_to = excluded.effective_to,
			config_json = excluded.config_json,
			version = pay_guides.version + 1,
			updated_at = excluded.updated_at
	`

	var effectiveTo sql.NullString
	if g.EffectiveTo != nil {
		effectiveTo = sql.NullString{String: formatTime(*g.EffectiveTo), Valid: true}
	}

	now := formatTime(time.Now())
	_, err = s.db.ExecContext(ctx, query,
		string(g.ID), g.Name, g.Timezone, formatTime(g.EffectiveFrom), effectiveTo, doc, now, now,
	)
	return err
}

// GetGuide returns the guide with its stored holidays merged in.
func (s *Store) GetGuide(ctx context.Context, id payroll.GuideID) (*payroll.PayGuide, error) {
	rec, err := s.GetGuideRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, *rec)
}

// GetGuideRecord returns the raw stored guide.
func (s *Store) GetGuideRecord(ctx context.Context, id payroll.GuideID) (*GuideRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := scanGuide(s.db.QueryRowContext(ctx,
		"SELECT "+guideColumns+" FROM pay_guides WHERE id = ?", string(id)))
	if err == sql.ErrNoRows {
		return nil, payroll.ErrGuideNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ListGuides returns all guides ordered by effective_from, then ID.
func (s *Store) ListGuides(ctx context.Context) ([]payroll.PayGuide, error) {
	records, err := s.listGuideRecords(ctx)
	if err != nil {
		return nil, err
	}

	guides := make([]payroll.PayGuide, 0, len(records))
	for _, rec := range records {
		g, err := s.hydrate(ctx, rec)
		if err != nil {
			return nil, err
		}
		guides = append(guides, *g)
	}
	return guides, nil
}

func (s *Store) listGuideRecords(ctx context.Context) ([]GuideRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+guideColumns+" FROM pay_guides ORDER BY effective_from ASC, id ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []GuideRecord
	for rows.Next() {
		rec, err := scanGuide(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// GuideAt returns the guide effective at `at` with the latest
// effective_from. Ties go to the lowest ID.
func (s *Store) GuideAt(ctx context.Context, at time.Time) (*payroll.PayGuide, error) {
	s.mu.RLock()
	ts := formatTime(at)
	rec, err := scanGuide(s.db.QueryRowContext(ctx, `
		SELECT `+guideColumns+`
		FROM pay_guides
		WHERE effective_from <= ? AND (effective_to IS NULL OR effective_to >= ?)
		ORDER BY effective_from DESC, id ASC
		LIMIT 1
	`, ts, ts))
	s.mu.RUnlock()

	if err == sql.ErrNoRows {
		return nil, payroll.ErrGuideNotFound
	}
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, *rec)
}

// DeleteGuide removes a guide and its guide-scoped holidays.
func (s *Store) DeleteGuide(ctx context.Context, id payroll.GuideID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM public_holidays WHERE guide_id = ?", string(id)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM pay_guides WHERE id = ?", string(id))
	return err
}

// hydrate parses a stored document and appends stored holidays after the
// guide's own, so a holiday in the document wins a same-date clash.
func (s *Store) hydrate(ctx context.Context, rec GuideRecord) (*payroll.PayGuide, error) {
	g, err := s.factory.ParseGuide(rec.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("stored guide %s: %w", rec.ID, err)
	}
	extra, err := s.ListHolidays(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	g.PublicHolidays = append(g.PublicHolidays, extra...)
	return g, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGuide(row rowScanner) (*GuideRecord, error) {
	var rec GuideRecord
	var createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Timezone, &rec.ConfigJSON, &rec.Version, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	var err error
	if rec.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return nil, fmt.Errorf("guide %s: %w", rec.ID, err)
	}
	if rec.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return nil, fmt.Errorf("guide %s: %w", rec.ID, err)
	}
	return &rec, nil
}

// =============================================================================
// PUBLIC HOLIDAYS
// =============================================================================

// SaveHoliday stores a holiday for one guide, or for every guide when
// guideID is empty. A holiday with no ID is given one. Saving the same
// date, name and state twice updates the multiplier.
func (s *Store) SaveHoliday(ctx context.Context, guideID payroll.GuideID, h payroll.PublicHoliday) (payroll.PublicHoliday, error) {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	mult := ""
	if !h.Multiplier.IsZero() {
		mult = h.Multiplier.String()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO public_holidays (id, guide_id, date, name, state_territory, multiplier, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guide_id, date, name, state_territory) DO UPDATE SET
			multiplier = excluded.multiplier
	`
	_, err := s.db.ExecContext(ctx, query,
		h.ID, string(guideID), h.Date.String(), h.Name, h.StateTerritory, mult, formatTime(time.Now()),
	)
	if err != nil {
		return payroll.PublicHoliday{}, err
	}
	return h, nil
}

// ListHolidays returns the holidays stored for a guide plus the global
// ones, ordered by date.
func (s *Store) ListHolidays(ctx context.Context, guideID payroll.GuideID) ([]payroll.PublicHoliday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, name, state_territory, multiplier
		FROM public_holidays
		WHERE guide_id = ? OR guide_id = ''
		ORDER BY date ASC, guide_id DESC, name ASC
	`, string(guideID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holidays []payroll.PublicHoliday
	for rows.Next() {
		var h payroll.PublicHoliday
		var date, mult string
		if err := rows.Scan(&h.ID, &date, &h.Name, &h.StateTerritory, &mult); err != nil {
			return nil, err
		}
		if h.Date, err = payroll.ParseLocalDate(date); err != nil {
			return nil, err
		}
		if mult != "" {
			if h.Multiplier, err = decimal.NewFromString(mult); err != nil {
				return nil, fmt.Errorf("holiday %s: bad multiplier %q: %w", h.ID, mult, err)
			}
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// DeleteHoliday removes a stored holiday by ID.
func (s *Store) DeleteHoliday(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM public_holidays WHERE id = ?", id)
	return err
}

// =============================================================================
// SHIFTS
// =============================================================================

// ShiftRecord is a stored shift. GuideID optionally pins the shift to a
// guide; when empty the guide effective at the shift start is used.
type ShiftRecord struct {
	Shift      payroll.Shift
	EmployeeID string
	GuideID    payroll.GuideID
	CreatedAt  time.Time
}

type breakRow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SaveShift inserts or replaces a shift. A shift with no ID is given one.
func (s *Store) SaveShift(ctx context.Context, rec ShiftRecord) (ShiftRecord, error) {
	if rec.Shift.ID == "" {
		rec.Shift.ID = payroll.ShiftID(uuid.New().String())
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	breaks := make([]breakRow, len(rec.Shift.Breaks))
	for i, b := range rec.Shift.Breaks {
		breaks[i] = breakRow{Start: formatTime(b.Start), End: formatTime(b.End)}
	}
	breaksJSON, err := json.Marshal(breaks)
	if err != nil {
		return ShiftRecord{}, fmt.Errorf("failed to encode breaks: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO shifts (id, employee_id, guide_id, start_at, end_at, breaks_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			employee_id = excluded.employee_id,
			guide_id = excluded.guide_id,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			breaks_json = excluded.breaks_json
	`
	_, err = s.db.ExecContext(ctx, query,
		string(rec.Shift.ID), rec.EmployeeID, string(rec.GuideID),
		formatTime(rec.Shift.Start), formatTime(rec.Shift.End), string(breaksJSON), formatTime(rec.CreatedAt),
	)
	if err != nil {
		return ShiftRecord{}, err
	}
	return rec, nil
}

const shiftColumns = "id, employee_id, guide_id, start_at, end_at, breaks_json, created_at"

// GetShift retrieves a shift by ID.
func (s *Store) GetShift(ctx context.Context, id payroll.ShiftID) (*ShiftRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, err := scanShift(s.db.QueryRowContext(ctx,
		"SELECT "+shiftColumns+" FROM shifts WHERE id = ?", string(id)))
	if err == sql.ErrNoRows {
		return nil, ErrShiftNotFound
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ShiftFilter narrows ListShifts. Zero fields do not filter.
type ShiftFilter struct {
	EmployeeID string
	From       time.Time // shifts starting at or after
	To         time.Time // shifts starting before
}

// ListShifts returns shifts ordered by start.
func (s *Store) ListShifts(ctx context.Context, f ShiftFilter) ([]ShiftRecord, error) {
	var where []string
	var args []any
	if f.EmployeeID != "" {
		where = append(where, "employee_id = ?")
		args = append(args, f.EmployeeID)
	}
	if !f.From.IsZero() {
		where = append(where, "start_at >= ?")
		args = append(args, formatTime(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "start_at < ?")
		args = append(args, formatTime(f.To))
	}

	query := "SELECT " + shiftColumns + " FROM shifts"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_at ASC, id ASC"

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var shifts []ShiftRecord
	for rows.Next() {
		rec, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		shifts = append(shifts, *rec)
	}
	return shifts, rows.Err()
}

// DeleteShift removes a shift and its stored calculations.
func (s *Store) DeleteShift(ctx context.Context, id payroll.ShiftID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM pay_calculations WHERE shift_id = ?", string(id)); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM shifts WHERE id = ?", string(id))
	return err
}

func scanShift(row rowScanner) (*ShiftRecord, error) {
	var rec ShiftRecord
	var id, guideID, start, end, breaksJSON, createdAt string
	if err := row.Scan(&id, &rec.EmployeeID, &guideID, &start, &end, &breaksJSON, &createdAt); err != nil {
		return nil, err
	}

	var breaks []breakRow
	if err := json.Unmarshal([]byte(breaksJSON), &breaks); err != nil {
		return nil, fmt.Errorf("shift %s: bad breaks: %w", id, err)
	}

	p := timeParser{}
	rec.Shift = payroll.Shift{ID: payroll.ShiftID(id), Start: p.parse("start_time", start), End: p.parse("end_time", end)}
	for _, b := range breaks {
		rec.Shift.Breaks = append(rec.Shift.Breaks, payroll.BreakPeriod{Start: p.parse("break start", b.Start), End: p.parse("break end", b.End)})
	}
	rec.GuideID = payroll.GuideID(guideID)
	rec.CreatedAt = p.parse("created_at", createdAt)
	if p.err != nil {
		return nil, fmt.Errorf("shift %s: %w", id, p.err)
	}
	return &rec, nil
}

// =============================================================================
// CALCULATIONS
// =============================================================================

// CalculationRecord is a stored calculation result. ResultJSON is opaque to
// the store.
type CalculationRecord struct {
	ID           string
	ShiftID      payroll.ShiftID
	GuideID      payroll.GuideID
	GuideVersion int
	TotalPay     decimal.Decimal
	ResultJSON   string
	CalculatedAt time.Time
}

// SaveCalculation appends a calculation result.
func (s *Store) SaveCalculation(ctx context.Context, c CalculationRecord) (CalculationRecord, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CalculatedAt.IsZero() {
		c.CalculatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pay_calculations (id, shift_id, guide_id, guide_version, total_pay, result_json, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, c.ID, string(c.ShiftID), string(c.GuideID), c.GuideVersion, c.TotalPay.StringFixed(payroll.MoneyPlaces),
		c.ResultJSON, formatTime(c.CalculatedAt))
	if err != nil {
		return CalculationRecord{}, err
	}
	return c, nil
}

// ListCalculations returns the stored results for a shift, newest first.
func (s *Store) ListCalculations(ctx context.Context, shiftID payroll.ShiftID) ([]CalculationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, shift_id, guide_id, guide_version, total_pay, result_json, calculated_at
		FROM pay_calculations
		WHERE shift_id = ?
		ORDER BY calculated_at DESC, id ASC
	`, string(shiftID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalculationRecord
	for rows.Next() {
		var c CalculationRecord
		var shift, guide, total, at string
		if err := rows.Scan(&c.ID, &shift, &guide, &c.GuideVersion, &total, &c.ResultJSON, &at); err != nil {
			return nil, err
		}
		c.ShiftID = payroll.ShiftID(shift)
		c.GuideID = payroll.GuideID(guide)
		if c.TotalPay, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("calculation %s: bad total_pay %q: %w", c.ID, total, err)
		}
		if c.CalculatedAt, err = parseTime("calculated_at", at); err != nil {
			return nil, fmt.Errorf("calculation %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset clears all data (for demo/testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"pay_calculations", "shifts", "public_holidays", "pay_guides"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(column, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad %s %q: %w", column, s, err)
	}
	return t, nil
}

// timeParser keeps the first parse error across several columns.
type timeParser struct {
	err error
}

func (p *timeParser) parse(column, s string) time.Time {
	if p.err != nil {
		return time.Time{}
	}
	t, err := parseTime(column, s)
	p.err = err
	return t
}
