package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow []string

func (r fakeRow) Scan(dest ...any) error {
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r[i]
		case *int:
			*p = 1
		}
	}
	return nil
}

func TestScanShift_CorruptTimestamp(t *testing.T) {
	// GIVEN: A shift row whose start_time is not a timestamp
	row := fakeRow{"s-1", "emp-1", "retail", "yesterday", "2024-07-01T17:00:00Z", "[]", "2024-07-01T00:00:00Z"}

	// WHEN: Scanning it
	_, err := scanShift(row)

	// THEN: The error names the shift and the column
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s-1")
	assert.Contains(t, err.Error(), "start_time")
}

func TestScanShift_CorruptBreak(t *testing.T) {
	row := fakeRow{"s-2", "emp-1", "retail", "2024-07-01T09:00:00Z", "2024-07-01T17:00:00Z",
		`[{"start":"2024-07-01T12:00:00Z","end":"noon"}]`, "2024-07-01T00:00:00Z"}

	_, err := scanShift(row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "break end")
}

func TestScanGuide_CorruptTimestamp(t *testing.T) {
	row := fakeRow{"retail", "Retail", "Australia/Sydney", "{}", "", "2024-07-01T00:00:00Z", "not-a-time"}

	_, err := scanGuide(row)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "updated_at")
}

func TestScanShift_Valid(t *testing.T) {
	row := fakeRow{"s-3", "emp-1", "retail", "2024-07-01T09:00:00Z", "2024-07-01T17:00:00Z", "[]", "2024-07-01T00:00:00Z"}

	rec, err := scanShift(row)
	require.NoError(t, err)
	assert.Equal(t, 9, rec.Shift.Start.Hour())
	assert.Equal(t, 17, rec.Shift.End.Hour())
}
