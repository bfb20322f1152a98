package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"2024-01-02", false},
		{"2024-02-29", false},
		{"2023-02-29", true},
		{"2024-1-2", true},
		{"2024-01-02T00:00:00Z", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			_, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestShiftDate(t *testing.T) {
	next, err := ShiftDate("2024-02-28", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", next)

	prev, err := ShiftDate("2024-01-01", -1)
	require.NoError(t, err)
	assert.Equal(t, "2023-12-31", prev)

	_, err = ShiftDate("bad", 1)
	assert.Error(t, err)
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	now := time.Date(2024, 3, 1, 2, 0, 0, 0, loc)
	assert.Equal(t, "2024-02-29", Today(now), "calendar day is taken in UTC")
}

func TestValidateCourse(t *testing.T) {
	assert.NoError(t, ValidateCourse(algorithms))

	var verr *ValidationError
	require.ErrorAs(t, ValidateCourse(Course{ID: "c1", Name: "  ", Code: "X"}), &verr)
	assert.Equal(t, "name", verr.Field)
	require.ErrorAs(t, ValidateCourse(Course{ID: "c1", Name: "A", Code: ""}), &verr)
	assert.Equal(t, "code", verr.Field)
	require.ErrorAs(t, ValidateCourse(Course{Name: "A", Code: "B"}), &verr)
	assert.Equal(t, "id", verr.Field)
}

func TestValidateRecord(t *testing.T) {
	assert.NoError(t, ValidateRecord(Record{ID: "r1", CourseID: "c1", Date: "2024-01-02", Status: StatusAbsent}))
	assert.Error(t, ValidateRecord(Record{CourseID: "c1", Date: "2024-01-02", Status: StatusAbsent}))
	assert.Error(t, ValidateRecord(Record{ID: "r1", Date: "2024-01-02", Status: StatusAbsent}))
	assert.Error(t, ValidateRecord(Record{ID: "r1", CourseID: "c1", Date: "02/01/2024", Status: StatusAbsent}))
	assert.Error(t, ValidateRecord(Record{ID: "r1", CourseID: "c1", Date: "2024-01-02", Status: "excused"}))
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("present")
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, s)
	_, err = ParseStatus("Present")
	assert.Error(t, err)
}
