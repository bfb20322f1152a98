package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"attendtrack/internal/attendance"
)

func dates(records []attendance.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Date
	}
	return out
}

func TestFilterAndSortScenario(t *testing.T) {
	var records []attendance.Record
	for _, course := range []string{"c1", "c2"} {
		for _, d := range []string{"2024-01-01", "2024-01-03", "2024-01-02"} {
			records = append(records, rec(course+d, course, d, attendance.StatusPresent))
		}
	}

	got := Filter(records, Query{CourseID: "c1", Order: Descending})
	for _, r := range got {
		assert.Equal(t, "c1", r.CourseID)
	}
	assert.Equal(t, []string{"2024-01-03", "2024-01-02", "2024-01-01"}, dates(got))

	got = Filter(records, Query{CourseID: "c1", Order: Ascending})
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, dates(got))
}

func TestFilterAllIsStable(t *testing.T) {
	records := []attendance.Record{
		rec("a", "c1", "2024-01-02", attendance.StatusPresent),
		rec("b", "c2", "2024-01-01", attendance.StatusPresent),
		rec("c", "c2", "2024-01-02", attendance.StatusAbsent),
		rec("d", "c3", "2024-01-02", attendance.StatusAbsent),
	}
	for _, q := range []Query{{CourseID: AllCourses}, {}} {
		got := Filter(records, q)
		require.Len(t, got, 4)
		assert.Equal(t, []string{"a", "c", "d", "b"}, []string{got[0].ID, got[1].ID, got[2].ID, got[3].ID})
	}

	asc := Filter(records, Query{Order: Ascending})
	assert.Equal(t, []string{"b", "a", "c", "d"}, []string{asc[0].ID, asc[1].ID, asc[2].ID, asc[3].ID})
}

func TestBrowseJoinsCourse(t *testing.T) {
	records := []attendance.Record{
		rec("r1", "c1", "2024-01-01", attendance.StatusPresent),
		rec("r2", "gone", "2024-01-02", attendance.StatusAbsent),
	}
	got := Browse([]attendance.Course{algorithms}, records, Query{})
	require.Len(t, got, 2)
	assert.Equal(t, "Unknown Course", got[0].CourseName)
	assert.Equal(t, "Algorithms", got[1].CourseName)
	assert.Equal(t, "CS201", got[1].CourseCode)
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, Descending, o)
	o, err = ParseOrder("asc")
	require.NoError(t, err)
	assert.Equal(t, Ascending, o)
	_, err = ParseOrder("sideways")
	assert.Error(t, err)
}
