package stats

import (
	"fmt"

	"attendtrack/internal/attendance"
)

// Order is the date sort direction for browsing.
type Order string

const (
	Descending Order = "desc"
	Ascending  Order = "asc"
)

// AllCourses disables the course filter.
const AllCourses = "all"

// ParseOrder accepts "asc" or "desc"; empty means Descending.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case "", Descending:
		return Descending, nil
	case Ascending:
		return Ascending, nil
	}
	return "", fmt.Errorf("unknown sort order %q", s)
}

// Query selects and orders records for the history view.
type Query struct {
	// CourseID filters to one course; empty or AllCourses keeps every record.
	CourseID string
	Order    Order
}

// RecordView is a record joined with the display fields of its course.
type RecordView struct {
	attendance.Record
	CourseName string `json:"courseName"`
	CourseCode string `json:"courseCode"`
}

// Filter applies q to records with a stable date sort.
func Filter(records []attendance.Record, q Query) []attendance.Record {
	var out []attendance.Record
	if q.CourseID == "" || q.CourseID == AllCourses {
		out = records
	} else {
		out = make([]attendance.Record, 0, len(records))
		for _, r := range records {
			if r.CourseID == q.CourseID {
				out = append(out, r)
			}
		}
	}
	order := q.Order
	if order == "" {
		order = Descending
	}
	return sortByDate(out, order)
}

// Browse is Filter plus the course name and code for each record. Records of
// unknown courses get "Unknown Course".
func Browse(courses []attendance.Course, records []attendance.Record, q Query) []RecordView {
	byID := make(map[string]attendance.Course, len(courses))
	for _, c := range courses {
		if _, ok := byID[c.ID]; !ok {
			byID[c.ID] = c
		}
	}
	filtered := Filter(records, q)
	out := make([]RecordView, len(filtered))
	for i, r := range filtered {
		out[i].Record = r
		if c, ok := byID[r.CourseID]; ok {
			out[i].CourseName = c.Name
			out[i].CourseCode = c.Code
		} else {
			out[i].CourseName = "Unknown Course"
		}
	}
	return out
}
