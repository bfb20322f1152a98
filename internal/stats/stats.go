// Package stats derives attendance figures from the repository collections.
// Every function is pure: the same collections always give the same result.
package stats

import (
	"sort"

	"attendtrack/internal/attendance"
)

// AttentionThreshold is the rate below which the weakest course is flagged.
const AttentionThreshold = 80.0

// RecentLimit is the number of records in Insights.Recent.
const RecentLimit = 5

// CourseStats is the per-course summary.
type CourseStats struct {
	Course             attendance.Course `json:"course"`
	TotalClasses       int               `json:"totalClasses"`
	PresentCount       int               `json:"presentCount"`
	AbsentCount        int               `json:"absentCount"`
	AttendanceRate     float64           `json:"attendanceRate"`
	LastAttendanceDate string            `json:"lastAttendanceDate,omitempty"`
}

// OverallStats summarizes every record regardless of course.
type OverallStats struct {
	TotalRecords int     `json:"totalRecords"`
	TotalPresent int     `json:"totalPresent"`
	TotalAbsent  int     `json:"totalAbsent"`
	OverallRate  float64 `json:"overallRate"`
	TotalCourses int     `json:"totalCourses"`
}

// Insights is the short summary shown next to the statistics.
type Insights struct {
	Best              *CourseStats        `json:"best,omitempty"`
	NeedsAttention    *CourseStats        `json:"needsAttention,omitempty"`
	Recent            []attendance.Record `json:"recent"`
	TotalDaysAttended int                 `json:"totalDaysAttended"`
}

// Rate returns present/total as a percentage, 0 when total is 0.
func Rate(present, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

// ForCourses computes one CourseStats per course, in course order.
func ForCourses(courses []attendance.Course, records []attendance.Record) []CourseStats {
	type tally struct {
		total, present int
		last           string
	}
	byCourse := make(map[string]*tally, len(courses))
	for _, c := range courses {
		byCourse[c.ID] = &tally{}
	}
	for _, r := range records {
		t, ok := byCourse[r.CourseID]
		if !ok {
			continue
		}
		t.total++
		if r.Status == attendance.StatusPresent {
			t.present++
		}
		// YYYY-MM-DD compares correctly as text
		if r.Date > t.last {
			t.last = r.Date
		}
	}

	out := make([]CourseStats, len(courses))
	for i, c := range courses {
		t := byCourse[c.ID]
		out[i] = CourseStats{
			Course:             c,
			TotalClasses:       t.total,
			PresentCount:       t.present,
			AbsentCount:        t.total - t.present,
			AttendanceRate:     Rate(t.present, t.total),
			LastAttendanceDate: t.last,
		}
	}
	return out
}

// Overall computes totals across all records.
func Overall(courses []attendance.Course, records []attendance.Record) OverallStats {
	var present int
	for _, r := range records {
		if r.Status == attendance.StatusPresent {
			present++
		}
	}
	return OverallStats{
		TotalRecords: len(records),
		TotalPresent: present,
		TotalAbsent:  len(records) - present,
		OverallRate:  Rate(present, len(records)),
		TotalCourses: len(courses),
	}
}

// Summarize picks the best and weakest courses and the most recent records.
// Only courses with at least one class compete; ties go to the earlier course.
// NeedsAttention is set only when the weakest rate is below
// AttentionThreshold.
func Summarize(courses []attendance.Course, records []attendance.Record) Insights {
	all := ForCourses(courses, records)
	var best, worst *CourseStats
	for i := range all {
		cs := &all[i]
		if cs.TotalClasses == 0 {
			continue
		}
		if best == nil || cs.AttendanceRate > best.AttendanceRate {
			best = cs
		}
		if worst == nil || cs.AttendanceRate < worst.AttendanceRate {
			worst = cs
		}
	}
	if worst != nil && worst.AttendanceRate >= AttentionThreshold {
		worst = nil
	}
	return Insights{
		Best:              best,
		NeedsAttention:    worst,
		Recent:            Recent(records, RecentLimit),
		TotalDaysAttended: Overall(courses, records).TotalPresent,
	}
}

// Recent returns up to n records, newest date first. Records on the same date
// keep their collection order.
func Recent(records []attendance.Record, n int) []attendance.Record {
	sorted := sortByDate(records, Descending)
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Standing labels a rate the way the statistics screen colours it.
func Standing(rate float64) string {
	switch {
	case rate >= 80:
		return "Excellent"
	case rate >= 60:
		return "Good"
	default:
		return "Needs Improvement"
	}
}

func sortByDate(records []attendance.Record, order Order) []attendance.Record {
	out := make([]attendance.Record, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		if order == Ascending {
			return out[i].Date < out[j].Date
		}
		return out[i].Date > out[j].Date
	})
	return out
}
