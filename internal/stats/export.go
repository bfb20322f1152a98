package stats

import (
	"encoding/json"

	"attendtrack/internal/attendance"
)

// ExportFileName is the name used when an export is written to disk.
const ExportFileName = "attendance_export.json"

// Export is the snapshot handed to the file and share collaborators.
type Export struct {
	Courses           []attendance.Course `json:"courses"`
	AttendanceRecords []attendance.Record `json:"attendanceRecords"`
	OverallStats      OverallStats        `json:"overallStats"`
	CourseStats       []CourseStats       `json:"courseStats"`
}

// BuildExport assembles an Export from the current collections.
func BuildExport(courses []attendance.Course, records []attendance.Record) Export {
	if courses == nil {
		courses = []attendance.Course{}
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return Export{
		Courses:           courses,
		AttendanceRecords: records,
		OverallStats:      Overall(courses, records),
		CourseStats:       ForCourses(courses, records),
	}
}

// JSON renders the export with two-space indentation.
func (e Export) JSON() ([]byte, error) {
	return json.MarshalIndent(e, "", "  ")
}
