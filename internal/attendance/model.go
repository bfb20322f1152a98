package attendance

import (
	"fmt"
	"strings"
	"time"
)

// Status is the outcome recorded for one course on one day.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
)

// ParseStatus accepts "present" or "absent".
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPresent, StatusAbsent:
		return Status(s), nil
	}
	return "", &ValidationError{Field: "status", Msg: fmt.Sprintf("unknown status %q", s)}
}

// Course is a tracked class. CreatedAt keeps the ISO-8601 text it was stored
// with so that collections round-trip byte for byte.
type Course struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Code       string `json:"code"`
	Instructor string `json:"instructor"`
	CreatedAt  string `json:"createdAt"`
}

// Record is the attendance outcome for one (course, date) pair.
type Record struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Date     string `json:"date"`
	Status   Status `json:"status"`
}

// Storage keys owned by the repository.
const (
	CoursesKey = "courses"
	RecordsKey = "attendanceRecords"
)

const (
	// DateLayout is the calendar-day format used for Record.Date.
	DateLayout = "2006-01-02"
	// TimestampLayout matches JavaScript's Date.toISOString output.
	TimestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// ParseDate parses a strict YYYY-MM-DD day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, &ValidationError{Field: "date", Msg: fmt.Sprintf("invalid date %q, want YYYY-MM-DD", s)}
	}
	return t, nil
}

// Today returns the UTC calendar day of now.
func Today(now time.Time) string {
	return now.UTC().Format(DateLayout)
}

// ShiftDate moves a day forward (days > 0) or back.
func ShiftDate(date string, days int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, days).Format(DateLayout), nil
}

// ValidateCourse checks the fields a caller must fill before AddCourse or
// UpdateCourse.
func ValidateCourse(c Course) error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return &ValidationError{Field: "id", Msg: "course id is required"}
	case strings.TrimSpace(c.Name) == "":
		return &ValidationError{Field: "name", Msg: "course name is required"}
	case strings.TrimSpace(c.Code) == "":
		return &ValidationError{Field: "code", Msg: "course code is required"}
	}
	return nil
}

// ValidateRecord checks a record before AddRecord or UpdateRecord.
func ValidateRecord(r Record) error {
	if strings.TrimSpace(r.ID) == "" {
		return &ValidationError{Field: "id", Msg: "record id is required"}
	}
	if strings.TrimSpace(r.CourseID) == "" {
		return &ValidationError{Field: "courseId", Msg: "course id is required"}
	}
	if _, err := ParseDate(r.Date); err != nil {
		return err
	}
	_, err := ParseStatus(string(r.Status))
	return err
}
