package attendance

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

// NewCourse builds a course with a fresh id and creation timestamp. Input is
// trimmed but not validated; call ValidateCourse before AddCourse.
func (r *Repository) NewCourse(name, code, instructor string) Course {
	return Course{
		ID:         r.newID(),
		Name:       strings.TrimSpace(name),
		Code:       strings.TrimSpace(code),
		Instructor: strings.TrimSpace(instructor),
		CreatedAt:  r.now().UTC().Format(TimestampLayout),
	}
}

// AddCourse appends a course.
func (r *Repository) AddCourse(ctx context.Context, c Course) error {
	if c.ID == "" {
		return ErrMissingID
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return err
	}
	var dup bool
	err := mutate(ctx, r, CoursesKey, &r.courses, func(cur []Course) ([]Course, bool) {
		if slices.ContainsFunc(cur, func(x Course) bool { return x.ID == c.ID }) {
			dup = true
			return cur, false
		}
		return append(cur, c), true
	})
	if dup {
		return fmt.Errorf("course %s: %w", c.ID, ErrDuplicate)
	}
	return err
}

// UpdateCourse replaces the course with the same id and reports whether it
// was found. An unknown id is a no-op: nothing is written.
func (r *Repository) UpdateCourse(ctx context.Context, c Course) (bool, error) {
	if c.ID == "" {
		return false, ErrMissingID
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return false, err
	}
	var found bool
	err := mutate(ctx, r, CoursesKey, &r.courses, tracked(&found, replaceByID(c, func(x Course) string { return x.ID })))
	return found && err == nil, err
}

// DeleteCourse removes a course and every record that references it, and
// reports whether anything was removed.
//
// The course is written first; if that fails nothing else happens. If the
// record write then fails the previous course collection is restored, so a
// failed call never commits a course deletion with its records still present.
// Deleting an id that is already gone still drops its records, which makes
// retries clean up after a failed restore.
func (r *Repository) DeleteCourse(ctx context.Context, id string) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return false, err
	}

	prev := slices.Clone(r.courses)
	var courseGone, recordsGone bool
	if err := mutate(ctx, r, CoursesKey, &r.courses, tracked(&courseGone, removeByID(id, func(x Course) string { return x.ID }))); err != nil {
		return false, err
	}
	err := mutate(ctx, r, RecordsKey, &r.records, tracked(&recordsGone, func(cur []Record) ([]Record, bool) {
		n := len(cur)
		next := slices.DeleteFunc(cur, func(x Record) bool { return x.CourseID == id })
		return next, len(next) != n
	}))
	if err == nil {
		return courseGone || recordsGone, nil
	}
	if !courseGone {
		return false, err
	}

	rerr := mutate(ctx, r, CoursesKey, &r.courses, func([]Course) ([]Course, bool) { return prev, true })
	if rerr != nil {
		return false, r.fail(errors.Join(err, fmt.Errorf("restore courses: %w", rerr)))
	}
	// the restore cleared the error state
	return false, r.fail(err)
}

// AddRecord appends a record. It refuses a second record for the same
// (course, date); use MarkAttendance for insert-or-update.
func (r *Repository) AddRecord(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return ErrMissingID
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return err
	}
	var dup bool
	err := mutate(ctx, r, RecordsKey, &r.records, func(cur []Record) ([]Record, bool) {
		if slices.ContainsFunc(cur, func(x Record) bool {
			return x.ID == rec.ID || (x.CourseID == rec.CourseID && x.Date == rec.Date)
		}) {
			dup = true
			return cur, false
		}
		return append(cur, rec), true
	})
	if dup {
		return fmt.Errorf("record %s for %s on %s: %w", rec.ID, rec.CourseID, rec.Date, ErrDuplicate)
	}
	return err
}

// UpdateRecord replaces the record with the same id and reports whether it
// was found. An unknown id is a no-op. Moving a record onto a (course, date)
// already taken by another record fails with ErrDuplicate.
func (r *Repository) UpdateRecord(ctx context.Context, rec Record) (bool, error) {
	if rec.ID == "" {
		return false, ErrMissingID
	}
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return false, err
	}
	var dup, found bool
	err := mutate(ctx, r, RecordsKey, &r.records, func(cur []Record) ([]Record, bool) {
		if slices.ContainsFunc(cur, func(x Record) bool {
			return x.ID != rec.ID && x.CourseID == rec.CourseID && x.Date == rec.Date
		}) {
			dup = true
			return cur, false
		}
		next, changed := replaceByID(rec, func(x Record) string { return x.ID })(cur)
		found = changed
		return next, changed
	})
	if dup {
		return false, fmt.Errorf("record for %s on %s: %w", rec.CourseID, rec.Date, ErrDuplicate)
	}
	return found && err == nil, err
}

// DeleteRecord removes a record by id and reports whether it existed.
func (r *Repository) DeleteRecord(ctx context.Context, id string) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return false, err
	}
	var found bool
	err := mutate(ctx, r, RecordsKey, &r.records, tracked(&found, removeByID(id, func(x Record) string { return x.ID })))
	return found && err == nil, err
}

// MarkAttendance is insert-or-update keyed by (courseID, date). An existing
// record keeps its id and takes the new status; otherwise a record with a
// fresh id is appended. The lookup and the write happen under the same writer
// lock, so repeated marks never create duplicates. inserted reports which
// branch was taken.
func (r *Repository) MarkAttendance(ctx context.Context, courseID, date string, status Status) (rec Record, inserted bool, err error) {
	if _, err := ParseDate(date); err != nil {
		return Record{}, false, err
	}
	if _, err := ParseStatus(string(status)); err != nil {
		return Record{}, false, err
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return Record{}, false, err
	}
	if !slices.ContainsFunc(r.courses, func(c Course) bool { return c.ID == courseID }) {
		return Record{}, false, fmt.Errorf("course %s: %w", courseID, ErrUnknownCourse)
	}

	err = mutate(ctx, r, RecordsKey, &r.records, func(cur []Record) ([]Record, bool) {
		i := slices.IndexFunc(cur, func(x Record) bool { return x.CourseID == courseID && x.Date == date })
		if i >= 0 {
			rec = cur[i]
			rec.Status = status
			cur[i] = rec
			return cur, true
		}
		inserted = true
		rec = Record{ID: r.newID(), CourseID: courseID, Date: date, Status: status}
		return append(cur, rec), true
	})
	if err != nil {
		return Record{}, false, err
	}
	r.metrics.ObserveMark(inserted)
	return rec, inserted, nil
}

// PruneOrphans drops records whose course no longer exists and returns how
// many were removed.
func (r *Repository) PruneOrphans(ctx context.Context) (int, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return 0, err
	}
	known := make(map[string]struct{}, len(r.courses))
	for _, c := range r.courses {
		known[c.ID] = struct{}{}
	}
	var removed int
	err := mutate(ctx, r, RecordsKey, &r.records, func(cur []Record) ([]Record, bool) {
		next := slices.DeleteFunc(cur, func(x Record) bool {
			_, ok := known[x.CourseID]
			return !ok
		})
		removed = len(cur) - len(next)
		return next, removed > 0
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// tracked records in *changed whether fn decided to write.
func tracked[T any](changed *bool, fn change[T]) change[T] {
	return func(cur []T) ([]T, bool) {
		next, ok := fn(cur)
		*changed = ok
		return next, ok
	}
}

func replaceByID[T any](v T, id func(T) string) change[T] {
	return func(cur []T) ([]T, bool) {
		i := slices.IndexFunc(cur, func(x T) bool { return id(x) == id(v) })
		if i < 0 {
			return cur, false
		}
		cur[i] = v
		return cur, true
	}
}

func removeByID[T any](target string, id func(T) string) change[T] {
	return func(cur []T) ([]T, bool) {
		n := len(cur)
		next := slices.DeleteFunc(cur, func(x T) bool { return id(x) == target })
		return next, len(next) != n
	}
}
