package attendance

import (
	"context"
	"encoding/json"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"attendtrack/internal/metrics"
	"attendtrack/internal/store"
)

// Updater computes the next collection from the current one. It always
// receives a private copy of the latest committed state.
type Updater[T any] func(current []T) []T

// Set returns an Updater that replaces the collection with v.
func Set[T any](v []T) Updater[T] {
	return func([]T) []T { return slices.Clone(v) }
}

// Repository is the authoritative in-memory view of courses and attendance
// records, kept in sync with a store.KV.
//
// Writers (mutations, loads) are serialized by writeMu and hold it across
// read, compute, persist and commit. mu only guards the fields readers see.
type Repository struct {
	kv store.KV

	writeMu sync.Mutex

	mu      sync.RWMutex
	courses []Course
	records []Record
	loading bool
	ready   bool
	err     error

	newID   func() string
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *log.Logger
}

// Option configures a Repository.
type Option func(*Repository)

// WithIDGenerator overrides the id source (uuid by default).
func WithIDGenerator(fn func() string) Option {
	return func(r *Repository) { r.newID = fn }
}

// WithClock overrides time.Now.
func WithClock(fn func() time.Time) Option {
	return func(r *Repository) { r.now = fn }
}

// WithMetrics wires prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Repository) { r.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Repository) { r.logger = l }
}

// NewRepository creates a repository over kv. It reports Loading until Load
// has been called and finished.
func NewRepository(kv store.KV, opts ...Option) *Repository {
	r := &Repository{
		kv:      kv,
		loading: true,
		newID:   uuid.NewString,
		now:     time.Now,
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load reads both collections concurrently. A missing key is an empty
// collection; a read or parse failure leaves both collections empty and is
// reported through Err.
func (r *Repository) Load(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.Lock()
	r.loading = true
	r.err = nil
	r.mu.Unlock()

	var courses []Course
	var records []Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		courses, err = readCollection[Course](gctx, r.kv, CoursesKey)
		return err
	})
	g.Go(func() error {
		var err error
		records, err = readCollection[Record](gctx, r.kv, RecordsKey)
		return err
	})
	err := g.Wait()
	r.metrics.ObserveLoad(err)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.loading = false
	if err != nil {
		r.logger.Printf("error loading data: %v", err)
		r.courses, r.records = nil, nil
		r.ready = false
		r.err = err
		return err
	}
	r.courses, r.records = courses, records
	r.ready = true
	return nil
}

// Refresh discards in-memory state and reloads from the store.
func (r *Repository) Refresh(ctx context.Context) error {
	return r.Load(ctx)
}

func readCollection[T any](ctx context.Context, kv store.KV, key string) ([]T, error) {
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, &LoadError{Key: key, Err: err}
	}
	if !ok {
		return []T{}, nil
	}
	var out []T
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, &LoadError{Key: key, Err: err}
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Courses returns a copy of the course collection in insertion order.
func (r *Repository) Courses() []Course {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.courses)
}

// Records returns a copy of the record collection in insertion order.
func (r *Repository) Records() []Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.records)
}

// Snapshot returns both collections as of the same instant.
func (r *Repository) Snapshot() ([]Course, []Record) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.courses), slices.Clone(r.records)
}

// Course looks up a course by id.
func (r *Repository) Course(id string) (Course, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := slices.IndexFunc(r.courses, func(c Course) bool { return c.ID == id })
	if i < 0 {
		return Course{}, false
	}
	return r.courses[i], true
}

// Loading reports whether a load is in progress or has not run yet.
func (r *Repository) Loading() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loading
}

// Ready reports whether the last load succeeded; mutations require it.
func (r *Repository) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Err returns the error of the last load or mutation, nil after a success.
func (r *Repository) Err() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// ReplaceCourses applies update to the latest courses and persists the result.
func (r *Repository) ReplaceCourses(ctx context.Context, update Updater[Course]) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return err
	}
	return mutate(ctx, r, CoursesKey, &r.courses, always(update))
}

// ReplaceRecords applies update to the latest records and persists the result.
func (r *Repository) ReplaceRecords(ctx context.Context, update Updater[Record]) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	if err := r.checkReady(); err != nil {
		return err
	}
	return mutate(ctx, r, RecordsKey, &r.records, always(update))
}

// change is the internal form of Updater; changed=false skips the write.
type change[T any] func(current []T) (next []T, changed bool)

func always[T any](u Updater[T]) change[T] {
	return func(cur []T) ([]T, bool) { return u(cur), true }
}

// mutate must be called with writeMu held. The collection pointed to by cur
// is only reassigned after the store accepted the write.
func mutate[T any](ctx context.Context, r *Repository, key string, cur *[]T, fn change[T]) error {
	next, changed := fn(slices.Clone(*cur))
	if !changed {
		return nil
	}
	if next == nil {
		next = []T{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return r.fail(&WriteError{Key: key, Err: err})
	}
	start := time.Now()
	err = r.kv.Set(ctx, key, string(data))
	r.metrics.ObserveWrite(key, time.Since(start), err)
	if err != nil {
		return r.fail(&WriteError{Key: key, Err: err})
	}

	r.mu.Lock()
	*cur = next
	r.err = nil
	r.mu.Unlock()
	return nil
}

func (r *Repository) checkReady() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.ready {
		return ErrNotReady
	}
	return nil
}

func (r *Repository) fail(err error) error {
	r.logger.Printf("error updating data: %v", err)
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
	return err
}
