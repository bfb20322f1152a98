package export

import (
	"context"
	"log"

	"attendtrack/internal/attendance"
	"attendtrack/internal/queue"
)

// Source supplies the collections to export. Nothing is exported while
// Ready is false, so a failed load never replaces a good export.
type Source interface {
	Ready() bool
	Snapshot() ([]attendance.Course, []attendance.Record)
}

// Worker rewrites the export file whenever a change message arrives.
type Worker struct {
	Source   Source
	Dir      string
	Uploader Uploader // optional
	// Reload, if set, runs before each export so a separate process sees
	// writes made by the API.
	Reload func(ctx context.Context) error
	Logger *log.Logger
}

// Run exports once, then once per burst of change messages, until msgs closes
// or ctx ends.
func (w *Worker) Run(ctx context.Context, msgs <-chan queue.Message) {
	logger := w.Logger
	if logger == nil {
		logger = log.Default()
	}
	w.exportOnce(ctx, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}
			if msg.Type != queue.TypeChanged {
				continue
			}
			n := 1 + drain(msgs)
			if ch, err := queue.DecodeChange(msg); err == nil {
				logger.Printf("change %s %s %s (+%d queued)", ch.Collection, ch.Op, ch.ID, n-1)
			}
			w.exportOnce(ctx, logger)
		}
	}
}

func (w *Worker) exportOnce(ctx context.Context, logger *log.Logger) {
	if w.Reload != nil {
		if err := w.Reload(ctx); err != nil {
			logger.Printf("reload failed: %v", err)
			return
		}
	}
	if !w.Source.Ready() {
		logger.Printf("export skipped: repository not loaded")
		return
	}
	courses, records := w.Source.Snapshot()
	path, url, err := Snapshot(ctx, w.Dir, courses, records, w.Uploader)
	if err != nil {
		logger.Printf("export failed: %v", err)
		if path == "" {
			return
		}
	}
	if url != "" {
		logger.Printf("export written to %s, shared at %s", path, url)
		return
	}
	logger.Printf("export written to %s", path)
}

// drain discards messages that are already waiting, since one export covers
// them all.
func drain(msgs <-chan queue.Message) int {
	n := 0
	for {
		select {
		case _, ok := <-msgs:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
