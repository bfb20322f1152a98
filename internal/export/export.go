// Package export writes export snapshots to the local filesystem.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"attendtrack/internal/attendance"
	"attendtrack/internal/share"
	"attendtrack/internal/stats"
)

// WriteFile writes data to dir/name via a temp file and rename, so readers
// never see a partial export. It returns the final path.
func WriteFile(dir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close export: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("rename export: %w", err)
	}
	return path, nil
}

// Uploader publishes a written export; share.Client satisfies it.
type Uploader interface {
	Upload(ctx context.Context, publicID string, data []byte) (*share.Result, error)
}

// Snapshot renders the current collections and writes them to dir. When up
// is non-nil the same bytes are uploaded and the share URL is returned.
func Snapshot(ctx context.Context, dir string, courses []attendance.Course, records []attendance.Record, up Uploader) (path, url string, err error) {
	data, err := stats.BuildExport(courses, records).JSON()
	if err != nil {
		return "", "", fmt.Errorf("render export: %w", err)
	}
	path, err = WriteFile(dir, stats.ExportFileName, data)
	if err != nil {
		return "", "", err
	}
	if up == nil {
		return path, "", nil
	}
	res, err := up.Upload(ctx, stats.ExportFileName, data)
	if err != nil {
		return path, "", fmt.Errorf("share export: %w", err)
	}
	return path, res.SecureURL, nil
}
