// Package media stores questionnaire uploads on local disk.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/m3rciful/anketabot/app/intake"
	"github.com/m3rciful/anketabot/core/logger"
)

// ErrNotFound is returned when a stored reference no longer resolves.
var ErrNotFound = errors.New("media: file not found")

const timestampLayout = "20060102_150405"

var extensions = map[intake.MediaKind]string{
	intake.MediaPhoto: "jpg",
	intake.MediaVideo: "mp4",
}

// DiskStore keeps uploads as flat files named {chatID}_{timestamp}.{ext}.
// References handed back to callers are bare file names, never paths.
type DiskStore struct {
	dir string
	now func() time.Time
}

// NewDiskStore creates the target directory if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, errors.New("media: empty directory")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create dir: %w", err)
	}
	return &DiskStore{dir: dir, now: time.Now}, nil
}

// Store writes the upload to disk and returns its reference. A partial file
// left by a failed copy is removed before the error is returned.
func (d *DiskStore) Store(ctx context.Context, chatID int64, r io.Reader, kind intake.MediaKind) (string, error) {
	ext, ok := extensions[kind]
	if !ok {
		return "", fmt.Errorf("media: unsupported kind %q", kind)
	}
	name := fmt.Sprintf("%d_%s.%s", chatID, d.now().Format(timestampLayout), ext)
	path := filepath.Join(d.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("media: create file: %w", err)
	}
	written, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("media: write file: %w", err)
	}
	logger.Debug(ctx, "media", "file.store",
		slog.Int64("chat_id", chatID),
		slog.String("media", string(kind)),
		slog.String("file", name),
		slog.Int64("size", written),
	)
	return name, nil
}

// Resolve opens a previously stored reference for reading.
func (d *DiskStore) Resolve(ref string) (io.ReadCloser, error) {
	// refs are bare names; strip any path a caller might have smuggled in
	f, err := os.Open(filepath.Join(d.dir, filepath.Base(ref)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
		}
		return nil, fmt.Errorf("media: open %s: %w", ref, err)
	}
	return f, nil
}
