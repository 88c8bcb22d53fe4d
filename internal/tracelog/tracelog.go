package tracelog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"

	"radfield/server/internal/radiation"
)

// Entry is one recorded ray, flattened for offline analysis.
type Entry struct {
	Tick     uint64                         `json:"tick"`
	At       time.Time                      `json:"at"`
	Source   string                         `json:"source"`
	Receiver string                         `json:"receiver"`
	MapID    string                         `json:"mapId"`
	Rads     float64                        `json:"rads"`
	Reached  bool                           `json:"reached"`
	Blockers map[string][]radiation.TileHit `json:"blockers,omitempty"`
}

// Writer appends zstd-compressed JSONL ray traces, rotating output files by
// UTC hour. Safe for concurrent use.
type Writer struct {
	baseDir string
	prefix  string

	mu      sync.Mutex
	curHour string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
}

// NewWriter lazily creates files under baseDir on first write.
func NewWriter(baseDir, prefix string) *Writer {
	if prefix == "" {
		prefix = "traces"
	}
	return &Writer{baseDir: baseDir, prefix: prefix}
}

// Write appends one entry.
func (w *Writer) Write(entry Entry) error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	hour := time.Now().UTC().Format("2006-01-02-15")
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			return err
		}
	}

	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	if err := w.w.WriteByte('\n'); err != nil {
		return err
	}
	return w.w.Flush()
}

// Close flushes the current segment.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	path := w.pathForHour(hour)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	w.curHour = hour
	return nil
}

func (w *Writer) closeLocked() error {
	var encErr error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		encErr = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	w.w = nil
	return encErr
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// FromRay builds an entry from a recorded ray.
func FromRay(tick uint64, at time.Time, ray *radiation.Ray) Entry {
	return Entry{
		Tick:     tick,
		At:       at,
		Source:   ray.SourceID,
		Receiver: ray.ReceiverID,
		MapID:    ray.MapID,
		Rads:     ray.Rads,
		Reached:  ray.ReachedDestination,
		Blockers: ray.Blockers,
	}
}
