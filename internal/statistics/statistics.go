package statistics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Reduction returns the percentage by which compressed is smaller than
// original. It is 0 when original is 0.
func Reduction(original, compressed int64) float64 {
	if original <= 0 {
		return 0
	}
	return float64(original-compressed) / float64(original) * 100
}

// Summary is the aggregate outcome of one batch.
type Summary struct {
	BatchID             string        `json:"batch_id"`
	FilesProcessed      int           `json:"files_processed"`
	TotalFiles          int           `json:"total_files"`
	TotalOriginalSize   int64         `json:"total_original_size"`
	TotalCompressedSize int64         `json:"total_compressed_size"`
	SavedSize           int64         `json:"saved_size"`
	Reduction           float64       `json:"reduction"`
	Duration            time.Duration `json:"duration"`
}

// String renders the summary shown to the user once a batch completes.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Compression finished! Processed %d of %d files.\n\n", s.FilesProcessed, s.TotalFiles)
	fmt.Fprintf(&b, "Total original size:   %s\n", FormatBytes(s.TotalOriginalSize))
	fmt.Fprintf(&b, "Total compressed size: %s\n", FormatBytes(s.TotalCompressedSize))
	fmt.Fprintf(&b, "Total saved:           %s (%s)", FormatBytes(s.SavedSize), FormatPercent(s.Reduction))
	return b.String()
}

// Tracker accumulates byte counts for a single batch. It belongs to the
// goroutine running the batch and is not safe for concurrent use.
type Tracker struct {
	batchID    string
	startTime  time.Time
	totalFiles int
	processed  int
	original   int64
	compressed int64
}

// NewTracker starts tracking a batch of totalFiles files.
func NewTracker(batchID string, totalFiles int) *Tracker {
	return &Tracker{
		batchID:    batchID,
		startTime:  time.Now(),
		totalFiles: totalFiles,
	}
}

// Add records one successfully compressed file.
func (t *Tracker) Add(originalSize, compressedSize int64) {
	t.processed++
	t.original += originalSize
	t.compressed += compressedSize
}

// TotalOriginalSize returns the running original byte total.
func (t *Tracker) TotalOriginalSize() int64 {
	return t.original
}

// TotalCompressedSize returns the running compressed byte total.
func (t *Tracker) TotalCompressedSize() int64 {
	return t.compressed
}

// Summary returns the totals accumulated so far.
func (t *Tracker) Summary() Summary {
	return Summary{
		BatchID:             t.batchID,
		FilesProcessed:      t.processed,
		TotalFiles:          t.totalFiles,
		TotalOriginalSize:   t.original,
		TotalCompressedSize: t.compressed,
		SavedSize:           t.original - t.compressed,
		Reduction:           Reduction(t.original, t.compressed),
		Duration:            time.Since(t.startTime),
	}
}

// Session aggregates finished batches for the lifetime of the process.
type Session struct {
	mutex          sync.RWMutex
	Batches        int   `json:"batches"`
	FilesProcessed int64 `json:"files_processed"`
	BytesSaved     int64 `json:"bytes_saved"`
	Failures       int   `json:"failures"`
}

// NewSession returns an empty Session.
func NewSession() *Session {
	return &Session{}
}

// RecordBatch adds a finished batch to the session totals. Files processed
// before a failure still count.
func (s *Session) RecordBatch(summary Summary, failed bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.Batches++
	s.FilesProcessed += int64(summary.FilesProcessed)
	s.BytesSaved += summary.SavedSize
	if failed {
		s.Failures++
	}
}

// Snapshot returns a copy of the session totals.
func (s *Session) Snapshot() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return map[string]interface{}{
		"batches":         s.Batches,
		"files_processed": s.FilesProcessed,
		"bytes_saved":     s.BytesSaved,
		"failures":        s.Failures,
	}
}

var sizeUnits = []string{"B", "KB", "MB", "GB"}

// FormatBytes returns a human-readable size using 1024-based units, rounded
// to two decimals. Sizes beyond the GB range stay in GB.
func FormatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}
	sign := ""
	if bytes < 0 {
		sign = "-"
		bytes = -bytes
	}
	if bytes < 1024 {
		return fmt.Sprintf("%s%d B", sign, bytes)
	}

	value, i := float64(bytes), 0
	for value >= 1024 && i < len(sizeUnits)-1 {
		value /= 1024
		i++
	}
	value = math.Round(value*100) / 100

	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return fmt.Sprintf("%s%s %s", sign, s, sizeUnits[i])
}

// FormatPercent formats a reduction percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", p)
}
