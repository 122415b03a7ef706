package compressor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pdf-compressor-go/internal/preset"
	"pdf-compressor-go/internal/statistics"
)

var (
	// ErrNoInputFiles is returned when a batch is started without input files.
	ErrNoInputFiles = errors.New("no input files selected")
	// ErrNoOutputDir is returned when a batch is started without an output directory.
	ErrNoOutputDir = errors.New("no output directory selected")
	// ErrBusy is returned when a batch is started while another one is running.
	ErrBusy = errors.New("a compression batch is already running")
)

// Executor runs the external compression tool with a complete argument vector.
type Executor interface {
	Run(ctx context.Context, args []string) error
}

// Request describes one batch.
type Request struct {
	InputPaths []string
	OutputDir  string
	// Level is the label the profile was resolved from; informational only.
	Level   string
	Profile preset.Profile
}

// FileJob is the outcome of compressing a single input file.
type FileJob struct {
	Index          int       `json:"index"`
	InputPath      string    `json:"input_path"`
	OutputPath     string    `json:"output_path"`
	OriginalSize   int64     `json:"original_size"`
	CompressedSize int64     `json:"compressed_size"`
	Reduction      float64   `json:"reduction"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	FinishedAt     time.Time `json:"finished_at"`
}

// BatchResult is the outcome of one batch, in input order. On failure it
// holds the completed jobs plus the failed one.
type BatchResult struct {
	BatchID             string              `json:"batch_id"`
	Jobs                []FileJob           `json:"jobs"`
	SuccessCount        int                 `json:"success_count"`
	TotalOriginalSize   int64               `json:"total_original_size"`
	TotalCompressedSize int64               `json:"total_compressed_size"`
	Summary             *statistics.Summary `json:"summary,omitempty"`
}

// FileError wraps the failure that aborted a batch.
type FileError struct {
	Index int
	Path  string
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("compressing %s (file %d): %v", e.Path, e.Index+1, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// EventType names a progress notification.
type EventType string

const (
	EventFileStarted    EventType = "file_started"
	EventFileCompleted  EventType = "file_completed"
	EventBatchCompleted EventType = "batch_completed"
	EventBatchFailed    EventType = "batch_failed"
)

// Event is a single progress notification. Position is 1-based; Fraction is
// Position/Total and is only set once a file has completed.
type Event struct {
	Type     EventType `json:"type"`
	BatchID  string    `json:"batch_id"`
	Position int       `json:"position,omitempty"`
	Total    int       `json:"total"`
	FileName string    `json:"file_name,omitempty"`
	Fraction float64   `json:"fraction,omitempty"`

	Job                 *FileJob `json:"job,omitempty"`
	TotalOriginalSize   int64    `json:"total_original_size"`
	TotalCompressedSize int64    `json:"total_compressed_size"`
	Reduction           float64  `json:"reduction"`

	Summary *statistics.Summary `json:"summary,omitempty"`
	Error   string              `json:"error,omitempty"`
	Err     error               `json:"-"`
}

// Terminal reports whether the event ends a batch.
func (e Event) Terminal() bool {
	return e.Type == EventBatchCompleted || e.Type == EventBatchFailed
}

// Observer receives events in the order they happen.
type Observer func(Event)
