package compressor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"pdf-compressor-go/internal/ghostscript"
	"pdf-compressor-go/internal/statistics"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// OutputSuffix is inserted between an input's base name and its extension.
const OutputSuffix = "_compressed"

// Runner compresses batches of files one at a time, in input order.
// At most one batch runs per Runner.
type Runner struct {
	executor Executor
	logger   *logrus.Logger
	running  atomic.Bool
}

// NewRunner returns a Runner that invokes executor once per file.
func NewRunner(executor Executor, logger *logrus.Logger) *Runner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Runner{
		executor: executor,
		logger:   logger,
	}
}

// Running reports whether a batch is in progress.
func (r *Runner) Running() bool {
	return r.running.Load()
}

// Run compresses the batch synchronously. Every event, including the
// terminal one, is passed to observe. The first failing file aborts the
// batch; outputs of earlier files are kept.
func (r *Runner) Run(ctx context.Context, req Request, observe Observer) (*BatchResult, error) {
	if err := r.validate(req); err != nil {
		return nil, err
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer r.running.Store(false)

	if observe == nil {
		observe = func(Event) {}
	}
	return r.run(ctx, uuid.NewString(), req, observe)
}

// Start runs the batch on its own goroutine and returns the event stream.
// The stream ends with exactly one batch_completed or batch_failed event
// and is then closed. Precondition failures are returned directly.
func (r *Runner) Start(ctx context.Context, req Request) (string, <-chan Event, error) {
	if err := r.validate(req); err != nil {
		return "", nil, err
	}
	if !r.running.CompareAndSwap(false, true) {
		return "", nil, ErrBusy
	}

	batchID := uuid.NewString()
	// Room for every event so the batch never waits on a slow consumer.
	events := make(chan Event, 2*len(req.InputPaths)+1)

	go func() {
		defer close(events)
		defer r.running.Store(false)

		_, _ = r.run(ctx, batchID, req, func(e Event) {
			events <- e
		})
	}()

	return batchID, events, nil
}

func (r *Runner) validate(req Request) error {
	if len(req.InputPaths) == 0 {
		return ErrNoInputFiles
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		return ErrNoOutputDir
	}
	if r.executor == nil {
		return ghostscript.ErrNotFound
	}
	return nil
}

func (r *Runner) run(ctx context.Context, batchID string, req Request, observe Observer) (*BatchResult, error) {
	log := r.logger.WithFields(logrus.Fields{
		"batch":             batchID,
		"compression_level": req.Level,
		"output":            req.OutputDir,
	})

	total := len(req.InputPaths)
	tracker := statistics.NewTracker(batchID, total)
	result := &BatchResult{
		BatchID: batchID,
		Jobs:    make([]FileJob, 0, total),
	}

	fail := func(job FileJob, err error) (*BatchResult, error) {
		job.Error = err.Error()
		job.FinishedAt = time.Now()
		result.Jobs = append(result.Jobs, job)

		summary := tracker.Summary()
		result.Summary = &summary

		fileErr := &FileError{Index: job.Index, Path: job.InputPath, Err: err}
		log.WithField("file", job.InputPath).Errorf("Batch aborted: %v", err)
		observe(Event{
			Type:                EventBatchFailed,
			BatchID:             batchID,
			Position:            job.Index + 1,
			Total:               total,
			FileName:            filepath.Base(job.InputPath),
			TotalOriginalSize:   tracker.TotalOriginalSize(),
			TotalCompressedSize: tracker.TotalCompressedSize(),
			Reduction:           summary.Reduction,
			Summary:             &summary,
			Error:               fileErr.Error(),
			Err:                 fileErr,
		})
		return result, fileErr
	}

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return fail(FileJob{InputPath: req.InputPaths[0]}, fmt.Errorf("create output directory: %w", err))
	}

	if dups := duplicateOutputs(req.OutputDir, req.InputPaths); len(dups) > 0 {
		log.Warnf("Inputs share output names, later files will overwrite earlier ones: %s", strings.Join(dups, ", "))
	}

	// Outputs finished in this batch; a later failure on the same name must not remove them.
	written := make(map[string]bool, total)

	profileArgs := req.Profile.Args()
	log.Infof("Starting batch of %d files", total)

	for i, inputPath := range req.InputPaths {
		name := filepath.Base(inputPath)
		observe(Event{
			Type:     EventFileStarted,
			BatchID:  batchID,
			Position: i + 1,
			Total:    total,
			FileName: name,
		})

		job := FileJob{
			Index:      i,
			InputPath:  inputPath,
			OutputPath: OutputPath(req.OutputDir, inputPath),
			StartedAt:  time.Now(),
		}
		fileLog := log.WithField("file", inputPath)
		fileLog.Debugf("Compressing to %s", job.OutputPath)

		info, err := os.Stat(inputPath)
		if err != nil {
			return fail(job, err)
		}
		if !info.Mode().IsRegular() {
			return fail(job, fmt.Errorf("%s is not a regular file", inputPath))
		}
		job.OriginalSize = info.Size()

		args := ghostscript.BuildArgs(profileArgs, job.OutputPath, inputPath)
		if err := r.executor.Run(ctx, args); err != nil {
			if !written[job.OutputPath] {
				removePartialOutput(job.OutputPath, fileLog)
			}
			return fail(job, err)
		}

		outInfo, err := os.Stat(job.OutputPath)
		if err != nil {
			return fail(job, fmt.Errorf("ghostscript did not create output file: %w", err))
		}
		job.CompressedSize = outInfo.Size()
		job.Reduction = statistics.Reduction(job.OriginalSize, job.CompressedSize)
		job.Success = true
		job.FinishedAt = time.Now()

		written[job.OutputPath] = true
		tracker.Add(job.OriginalSize, job.CompressedSize)
		result.Jobs = append(result.Jobs, job)
		result.SuccessCount++
		result.TotalOriginalSize = tracker.TotalOriginalSize()
		result.TotalCompressedSize = tracker.TotalCompressedSize()

		fileLog.WithFields(logrus.Fields{
			"original_size":   job.OriginalSize,
			"compressed_size": job.CompressedSize,
		}).Infof("Compressed %s (%s)", name, statistics.FormatPercent(job.Reduction))

		completed := job
		observe(Event{
			Type:                EventFileCompleted,
			BatchID:             batchID,
			Position:            i + 1,
			Total:               total,
			FileName:            name,
			Fraction:            float64(i+1) / float64(total),
			Job:                 &completed,
			TotalOriginalSize:   result.TotalOriginalSize,
			TotalCompressedSize: result.TotalCompressedSize,
			Reduction:           statistics.Reduction(result.TotalOriginalSize, result.TotalCompressedSize),
		})
	}

	summary := tracker.Summary()
	result.Summary = &summary
	log.WithFields(logrus.Fields{
		"files":           summary.FilesProcessed,
		"original_size":   summary.TotalOriginalSize,
		"compressed_size": summary.TotalCompressedSize,
		"duration":        summary.Duration.String(),
	}).Info("Batch completed")

	observe(Event{
		Type:                EventBatchCompleted,
		BatchID:             batchID,
		Total:               total,
		Fraction:            1,
		TotalOriginalSize:   summary.TotalOriginalSize,
		TotalCompressedSize: summary.TotalCompressedSize,
		Reduction:           summary.Reduction,
		Summary:             &summary,
	})
	return result, nil
}

// OutputPath returns {outputDir}/{name}_compressed{ext} for inputPath.
func OutputPath(outputDir, inputPath string) string {
	name := filepath.Base(inputPath)
	ext := filepath.Ext(name)
	if ext == name {
		// dotfile such as ".pdf": no stem to split
		ext = ""
	}
	return filepath.Join(outputDir, strings.TrimSuffix(name, ext)+OutputSuffix+ext)
}

func duplicateOutputs(outputDir string, inputs []string) []string {
	seen := make(map[string]bool, len(inputs))
	var dups []string
	for _, in := range inputs {
		out := OutputPath(outputDir, in)
		if seen[out] {
			dups = append(dups, filepath.Base(out))
		}
		seen[out] = true
	}
	return dups
}

// removePartialOutput deletes whatever a failed invocation left behind so
// only files that compressed successfully remain in the output directory.
func removePartialOutput(path string, log *logrus.Entry) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Could not remove partial output %s: %v", path, err)
	}
}
