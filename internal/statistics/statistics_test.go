package statistics

import (
	"strings"
	"testing"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		input    int64
		expected string
	}{
		{0, "0 B"},
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1000000, "976.56 KB"},
		{1048576, "1.0 MB"},
		{3000000, "2.86 MB"},
		{1073741824, "1.0 GB"},
		{5 * 1099511627776, "5120.0 GB"},
		{-2048, "-2.0 KB"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := FormatBytes(tt.input); got != tt.expected {
				t.Errorf("FormatBytes(%d): expected %q, got %q", tt.input, tt.expected, got)
			}
		})
	}
}

func TestReduction(t *testing.T) {
	tests := []struct {
		name       string
		original   int64
		compressed int64
		expected   float64
	}{
		{"zero original", 0, 0, 0},
		{"half", 1000, 500, 50},
		{"unchanged", 1000, 1000, 0},
		{"grew", 1000, 1250, -25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Reduction(tt.original, tt.compressed); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestTrackerSummary(t *testing.T) {
	tr := NewTracker("batch-1", 3)
	tr.Add(1000000, 400000)
	tr.Add(2000000, 600000)

	s := tr.Summary()
	if s.FilesProcessed != 2 || s.TotalFiles != 3 {
		t.Errorf("Expected 2 of 3 files, got %d of %d", s.FilesProcessed, s.TotalFiles)
	}
	if s.TotalOriginalSize != 3000000 || s.TotalCompressedSize != 1000000 {
		t.Errorf("Unexpected totals: %d / %d", s.TotalOriginalSize, s.TotalCompressedSize)
	}
	if s.SavedSize != 2000000 {
		t.Errorf("Expected 2000000 bytes saved, got %d", s.SavedSize)
	}
	want := float64(3000000-1000000) / float64(3000000) * 100
	if s.Reduction != want {
		t.Errorf("Expected reduction %v, got %v", want, s.Reduction)
	}
	if s.BatchID != "batch-1" {
		t.Errorf("Expected batch id to be carried, got %q", s.BatchID)
	}
}

func TestSummaryString(t *testing.T) {
	s := Summary{
		FilesProcessed:      2,
		TotalFiles:          2,
		TotalOriginalSize:   2048,
		TotalCompressedSize: 1024,
		SavedSize:           1024,
		Reduction:           50,
	}
	out := s.String()
	for _, want := range []string{"Processed 2 of 2 files", "2.0 KB", "1.0 KB (50.0%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out)
		}
	}
}

func TestSessionRecordBatch(t *testing.T) {
	s := NewSession()
	s.RecordBatch(Summary{FilesProcessed: 2, SavedSize: 100}, false)
	s.RecordBatch(Summary{FilesProcessed: 1, SavedSize: 50}, true)

	snap := s.Snapshot()
	if snap["batches"] != 2 || snap["failures"] != 1 {
		t.Errorf("Unexpected batch counters: %v", snap)
	}
	if snap["files_processed"] != int64(3) || snap["bytes_saved"] != int64(150) {
		t.Errorf("Unexpected totals: %v", snap)
	}
}
