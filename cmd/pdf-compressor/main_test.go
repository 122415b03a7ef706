package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/statistics"
)

func TestResolveOutputDir(t *testing.T) {
	inputs := []string{filepath.Join("docs", "a.pdf"), filepath.Join("other", "b.pdf")}

	tests := []struct {
		name       string
		flag       string
		configured string
		want       string
	}{
		{"flag wins", "out", "cfg", "out"},
		{"configured", "", "cfg", "cfg"},
		{"first input directory", "", "", "docs"},
		{"blank flag ignored", "  ", "", "docs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveOutputDir(tt.flag, tt.configured, inputs); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, false)

	p.observe(compressor.Event{Type: compressor.EventFileStarted, FileName: "a.pdf", Position: 1, Total: 2})
	p.observe(compressor.Event{
		Type:     compressor.EventFileCompleted,
		Position: 1,
		Total:    2,
		Fraction: 0.5,
		Job:      &compressor.FileJob{OriginalSize: 1000000, CompressedSize: 500000, Reduction: 50},
	})
	summary := statistics.Summary{FilesProcessed: 2, TotalFiles: 2, TotalOriginalSize: 3000000, TotalCompressedSize: 1500000, SavedSize: 1500000, Reduction: 50}
	p.observe(compressor.Event{Type: compressor.EventBatchCompleted, Summary: &summary})

	out := buf.String()
	for _, want := range []string{
		"Processing: a.pdf (1/2)",
		"976.56 KB -> 488.28 KB (50.0%)",
		"Processed 2 of 2 files.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestProgressPrinterQuiet(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressPrinter(&buf, true)

	p.observe(compressor.Event{Type: compressor.EventFileStarted, FileName: "a.pdf", Position: 1, Total: 1})
	if buf.Len() != 0 {
		t.Errorf("Expected no output in quiet mode, got %q", buf.String())
	}

	p.observe(compressor.Event{Type: compressor.EventBatchFailed, FileName: "a.pdf", Position: 1, Total: 1})
	if !strings.Contains(buf.String(), "Failed on a.pdf (1/1)") {
		t.Errorf("Expected failure line, got %q", buf.String())
	}
}
