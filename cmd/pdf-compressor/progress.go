package main

import (
	"fmt"
	"io"

	"pdf-compressor-go/internal/compressor"
	"pdf-compressor-go/internal/statistics"
)

// progressPrinter renders batch events as terminal lines.
type progressPrinter struct {
	out   io.Writer
	quiet bool
}

func newProgressPrinter(out io.Writer, quiet bool) *progressPrinter {
	return &progressPrinter{out: out, quiet: quiet}
}

func (p *progressPrinter) observe(e compressor.Event) {
	switch e.Type {
	case compressor.EventFileStarted:
		if !p.quiet {
			fmt.Fprintf(p.out, "Processing: %s (%d/%d)\n", e.FileName, e.Position, e.Total)
		}
	case compressor.EventFileCompleted:
		if !p.quiet {
			fmt.Fprintf(p.out, "  %s -> %s (%s)  [%3.0f%%]\n",
				statistics.FormatBytes(e.Job.OriginalSize),
				statistics.FormatBytes(e.Job.CompressedSize),
				statistics.FormatPercent(e.Job.Reduction),
				e.Fraction*100)
		}
	case compressor.EventBatchCompleted:
		if !p.quiet {
			fmt.Fprintf(p.out, "\n%s\n", e.Summary)
		}
	case compressor.EventBatchFailed:
		fmt.Fprintf(p.out, "\nFailed on %s (%d/%d)\n", e.FileName, e.Position, e.Total)
	}
}
