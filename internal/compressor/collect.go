package compressor

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// PDFExtension is the extension picked up when a directory is selected.
const PDFExtension = ".pdf"

// CollectInputs expands a selection into an ordered list of input files.
// Files are kept as given, in order. Directories contribute their PDF files
// in lexical order, descending into subdirectories only when recursive is
// set. Repeated paths are dropped.
func CollectInputs(paths []string, recursive bool) ([]string, error) {
	var files []string
	seen := make(map[string]struct{})

	add := func(path string) {
		key := filepath.Clean(path)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		files = append(files, path)
	}

	for _, in := range paths {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in, err)
		}
		if !info.IsDir() {
			add(in)
			continue
		}

		err = filepath.WalkDir(in, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != in && !recursive {
					return filepath.SkipDir
				}
				return nil
			}
			if IsPDF(d.Name()) && d.Type().IsRegular() {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", in, err)
		}
	}

	return files, nil
}

// IsPDF reports whether name has a .pdf extension, ignoring case.
func IsPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), PDFExtension)
}
