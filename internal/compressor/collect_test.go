package compressor

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCollectInputs(t *testing.T) {
	dir := t.TempDir()
	for _, rel := range []string{"b.pdf", "a.PDF", "notes.txt", filepath.Join("sub", "c.pdf")} {
		p := filepath.Join(dir, rel)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	single := filepath.Join(dir, "notes.txt")

	tests := []struct {
		name      string
		paths     []string
		recursive bool
		want      []string
	}{
		{
			name:  "files keep selection order",
			paths: []string{filepath.Join(dir, "b.pdf"), filepath.Join(dir, "a.PDF")},
			want:  []string{filepath.Join(dir, "b.pdf"), filepath.Join(dir, "a.PDF")},
		},
		{
			name:  "explicit file is kept regardless of extension",
			paths: []string{single},
			want:  []string{single},
		},
		{
			name:  "directory lists its pdfs",
			paths: []string{dir},
			want:  []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf")},
		},
		{
			name:      "recursive directory",
			paths:     []string{dir},
			recursive: true,
			want:      []string{filepath.Join(dir, "a.PDF"), filepath.Join(dir, "b.pdf"), filepath.Join(dir, "sub", "c.pdf")},
		},
		{
			name:  "duplicates dropped",
			paths: []string{filepath.Join(dir, "b.pdf"), dir},
			want:  []string{filepath.Join(dir, "b.pdf"), filepath.Join(dir, "a.PDF")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CollectInputs(tt.paths, tt.recursive)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestCollectInputsMissing(t *testing.T) {
	_, err := CollectInputs([]string{filepath.Join(t.TempDir(), "missing.pdf")}, false)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected not-exist error, got %v", err)
	}
}
