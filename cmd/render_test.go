package cmd

import (
	"path/filepath"
	"testing"
)

func TestOutputPath(t *testing.T) {
	src := filepath.Join("docs", "guide", "intro.md")
	tests := []struct {
		name, output, outDir, want string
	}{
		{"next to source", "", "", filepath.Join("docs", "guide", "intro.png")},
		{"out dir", "", "shots", filepath.Join("shots", "intro.png")},
		{"explicit output", "answer.png", "shots", "answer.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := outputPath(src, tt.output, tt.outDir); got != tt.want {
				t.Errorf("outputPath = %q, want %q", got, tt.want)
			}
		})
	}
}
