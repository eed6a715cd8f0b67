package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ziadkadry99/aiqa/internal/theme"
)

// OutputFile is the page written for every image request. The name is fixed;
// the pipeline lock guarantees a single reader and writer.
const OutputFile = "output.html"

// Screenshotter captures an HTML file on disk. *Session implements it.
type Screenshotter interface {
	Screenshot(ctx context.Context, path string) ([]byte, error)
}

// ThemeSource reports the theme in effect. *theme.Clock implements it.
type ThemeSource interface {
	Current() theme.Theme
}

// Pipeline turns Markdown into a PNG, one request at a time.
type Pipeline struct {
	assembler *Assembler
	themes    ThemeSource
	shooter   Screenshotter
	dataDir   string

	mu sync.Mutex
}

// NewPipeline creates a Pipeline that writes its page under dataDir.
func NewPipeline(assembler *Assembler, themes ThemeSource, shooter Screenshotter, dataDir string) *Pipeline {
	return &Pipeline{
		assembler: assembler,
		themes:    themes,
		shooter:   shooter,
		dataDir:   dataDir,
	}
}

// OutputPath returns the absolute path of the page file.
func (p *Pipeline) OutputPath() (string, error) {
	dir, err := filepath.Abs(p.dataDir)
	if err != nil {
		return "", fmt.Errorf("resolving data dir: %w", err)
	}
	return filepath.Join(dir, OutputFile), nil
}

// Render assembles markdown with the current theme and screenshots it.
// Concurrent calls queue on the pipeline lock.
func (p *Pipeline) Render(ctx context.Context, markdown string) ([]byte, error) {
	page := p.assembler.Assemble(markdown, p.themes.Current())

	path, err := p.OutputPath()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", OutputFile, err)
	}

	return p.shooter.Screenshot(ctx, path)
}
