package render

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ziadkadry99/aiqa/internal/theme"
)

type fixedTheme theme.Theme

func (f fixedTheme) Current() theme.Theme { return theme.Theme(f) }

// recordingShooter reads the page at path and tracks overlapping calls.
type recordingShooter struct {
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	calls    atomic.Int32
	delay    time.Duration
	err      error

	mu    sync.Mutex
	pages []string
	paths []string
}

func (r *recordingShooter) Screenshot(ctx context.Context, path string) ([]byte, error) {
	n := r.inFlight.Add(1)
	defer r.inFlight.Add(-1)
	for {
		m := r.maxSeen.Load()
		if n <= m || r.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	r.calls.Add(1)

	page, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	time.Sleep(r.delay)

	r.mu.Lock()
	r.pages = append(r.pages, string(page))
	r.paths = append(r.paths, path)
	r.mu.Unlock()

	if r.err != nil {
		return nil, r.err
	}
	return []byte("png:" + string(page[len(page)-10:])), nil
}

func TestRenderWritesPageAndScreenshots(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	shooter := &recordingShooter{}
	p := NewPipeline(NewAssembler(), fixedTheme(theme.Light), shooter, dir)

	png, err := p.Render(context.Background(), "**hello**")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("expected png bytes")
	}

	written, err := os.ReadFile(filepath.Join(dir, OutputFile))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(written), "<strong>hello</strong>") {
		t.Error("output.html missing rendered markdown")
	}
	if !strings.Contains(string(written), markdownLightCSS) {
		t.Error("output.html missing light markdown stylesheet")
	}
	if !filepath.IsAbs(shooter.paths[0]) {
		t.Errorf("screenshot path %q is not absolute", shooter.paths[0])
	}
}

func TestRenderUsesCurrentTheme(t *testing.T) {
	dir := t.TempDir()
	clock := theme.New(time.Date(2024, 1, 1, 20, 0, 0, 0, time.Local))
	shooter := &recordingShooter{}
	p := NewPipeline(NewAssembler(), clock, shooter, dir)

	if _, err := p.Render(context.Background(), "dark"); err != nil {
		t.Fatal(err)
	}
	clock.Flip()
	if _, err := p.Render(context.Background(), "light"); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(shooter.pages[0], markdownDarkCSS) {
		t.Error("first render should use the dark stylesheet")
	}
	if !strings.Contains(shooter.pages[1], markdownLightCSS) {
		t.Error("second render should use the light stylesheet after the flip")
	}
}

func TestRenderOverwritesPreviousPage(t *testing.T) {
	dir := t.TempDir()
	p := NewPipeline(NewAssembler(), fixedTheme(theme.Light), &recordingShooter{}, dir)
	if _, err := p.Render(context.Background(), "first answer"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Render(context.Background(), "second answer"); err != nil {
		t.Fatal(err)
	}
	written, err := os.ReadFile(filepath.Join(dir, OutputFile))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(written), "first answer") || !strings.Contains(string(written), "second answer") {
		t.Error("output.html was not overwritten")
	}
}

func TestRenderSingleFlight(t *testing.T) {
	dir := t.TempDir()
	shooter := &recordingShooter{delay: 5 * time.Millisecond}
	p := NewPipeline(NewAssembler(), fixedTheme(theme.Dark), shooter, dir)

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := p.Render(context.Background(), fmt.Sprintf("answer-%d", i)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("Render: %v", err)
	}

	if got := shooter.maxSeen.Load(); got != 1 {
		t.Errorf("screenshots overlapped: max in flight %d", got)
	}
	if got := shooter.calls.Load(); got != n {
		t.Errorf("expected %d screenshots, got %d", n, got)
	}
	// Every screenshot saw exactly one complete page.
	for _, page := range shooter.pages {
		if strings.Count(page, "answer-") != 1 {
			t.Errorf("page did not contain exactly one answer")
		}
	}
}

func TestRenderPropagatesScreenshotError(t *testing.T) {
	want := newError(TabCreate, errors.New("target crashed"))
	p := NewPipeline(NewAssembler(), fixedTheme(theme.Light), &recordingShooter{err: want}, t.TempDir())
	_, err := p.Render(context.Background(), "x")
	if !IsKind(err, TabCreate) {
		t.Fatalf("expected TabCreate, got %v", err)
	}
}

func TestRenderWithSessionRestart(t *testing.T) {
	l := newFakeLauncher()
	s, err := NewSession(l.launch)
	if err != nil {
		t.Fatal(err)
	}
	before := s.browser
	l.tabFailures = 1

	p := NewPipeline(NewAssembler(), fixedTheme(theme.Light), s, t.TempDir())
	if _, err := p.Render(context.Background(), "**hello**"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if s.browser == before {
		t.Error("expected a new browser instance after restart")
	}
	if !strings.HasPrefix(l.tab.url, "file://") || !strings.HasSuffix(l.tab.url, "/"+OutputFile) {
		t.Errorf("unexpected navigation url %q", l.tab.url)
	}
}
