package render

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"path/filepath"
	"sync/atomic"
	"time"
)

const (
	// finishSelector is appended by the page's boot script once the DOM is
	// ready. It is the only load signal the session trusts.
	finishSelector  = "div.finish"
	articleSelector = "article.markdown-body"

	// windowPadding keeps the window taller than the clip so headless window
	// chrome never shaves the bottom of the article.
	windowPadding = 200

	defaultWaitTimeout = 10 * time.Second
)

var errClosed = errors.New("browser session closed")

// Rect is an on-page rectangle in CSS pixels.
type Rect struct {
	X, Y, Width, Height float64
}

// Browser is a running headless browser process.
type Browser interface {
	NewTab(ctx context.Context) (Tab, error)
	Close() error
}

// Tab is a single page of a Browser.
type Tab interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string) error
	MarginBox(ctx context.Context, selector string) (Rect, error)
	SetWindowBounds(ctx context.Context, left, top, width, height int64) error
	CapturePNG(ctx context.Context, clip Rect) ([]byte, error)
	Close() error
}

// Launcher starts a new browser process.
type Launcher func() (Browser, error)

// Session owns one browser and replaces it when it stops accepting new tabs.
// A Session is not safe for concurrent use; Pipeline serializes calls.
type Session struct {
	launch      Launcher
	browser     Browser
	waitTimeout time.Duration
	restarts    atomic.Int64
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithWaitTimeout bounds the wait for the page's finish sentinel.
func WithWaitTimeout(d time.Duration) SessionOption {
	return func(s *Session) {
		if d > 0 {
			s.waitTimeout = d
		}
	}
}

// NewSession launches the initial browser.
func NewSession(launch Launcher, opts ...SessionOption) (*Session, error) {
	browser, err := launch()
	if err != nil {
		return nil, newError(BrowserCreate, err)
	}
	s := &Session{
		launch:      launch,
		browser:     browser,
		waitTimeout: defaultWaitTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Restarts returns how many times the browser has been replaced.
func (s *Session) Restarts() int64 {
	return s.restarts.Load()
}

// Screenshot opens path in a fresh tab and returns a PNG of the rendered
// article's margin box.
func (s *Session) Screenshot(ctx context.Context, path string) ([]byte, error) {
	tab, err := s.openTab(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tab.Close(); err != nil {
			log.Printf("render: closing tab: %v", err)
		}
	}()

	if !filepath.IsAbs(path) {
		return nil, newError(InvalidFilePath, fmt.Errorf("%q is not absolute", path))
	}
	if err := tab.Navigate(ctx, "file://"+filepath.ToSlash(path)); err != nil {
		return nil, newError(InvalidFilePath, err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, s.waitTimeout)
	err = tab.WaitFor(waitCtx, finishSelector)
	cancel()
	if err != nil {
		return nil, newError(TabOperate, fmt.Errorf("waiting for %s: %w", finishSelector, err))
	}

	box, err := tab.MarginBox(ctx, articleSelector)
	if err != nil {
		return nil, newError(TabOperate, fmt.Errorf("measuring %s: %w", articleSelector, err))
	}

	width := int64(math.Ceil(box.Width))
	height := int64(math.Ceil(box.Height)) + windowPadding
	if err := tab.SetWindowBounds(ctx, 0, 0, width, height); err != nil {
		return nil, newError(TabOperate, fmt.Errorf("resizing window: %w", err))
	}

	png, err := tab.CapturePNG(ctx, box)
	if err != nil {
		return nil, newError(ScreenshotCreate, err)
	}
	return png, nil
}

// openTab opens a tab, replacing the browser and retrying once if the
// first attempt fails.
func (s *Session) openTab(ctx context.Context) (Tab, error) {
	if s.browser == nil {
		return nil, newError(TabCreate, errClosed)
	}
	tab, err := s.browser.NewTab(ctx)
	if err == nil {
		return tab, nil
	}
	log.Printf("render: opening tab failed, restarting browser: %v", err)

	if err := s.restart(); err != nil {
		return nil, newError(TabCreate, err)
	}
	tab, err = s.browser.NewTab(ctx)
	if err != nil {
		return nil, newError(TabCreate, err)
	}
	return tab, nil
}

func (s *Session) restart() error {
	if err := s.browser.Close(); err != nil {
		log.Printf("render: closing old browser: %v", err)
	}
	browser, err := s.launch()
	if err != nil {
		return newError(BrowserCreate, err)
	}
	s.browser = browser
	s.restarts.Add(1)
	return nil
}

// Close shuts the browser down.
func (s *Session) Close() error {
	if s.browser == nil {
		return nil
	}
	err := s.browser.Close()
	s.browser = nil
	return err
}
