package render

import (
	"context"
	"errors"
	"fmt"
	"math"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeOptions configures LaunchChrome.
type ChromeOptions struct {
	// ExecPath overrides the Chrome binary lookup.
	ExecPath string
	// NoSandbox is needed when running as root inside containers.
	NoSandbox bool
}

// ChromeLauncher returns a Launcher that starts headless Chrome through
// chromedp with the given options.
func ChromeLauncher(opts ChromeOptions) Launcher {
	return func() (Browser, error) {
		return LaunchChrome(opts)
	}
}

// chromeBrowser is a headless Chrome process driven over the DevTools protocol.
type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
}

// LaunchChrome starts a headless Chrome process.
func LaunchChrome(opts ChromeOptions) (Browser, error) {
	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts, chromedp.Flag("allow-file-access-from-files", true))
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.NoSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	// The first Run starts the browser process.
	if err := chromedp.Run(ctx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	return &chromeBrowser{ctx: ctx, cancel: cancel, cancelAlloc: cancelAlloc}, nil
}

func (b *chromeBrowser) NewTab(ctx context.Context) (Tab, error) {
	if err := b.ctx.Err(); err != nil {
		return nil, fmt.Errorf("browser is gone: %w", err)
	}
	tabCtx, cancel := chromedp.NewContext(b.ctx)
	// Running with no actions creates the target.
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("creating target: %w", err)
	}
	return &chromeTab{ctx: tabCtx, cancel: cancel}, nil
}

func (b *chromeBrowser) Close() error {
	err := chromedp.Cancel(b.ctx)
	b.cancel()
	b.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

type chromeTab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on the tab while honoring the caller's ctx.
func (t *chromeTab) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(runCtx, actions...)
}

func (t *chromeTab) Navigate(ctx context.Context, url string) error {
	return t.run(ctx, chromedp.Navigate(url))
}

func (t *chromeTab) WaitFor(ctx context.Context, selector string) error {
	return t.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (t *chromeTab) MarginBox(ctx context.Context, selector string) (Rect, error) {
	var model *dom.BoxModel
	if err := t.run(ctx, chromedp.Dimensions(selector, &model, chromedp.ByQuery)); err != nil {
		return Rect{}, err
	}
	if model == nil {
		return Rect{}, fmt.Errorf("no box model for %s", selector)
	}
	return quadRect(model.Margin)
}

func (t *chromeTab) SetWindowBounds(ctx context.Context, left, top, width, height int64) error {
	return t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		windowID, _, err := cdpbrowser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return fmt.Errorf("getting window: %w", err)
		}
		return cdpbrowser.SetWindowBounds(windowID, &cdpbrowser.Bounds{
			Left:        left,
			Top:         top,
			Width:       width,
			Height:      height,
			WindowState: cdpbrowser.WindowStateNormal,
		}).Do(ctx)
	}))
}

func (t *chromeTab) CapturePNG(ctx context.Context, clip Rect) ([]byte, error) {
	var buf []byte
	err := t.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, err = page.CaptureScreenshot().
			WithFormat(page.CaptureScreenshotFormatPng).
			WithClip(&page.Viewport{
				X:      clip.X,
				Y:      clip.Y,
				Width:  clip.Width,
				Height: clip.Height,
				Scale:  1,
			}).
			WithFromSurface(true).
			WithCaptureBeyondViewport(true).
			Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

func (t *chromeTab) Close() error {
	err := chromedp.Cancel(t.ctx)
	t.cancel()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// quadRect converts a DevTools quad (four x,y corner pairs) to its bounding
// rectangle.
func quadRect(q dom.Quad) (Rect, error) {
	if len(q) != 8 {
		return Rect{}, fmt.Errorf("malformed quad with %d points", len(q))
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := 0; i < 8; i += 2 {
		minX = math.Min(minX, q[i])
		maxX = math.Max(maxX, q[i])
		minY = math.Min(minY, q[i+1])
		maxY = math.Max(maxY, q[i+1])
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, nil
}
