package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"multishot/logger"
)

const clickPollInterval = 100 * time.Millisecond

// ErrNotActionable is returned by Click when the element never became
// visible within the timeout.
var ErrNotActionable = errors.New("element not visible")

// Page is one isolated browser session at a fixed viewport.
type Page struct {
	ctx     context.Context
	cancels []context.CancelFunc
	cfg     Config
	width   int
	height  int
	logger  logger.Logger

	closeOnce sync.Once
}

// Navigate loads rawURL and waits for the network to become idle. A page
// that never goes idle is not an error: the wait is abandoned after the
// configured idle timeout.
func (p *Page) Navigate(ctx context.Context, rawURL string) error {
	if len(p.cfg.Cookies) > 0 {
		if err := p.run(ctx, p.cfg.NavigationTimeout, p.seedCookies(rawURL)); err != nil {
			return fmt.Errorf("seed cookies: %w", err)
		}
	}

	idle := make(chan struct{}, 1)
	tracker := &idleTracker{}
	listenCtx, stopListening := context.WithCancel(p.ctx)
	defer stopListening()
	chromedp.ListenTarget(listenCtx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || !tracker.observe(e) {
			return
		}
		select {
		case idle <- struct{}{}:
		default:
		}
	})

	if err := p.run(ctx, p.cfg.NavigationTimeout, chromedp.Navigate(rawURL)); err != nil {
		return fmt.Errorf("navigate to %s: %w", rawURL, err)
	}

	timer := time.NewTimer(p.cfg.NetworkIdleTimeout)
	defer timer.Stop()
	select {
	case <-idle:
		p.logger.Debug("Network idle", logger.String("url", rawURL))
	case <-timer.C:
		p.logger.Debug("Network idle wait timed out, continuing",
			logger.String("url", rawURL),
			logger.Duration("timeout", p.cfg.NetworkIdleTimeout))
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (p *Page) seedCookies(rawURL string) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		expires := cdp.TimeSinceEpoch(time.Now().Add(cookieLifetime))
		host := ""
		if u, err := url.Parse(rawURL); err == nil {
			host = u.Hostname()
		}
		for _, c := range p.cfg.Cookies {
			domain := c.Domain
			if domain == "" {
				domain = host
			}
			path := c.Path
			if path == "" {
				path = "/"
			}
			err := network.SetCookie(c.Name, c.Value).
				WithExpires(&expires).
				WithDomain(domain).
				WithPath(path).
				WithHTTPOnly(c.HTTPOnly).
				WithSecure(c.Secure).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

// idleTracker follows the lifecycle of the frame that starts loading first,
// which is the main frame, and ignores events from other frames.
type idleTracker struct {
	mu    sync.Mutex
	frame cdp.FrameID
}

// observe reports whether e is the main frame reaching networkIdle.
func (t *idleTracker) observe(e *page.EventLifecycleEvent) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch e.Name {
	case "init":
		if t.frame == "" {
			t.frame = e.FrameID
		}
	case "networkIdle":
		return t.frame != "" && e.FrameID == t.frame
	}
	return false
}

// Evaluate runs script in the page and decodes the result into out, which
// may be nil.
func (p *Page) Evaluate(ctx context.Context, script string, out any) error {
	return p.run(ctx, 0, chromedp.Evaluate(script, out))
}

// HTML returns the serialized rendered DOM.
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, 0, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read document html: %w", err)
	}
	return html, nil
}

// Count returns how many elements match css and contain text.
func (p *Page) Count(ctx context.Context, css, text string) (int, error) {
	var n int
	if err := p.run(ctx, 0, chromedp.Evaluate(locatorScript(css, text, 0, opCount), &n)); err != nil {
		return 0, err
	}
	return n, nil
}

// Visible reports whether the index-th match is rendered with a non-empty
// box.
func (p *Page) Visible(ctx context.Context, css, text string, index int, timeout time.Duration) (bool, error) {
	var visible bool
	if err := p.run(ctx, timeout, chromedp.Evaluate(locatorScript(css, text, index, opVisible), &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

// Click clicks the index-th match, polling until it is visible or timeout
// elapses.
func (p *Page) Click(ctx context.Context, css, text string, index int, timeout time.Duration) error {
	script := locatorScript(css, text, index, opClick)
	return p.run(ctx, timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		ticker := time.NewTicker(clickPollInterval)
		defer ticker.Stop()
		for {
			var clicked bool
			if err := chromedp.Evaluate(script, &clicked).Do(ctx); err != nil {
				return err
			}
			if clicked {
				return nil
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("%w: %s", ErrNotActionable, css)
			case <-ticker.C:
			}
		}
	}))
}

// Screenshot returns a PNG of the viewport, or of the whole document when
// fullPage is set.
func (p *Page) Screenshot(ctx context.Context, fullPage bool) ([]byte, error) {
	var buf []byte
	var action chromedp.Action = chromedp.CaptureScreenshot(&buf)
	if fullPage {
		action = chromedp.FullScreenshot(&buf, 100)
	}
	if err := p.run(ctx, p.cfg.NavigationTimeout, action); err != nil {
		return nil, fmt.Errorf("capture screenshot (full=%t): %w", fullPage, err)
	}
	return buf, nil
}

// Close tears down the browser context and its allocator. Safe to call more
// than once.
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		for _, cancel := range p.cancels {
			cancel()
		}
	})
	return nil
}

// run executes actions on the session, bounded by timeout (when positive)
// and by the caller's ctx.
func (p *Page) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	if err := chromedp.Run(runCtx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}
