// Package browser drives headless Chrome through chromedp. Every Page owns
// its own allocator and browser context so device sessions never share
// cookies, storage or cache.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"multishot/logger"
)

const (
	defaultNavigationTimeout  = 60 * time.Second
	defaultNetworkIdleTimeout = 30 * time.Second
	cookieLifetime            = 180 * 24 * time.Hour
)

// Cookie is pre-seeded into every session before navigation.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	HTTPOnly bool
	Secure   bool
}

// Config controls how sessions are launched.
type Config struct {
	// ExecPath overrides Chrome discovery.
	ExecPath string
	// RemoteURL connects to an already running browser instead of launching one.
	RemoteURL          string
	Headless           bool
	NavigationTimeout  time.Duration
	NetworkIdleTimeout time.Duration
	UserAgent          string
	Cookies            []Cookie
}

// Driver opens isolated browser sessions.
type Driver struct {
	cfg      Config
	execPath string
	logger   logger.Logger
}

// New creates a Driver. When no Chrome executable is found locally the
// driver falls back to chromedp's own lookup; the failure then surfaces from
// Open as ErrBrowserUnavailable.
func New(cfg Config, log logger.Logger) *Driver {
	if log == nil {
		log = logger.NewNop()
	}
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = defaultNavigationTimeout
	}
	if cfg.NetworkIdleTimeout <= 0 {
		cfg.NetworkIdleTimeout = defaultNetworkIdleTimeout
	}

	d := &Driver{cfg: cfg, logger: log}
	if cfg.RemoteURL != "" {
		log.Debug("Using remote browser", logger.String("remote_url", cfg.RemoteURL))
		return d
	}

	execPath, err := FindChrome(cfg.ExecPath)
	if err != nil {
		log.Warn("Chrome executable not found, using chromedp defaults", logger.Error(err))
		return d
	}
	log.Debug("Using local Chrome executable", logger.String("exec_path", execPath))
	d.execPath = execPath
	return d
}

// Open starts a fresh session sized to width x height. The returned Page must
// be closed by the caller.
func (d *Driver) Open(ctx context.Context, width, height int) (*Page, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("viewport dimensions must be greater than zero, got %dx%d", width, height)
	}

	var (
		allocCtx    context.Context
		cancelAlloc context.CancelFunc
	)
	if d.cfg.RemoteURL != "" {
		allocCtx, cancelAlloc = chromedp.NewRemoteAllocator(ctx, d.cfg.RemoteURL)
	} else {
		allocCtx, cancelAlloc = chromedp.NewExecAllocator(ctx, d.allocatorOptions(width, height)...)
	}

	logf := func(format string, args ...any) {
		d.logger.Debug(fmt.Sprintf(format, args...), logger.String("component", "chromedp"))
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, d.contextOptions(logf)...)

	setup := []chromedp.Action{
		chromedp.EmulateViewport(int64(width), int64(height)),
		network.Enable(),
		page.SetLifecycleEventsEnabled(true),
	}
	if d.cfg.UserAgent != "" {
		setup = append(setup, emulation.SetUserAgentOverride(d.cfg.UserAgent))
	}
	if err := chromedp.Run(browserCtx, setup...); err != nil {
		cancelBrowser()
		cancelAlloc()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: start session: %v (%s)", ErrBrowserUnavailable, err, InstallHint)
	}

	return &Page{
		ctx:     browserCtx,
		cancels: []context.CancelFunc{cancelBrowser, cancelAlloc},
		cfg:     d.cfg,
		width:   width,
		height:  height,
		logger:  d.logger.With(logger.Int("width", width), logger.Int("height", height)),
	}, nil
}

// contextOptions isolates every remote session in its own browser context,
// disposed when the session is cancelled. Local sessions already own a
// browser process.
func (d *Driver) contextOptions(logf func(string, ...any)) []chromedp.ContextOption {
	opts := []chromedp.ContextOption{
		chromedp.WithLogf(logf),
		chromedp.WithErrorf(logf),
	}
	if d.cfg.RemoteURL != "" {
		opts = append(opts, chromedp.WithNewBrowserContext())
	}
	return opts
}

func (d *Driver) allocatorOptions(width, height int) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.WindowSize(width, height),
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
	)
	if !d.cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if d.execPath != "" {
		opts = append(opts, chromedp.ExecPath(d.execPath))
	}
	if d.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(d.cfg.UserAgent))
	}
	return opts
}
