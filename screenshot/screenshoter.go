// Package screenshot sequences a capture run: reachability pre-flight,
// folder layout, optional metadata extraction and the per-device
// navigate/settle/dismiss/capture state machine.
package screenshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"multishot/device"
	"multishot/dismiss"
	"multishot/layout"
	"multishot/logger"
	"multishot/metadata"
	"multishot/settle"
)

const (
	// ScrollSettle is the pause after a smooth scroll, before the full-page
	// capture.
	ScrollSettle = 1 * time.Second
	// MetadataSettle is the fixed pause before reading page metadata.
	MetadataSettle = 2 * time.Second
)

// Page is one isolated browser session.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Screenshot(ctx context.Context, fullPage bool) ([]byte, error)
	Close() error
	dismiss.Target
	settle.Evaluator
	metadata.Source
}

// Driver opens sessions at a given viewport.
type Driver interface {
	Open(ctx context.Context, width, height int) (Page, error)
}

// DriverFunc adapts a function to Driver.
type DriverFunc func(ctx context.Context, width, height int) (Page, error)

// Open calls f.
func (f DriverFunc) Open(ctx context.Context, width, height int) (Page, error) {
	return f(ctx, width, height)
}

// Validator is the reachability pre-flight.
type Validator interface {
	Validate(ctx context.Context, url string) bool
}

// Dismisser closes overlays on a page.
type Dismisser interface {
	Dismiss(ctx context.Context, target dismiss.Target) int
}

// Scroller walks a page to trigger scroll-driven content.
type Scroller interface {
	Scroll(ctx context.Context, page settle.Evaluator) error
}

// Extractor reads page metadata.
type Extractor interface {
	Extract(ctx context.Context, page metadata.Source, url, basePath, timestamp string) (*metadata.PageMetadata, error)
}

// Screenshoter runs capture requests.
type Screenshoter struct {
	driver           Driver
	validator        Validator
	dismisser        Dismisser
	scroller         Scroller
	extractor        Extractor
	observer         Observer
	logger           logger.Logger
	wait             func(context.Context, time.Duration) error
	now              func() time.Time
	metadataViewport device.Profile
}

// Option configures a Screenshoter.
type Option func(*Screenshoter)

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(s *Screenshoter) { s.logger = log }
}

// WithValidator replaces the reachability pre-flight.
func WithValidator(v Validator) Option {
	return func(s *Screenshoter) { s.validator = v }
}

// WithDismisser replaces the pop-up dismissal engine.
func WithDismisser(d Dismisser) Option {
	return func(s *Screenshoter) { s.dismisser = d }
}

// WithScroller replaces the smooth scroller.
func WithScroller(sc Scroller) Option {
	return func(s *Screenshoter) { s.scroller = sc }
}

// WithExtractor replaces the metadata extractor.
func WithExtractor(e Extractor) Option {
	return func(s *Screenshoter) { s.extractor = e }
}

// WithObserver registers a progress observer.
func WithObserver(o Observer) Option {
	return func(s *Screenshoter) { s.observer = o }
}

// WithWait replaces the sleep used for fixed settle delays.
func WithWait(wait func(context.Context, time.Duration) error) Option {
	return func(s *Screenshoter) { s.wait = wait }
}

// WithClock overrides the time source for run timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Screenshoter) { s.now = now }
}

// WithMetadataViewport sets the viewport of the metadata session.
func WithMetadataViewport(p device.Profile) Option {
	return func(s *Screenshoter) { s.metadataViewport = p }
}

// NewScreenshoter creates a Screenshoter. Collaborators not supplied as
// options get their package defaults.
func NewScreenshoter(driver Driver, opts ...Option) *Screenshoter {
	s := &Screenshoter{
		driver:   driver,
		observer: nopObserver{},
		wait:     settle.Wait,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NewNop()
	}
	if s.dismisser == nil {
		s.dismisser = dismiss.New(s.logger)
	}
	if s.scroller == nil {
		s.scroller = settle.NewScroller(s.logger)
	}
	if s.extractor == nil {
		s.extractor = metadata.NewExtractor(s.logger)
	}
	if s.metadataViewport.Width <= 0 || s.metadataViewport.Height <= 0 {
		desktop, err := device.Default().Resolve("desktop")
		if err != nil {
			desktop = device.Profile{ID: "desktop", Width: 1920, Height: 1080}
		}
		s.metadataViewport = desktop
	}
	return s
}

// Run executes req. Request validation and reachability failures abort the
// run before anything is written; per-device failures are reported in the
// Summary and never abort sibling devices.
func (s *Screenshoter) Run(ctx context.Context, req Request) (*Summary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.validator != nil {
		s.logger.Info("Checking URL", logger.String("url", req.URL))
		if !s.validator.Validate(ctx, req.URL) {
			return nil, fmt.Errorf("%w: %s", ErrUnreachable, req.URL)
		}
	}

	if req.Timestamp == "" {
		req.Timestamp = layout.Timestamp(s.now())
	}
	if req.ClientName == "" {
		req.ClientName = layout.DeriveClientName(req.URL)
	}

	base, err := layout.EnsureDeviceFolders(req.ClientName, req.DeviceIDs(), req.OutputRoot)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Output folder ready",
		logger.String("path", base),
		logger.String("client", req.ClientName),
		logger.Strings("devices", req.DeviceIDs()))

	summary := &Summary{RunID: uuid.NewString(), BasePath: base}
	s.logger.Info("Capture run started",
		logger.String("run_id", summary.RunID),
		logger.String("url", req.URL),
		logger.Int("concurrency", req.Concurrency))
	if req.ExtractMetadata {
		summary.Metadata = s.extractMetadata(ctx, req, base)
	}
	summary.Results = s.captureDevices(ctx, req, base)
	return summary, nil
}

// extractMetadata runs in its own desktop-sized session before any device
// capture. Failures are logged and yield nil.
func (s *Screenshoter) extractMetadata(ctx context.Context, req Request, base string) *metadata.PageMetadata {
	log := s.logger.With(logger.String("stage", "metadata"))
	vp := s.metadataViewport

	page, err := s.driver.Open(ctx, vp.Width, vp.Height)
	if err != nil {
		log.Warn("Metadata session failed to start", logger.Error(err))
		return nil
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Debug("Metadata session close failed", logger.Error(err))
		}
	}()

	if err := page.Navigate(ctx, req.URL); err != nil {
		log.Warn("Metadata navigation failed", logger.Error(err))
		return nil
	}
	if err := s.wait(ctx, MetadataSettle); err != nil {
		return nil
	}
	if req.AutoDismiss {
		s.dismisser.Dismiss(ctx, page)
	}

	md, err := s.extractor.Extract(ctx, page, req.URL, base, req.Timestamp)
	if err != nil {
		log.Warn("Metadata extraction failed", logger.Error(err))
		return nil
	}
	metadata.Summarize(log, md)
	return md
}

// captureDevices fans the devices out over at most req.Concurrency workers.
// Results keep the request order.
func (s *Screenshoter) captureDevices(ctx context.Context, req Request, base string) []Result {
	total := len(req.Devices)
	results := make([]Result, total)

	concurrency := req.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, d := range req.Devices {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results[i] = Result{Device: d, Err: ctx.Err()}
			continue
		}
		if ctx.Err() != nil {
			<-sem
			results[i] = Result{Device: d, Err: ctx.Err()}
			continue
		}

		wg.Add(1)
		go func(i int, d device.Profile) {
			defer func() {
				<-sem
				wg.Done()
			}()
			s.observer.DeviceStarted(i, total, d)
			results[i] = s.CaptureDevice(ctx, req, base, d)
			s.observer.DeviceFinished(i, total, results[i])
		}(i, d)
	}

	wg.Wait()
	return results
}

// CaptureDevice drives one device through the capture sequence. The session
// is always closed, whatever state the sequence stopped in.
func (s *Screenshoter) CaptureDevice(ctx context.Context, req Request, base string, d device.Profile) (res Result) {
	res = Result{Device: d, State: StateInit}
	log := s.logger.With(logger.String("device", d.ID), logger.String("size", d.Size()))
	log.Info("Capturing device")

	page, err := s.driver.Open(ctx, d.Width, d.Height)
	if err != nil {
		res.Err = fmt.Errorf("open session for %s: %w", d.ID, err)
		res.Closed = true
		log.Error("Device capture failed", logger.String("state", res.State.String()), logger.Error(res.Err))
		return res
	}

	defer func() {
		if err := page.Close(); err != nil {
			log.Warn("Session close failed", logger.Error(err))
		}
		res.Closed = true
		if res.Err != nil {
			log.Error("Device capture failed", logger.String("state", res.State.String()), logger.Error(res.Err))
			res.ViewportPath, res.FullPagePath = "", ""
			return
		}
		log.Info("Device captured",
			logger.String("viewport", res.ViewportPath),
			logger.String("fullpage", res.FullPagePath))
	}()

	res.Err = s.sequence(ctx, req, base, d, page, &res, log)
	return res
}

func (s *Screenshoter) sequence(ctx context.Context, req Request, base string, d device.Profile, page Page, res *Result, log logger.Logger) error {
	if err := page.Navigate(ctx, req.URL); err != nil {
		return err
	}
	res.State = StateNavigated

	if err := s.wait(ctx, req.Wait); err != nil {
		return err
	}
	res.State = StateSettled

	if req.AutoDismiss {
		closed := s.dismisser.Dismiss(ctx, page)
		log.Debug("Dismissal finished", logger.Int("closed", closed))
		res.State = StateDismissed
	}

	path, err := s.capture(ctx, page, req, base, d, false)
	if err != nil {
		return err
	}
	res.ViewportPath = path
	res.State = StateViewportCaptured

	if req.SmoothScroll {
		if err := s.scroller.Scroll(ctx, page); err != nil {
			return fmt.Errorf("smooth scroll: %w", err)
		}
		if err := s.wait(ctx, ScrollSettle); err != nil {
			return err
		}
		res.State = StateScrollSettled
	}

	path, err = s.capture(ctx, page, req, base, d, true)
	if err != nil {
		return err
	}
	res.FullPagePath = path
	res.State = StateFullPageCaptured
	return nil
}

func (s *Screenshoter) capture(ctx context.Context, page Page, req Request, base string, d device.Profile, fullPage bool) (string, error) {
	buf, err := page.Screenshot(ctx, fullPage)
	if err != nil {
		return "", err
	}
	path := filepath.Join(base, d.ID, layout.ArtifactName(req.URL, d.ID, req.Timestamp, fullPage))
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
