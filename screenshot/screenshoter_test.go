package screenshot_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"multishot/device"
	"multishot/dismiss"
	"multishot/metadata"
	"multishot/screenshot"
	"multishot/settle"
)

const testURL = "https://www.example.com/pricing"

type fakePage struct {
	width, height int
	navigateErr   error
	shotErr       map[bool]error

	mu     sync.Mutex
	calls  []string
	closed bool
}

func (p *fakePage) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	p.record("navigate " + url)
	return p.navigateErr
}

func (p *fakePage) Screenshot(_ context.Context, fullPage bool) ([]byte, error) {
	if fullPage {
		p.record("screenshot full")
	} else {
		p.record("screenshot viewport")
	}
	if err := p.shotErr[fullPage]; err != nil {
		return nil, err
	}
	if fullPage {
		return []byte("full"), nil
	}
	return []byte("viewport"), nil
}

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePage) Count(context.Context, string, string) (int, error) { return 0, nil }

func (p *fakePage) Visible(context.Context, string, string, int, time.Duration) (bool, error) {
	return false, nil
}

func (p *fakePage) Click(context.Context, string, string, int, time.Duration) error { return nil }

func (p *fakePage) Evaluate(context.Context, string, any) error { return nil }

func (p *fakePage) HTML(context.Context) (string, error) { return "<html></html>", nil }

type fakeDriver struct {
	mu      sync.Mutex
	pages   []*fakePage
	openErr error
	// configure lets a test adjust the page opened for a given viewport.
	configure func(p *fakePage)
}

func (d *fakeDriver) Open(_ context.Context, width, height int) (screenshot.Page, error) {
	if d.openErr != nil {
		return nil, d.openErr
	}
	p := &fakePage{width: width, height: height}
	if d.configure != nil {
		d.configure(p)
	}
	d.mu.Lock()
	d.pages = append(d.pages, p)
	d.mu.Unlock()
	return p, nil
}

type staticValidator bool

func (v staticValidator) Validate(context.Context, string) bool { return bool(v) }

type countingDismisser struct {
	mu    sync.Mutex
	calls int
}

func (d *countingDismisser) Dismiss(context.Context, dismiss.Target) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	return 1
}

type countingScroller struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (s *countingScroller) Scroll(context.Context, settle.Evaluator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.err
}

type fakeExtractor struct {
	calls []string
}

func (e *fakeExtractor) Extract(_ context.Context, _ metadata.Source, url, basePath, timestamp string) (*metadata.PageMetadata, error) {
	e.calls = append(e.calls, url+"|"+basePath+"|"+timestamp)
	return &metadata.PageMetadata{Fields: map[string]string{"title": "Pricing"}, Timestamp: timestamp}, nil
}

type waits struct {
	mu  sync.Mutex
	got []time.Duration
}

func (w *waits) wait(ctx context.Context, d time.Duration) error {
	w.mu.Lock()
	w.got = append(w.got, d)
	w.mu.Unlock()
	return ctx.Err()
}

func profiles(t *testing.T, ids ...string) []device.Profile {
	t.Helper()
	out, err := device.Default().ResolveAll(ids)
	require.NoError(t, err)
	return out
}

func newRequest(t *testing.T, ids ...string) screenshot.Request {
	return screenshot.Request{
		URL:        testURL,
		Devices:    profiles(t, ids...),
		OutputRoot: t.TempDir(),
		Wait:       3 * time.Second,
		Timestamp:  "20240101_000000",
	}
}

func TestRun_ResultPerDeviceInOrder(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	w := &waits{}
	s := screenshot.NewScreenshoter(driver, screenshot.WithValidator(staticValidator(true)), screenshot.WithWait(w.wait))
	req := newRequest(t, "mobile", "tablet", "desktop")

	summary, err := s.Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(req.OutputRoot, "example.com"), summary.BasePath)
	assert.Len(t, summary.RunID, 36)
	require.Len(t, summary.Results, 3)
	for i, id := range []string{"mobile", "tablet", "desktop"} {
		r := summary.Results[i]
		assert.Equal(t, id, r.Device.ID)
		require.NoError(t, r.Err)
		assert.True(t, r.OK())
		assert.True(t, r.Closed)
		assert.Equal(t, screenshot.StateFullPageCaptured, r.State)

		assert.Equal(t, filepath.Join(summary.BasePath, id, "example.com_pricing-"+id+"-20240101_000000.png"), r.ViewportPath)
		assert.Equal(t, filepath.Join(summary.BasePath, id, "example.com_pricing-"+id+"-fullpage-20240101_000000.png"), r.FullPagePath)
		data, err := os.ReadFile(r.FullPagePath)
		require.NoError(t, err)
		assert.Equal(t, "full", string(data))
	}

	require.Len(t, driver.pages, 3)
	assert.Equal(t, 390, driver.pages[0].width)
	assert.Equal(t, 844, driver.pages[0].height)
	for _, p := range driver.pages {
		assert.True(t, p.closed)
		assert.Equal(t, []string{"navigate " + testURL, "screenshot viewport", "screenshot full"}, p.calls)
	}
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second, 3 * time.Second}, w.got)
	assert.Zero(t, summary.Failed())
}

func TestRun_NavigationFailureIsIsolated(t *testing.T) {
	t.Parallel()

	opened := 0
	driver := &fakeDriver{configure: func(p *fakePage) {
		opened++
		if opened == 1 {
			p.navigateErr = errors.New("net::ERR_CONNECTION_RESET")
		}
	}}
	s := screenshot.NewScreenshoter(driver, screenshot.WithWait((&waits{}).wait))
	req := newRequest(t, "mobile", "laptop")

	summary, err := s.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, summary.Results, 2)

	failed := summary.Results[0]
	require.Error(t, failed.Err)
	assert.Equal(t, screenshot.StateInit, failed.State)
	assert.True(t, failed.Closed)
	assert.Empty(t, failed.ViewportPath)
	assert.Empty(t, failed.FullPagePath)
	assert.True(t, driver.pages[0].closed)

	ok := summary.Results[1]
	require.NoError(t, ok.Err)
	assert.FileExists(t, ok.ViewportPath)
	assert.FileExists(t, ok.FullPagePath)
	assert.Equal(t, 1, summary.Failed())
}

func TestRun_FullPageFailureReportsNoArtifacts(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{configure: func(p *fakePage) {
		p.shotErr = map[bool]error{true: errors.New("capture failed")}
	}}
	s := screenshot.NewScreenshoter(driver, screenshot.WithWait((&waits{}).wait))

	summary, err := s.Run(context.Background(), newRequest(t, "desktop"))
	require.NoError(t, err)

	r := summary.Results[0]
	require.Error(t, r.Err)
	assert.Equal(t, screenshot.StateViewportCaptured, r.State)
	assert.Empty(t, r.ViewportPath)
	assert.Empty(t, r.FullPagePath)
	assert.False(t, r.OK())
	assert.True(t, r.Closed)
}

func TestRun_OpenFailure(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{openErr: errors.New("chrome not found")}
	s := screenshot.NewScreenshoter(driver)

	summary, err := s.Run(context.Background(), newRequest(t, "mobile", "tablet"))
	require.NoError(t, err)
	for _, r := range summary.Results {
		require.Error(t, r.Err)
		assert.Contains(t, r.Err.Error(), "chrome not found")
		assert.True(t, r.Closed)
	}
	assert.Equal(t, 2, summary.Failed())
}

func TestRun_UnreachableWritesNothing(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	s := screenshot.NewScreenshoter(driver, screenshot.WithValidator(staticValidator(false)))
	req := newRequest(t, "mobile")

	_, err := s.Run(context.Background(), req)
	require.ErrorIs(t, err, screenshot.ErrUnreachable)

	entries, err := os.ReadDir(req.OutputRoot)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Empty(t, driver.pages)
}

func TestRun_InvalidRequest(t *testing.T) {
	t.Parallel()

	s := screenshot.NewScreenshoter(&fakeDriver{})
	req := newRequest(t, "mobile")
	req.URL = "ftp://example.com"

	_, err := s.Run(context.Background(), req)
	require.ErrorIs(t, err, screenshot.ErrInvalidRequest)
}

func TestRun_OptionalSteps(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	dis := &countingDismisser{}
	scr := &countingScroller{}
	w := &waits{}
	s := screenshot.NewScreenshoter(driver,
		screenshot.WithDismisser(dis),
		screenshot.WithScroller(scr),
		screenshot.WithWait(w.wait))

	req := newRequest(t, "tablet")
	req.AutoDismiss = true
	req.SmoothScroll = true

	summary, err := s.Run(context.Background(), req)
	require.NoError(t, err)
	require.NoError(t, summary.Results[0].Err)

	assert.Equal(t, 1, dis.calls)
	assert.Equal(t, 1, scr.calls)
	assert.Equal(t, []time.Duration{3 * time.Second, screenshot.ScrollSettle}, w.got)
}

func TestRun_ScrollFailureStopsBeforeFullPage(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	s := screenshot.NewScreenshoter(driver,
		screenshot.WithScroller(&countingScroller{err: errors.New("detached")}),
		screenshot.WithWait((&waits{}).wait))

	req := newRequest(t, "mobile")
	req.SmoothScroll = true

	summary, err := s.Run(context.Background(), req)
	require.NoError(t, err)

	r := summary.Results[0]
	require.Error(t, r.Err)
	assert.Equal(t, screenshot.StateViewportCaptured, r.State)
	assert.NotContains(t, driver.pages[0].calls, "screenshot full")
}

func TestRun_MetadataBeforeDevices(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	ext := &fakeExtractor{}
	w := &waits{}
	s := screenshot.NewScreenshoter(driver, screenshot.WithExtractor(ext), screenshot.WithWait(w.wait))

	req := newRequest(t, "mobile")
	req.ExtractMetadata = true
	req.Wait = 0

	summary, err := s.Run(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, summary.Metadata)
	assert.Equal(t, "Pricing", summary.Metadata.Get("title"))
	assert.Equal(t, []string{testURL + "|" + summary.BasePath + "|20240101_000000"}, ext.calls)

	require.Len(t, driver.pages, 2)
	assert.Equal(t, 1920, driver.pages[0].width)
	assert.Equal(t, 1080, driver.pages[0].height)
	assert.True(t, driver.pages[0].closed)
	assert.Equal(t, []time.Duration{screenshot.MetadataSettle, 0}, w.got)
}

func TestRun_ConcurrentKeepsOrder(t *testing.T) {
	t.Parallel()

	driver := &fakeDriver{}
	s := screenshot.NewScreenshoter(driver, screenshot.WithWait((&waits{}).wait))

	ids := []string{"mobile", "tablet", "laptop", "desktop", "pixel-8"}
	req := newRequest(t, ids...)
	req.Concurrency = 3

	summary, err := s.Run(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, summary.Results, len(ids))
	for i, id := range ids {
		assert.Equal(t, id, summary.Results[i].Device.ID)
		assert.NoError(t, summary.Results[i].Err)
	}
}

func TestRun_CancelledBeforeDevices(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	driver := &fakeDriver{}
	s := screenshot.NewScreenshoter(driver)

	summary, err := s.Run(ctx, newRequest(t, "mobile", "desktop"))
	require.NoError(t, err)
	for _, r := range summary.Results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Empty(t, driver.pages)
}

type recordingObserver struct {
	mu       sync.Mutex
	started  []string
	finished []string
}

func (o *recordingObserver) DeviceStarted(_, _ int, d device.Profile) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.started = append(o.started, d.ID)
}

func (o *recordingObserver) DeviceFinished(_, _ int, r screenshot.Result) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished = append(o.finished, r.Device.ID)
}

func TestRun_NotifiesObserver(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	s := screenshot.NewScreenshoter(&fakeDriver{}, screenshot.WithObserver(obs), screenshot.WithWait((&waits{}).wait))

	_, err := s.Run(context.Background(), newRequest(t, "mobile", "laptop"))
	require.NoError(t, err)
	assert.Equal(t, []string{"mobile", "laptop"}, obs.started)
	assert.Equal(t, []string{"mobile", "laptop"}, obs.finished)
}

func TestRequestValidate(t *testing.T) {
	t.Parallel()

	valid := screenshot.Request{URL: "https://example.com", Devices: profiles(t, "mobile")}

	tests := []struct {
		name    string
		mutate  func(r *screenshot.Request)
		wantErr bool
	}{
		{name: "valid", mutate: func(*screenshot.Request) {}},
		{name: "http scheme", mutate: func(r *screenshot.Request) { r.URL = "http://example.com/a" }},
		{name: "missing scheme", mutate: func(r *screenshot.Request) { r.URL = "example.com" }, wantErr: true},
		{name: "ftp scheme", mutate: func(r *screenshot.Request) { r.URL = "ftp://example.com" }, wantErr: true},
		{name: "no host", mutate: func(r *screenshot.Request) { r.URL = "https://" }, wantErr: true},
		{name: "no devices", mutate: func(r *screenshot.Request) { r.Devices = nil }, wantErr: true},
		{name: "bad device", mutate: func(r *screenshot.Request) { r.Devices = []device.Profile{{ID: "x"}} }, wantErr: true},
		{name: "negative wait", mutate: func(r *screenshot.Request) { r.Wait = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := valid
			tt.mutate(&r)
			err := r.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, screenshot.ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "init", screenshot.StateInit.String())
	assert.Equal(t, "fullpage-captured", screenshot.StateFullPageCaptured.String())
	assert.Equal(t, "closed", screenshot.StateClosed.String())
	assert.Equal(t, "unknown", screenshot.State(42).String())
}
