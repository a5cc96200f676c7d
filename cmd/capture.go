package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"multishot/browser"
	"multishot/config"
	"multishot/device"
	"multishot/dismiss"
	"multishot/explorer"
	"multishot/logger"
	"multishot/metadata"
	"multishot/screenshot"
	"multishot/settle"
	"multishot/validate"
)

const (
	defaultWaitTime = 3.0
	superWaitTime   = 2.0
)

var (
	errMissingURL     = errors.New("a URL is required (use --help for options or --info for the full guide)")
	errNoDeviceChoice = errors.New("choose devices with --device, --all-devices or --super")
)

// captureOptions holds the root command flags.
type captureOptions struct {
	devices      []string
	allDevices   bool
	waitTime     float64
	smoothScroll bool
	autoDismiss  bool
	openGraph    bool
	super        bool
	client       string
	outputDir    string
	open         bool
	info         bool
	concurrency  int
}

func (o *captureOptions) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringSliceVarP(&o.devices, "device", "d", nil, "device id to capture, repeatable (see: multishot devices)")
	flags.BoolVarP(&o.allDevices, "all-devices", "a", false, "capture every device in the all-devices scope (implies --open-graph)")
	flags.Float64Var(&o.waitTime, "wait-time", defaultWaitTime, "seconds to wait after load for animations and dynamic content")
	flags.BoolVar(&o.smoothScroll, "smooth-scroll", false, "scroll through the page before the full-page capture to trigger scroll animations")
	flags.BoolVar(&o.autoDismiss, "auto-dismiss", false, "close cookie banners, consent dialogs and other pop-ups before capturing")
	flags.BoolVar(&o.openGraph, "open-graph", false, "extract OpenGraph/Twitter metadata to JSON and download og:image")
	flags.BoolVar(&o.openGraph, "og", false, "shorthand for --open-graph")
	flags.BoolVar(&o.super, "super", false, "--all-devices, --smooth-scroll and --open-graph with a 2s wait")
	flags.StringVar(&o.client, "client", "", "client folder name (derived from the URL host when empty)")
	flags.StringVar(&o.outputDir, "output-dir", "", "root directory for captures (overrides output_dir)")
	flags.BoolVar(&o.open, "open", false, "open the output folder in the file manager when done")
	flags.BoolVar(&o.info, "info", false, "show the extended guide with examples")
	flags.IntVar(&o.concurrency, "concurrency", 0, "devices captured at once (overrides concurrency)")
}

// resolved is the effective set of switches after shortcut flags expand.
type resolved struct {
	allDevices   bool
	smoothScroll bool
	openGraph    bool
	wait         float64
}

// resolveSwitches applies --super and --all-devices implications. changed
// reports whether a flag was set on the command line.
func (o *captureOptions) resolveSwitches(cfg *config.Config, changed func(string) bool) resolved {
	r := resolved{
		allDevices:   o.allDevices,
		smoothScroll: o.smoothScroll,
		openGraph:    o.openGraph,
		wait:         cfg.WaitTime,
	}
	if changed("wait-time") {
		r.wait = o.waitTime
	}
	if o.super {
		r.allDevices = true
		r.smoothScroll = true
		r.openGraph = true
		if !changed("wait-time") {
			r.wait = superWaitTime
		}
	}
	if r.allDevices {
		r.openGraph = true
	}
	return r
}

// buildRequest turns flags and configuration into a validated request.
func (o *captureOptions) buildRequest(
	rawURL string,
	cfg *config.Config,
	registry *device.Registry,
	changed func(string) bool,
) (screenshot.Request, error) {
	r := o.resolveSwitches(cfg, changed)

	var profiles []device.Profile
	switch {
	case r.allDevices:
		profiles = registry.Select(cfg.Scope())
	case len(o.devices) > 0:
		var err error
		if profiles, err = registry.ResolveAll(o.devices); err != nil {
			return screenshot.Request{}, err
		}
	default:
		return screenshot.Request{}, errNoDeviceChoice
	}

	outputRoot := cfg.OutputDir
	if o.outputDir != "" {
		outputRoot = o.outputDir
	}
	concurrency := cfg.Concurrency
	if changed("concurrency") {
		concurrency = o.concurrency
	}

	req := screenshot.Request{
		URL:             strings.TrimSpace(rawURL),
		Devices:         profiles,
		ClientName:      strings.TrimSpace(o.client),
		OutputRoot:      outputRoot,
		Wait:            config.SecondsToDuration(r.wait),
		SmoothScroll:    r.smoothScroll,
		AutoDismiss:     o.autoDismiss,
		ExtractMetadata: r.openGraph,
		Concurrency:     concurrency,
	}
	if err := req.Validate(); err != nil {
		return screenshot.Request{}, err
	}
	return req, nil
}

func runCapture(cmd *cobra.Command, opts *captureOptions, args []string) error {
	if opts.info {
		printInfo(cmd.OutOrStdout())
		return nil
	}
	if len(args) == 0 {
		return errMissingURL
	}

	cfg, log, err := loadDependencies()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	req, err := opts.buildRequest(args[0], cfg, device.Default(), cmd.Flags().Changed)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	printPlan(out, req)

	progress := newProgress(cmd.ErrOrStderr(), !Debug)
	s := newScreenshoter(cfg, log, progress)

	summary, err := s.Run(cmd.Context(), req)
	if err != nil {
		if errors.Is(err, screenshot.ErrUnreachable) {
			return fmt.Errorf("%w: check that the URL is correct and online", err)
		}
		return err
	}

	renderSummary(out, summary)
	if opts.open {
		explorer.New(log).Open(summary.BasePath)
	}
	return nil
}

// newScreenshoter wires the capture collaborators from configuration.
func newScreenshoter(cfg *config.Config, log logger.Logger, observer screenshot.Observer) *screenshot.Screenshoter {
	validator := validate.New(validate.ClientConfig{
		Timeout:         cfg.HTTP.Timeout,
		FollowRedirects: cfg.HTTP.FollowRedirects,
		UserAgent:       cfg.HTTP.UserAgent,
	}, log)

	imageClient := validate.NewHTTPClient(validate.ClientConfig{
		Timeout:         cfg.HTTP.Timeout,
		FollowRedirects: true,
	})
	extractor := metadata.NewExtractor(log,
		metadata.WithHTTPClient(imageClient),
		metadata.WithUserAgent(cfg.HTTP.UserAgent))

	drv := browser.New(browserConfig(cfg), log)
	driver := screenshot.DriverFunc(func(ctx context.Context, width, height int) (screenshot.Page, error) {
		page, err := drv.Open(ctx, width, height)
		if err != nil {
			return nil, err
		}
		return page, nil
	})

	return screenshot.NewScreenshoter(driver,
		screenshot.WithLogger(log),
		screenshot.WithValidator(validator),
		screenshot.WithDismisser(dismiss.New(log)),
		screenshot.WithScroller(settle.NewScroller(log)),
		screenshot.WithExtractor(extractor),
		screenshot.WithObserver(observer),
	)
}

func browserConfig(cfg *config.Config) browser.Config {
	cookies := make([]browser.Cookie, 0, len(cfg.Browser.Cookies))
	for _, c := range cfg.Browser.Cookies {
		cookies = append(cookies, browser.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return browser.Config{
		ExecPath:           cfg.Browser.ExecPath,
		RemoteURL:          cfg.Browser.RemoteURL,
		Headless:           cfg.Browser.Headless,
		NavigationTimeout:  cfg.Browser.NavigationTimeout,
		NetworkIdleTimeout: cfg.Browser.NetworkIdleTimeout,
		UserAgent:          cfg.Browser.UserAgent,
		Cookies:            cookies,
	}
}

// printPlan echoes what the run is about to do.
func printPlan(out io.Writer, req screenshot.Request) {
	ids := make([]string, len(req.Devices))
	for i, d := range req.Devices {
		ids[i] = d.ID
	}
	fmt.Fprintf(out, "Capturing %s\n", req.URL)
	if req.ClientName != "" {
		fmt.Fprintf(out, "  client:        %s\n", req.ClientName)
	}
	fmt.Fprintf(out, "  devices:       %s\n", strings.Join(ids, ", "))
	fmt.Fprintf(out, "  wait:          %s\n", req.Wait)
	fmt.Fprintf(out, "  smooth scroll: %s\n", onOff(req.SmoothScroll))
	fmt.Fprintf(out, "  auto dismiss:  %s\n", onOff(req.AutoDismiss))
	fmt.Fprintf(out, "  open graph:    %s\n", onOff(req.ExtractMetadata))
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
