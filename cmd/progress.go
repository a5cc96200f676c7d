package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"

	"multishot/device"
	"multishot/screenshot"
)

// progress reports device progress on a terminal spinner. It implements
// screenshot.Observer.
type progress struct {
	mu      sync.Mutex
	out     io.Writer
	spinner *spinner.Spinner
	active  map[int]string
	enabled bool
}

func newProgress(out io.Writer, enabled bool) *progress {
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(out))
	return &progress{
		out:     out,
		spinner: s,
		active:  make(map[int]string),
		enabled: enabled,
	}
}

func (p *progress) DeviceStarted(index, total int, d device.Profile) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active[index] = fmt.Sprintf("[%d/%d] %s (%s)", index+1, total, d.ID, d.Size())
	if !p.enabled {
		return
	}
	p.setSuffix(" capturing " + p.label())
	if !p.spinner.Active() {
		p.spinner.Start()
	}
}

func (p *progress) DeviceFinished(index, total int, r screenshot.Result) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.active, index)

	if p.enabled {
		p.spinner.Stop()
	}
	status := "done"
	if r.Err != nil {
		status = "failed at " + r.State.String()
	}
	fmt.Fprintf(p.out, "[%d/%d] %s %s\n", index+1, total, r.Device.ID, status)

	if p.enabled && len(p.active) > 0 {
		p.setSuffix(" capturing " + p.label())
		p.spinner.Start()
	}
}

// setSuffix writes Suffix under the spinner lock; the render goroutine
// reads it concurrently.
func (p *progress) setSuffix(suffix string) {
	p.spinner.Lock()
	p.spinner.Suffix = suffix
	p.spinner.Unlock()
}

// label describes the in-flight devices, lowest index first.
func (p *progress) label() string {
	first := -1
	for i := range p.active {
		if first == -1 || i < first {
			first = i
		}
	}
	if first == -1 {
		return ""
	}
	if n := len(p.active); n > 1 {
		return fmt.Sprintf("%s and %d more", p.active[first], n-1)
	}
	return p.active[first]
}
