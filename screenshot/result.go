package screenshot

import (
	"multishot/device"
	"multishot/metadata"
)

// State is a step of the per-device capture sequence.
type State int

const (
	StateInit State = iota
	StateNavigated
	StateSettled
	StateDismissed
	StateViewportCaptured
	StateScrollSettled
	StateFullPageCaptured
	StateClosed
)

var stateNames = [...]string{
	StateInit:             "init",
	StateNavigated:        "navigated",
	StateSettled:          "settled",
	StateDismissed:        "dismissed",
	StateViewportCaptured: "viewport-captured",
	StateScrollSettled:    "scroll-settled",
	StateFullPageCaptured: "fullpage-captured",
	StateClosed:           "closed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Result is the outcome of capturing one device.
type Result struct {
	Device       device.Profile
	ViewportPath string
	FullPagePath string
	Err          error
	// State is the last step reached before the session was closed.
	State State
	// Closed reports that the device's browser session was torn down.
	Closed bool
}

// OK reports whether both artifacts were written.
func (r Result) OK() bool {
	return r.Err == nil && r.State == StateFullPageCaptured
}

// Summary is the outcome of a run.
type Summary struct {
	// RunID correlates the log lines of one Run.
	RunID    string
	BasePath string
	Results  []Result
	Metadata *metadata.PageMetadata
}

// Failed counts devices that ended with an error.
func (s *Summary) Failed() int {
	n := 0
	for _, r := range s.Results {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Observer receives device progress notifications. Calls may come from
// several goroutines when devices are captured concurrently.
type Observer interface {
	DeviceStarted(index, total int, d device.Profile)
	DeviceFinished(index, total int, r Result)
}

type nopObserver struct{}

func (nopObserver) DeviceStarted(int, int, device.Profile) {}
func (nopObserver) DeviceFinished(int, int, Result) {}
