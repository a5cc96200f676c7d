package screenshot

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"multishot/device"
)

var (
	// ErrInvalidRequest is returned when a Request fails validation.
	ErrInvalidRequest = errors.New("invalid capture request")
	// ErrUnreachable is returned when the reachability pre-flight fails.
	ErrUnreachable = errors.New("url not reachable")
)

// Request is the validated intent for one capture run.
type Request struct {
	URL          string
	Devices      []device.Profile
	ClientName   string
	OutputRoot   string
	Wait         time.Duration
	SmoothScroll bool
	AutoDismiss  bool
	// ExtractMetadata runs metadata extraction before the device captures.
	ExtractMetadata bool
	// Timestamp stamps every artifact of the run. Generated when empty.
	Timestamp string
	// Concurrency bounds how many devices are captured at once. Values
	// below 1 mean sequential.
	Concurrency int
}

// Validate checks the request invariants.
func (r Request) Validate() error {
	u, err := url.Parse(r.URL)
	if err != nil {
		return fmt.Errorf("%w: parse url: %v", ErrInvalidRequest, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("%w: url %q must use http or https", ErrInvalidRequest, r.URL)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: url %q has no host", ErrInvalidRequest, r.URL)
	}
	if len(r.Devices) == 0 {
		return fmt.Errorf("%w: at least one device is required", ErrInvalidRequest)
	}
	for _, d := range r.Devices {
		if d.ID == "" || d.Width <= 0 || d.Height <= 0 {
			return fmt.Errorf("%w: device %q has invalid dimensions %dx%d", ErrInvalidRequest, d.ID, d.Width, d.Height)
		}
	}
	if r.Wait < 0 {
		return fmt.Errorf("%w: wait must not be negative", ErrInvalidRequest)
	}
	return nil
}

// DeviceIDs returns the requested device ids in order.
func (r Request) DeviceIDs() []string {
	ids := make([]string, len(r.Devices))
	for i, d := range r.Devices {
		ids[i] = d.ID
	}
	return ids
}
