// Package explorer reveals a directory in the desktop file manager.
package explorer

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"

	"multishot/logger"
)

// ErrNoFileManager is returned when no launcher exists for the platform.
var ErrNoFileManager = errors.New("no file manager found")

var linuxFileManagers = []string{"dolphin", "nautilus", "thunar", "nemo", "caja", "pcmanfm"}

// Opener launches the platform file manager.
type Opener struct {
	goos     string
	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
	logger   logger.Logger
}

// New creates an Opener for the running OS. A nil log discards output.
func New(log logger.Logger) *Opener {
	if log == nil {
		log = logger.NewNop()
	}
	return &Opener{
		goos:     runtime.GOOS,
		lookPath: exec.LookPath,
		start:    startDetached,
		logger:   log,
	}
}

// Command picks the launcher for path: explorer on Windows, open on macOS,
// xdg-open on Linux with common file managers as fallbacks.
func (o *Opener) Command(path string) (string, []string, error) {
	switch o.goos {
	case "windows":
		return "explorer", []string{path}, nil
	case "darwin":
		return "open", []string{path}, nil
	}

	candidates := append([]string{"xdg-open"}, linuxFileManagers...)
	for _, name := range candidates {
		if _, err := o.lookPath(name); err == nil {
			return name, []string{path}, nil
		}
	}
	return "", nil, fmt.Errorf("%w for %s", ErrNoFileManager, o.goos)
}

// Open reveals path. Failures are logged and otherwise ignored.
func (o *Opener) Open(path string) {
	name, args, err := o.Command(path)
	if err != nil {
		o.logger.Warn("Could not open file manager", logger.String("path", path), logger.Error(err))
		return
	}
	if err := o.start(name, args...); err != nil {
		o.logger.Warn("Could not open file manager",
			logger.String("path", path),
			logger.String("command", name),
			logger.Error(err))
		return
	}
	o.logger.Debug("File manager opened", logger.String("path", path), logger.String("command", name))
}

// startDetached starts the command without waiting for it, since graphical
// file managers keep running until the user closes them.
func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
