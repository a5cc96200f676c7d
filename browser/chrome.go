package browser

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrBrowserUnavailable is returned when no Chrome/Chromium instance can be
// launched or reached.
var ErrBrowserUnavailable = errors.New("browser unavailable")

// InstallHint is appended to ErrBrowserUnavailable failures shown to users.
const InstallHint = "install Google Chrome or Chromium, set CHROME_PATH or browser.exec_path, " +
	"or point browser.remote_url at a running DevTools endpoint"

var pathCandidates = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"headless-shell",
}

// FindChrome locates a Chrome executable. An explicit path wins, then the
// CHROME_PATH environment variable, then well-known install locations for the
// current OS and finally the PATH.
func FindChrome(explicit string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		if isFile(explicit) {
			return explicit, nil
		}
		return "", fmt.Errorf("%w: exec path %q does not exist", ErrBrowserUnavailable, explicit)
	}

	if envPath := os.Getenv("CHROME_PATH"); envPath != "" && isFile(envPath) {
		return envPath, nil
	}

	for _, path := range osCandidates(runtime.GOOS) {
		if isFile(path) {
			return path, nil
		}
	}

	for _, name := range pathCandidates {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("%w: could not find Chrome executable", ErrBrowserUnavailable)
}

func osCandidates(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Google Chrome Canary.app/Contents/MacOS/Google Chrome Canary",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	case "windows":
		return []string{
			filepath.Join(os.Getenv("ProgramFiles"), "Google/Chrome/Application/chrome.exe"),
			filepath.Join(os.Getenv("ProgramFiles(x86)"), "Google/Chrome/Application/chrome.exe"),
			filepath.Join(os.Getenv("LocalAppData"), "Google/Chrome/Application/chrome.exe"),
		}
	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	default:
		return nil
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
