package cmd

import (
	"fmt"
	"io"
)

const infoText = `multishot: multi-device web page capture

USAGE
  multishot <url> --device <id> [--device <id> ...] [flags]
  multishot <url> --all-devices [flags]
  multishot <url> --super [flags]

WHAT IT DOES
  1. Checks that the URL answers (HEAD, then GET if HEAD is refused).
  2. Creates <output-dir>/<client>/<device>/ for every requested device.
  3. With --open-graph, reads OpenGraph/Twitter metadata from a desktop
     session into <client>/opengraph/ and downloads og:image.
  4. For each device: loads the page, waits, optionally dismisses pop-ups,
     saves a viewport PNG, optionally smooth-scrolls, saves a full-page PNG.
  A device that fails is reported in the summary; the others still run.

DEVICES
  Canonical tiers: mobile, tablet, laptop, desktop.
  Named devices and aliases: run "multishot devices".
  --all-devices uses the all_devices_scope setting: "canonical" (the four
  tiers, default) or "catalog" (every named device).

SHORTCUTS
  --all-devices   also turns on --open-graph
  --super         --all-devices + --smooth-scroll + --open-graph, and a 2s
                  wait unless --wait-time is given

FILE NAMES
  <domain>_<path>-<device>-<timestamp>.png
  <domain>_<path>-<device>-fullpage-<timestamp>.png

EXAMPLES
  multishot https://example.com -d mobile
  multishot https://example.com -d mobile -d desktop --auto-dismiss
  multishot https://example.com/pricing#plans --all-devices --smooth-scroll
  multishot https://example.com --super --auto-dismiss --open
  multishot https://example.com -a --client acme --output-dir ~/shots

CONFIGURATION
  Settings are read from multishot.yaml (., ./config or
  ~/.config/multishot), a .env file and MULTISHOT_* environment variables,
  e.g. MULTISHOT_BROWSER_REMOTE_URL=ws://127.0.0.1:9222.
  Set CHROME_PATH or browser.exec_path if Chrome is not found.
`

func printInfo(out io.Writer) {
	fmt.Fprint(out, infoText)
}
