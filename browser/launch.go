// Package browser drives the job site in a real Chrome session through rod.
package browser

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"

	"jobscout/config"
)

// chromeCandidates are checked in order when no binary is configured
var chromeCandidates = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

// Launch starts Chrome and connects to it
func Launch(cfg config.BrowserConfig, logger *slog.Logger) (*rod.Browser, error) {
	if logger == nil {
		logger = slog.Default()
	}

	userDataDir := cfg.UserDataDir
	if userDataDir != "" {
		// A persistent profile keeps the login session between runs
		if err := os.MkdirAll(userDataDir, 0755); err != nil {
			logger.Warn("failed to create browser data directory, using a temporary profile", "dir", userDataDir, "err", err)
			userDataDir = ""
		}
	}

	l := launcher.New().
		Headless(cfg.Headless).
		Set("disable-blink-features", "AutomationControlled").
		NoSandbox(true).
		Leakless(false).
		Set("disable-dev-shm-usage").
		Set("disable-gpu").
		Set("no-first-run").
		Set("no-default-browser-check").
		Set("disable-extensions").
		Set("disable-background-timer-throttling").
		Set("disable-renderer-backgrounding").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-popup-blocking").
		Set("disable-translate").
		Set("mute-audio").
		Set("window-size", "1400,1000").
		Set("disable-features", "TranslateUI,BlinkGenPropertyTrees")
	if userDataDir != "" {
		l = l.UserDataDir(userDataDir)
	}

	bin := cfg.Bin
	if bin == "" {
		bin = findChrome(chromeCandidates, fileExists)
	}
	if bin != "" {
		logger.Debug("using system browser", "bin", bin)
		l = l.Bin(bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return b, nil
}

// findChrome returns the first existing candidate, or "" to let rod
// download a Chromium build
func findChrome(candidates []string, exists func(string) bool) string {
	for _, path := range candidates {
		if exists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
