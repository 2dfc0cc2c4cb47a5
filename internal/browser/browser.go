// Package browser opens the account authorization URL in the user's default
// web browser, abstracting the per-platform commands behind one call.
package browser

import (
	"fmt"
	"os/exec"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// OpenAuthURL opens the authorization URL in the default browser. It tries
// the platform-agnostic library first and falls back to well-known commands.
func OpenAuthURL(url string) error {
	if err := open.Run(url); err == nil {
		log.Debug("browser: opened authorization URL")
		return nil
	} else {
		log.Debugf("browser: open-golang failed: %v, trying platform commands", err)
	}
	return openPlatformSpecific(url)
}

func openPlatformSpecific(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "linux":
		for _, candidate := range []string{"xdg-open", "x-www-browser", "firefox", "chromium", "google-chrome"} {
			if _, err := exec.LookPath(candidate); err == nil {
				cmd = exec.Command(candidate, url)
				break
			}
		}
		if cmd == nil {
			return fmt.Errorf("browser: no suitable browser found")
		}
	default:
		return fmt.Errorf("browser: unsupported operating system %s", runtime.GOOS)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("browser: starting %s failed: %w", cmd.Path, err)
	}
	return nil
}
