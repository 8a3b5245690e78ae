// Package browser opens form pages in the operator's default browser.
package browser

import (
	"net/url"
	"os/exec"
	"runtime"

	"github.com/abrezinsky/pairsync/internal/errors"
)

// Commander is an interface for executing commands (for testing)
type Commander interface {
	Start(name string, args ...string) error
}

// RealCommander executes actual commands
type RealCommander struct{}

// Start executes a command and starts it
func (RealCommander) Start(name string, args ...string) error {
	return exec.Command(name, args...).Start()
}

var defaultCommander Commander = RealCommander{}

// Open opens the specified URL in the default browser
func Open(rawURL string) error {
	return OpenWithCommander(rawURL, defaultCommander, runtime.GOOS)
}

// OpenWithCommander opens the URL using the specified commander and OS (for testing).
// Only absolute http and https URLs are passed to the platform opener.
func OpenWithCommander(rawURL string, commander Commander, goos string) error {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.InvalidInputf("refusing to open %q", rawURL)
	}

	var name string
	var args []string

	switch goos {
	case "linux", "freebsd", "openbsd":
		name = "xdg-open"
		args = []string{u.String()}
	case "darwin":
		name = "open"
		args = []string{u.String()}
	case "windows":
		name = "rundll32"
		args = []string{"url.dll,FileProtocolHandler", u.String()}
	default:
		return errors.InvalidInputf("unsupported platform: %s", goos)
	}

	if err := commander.Start(name, args...); err != nil {
		return errors.Wrap(err, errors.ErrInternal, "start "+name)
	}
	return nil
}
