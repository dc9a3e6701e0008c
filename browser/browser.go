// Package browser hands a URL to the host platform's external browser.
package browser

import (
	"strings"

	pkgbrowser "github.com/pkg/browser"
	"github.com/pkg/errors"
)

var EmptyURLErr = errors.New("url is required")

// Launcher opens a URL in the platform browser. Open returns once the launch
// has been issued; there is no channel back from the spawned browser and a
// launch cannot be cancelled.
type Launcher interface {
	Open(url string) error
}

// ExternalLauncher launches the operating system's default browser.
type ExternalLauncher struct{}

func NewExternalLauncher() ExternalLauncher {
	return ExternalLauncher{}
}

func (ExternalLauncher) Open(url string) error {
	if strings.TrimSpace(url) == "" {
		return EmptyURLErr
	}
	if err := pkgbrowser.OpenURL(url); err != nil {
		return errors.Wrap(err, "[browser.Open] browser.OpenURL")
	}
	return nil
}
