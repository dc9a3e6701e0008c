package browserfakes

import (
	"sync"

	"github.com/ASTRALLIBERTAD/LMS-alternative-sub001/browser"
)

var _ browser.Launcher = (*FakeLauncher)(nil)

// FakeLauncher records opened URLs instead of spawning a browser.
type FakeLauncher struct {
	lock    sync.Mutex
	urls    []string
	OpenErr error
}

func NewFakeLauncher() *FakeLauncher {
	return &FakeLauncher{}
}

func (f *FakeLauncher) Open(url string) error {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.OpenErr != nil {
		return f.OpenErr
	}
	f.urls = append(f.urls, url)
	return nil
}

func (f *FakeLauncher) OpenedURLs() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.urls...)
}
