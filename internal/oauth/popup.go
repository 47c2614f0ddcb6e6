package oauth

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"taboowiki/pkg/logging"

	"github.com/pkg/browser"
)

const (
	// PopupWidth and PopupHeight are the fixed size of the login window.
	PopupWidth  = 600
	PopupHeight = 700

	// PopupName is the window name used for the login window.
	PopupName = "GitHub OAuth2 Login"
)

// Screen describes the opener window: its position on screen and its
// outer size.
type Screen struct {
	X, Y        int
	OuterWidth  int
	OuterHeight int
}

// Geometry is the position and size of the login window.
type Geometry struct {
	Left, Top     int
	Width, Height int
}

// CenterPopup centres the fixed size login window over the opener window.
func CenterPopup(s Screen) Geometry {
	return Geometry{
		Left:   s.X + (s.OuterWidth-PopupWidth)/2,
		Top:    s.Y + (s.OuterHeight-PopupHeight)/2,
		Width:  PopupWidth,
		Height: PopupHeight,
	}
}

// Features renders g as a window feature string.
func (g Geometry) Features() string {
	return fmt.Sprintf("width=%d,height=%d,left=%d,top=%d,toolbar=no,location=no,status=no,menubar=no,scrollbars=yes,resizable=yes",
		g.Width, g.Height, g.Left, g.Top)
}

// Popup is an open login window.
type Popup interface {
	// Closed reports whether the window has been closed.
	Closed() bool
	// Close closes the window. Closing twice is a no-op.
	Close()
}

// Opener opens login windows.
type Opener interface {
	Open(ctx context.Context, url string, g Geometry) (Popup, error)
}

// OpenBrowser opens url in the default web browser.
// The browser's own output is discarded so it cannot garble the terminal.
func OpenBrowser(url string) error {
	browser.Stdout = io.Discard
	browser.Stderr = io.Discard
	if err := browser.OpenURL(url); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}
	return nil
}

// BrowserOpener opens the login page in the system browser. A browser tab
// cannot be observed from here, so its popup counts as closed once the
// coordinator closes it or CloseAll is called (the callback server's cancel
// route does this).
type BrowserOpener struct {
	// Launch opens a URL. Defaults to OpenBrowser.
	Launch func(url string) error

	// NoBrowser only prints the URL.
	NoBrowser bool

	// Out receives the login URL so it can be opened by hand.
	Out io.Writer

	mu     sync.Mutex
	popups []*browserPopup
}

// Open implements Opener.
func (o *BrowserOpener) Open(_ context.Context, url string, g Geometry) (Popup, error) {
	if o.Out != nil {
		fmt.Fprintf(o.Out, "Opening browser for GitHub login...\nIf the browser does not open, visit:\n  %s\n", url)
	}

	if !o.NoBrowser {
		launch := o.Launch
		if launch == nil {
			launch = OpenBrowser
		}
		if err := launch(url); err != nil {
			if o.Out == nil {
				return nil, err
			}
			logging.Warn("OAuth", "Could not open browser, open the URL manually: %v", err)
		}
	}
	logging.Debug("OAuth", "Opened login window %q (%s)", PopupName, g.Features())

	p := &browserPopup{}
	o.mu.Lock()
	o.popups = append(o.popups, p)
	o.mu.Unlock()
	return p, nil
}

// CloseAll marks every popup opened so far as closed.
func (o *BrowserOpener) CloseAll() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, p := range o.popups {
		p.Close()
	}
	o.popups = nil
}

type browserPopup struct {
	closed atomic.Bool
}

func (p *browserPopup) Closed() bool { return p.closed.Load() }
func (p *browserPopup) Close()       { p.closed.Store(true) }
