// Package browser drives Chrome for live fills: it launches or connects to
// a browser, opens or attaches to a tab, and exposes that tab as a
// dom.Document.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Mode controls how a launched Chrome is displayed.
type Mode int

const (
	ModeHeadless Mode = iota
	ModeHeadful       // Xvfb display, harder to fingerprint
)

// ParseMode maps a config value to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "headless":
		return ModeHeadless, nil
	case "headful":
		return ModeHeadful, nil
	}
	return ModeHeadless, fmt.Errorf("browser: unknown mode %q", s)
}

// Config configures the browser manager.
type Config struct {
	// RemoteURL is the DevTools WebSocket URL of a running Chrome, usually
	// the operator's own logged-in browser. Empty launches a local Chrome.
	RemoteURL string

	Mode Mode

	// XvfbDisplay for headful mode. Default: ":99".
	XvfbDisplay string

	// Bin overrides the Chrome binary; empty lets the launcher find or
	// download one.
	Bin string

	// UserDataDir keeps cookies between runs so a login survives.
	UserDataDir string

	// ResourceBlocking lists resource types to block (images, fonts, media, stylesheets).
	ResourceBlocking []string

	// NavigateTimeout bounds OpenTab. Default: 60s.
	NavigateTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.XvfbDisplay == "" {
		c.XvfbDisplay = ":99"
	}
	if c.NavigateTimeout <= 0 {
		c.NavigateTimeout = 60 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Manager owns the Chrome connection. It is safe for concurrent use.
type Manager struct {
	cfg Config

	mu      sync.RWMutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	display *xvfb
	closed  bool
}

// NewManager creates a Manager. Nothing starts until Start.
func NewManager(cfg Config) *Manager {
	cfg.defaults()
	return &Manager{cfg: cfg}
}

// Start returns the browser, launching Chrome or connecting to RemoteURL on
// the first call.
func (m *Manager) Start(ctx context.Context) (*rod.Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch {
	case m.closed:
		return nil, errors.New("browser: manager is closed")
	case m.browser != nil:
		return m.browser, nil
	}

	// Chrome and its connection outlive the call that first needs them.
	ctx = context.WithoutCancel(ctx)

	controlURL := m.cfg.RemoteURL
	if controlURL == "" {
		u, err := m.launchLocal(ctx)
		if err != nil {
			m.release()
			return nil, err
		}
		controlURL = u
	} else {
		m.cfg.Logger.Info("browser: connecting to remote", "url", controlURL)
	}

	b := rod.New().Context(ctx).ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		m.release()
		return nil, fmt.Errorf("browser: connect %s: %w", controlURL, err)
	}
	m.browser = b
	return m.browser, nil
}

// Browser returns the current handle, nil before Start.
func (m *Manager) Browser() *rod.Browser {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.browser
}

// Close shuts down a launched Chrome and its display. A remote browser is
// only disconnected: it holds the operator's session.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.release()
	return nil
}

func (m *Manager) launchLocal(ctx context.Context) (string, error) {
	headful := m.cfg.Mode == ModeHeadful
	if headful {
		x, err := startXvfb(m.cfg.XvfbDisplay)
		if err != nil {
			return "", fmt.Errorf("browser: %w", err)
		}
		m.display = x
		m.cfg.Logger.Info("browser: xvfb started", "display", x.display, "pid", x.pid())
	}

	m.lnch = newLauncher(ctx, m.cfg)
	u, err := m.lnch.Launch()
	if err != nil {
		return "", fmt.Errorf("browser: launch chrome: %w", err)
	}
	m.cfg.Logger.Info("browser: launched local chrome", "url", u, "headful", headful)
	return u, nil
}

func newLauncher(ctx context.Context, cfg Config) *launcher.Launcher {
	l := launcher.New().Context(ctx).
		Headless(cfg.Mode == ModeHeadless).
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", "1366,768")
	if cfg.Bin != "" {
		l = l.Bin(cfg.Bin)
	}
	if cfg.UserDataDir != "" {
		l = l.UserDataDir(cfg.UserDataDir)
	}
	if cfg.Mode == ModeHeadful {
		l = l.Env(append(os.Environ(), "DISPLAY="+cfg.XvfbDisplay)...)
	}
	return l
}

func (m *Manager) release() {
	if m.browser != nil {
		if m.cfg.RemoteURL == "" {
			_ = m.browser.Close()
		}
		m.browser = nil
	}
	if m.lnch != nil {
		m.lnch.Cleanup()
		m.lnch = nil
	}
	if m.display != nil {
		m.display.stop()
		m.cfg.Logger.Info("browser: xvfb stopped", "display", m.display.display)
		m.display = nil
	}
}
