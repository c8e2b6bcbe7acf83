package browser

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/hazyhaar/autofill/dom"
)

// Tab is a page the fill runs in.
type Tab struct {
	Page   *rod.Page
	hijack *rod.HijackRouter
	owned  bool
}

// OpenTab opens a stealth tab, applies resource blocking and navigates to
// pageURL within the configured timeout.
func OpenTab(ctx context.Context, mgr *Manager, pageURL string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}
	t := &Tab{Page: page, owned: true}
	if len(mgr.cfg.ResourceBlocking) > 0 {
		t.hijack = applyResourceBlocking(page, mgr.cfg.ResourceBlocking)
	}

	navCtx, cancel := context.WithTimeout(ctx, mgr.cfg.NavigateTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		t.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		mgr.cfg.Logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}
	mgr.cfg.Logger.Info("browser: tab opened", "url", pageURL)
	return t, nil
}

// AttachTab returns the first open tab whose host contains host. The tab
// is not closed by Tab.Close.
func AttachTab(ctx context.Context, mgr *Manager, host string) (*Tab, error) {
	b := mgr.Browser()
	if b == nil {
		return nil, fmt.Errorf("browser: no active browser")
	}
	pages, err := b.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("browser: list tabs: %w", err)
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if hostMatches(info.URL, host) {
			mgr.cfg.Logger.Info("browser: tab attached", "url", info.URL)
			return &Tab{Page: p}, nil
		}
	}
	return nil, fmt.Errorf("browser: no open tab on %s", host)
}

func hostMatches(rawURL, host string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || host == "" {
		return false
	}
	return strings.Contains(strings.ToLower(u.Hostname()), strings.ToLower(host))
}

// Document exposes the tab to the form pipeline. Calls made through it are
// bound to ctx.
func (t *Tab) Document(ctx context.Context) (dom.Document, error) {
	return &Document{page: t.Page.Context(ctx)}, nil
}

// Close stops resource blocking and closes a tab opened by OpenTab.
func (t *Tab) Close() error {
	if t.hijack != nil {
		t.hijack.Stop()
		t.hijack = nil
	}
	if t.owned && t.Page != nil {
		return t.Page.Close()
	}
	return nil
}
