package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hazyhaar/autofill/dom"
	"github.com/hazyhaar/autofill/internal/browser"
	"github.com/hazyhaar/autofill/internal/config"
)

// liveSource hands out the booking tab, starting Chrome on first use. With
// attach it reuses an open tab on the target host; otherwise it opens the
// target URL once and keeps that tab.
type liveSource struct {
	mu     sync.Mutex
	mgr    *browser.Manager
	tab    *browser.Tab
	cfg    *config.Config
	attach bool
	logger *slog.Logger
}

func newLiveSource(ctx context.Context, logger *slog.Logger, cfg *config.Config, attach bool) (*liveSource, error) {
	if !attach && cfg.Target.URL == "" {
		return nil, fmt.Errorf("autofill: no target url (set -url or target.url)")
	}
	bc, err := browserConfig(logger, cfg)
	if err != nil {
		return nil, err
	}
	return &liveSource{mgr: browser.NewManager(bc), cfg: cfg, attach: attach, logger: logger}, nil
}

func (s *liveSource) Document(ctx context.Context) (dom.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.mgr.Start(ctx); err != nil {
		return nil, err
	}
	if s.attach {
		// The operator may have navigated or reopened the tab since the
		// last run.
		tab, err := browser.AttachTab(ctx, s.mgr, s.cfg.Target.AttachHost)
		if err != nil {
			return nil, err
		}
		s.tab = tab
	} else if s.tab == nil {
		tab, err := browser.OpenTab(ctx, s.mgr, s.cfg.Target.URL)
		if err != nil {
			return nil, err
		}
		s.tab = tab
	}
	return s.tab.Document(ctx)
}

func (s *liveSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tab != nil {
		s.tab.Close()
		s.tab = nil
	}
	return s.mgr.Close()
}
