package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/autofill/connectivity"
	"github.com/hazyhaar/autofill/engine"
	"github.com/hazyhaar/autofill/internal/config"
	"github.com/hazyhaar/autofill/profile"
	"github.com/hazyhaar/autofill/shield"
)

const version = "0.3.0"

func runServe(ctx context.Context, logger *slog.Logger, cfg *config.Config, o options) error {
	if o.url != "" {
		cfg.Target.URL = o.url
	}
	var opts []engine.Option
	var src *liveSource
	if cfg.Target.URL != "" || o.attach || cfg.Browser.Remote != "" {
		var err error
		src, err = newLiveSource(ctx, logger, cfg, o.attach || cfg.Target.URL == "")
		if err != nil {
			return err
		}
		defer src.Close()
		opts = append(opts, engine.WithSource(src))
	}
	eng := newEngine(logger, cfg, opts...)
	defer eng.Close()

	mcpSrv := mcp.NewServer(&mcp.Implementation{Name: "autofill", Version: version}, nil)
	eng.RegisterMCP(mcpSrv)
	if o.mcpStdio {
		logger.Info("autofill: mcp on stdio")
		return mcpSrv.Run(ctx, &mcp.IOTransport{Reader: os.Stdin, Writer: os.Stdout})
	}

	router := connectivity.New(connectivity.WithLogger(logger))
	defer router.Close()
	router.RegisterTransport("http", connectivity.HTTPFactory())
	eng.RegisterConnectivity(router)

	if cfg.HTTP.RoutesDB != "" {
		db, err := connectivity.OpenDB(cfg.HTTP.RoutesDB)
		if err != nil {
			return err
		}
		defer db.Close()
		go router.Watch(ctx, db, cfg.HTTP.WatchInterval)
	}

	store, err := profile.Open(cfg.Profile.Path, profile.WithLogger(logger))
	if err != nil {
		return err
	}
	defer store.Close()

	r := chi.NewRouter()
	r.Use(shield.RequireToken(cfg.HTTP.TokenHash, "/health"))
	eng.RegisterHTTP(r)
	store.RegisterHTTP(r)
	r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return mcpSrv }, nil))

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.HTTP.CallTimeout + 10*time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("autofill: listening", "addr", cfg.HTTP.Addr, "fillers", eng.Fillers(),
			"live", src != nil, "token", cfg.HTTP.TokenHash != "")
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("autofill: http: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
