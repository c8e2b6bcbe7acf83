package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/hazyhaar/autofill/booking"
	"github.com/hazyhaar/autofill/connectivity"
	"github.com/hazyhaar/autofill/dom/memdom"
	"github.com/hazyhaar/autofill/engine"
	"github.com/hazyhaar/autofill/filler"
	"github.com/hazyhaar/autofill/filler/irctc"
	"github.com/hazyhaar/autofill/internal/browser"
	"github.com/hazyhaar/autofill/internal/config"
	"github.com/hazyhaar/autofill/profile"
	"github.com/hazyhaar/autofill/shield"
	"github.com/hazyhaar/autofill/sink"
)

var errUsage = errors.New("usage: autofill -url <url> | -attach | -html <file> | -serve | -mcp | -forward <url>")

func run(ctx context.Context, logger *slog.Logger, o options) error {
	if o.hashToken {
		return printTokenHash(os.Stdin, os.Stdout)
	}
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(o.configPath); err != nil {
			return err
		}
	}

	switch {
	case o.serve, o.mcpStdio:
		return runServe(ctx, logger, cfg, o)
	case o.forward != "":
		return runForward(ctx, logger, cfg, o)
	case o.htmlPath != "":
		return runDry(ctx, logger, cfg, o)
	case o.url != "" || o.attach:
		return runLive(ctx, logger, cfg, o)
	}
	return errUsage
}

func printTokenHash(in io.Reader, out io.Writer) error {
	tok, err := io.ReadAll(io.LimitReader(in, 1024))
	if err != nil {
		return err
	}
	t := strings.TrimSpace(string(tok))
	if t == "" {
		return errors.New("hash-token: empty token on stdin")
	}
	h, err := shield.HashToken(t)
	if err != nil {
		return fmt.Errorf("hash-token: %w", err)
	}
	_, err = fmt.Fprintln(out, h)
	return err
}

func newEngine(logger *slog.Logger, cfg *config.Config, opts ...engine.Option) *engine.Engine {
	reg := filler.NewRegistry(irctc.New(irctc.WithTiming(cfg.Timing), irctc.WithLogger(logger)))
	opts = append([]engine.Option{engine.WithLogger(logger), engine.WithSinks(buildSinks(logger, cfg)...)}, opts...)
	return engine.New(reg, opts...)
}

func buildSinks(logger *slog.Logger, cfg *config.Config) []sink.Sink {
	var out []sink.Sink
	for _, sc := range cfg.Sinks {
		switch sc.Type {
		case "stdout":
			out = append(out, sink.NewStdout(os.Stderr))
		case "webhook":
			out = append(out, sink.NewWebhook(sc.URL, sink.WithWebhookLogger(logger)))
		case "nats":
			n, err := sink.NewNATS(sc.URL, sc.Subject, logger)
			if err != nil {
				logger.Error("autofill: sink skipped", "type", sc.Type, "error", err)
				continue
			}
			out = append(out, n)
		case "redis":
			out = append(out, sink.NewRedis(sc.URL, sink.WithRedisKey(sc.Key)))
		}
	}
	return out
}

func loadRequest(ctx context.Context, cfg *config.Config, path string) (*booking.FillRequest, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}
		var req booking.FillRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("request: %w", err)
		}
		return &req, nil
	}
	store, err := profile.Open(cfg.Profile.Path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Request(ctx)
}

// report prints the result and turns a failed fill into an error.
func report(res booking.FillResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("fill failed: %s", res.Message)
	}
	return nil
}

func runDry(ctx context.Context, logger *slog.Logger, cfg *config.Config, o options) error {
	req, err := loadRequest(ctx, cfg, o.request)
	if err != nil {
		return err
	}
	f, err := os.Open(o.htmlPath)
	if err != nil {
		return fmt.Errorf("html: %w", err)
	}
	doc, err := memdom.Parse(f, o.location)
	f.Close()
	if err != nil {
		return err
	}

	// A saved page does not re-render between steps.
	cfg.Timing = irctc.Instant()
	eng := newEngine(logger, cfg)
	defer eng.Close()
	res := eng.Fill(ctx, doc, req)

	if o.outPath != "" {
		if err := os.WriteFile(o.outPath, []byte(doc.String()), 0o644); err != nil {
			return fmt.Errorf("out: %w", err)
		}
		logger.Info("autofill: filled page written", "path", o.outPath)
	}
	return report(res)
}

func runLive(ctx context.Context, logger *slog.Logger, cfg *config.Config, o options) error {
	req, err := loadRequest(ctx, cfg, o.request)
	if err != nil {
		return err
	}
	if o.url != "" {
		cfg.Target.URL = o.url
	}
	src, err := newLiveSource(ctx, logger, cfg, o.attach)
	if err != nil {
		return err
	}
	defer src.Close()

	eng := newEngine(logger, cfg, engine.WithSource(src))
	defer eng.Close()
	return report(eng.FillCurrent(ctx, req))
}

// runForward sends the fill to a peer through a connectivity route, so the
// request built here runs against the peer's browser.
func runForward(ctx context.Context, logger *slog.Logger, cfg *config.Config, o options) error {
	req, err := loadRequest(ctx, cfg, o.request)
	if err != nil {
		return err
	}
	db, err := connectivity.OpenDB(":memory:")
	if err != nil {
		return err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	endpoint := strings.TrimRight(o.forward, "/") + "/rpc/" + engine.ServiceFill
	if err := connectivity.SetRoute(ctx, db, engine.ServiceFill, "http", endpoint, forwardConfig(o.token)); err != nil {
		return err
	}
	router := connectivity.New(connectivity.WithLogger(logger))
	defer router.Close()
	router.RegisterTransport("http", connectivity.HTTPFactory())
	if err := router.Reload(ctx, db); err != nil {
		return err
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return err
	}
	out, err := router.Call(ctx, engine.ServiceFill, payload)
	if err != nil {
		return err
	}
	var res booking.FillResult
	if err := json.Unmarshal(out, &res); err != nil {
		return fmt.Errorf("forward: decode result: %w", err)
	}
	return report(res)
}

// tokenEnv holds the -forward bearer token when -token is not given.
const tokenEnv = "AUTOFILL_TOKEN"

func forwardConfig(token string) json.RawMessage {
	cfg := map[string]string{"token_env": tokenEnv}
	if token != "" {
		cfg = map[string]string{"token": token}
	}
	raw, _ := json.Marshal(cfg)
	return raw
}

func browserConfig(logger *slog.Logger, cfg *config.Config) (browser.Config, error) {
	mode, err := browser.ParseMode(cfg.Browser.Mode)
	if err != nil {
		return browser.Config{}, err
	}
	return browser.Config{
		RemoteURL:        cfg.Browser.Remote,
		Mode:             mode,
		XvfbDisplay:      cfg.Browser.XvfbDisplay,
		Bin:              cfg.Browser.Bin,
		UserDataDir:      cfg.Browser.UserDataDir,
		ResourceBlocking: cfg.Browser.ResourceBlocking,
		NavigateTimeout:  cfg.Browser.NavigateTimeout,
		Logger:           logger,
	}, nil
}
