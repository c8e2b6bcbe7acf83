// Command autofill fills the IRCTC passenger booking page.
//
// Usage:
//
//	autofill -url https://www.irctc.co.in/nget/train-search   # open a tab, fill it
//	autofill -attach                                          # fill the already open booking tab
//	autofill -html saved.html -out filled.html                # dry run on a saved page
//	autofill -serve                                           # HTTP, MCP and connectivity surfaces
//	autofill -forward http://browser-host:8420                # run the fill on another machine
//	AUTOFILL_TOKEN=... autofill -forward https://peer:8420    # peer with http.token_hash set
//	echo -n "$TOKEN" | autofill -hash-token                   # hash for http.token_hash
//
// The fill request comes from -request (JSON) or, by default, from the
// profile database.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "modernc.org/sqlite"
)

type options struct {
	configPath string
	url        string
	attach     bool
	htmlPath   string
	location   string
	outPath    string
	request    string
	serve      bool
	mcpStdio   bool
	forward    string
	token      string
	hashToken  bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to autofill.yaml")
	flag.StringVar(&o.url, "url", "", "open this URL in a new tab and fill it")
	flag.BoolVar(&o.attach, "attach", false, "fill the open tab on the target host")
	flag.StringVar(&o.htmlPath, "html", "", "dry run against a saved HTML page")
	flag.StringVar(&o.location, "location", "https://www.irctc.co.in/nget/booking/psgninput", "page URL reported for -html")
	flag.StringVar(&o.outPath, "out", "", "write the filled page of a dry run to this file")
	flag.StringVar(&o.request, "request", "", "fill request JSON file (default: profile database)")
	flag.BoolVar(&o.serve, "serve", false, "serve the HTTP API and connectivity routes")
	flag.BoolVar(&o.mcpStdio, "mcp", false, "serve the MCP tools on stdio")
	flag.StringVar(&o.forward, "forward", "", "base URL of a peer running -serve; the fill runs there")
	flag.StringVar(&o.token, "token", "", "bearer token for the -forward peer (default $"+tokenEnv+")")
	flag.BoolVar(&o.hashToken, "hash-token", false, "read a token from stdin and print its http.token_hash")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, o); err != nil {
		logger.Error("autofill: fatal", "error", err)
		os.Exit(1)
	}
}
