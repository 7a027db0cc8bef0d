package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/dmitrymomot/relay"
	"github.com/dmitrymomot/relay/middlewares"
	"github.com/dmitrymomot/relay/pkg/logger"
)

func main() {
	var (
		configPath = flag.String("config", "relay.yaml", "route configuration file")
		addr       = flag.String("addr", ":8080", "listen address")
		root       = flag.String("root", ".", "project root for filesystem resolution")
		verbose    = flag.Bool("verbose", false, "log every installed route")
	)
	flag.Parse()

	log := logger.NewWithSentry(logger.SentryConfig{
		DSN:         os.Getenv("SENTRY_DSN"),
		Environment: os.Getenv("SENTRY_ENVIRONMENT"),
		MinLevel:    slog.LevelWarn,
	}, middlewares.RequestIDExtractor())

	srv, err := relay.LoadFile(*configPath,
		relay.WithLogger(log),
		relay.WithFsRoot(*root),
		relay.WithVerbose(*verbose),
		relay.WithMiddleware(
			middlewares.RequestID(),
			middlewares.Recover(),
			middlewares.AccessLog(),
		),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := srv.Run(*addr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
