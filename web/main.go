package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/df07/go-wavefront-raytracer/pkg/core"
	"github.com/df07/go-wavefront-raytracer/pkg/stats"
	"github.com/df07/go-wavefront-raytracer/web/server"
)

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	statsDB := flag.String("stats-db", "", "SQLite file receiving wave statistics")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	core.SetLogger(logger)

	var store *stats.Store
	if *statsDB != "" {
		var err error
		store, err = stats.Open(*statsDB)
		if err != nil {
			logger.Error("failed to open statistics store", "path", *statsDB, "error", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	// Create and start web server
	webServer := server.NewServer(*port, store)

	logger.Info("wavefront raytracer web server", "port", *port)
	if err := webServer.Start(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
