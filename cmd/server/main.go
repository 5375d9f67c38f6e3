// Command server runs the SnipStash web application.
//
// main only wires things together: load .env and the environment, set up
// logging, build the server, start it. Everything else lives in internal/.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/sakif/snipstash/internal/config"
	"github.com/sakif/snipstash/internal/logging"
	"github.com/sakif/snipstash/internal/server"
)

func main() {
	// A missing .env is fine; real environment variables are enough.
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.Setup(cfg.LogLevel, cfg.Production)
	if envErr != nil && !os.IsNotExist(envErr) {
		logger.Warn("could not read .env", slog.String("error", envErr.Error()))
	}
	logger.Info("configuration loaded", cfg.Status()...)

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
