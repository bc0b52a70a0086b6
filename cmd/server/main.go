/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the absence engine server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse flags
  2. Build the rule catalog (JSON file or built-in defaults)
  3. Initialize SQLite store
  4. Wire engine, vacation calculator and API handler
  5. Start server with graceful shutdown

CONFIGURATION:
  Flags override environment variables:
    -port / PORT            HTTP server port (default: 8080)
    -db / DATABASE_PATH     SQLite database path (default: absence.db,
                            ":memory:" for in-memory)
    -catalog / CATALOG_PATH rule catalog JSON; empty uses the built-in set
    -log-level / LOG_LEVEL  logrus level (default: info)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database and the built-in catalog
  ./server -db="./data/absence.db"

  # Run with a custom rule set
  ./server -catalog="./config/catalog.json"

SEE ALSO:
  - api/server.go: Router configuration
  - factory/catalog.go: Catalog JSON loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/attimo/absence-engine/api"
	"github.com/attimo/absence-engine/catalog"
	"github.com/attimo/absence-engine/engine"
	"github.com/attimo/absence-engine/factory"
	"github.com/attimo/absence-engine/store/sqlite"
	"github.com/attimo/absence-engine/vacation"
)

func main() {
	// A missing .env is fine; env vars may come from the shell.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "absence.db"), "SQLite database path")
	catalogPath := flag.String("catalog", envStr("CATALOG_PATH", ""), "rule catalog JSON file (empty = built-in)")
	logLevel := flag.String("log-level", envStr("LOG_LEVEL", "info"), "log level")
	flag.Parse()

	log := logrus.New()
	if level, err := logrus.ParseLevel(*logLevel); err == nil {
		log.SetLevel(level)
	}

	// Catalog
	cat := catalog.Default()
	if *catalogPath != "" {
		loaded, err := factory.LoadCatalog(*catalogPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load catalog")
		}
		cat = loaded
		log.WithField("path", *catalogPath).Info("catalog loaded")
	}

	// Store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	// Wiring
	eng := engine.New(cat)
	calc := vacation.NewCalculator(eng)
	handler := api.NewHandler(store, eng, calc, log)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr": server.Addr,
			"db":   *dbPath,
		}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
