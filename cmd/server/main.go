package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/anakol/pokerpot/internal/auth"
	"github.com/anakol/pokerpot/internal/events"
	"github.com/anakol/pokerpot/internal/ledger"
	"github.com/anakol/pokerpot/internal/middleware"
	"github.com/anakol/pokerpot/internal/remote"
	"github.com/anakol/pokerpot/internal/server"
	"github.com/anakol/pokerpot/internal/storage/sqlite"
	syncpkg "github.com/anakol/pokerpot/internal/sync"
	"github.com/anakol/pokerpot/pkg/logging"
)

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	logging.Setup()

	dbPath := getEnv("DB_PATH", "./data/pokerpot.db")
	addr := ":" + getEnv("PORT", "8080")
	jwtSecret := getEnv("JWT_SECRET", "")
	remoteURL := getEnv("REMOTE_URL", "")
	remoteToken := getEnv("REMOTE_TOKEN", "")

	if jwtSecret == "" {
		slog.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	store, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", dbPath)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := events.NewBus(events.SlogNotifier{}, 64)
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		syncer       server.Syncer
		remoteLookup ledger.RemoteSessionLookup
	)
	if remoteURL != "" {
		client := remote.NewHTTPClient(remoteURL, remoteToken)
		remoteLookup = client

		reconciler := syncpkg.NewReconciler(store, client, registry)
		reconciler.Start(ctx, nil)
		syncer = reconciler
		slog.Info("Sync reconciler started", "remote", remoteURL)
	} else {
		slog.Info("No REMOTE_URL configured, running local-only")
	}

	jwtManager := auth.NewJWTManager(jwtSecret, 24*time.Hour)
	authenticator := auth.NewPasswordAuthenticator(store)

	srv := server.New(
		authenticator,
		jwtManager,
		ledger.NewSessionService(store, remoteLookup),
		ledger.NewBuyInService(store, bus),
		ledger.NewResultService(store),
		ledger.NewBalanceService(store),
		syncer,
	)

	mux := http.NewServeMux()
	mux.Handle("/v1/", srv.Handler())
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	metrics := middleware.NewMetrics(registry)
	handler := middleware.Logging(metrics.Handler(corsMiddleware(mux)))

	// h2c allows HTTP/2 without TLS for clients behind a terminating proxy.
	h2cHandler := h2c.NewHandler(handler, &http2.Server{})

	slog.Info("Server starting", "address", addr)
	if err := http.ListenAndServe(addr, h2cHandler); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
