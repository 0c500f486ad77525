package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AdamBeresnev/cueboard/internal/config"
	"github.com/AdamBeresnev/cueboard/internal/db"
	"github.com/AdamBeresnev/cueboard/internal/live"
	"github.com/AdamBeresnev/cueboard/internal/metrics"
	"github.com/AdamBeresnev/cueboard/internal/service"
	"github.com/AdamBeresnev/cueboard/internal/store"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	titles, err := config.LoadRoundTitles(cfg.RoundTitlesFile)
	if err != nil {
		log.Fatal("Failed to load round titles:", err)
	}

	database := db.InitDB(cfg.DatabasePath)
	defer database.Close()

	if err := db.RunMigrations(database.DB, "file://migrations"); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime
	sessionManager.Store = sqlite3store.New(database.DB)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := live.NewHub(cfg.AllowedOrigins)
	tournamentStore := store.NewTournamentStore(database)

	router := newRouter(routerDeps{
		sessions:       sessionManager,
		tournaments:    service.NewTournamentService(database, tournamentStore),
		brackets:       service.NewBracketService(tournamentStore, titles, hub, metrics.NewRecorder(registry)),
		hub:            hub,
		registry:       registry,
		allowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(ctx)
	})
	g.Go(func() error {
		log.Printf("Server starting on http://localhost%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal(err)
	}
	log.Println("Server stopped")
}
