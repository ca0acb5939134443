package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/filmshelf/filmshelf/internal/api"
	"github.com/filmshelf/filmshelf/internal/config"
	"github.com/filmshelf/filmshelf/internal/db"
	"github.com/filmshelf/filmshelf/internal/jobs"
	"github.com/filmshelf/filmshelf/internal/library"
	"github.com/filmshelf/filmshelf/internal/metadata"
	"github.com/filmshelf/filmshelf/internal/poster"
	"github.com/filmshelf/filmshelf/internal/repository"
	"github.com/filmshelf/filmshelf/internal/resolver"
	"github.com/filmshelf/filmshelf/internal/scheduler"
)

const appVersion = "0.3.0"

func main() {
	log.Printf("FilmShelf %s starting...", appVersion)

	cfg := config.Load()

	database, err := db.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)
	log.Printf("providers: omdb=%v tmdb=%v", cfg.OMDbEnabled(), cfg.TMDbEnabled())

	fileRepo := repository.NewFileRepository(database.DB)
	movieRepo := repository.NewMovieRepository(database.DB)
	posterRepo := repository.NewPosterRepository(database.DB)
	statusRepo := repository.NewStatusRepository(database.DB)
	categoryRepo := repository.NewCategoryRepository(database.DB)

	if err := categoryRepo.EnsureSystem(); err != nil {
		log.Fatalf("system categories: %v", err)
	}

	state := library.NewState(movieRepo, posterRepo, statusRepo, categoryRepo, fileRepo)
	if err := state.Reload(); err != nil {
		log.Fatalf("initial library load failed: %v", err)
	}

	details := metadata.NewOMDbScraper(cfg.OMDbAPIKey, cfg.ProviderRPS)
	var search metadata.SearchProvider
	if cfg.TMDbEnabled() {
		search = metadata.NewTMDbScraper(cfg.TMDbAPIKey, cfg.ProviderRPS)
	}

	res := resolver.New(fileRepo, movieRepo, posterRepo, categoryRepo,
		details, metadata.NewImageFetcher(), poster.NewProcessor(cfg.PosterQuality), state)

	jobQueue := jobs.NewQueue(cfg.RedisAddr)
	srv := api.NewServer(cfg, database, state, search, res, jobQueue)
	jobs.RegisterHandlers(jobQueue, res, srv.WSHub())

	ctx := context.Background()
	if err := jobQueue.Start(ctx); err != nil {
		log.Fatalf("job queue start failed: %v", err)
	}

	sweep := scheduler.New(posterRepo, statusRepo, categoryRepo)
	if err := sweep.Start(); err != nil {
		log.Fatalf("scheduler start failed: %v", err)
	}

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("listening on :%d", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)
	sweep.Stop()
	jobQueue.Stop()
}
