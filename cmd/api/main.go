package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/haneul-labs/moodshift/internal/adapters/deezer"
	"github.com/haneul-labs/moodshift/internal/adapters/lastfm"
	"github.com/haneul-labs/moodshift/internal/adapters/openweather"
	"github.com/haneul-labs/moodshift/internal/adapters/rest"
	"github.com/haneul-labs/moodshift/internal/adapters/spotify"
	"github.com/haneul-labs/moodshift/internal/adapters/sqlite"
	"github.com/haneul-labs/moodshift/internal/config"
	"github.com/haneul-labs/moodshift/internal/core/services"
	"github.com/haneul-labs/moodshift/internal/worker"
)

func main() {
	cfg := config.New()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("configuration incomplete")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.WithError(err).WithField("timezone", cfg.Timezone).Fatal("invalid timezone")
	}

	// Driven adapters.
	store, err := sqlite.NewStore(cfg.DatabasePath)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	defer store.Close()

	tagClient, err := lastfm.NewClient(cfg.LastFMAPIKey, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize lastfm client")
	}
	tokens, err := spotify.NewTokenManager(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize token manager")
	}
	refresher, err := spotify.NewUserTokenRefresher(cfg.SpotifyClientID, cfg.SpotifyClientSecret)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize token refresher")
	}
	catalog := spotify.NewClient(tokens, log)
	matchCatalog := deezer.NewClient(log)
	weatherClient, err := openweather.NewClient(cfg.OpenWeatherAPIKey, log)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize weather client")
	}

	// Core services.
	matcher := services.NewMatcher(matchCatalog, log)
	pipeline := services.NewPipeline(catalog, tagClient, matcher, log)
	weatherFlow := services.NewWeatherFlow(weatherClient, catalog, catalog, catalog, loc, log)

	// Background preview analysis.
	pool := worker.NewPool(store, 100, log)
	pool.Start(2)
	defer pool.Stop()

	handler := rest.NewHandler(
		pipeline, weatherFlow,
		catalog, catalog, refresher, store,
		tokens, catalog, spotify.ParsePlaylistID,
		pool, cfg.Market,
		rest.ServiceKeys{
			LastFM:      cfg.LastFMAPIKey != "",
			Spotify:     cfg.SpotifyClientID != "" && cfg.SpotifyClientSecret != "",
			OpenWeather: cfg.OpenWeatherAPIKey != "",
		},
		log,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 15 * time.Second,
	}

	log.WithField("port", cfg.Port).Info("moodshift api listening")

	serverErr := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-serverErr:
		if err != nil {
			log.WithError(err).Fatal("server failed")
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("shutdown error")
		}
	}
}
