package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"catsgallery/catapi"
	"catsgallery/database"
	"catsgallery/gallery"
	"catsgallery/handlers"
	"catsgallery/metrics"
	"catsgallery/utils"
)

func main() {
	utils.LoadEnvFiles(".env", "catsgallery.env")

	var cfg utils.Config
	kong.Parse(&cfg,
		kong.Name("catsgallery"),
		kong.Description("Serves a page with five random cats and a button for new ones."),
		kong.UsageOnError(),
	)
	utils.InitLogger(cfg.Debug, cfg.LogFormat)

	if err := database.InitDatabase(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Str("path", cfg.DatabasePath).Msg("Fail to open database")
	}
	defer database.Close()

	m := metrics.New()
	client := catapi.NewClient(cfg.CatAPIURL, catapi.NewHTTPClient(cfg.DialTimeout, cfg.ResponseHeaderTimeout))
	registry := gallery.NewRegistry(client, cfg.SessionTTL, handlers.RecordFetch(m))
	m.TrackSessions(registry.Len)
	m.TrackDatabase(database.DB(), "catsgallery")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go registry.Run(ctx, cfg.SweepInterval)
	go database.RunPruner(ctx, cfg.SweepInterval, cfg.FetchLogRetention)

	app := handlers.NewApp()
	handlers.InitHandlers(app, registry, m)

	go func() {
		<-ctx.Done()
		log.Info().Msg("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Shutdown failed")
		}
	}()

	log.Info().Str("address", cfg.Address).Str("cat_api", client.SearchURL()).Msg("Listening")
	if err := app.Listen(cfg.Address); err != nil {
		log.Fatal().Err(err).Send()
	}
}
