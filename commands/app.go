package commands

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"coffeescraper/config"
	"coffeescraper/database"
	"coffeescraper/repository"
	"coffeescraper/scheduler"
	"coffeescraper/scraper"
	"coffeescraper/services"
)

// buildScrapers loads the site list from SITES_FILE, or uses the built in
// one, and creates a scraper per site.
func buildScrapers(cfg *config.Config) ([]scraper.Scraper, error) {
	sites := scraper.DefaultSites
	if cfg.SitesFile != "" {
		loaded, err := scraper.LoadSites(cfg.SitesFile)
		if err != nil {
			return nil, err
		}
		sites = loaded
		slog.Info("loaded sites", "path", cfg.SitesFile, "count", len(sites))
	}

	factory := scraper.NewFactory(cfg.HTTPTimeout, scraper.BrowserOptions{
		Bin:     cfg.ChromeBin,
		Timeout: cfg.BrowserTimeout,
	})
	return factory.BuildAll(sites)
}

func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.CreateTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// newPriceChecker wires the scrapers, the store and both distribution
// services into a PriceChecker.
func newPriceChecker(ctx context.Context, cfg *config.Config) (*scheduler.PriceChecker, *repository.PriceRepository, func(), error) {
	scrapers, err := buildScrapers(cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("build scrapers: %w", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	if cfg.DryRun {
		slog.Warn("dry run, nothing is uploaded or mailed")
	}

	repo := repository.NewPriceRepository(db)
	checker := scheduler.NewPriceChecker(
		cfg,
		scrapers,
		repo,
		services.NewUploadService(cfg.SFTP, cfg.DryRun),
		services.NewAlertService(cfg.SMTP, cfg.Alert, cfg.DryRun),
	)
	return checker, repo, func() { db.Close() }, nil
}
