package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"coffeescraper/config"
	"coffeescraper/models"
	"coffeescraper/report"
	"coffeescraper/scraper"

	"github.com/robfig/cron/v3"
)

// ErrRunInProgress is returned when a run is requested while another one is
// still going.
var ErrRunInProgress = errors.New("a price check is already running")

// PriceStore is the persistence a run needs.
type PriceStore interface {
	Insert(ctx context.Context, url string, price float64) error
	GetPrices(ctx context.Context) ([]models.PriceRecord, error)
	GetDifference(ctx context.Context) (float64, error)
}

// Uploader copies a local file to the remote report host.
type Uploader interface {
	Upload(localPath, remotePath string) error
}

// Alerter decides on and sends the price drop mail.
type Alerter interface {
	ShouldAlert(difference float64) bool
	SendAlert() error
}

type PriceChecker struct {
	cron     *cron.Cron
	scrapers []scraper.Scraper
	store    PriceStore
	uploader Uploader
	alerter  Alerter
	cfg      *config.Config

	runMu   sync.Mutex
	running sync.WaitGroup
	mu      sync.RWMutex
	lastRun *models.Run
}

func NewPriceChecker(cfg *config.Config, scrapers []scraper.Scraper, store PriceStore, uploader Uploader, alerter Alerter) *PriceChecker {
	return &PriceChecker{
		cron:     cron.New(cron.WithSeconds()),
		scrapers: scrapers,
		store:    store,
		uploader: uploader,
		alerter:  alerter,
		cfg:      cfg,
	}
}

// Start schedules the batch run on the configured cron expression.
func (pc *PriceChecker) Start(ctx context.Context) error {
	_, err := pc.cron.AddFunc(pc.cfg.Schedule, func() {
		if _, err := pc.CheckAllPrices(ctx); err != nil {
			slog.Error("scheduled price check failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule price checker %q: %w", pc.cfg.Schedule, err)
	}

	pc.cron.Start()
	slog.Info("price checker scheduled", "schedule", pc.cfg.Schedule, "sites", len(pc.scrapers))
	return nil
}

// Stop stops the schedule and waits for a running batch to finish.
func (pc *PriceChecker) Stop() {
	if pc.cron != nil {
		<-pc.cron.Stop().Done()
	}
	pc.running.Wait()
}

// LastRun returns the most recent run, or nil if none happened yet.
func (pc *PriceChecker) LastRun() *models.Run {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.lastRun
}

func (pc *PriceChecker) setLastRun(run *models.Run) {
	snapshot := *run
	pc.mu.Lock()
	pc.lastRun = &snapshot
	pc.mu.Unlock()
}

// CheckAllPrices performs one batch: scrape every site in order, store the
// observations, write and upload both reports and mail an alert when the
// lowest price dropped far enough since yesterday.
func (pc *PriceChecker) CheckAllPrices(ctx context.Context) (*models.Run, error) {
	if !pc.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	pc.running.Add(1)
	defer pc.running.Done()
	defer pc.runMu.Unlock()
	return pc.run(ctx)
}

// StartRun begins a batch in the background. It fails at once with
// ErrRunInProgress when a run is already going.
func (pc *PriceChecker) StartRun(ctx context.Context) error {
	if !pc.runMu.TryLock() {
		return ErrRunInProgress
	}
	pc.running.Add(1)
	go func() {
		defer pc.running.Done()
		defer pc.runMu.Unlock()
		if _, err := pc.run(ctx); err != nil {
			slog.Error("manual price check failed", "error", err)
		}
	}()
	return nil
}

// run must be called with runMu held.
func (pc *PriceChecker) run(ctx context.Context) (*models.Run, error) {
	run := models.NewRun()
	pc.setLastRun(run)

	err := pc.check(ctx, run)
	if err != nil {
		run.Fail(err)
		slog.Error("price check failed", "error", err, "duration", run.Duration())
	} else {
		run.Complete()
		slog.Info("price check completed", "observations", len(run.Observations), "failures", len(run.Failures), "duration", run.Duration())
	}
	pc.setLastRun(run)
	return run, err
}

func (pc *PriceChecker) check(ctx context.Context, run *models.Run) error {
	slog.Info("starting price check", "sites", len(pc.scrapers))

	observations := ScrapeAll(ctx, pc.scrapers, func(o models.Observation) error {
		return pc.store.Insert(ctx, o.URL, o.Price)
	}, run)
	if len(observations) == 0 {
		return fmt.Errorf("no site produced a price (%d failures)", len(run.Failures))
	}

	cheapest, _ := models.Cheapest(observations)
	run.Cheapest = &cheapest
	slog.Info("cheapest site", "url", cheapest.URL, "price", cheapest.Price)

	records, err := pc.store.GetPrices(ctx)
	if err != nil {
		return err
	}

	if err := report.WriteSpreadsheet(pc.cfg.SpreadsheetPath, records); err != nil {
		return err
	}

	graph := report.BuildGraph(pc.cfg.ReportTitle, records, run.Cheapest)
	if err := report.WriteGraph(pc.cfg.HTMLPath, graph); err != nil {
		return err
	}

	if err := pc.uploader.Upload(pc.cfg.SpreadsheetPath, pc.cfg.RemoteSpreadsheet); err != nil {
		return fmt.Errorf("upload spreadsheet: %w", err)
	}
	if err := pc.uploader.Upload(pc.cfg.HTMLPath, pc.cfg.RemoteHTML); err != nil {
		return fmt.Errorf("upload html graph: %w", err)
	}

	difference, err := pc.store.GetDifference(ctx)
	if err != nil {
		return err
	}
	run.Difference = difference

	if !pc.alerter.ShouldAlert(difference) {
		slog.Info("no mailing sent, limit not reached", "difference", difference)
		return nil
	}

	slog.Info("mailing an alert", "difference", difference)
	if err := pc.alerter.SendAlert(); err != nil {
		return err
	}
	run.AlertSent = true
	return nil
}

// ScrapeAll runs the scrapers one after the other. Every observation is
// handed to record before the next site is visited. A failing site, or an
// observation that record rejects, is added to run.Failures and skipped. A nil
// run only logs failures.
func ScrapeAll(ctx context.Context, scrapers []scraper.Scraper, record func(models.Observation) error, run *models.Run) []models.Observation {
	var observations []models.Observation
	for _, s := range scrapers {
		if ctx.Err() != nil {
			addFailure(run, s.URL(), ctx.Err())
			continue
		}

		o, err := s.Scrape(ctx)
		if err == nil && record != nil {
			err = record(o)
		}
		if err != nil {
			slog.Warn("site failed", "url", s.URL(), "error", err)
			addFailure(run, s.URL(), err)
			continue
		}

		slog.Info("price found", "url", o.URL, "price", o.Price)
		observations = append(observations, o)
		if run != nil {
			run.Observations = append(run.Observations, o)
		}
	}
	return observations
}

func addFailure(run *models.Run, url string, err error) {
	if run == nil {
		return
	}
	run.Failures = append(run.Failures, models.SiteFailure{URL: url, Error: err.Error()})
}
