package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"coffeescraper/models"
	"coffeescraper/scheduler"
)

// PriceReader is the read side of the price store.
type PriceReader interface {
	GetPrices(ctx context.Context) ([]models.PriceRecord, error)
	GetDifference(ctx context.Context) (float64, error)
}

// Runner starts batch runs and remembers the last one.
type Runner interface {
	StartRun(ctx context.Context) error
	LastRun() *models.Run
}

// Reports names the local files the batch run writes.
type Reports struct {
	SpreadsheetPath string
	HTMLPath        string
}

type Handlers struct {
	prices  PriceReader
	runner  Runner
	reports Reports
	started time.Time

	// runCtx outlives the request that triggers a run
	runCtx context.Context
}

func NewHandlers(ctx context.Context, prices PriceReader, runner Runner, reports Reports) *Handlers {
	return &Handlers{
		prices:  prices,
		runner:  runner,
		reports: reports,
		started: time.Now(),
		runCtx:  ctx,
	}
}

// HealthCheck returns a simple health check response
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now(),
		"service":   "coffeescraper",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
	})
}

// GetReport serves the latest HTML chart
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	h.serveFile(w, r, h.reports.HTMLPath, "text/html; charset=utf-8")
}

// GetSpreadsheet serves the latest spreadsheet
func (h *Handlers) GetSpreadsheet(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Disposition", `attachment; filename="coffeescraper.xlsx"`)
	h.serveFile(w, r, h.reports.SpreadsheetPath, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
}

func (h *Handlers) serveFile(w http.ResponseWriter, r *http.Request, path, contentType string) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeError(w, http.StatusNotFound, "No report generated yet")
			return
		}
		slog.Error("failed to stat report", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read report")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		slog.Error("failed to open report", "path", path, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read report")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", contentType)
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// GetPrices returns every stored observation
func (h *Handlers) GetPrices(w http.ResponseWriter, r *http.Request) {
	records, err := h.prices.GetPrices(r.Context())
	if err != nil {
		slog.Error("failed to get prices", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get prices")
		return
	}
	if records == nil {
		records = []models.PriceRecord{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prices": records,
		"count":  len(records),
	})
}

// GetDifference returns today's lowest price minus yesterday's
func (h *Handlers) GetDifference(w http.ResponseWriter, r *http.Request) {
	difference, err := h.prices.GetDifference(r.Context())
	if err != nil {
		slog.Error("failed to get difference", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to get difference")
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"difference": difference})
}

// GetStatus returns the most recent run
func (h *Handlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	run := h.runner.LastRun()
	if run == nil {
		writeError(w, http.StatusNotFound, "No run yet")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// TriggerRun starts a batch run in the background
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if err := h.runner.StartRun(h.runCtx); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		slog.Error("failed to start price check", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to start price check")
		return
	}

	slog.Info("manual price check triggered")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Price check started",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
