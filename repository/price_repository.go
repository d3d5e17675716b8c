package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"coffeescraper/models"
)

// PriceRepository stores price observations in the append-only url_price table.
type PriceRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewPriceRepository(db *sql.DB) *PriceRepository {
	return &PriceRepository{db: db, now: time.Now}
}

// WithClock replaces the clock used for insert timestamps and for deciding
// what "today" is.
func (r *PriceRepository) WithClock(now func() time.Time) *PriceRepository {
	return &PriceRepository{db: r.db, now: now}
}

// Insert appends an observation stamped with the current time
func (r *PriceRepository) Insert(ctx context.Context, url string, price float64) error {
	return r.InsertAt(ctx, url, price, r.now())
}

// InsertAt appends an observation with an explicit timestamp
func (r *PriceRepository) InsertAt(ctx context.Context, url string, price float64, at time.Time) error {
	query := `
		INSERT INTO url_price (url, price, timestamp)
		VALUES ($1, $2, $3)
	`

	if _, err := r.db.ExecContext(ctx, query, url, price, at); err != nil {
		return fmt.Errorf("failed to insert price: %w", err)
	}
	return nil
}

// GetPrices returns every stored observation in insertion order
func (r *PriceRepository) GetPrices(ctx context.Context) ([]models.PriceRecord, error) {
	query := `
		SELECT id, url, price, timestamp
		FROM url_price
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}
	defer rows.Close()

	var records []models.PriceRecord
	for rows.Next() {
		var record models.PriceRecord
		if err := rows.Scan(&record.ID, &record.URL, &record.Price, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan price: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}

	return records, nil
}

// MinPrice returns the lowest price recorded on the calendar day of day.
// The result is invalid when nothing was recorded that day.
func (r *PriceRepository) MinPrice(ctx context.Context, day time.Time) (sql.NullFloat64, error) {
	query := `
		SELECT MIN(price)
		FROM url_price
		WHERE timestamp >= $1 AND timestamp < $2
	`

	start := startOfDay(day)
	var min sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, start, start.AddDate(0, 0, 1)).Scan(&min); err != nil {
		return sql.NullFloat64{}, fmt.Errorf("failed to get minimum price: %w", err)
	}
	return min, nil
}

// GetDifference returns today's minimum price minus yesterday's. A negative
// value means the price dropped.
func (r *PriceRepository) GetDifference(ctx context.Context) (float64, error) {
	today := r.now()

	minToday, err := r.MinPrice(ctx, today)
	if err != nil {
		return 0, err
	}
	minYesterday, err := r.MinPrice(ctx, today.AddDate(0, 0, -1))
	if err != nil {
		return 0, err
	}

	return Difference(minToday, minYesterday), nil
}

// Difference is today minus yesterday, or zero when either day has no rows.
func Difference(today, yesterday sql.NullFloat64) float64 {
	if !today.Valid || !yesterday.Valid {
		return 0.0
	}
	return today.Float64 - yesterday.Float64
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
