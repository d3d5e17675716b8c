package models

import (
	"time"
)

// Observation is a single price read from a site during a run.
type Observation struct {
	URL   string  `json:"url"`
	Price float64 `json:"price"`
}

// PriceRecord is one stored row of the url_price table.
type PriceRecord struct {
	ID        int       `json:"id" db:"id"`
	URL       string    `json:"url" db:"url"`
	Price     float64   `json:"price" db:"price"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
}

// Cheapest returns the lowest priced observation, and false when there are none.
func Cheapest(observations []Observation) (Observation, bool) {
	if len(observations) == 0 {
		return Observation{}, false
	}
	best := observations[0]
	for _, o := range observations[1:] {
		if o.Price < best.Price {
			best = o
		}
	}
	return best, true
}
