package service

import (
	"fmt"
	"math/rand"
	"slices"
	"time"

	"github.com/Go-routine-4595/aquavigil/model"
)

const (
	DefaultHistoryHours = 24
	MaxHistoryHours     = 8760
)

// SynthesizeHistory builds hours hourly points for baseline using the historical
// spread. Point i is stamped now - i hours; the result is oldest first and its last
// point is stamped now.
func SynthesizeHistory(rnd *rand.Rand, baseline model.SensorModule, hours int, now time.Time) ([]model.Reading, error) {
	if hours < 0 {
		return nil, fmt.Errorf("hours must be non-negative, got %d: %w", hours, model.ErrValidation)
	}

	history := make([]model.Reading, 0, hours)
	for i := 0; i < hours; i++ {
		r := baseline.Reading()
		r.Timestamp = now.Add(-time.Duration(i) * time.Hour)
		history = append(history, Jitter(rnd, r, HistoricalSpread))
	}
	slices.Reverse(history)

	return history, nil
}
