package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Go-routine-4595/aquavigil/model"
)

// Plausibility bounds applied after every perturbation.
const (
	MinPH          = 6.0
	MaxPH          = 8.5
	MinTDS         = 200
	MaxTDS         = 600
	MinWaterFlow   = 0.0
	MinWaterLevel  = 0
	MaxWaterLevel  = 100
	MinTemperature = 15.0
	MaxTemperature = 35.0
)

// Spread is the per field +/- range of a perturbation.
type Spread struct {
	PH          float64
	TDS         int
	WaterFlow   float64
	WaterLevel  int
	Temperature float64
}

var (
	LiveSpread = Spread{
		PH:          0.1,
		TDS:         5,
		WaterFlow:   0.5,
		WaterLevel:  2,
		Temperature: 0.2,
	}
	HistoricalSpread = Spread{
		PH:          0.3,
		TDS:         10,
		WaterFlow:   1.0,
		WaterLevel:  5,
		Temperature: 0.5,
	}
)

// Jitter perturbs every numeric field of baseline within spread, rounds the float
// fields to one decimal and clamps the result into the plausibility bounds. The
// timestamp is carried over untouched.
func Jitter(rnd *rand.Rand, baseline model.Reading, spread Spread) model.Reading {
	return model.Reading{
		PH:          clampFloat(round1(baseline.PH+uniform(rnd, spread.PH)), MinPH, MaxPH),
		TDS:         clampInt(baseline.TDS+randInt(rnd, spread.TDS), MinTDS, MaxTDS),
		WaterFlow:   max(round1(baseline.WaterFlow+uniform(rnd, spread.WaterFlow)), MinWaterFlow),
		WaterLevel:  clampInt(baseline.WaterLevel+randInt(rnd, spread.WaterLevel), MinWaterLevel, MaxWaterLevel),
		Temperature: clampFloat(round1(baseline.Temperature+uniform(rnd, spread.Temperature)), MinTemperature, MaxTemperature),
		Timestamp:   baseline.Timestamp,
	}
}

// uniform draws from [-spread, spread).
func uniform(rnd *rand.Rand, spread float64) float64 {
	return (rnd.Float64()*2 - 1) * spread
}

// randInt draws from [-spread, spread], both ends included.
func randInt(rnd *rand.Rand, spread int) int {
	if spread <= 0 {
		return 0
	}
	return rnd.Intn(2*spread+1) - spread
}

func round1(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}

func clampFloat(v, lo, hi float64) float64 {
	return min(max(v, lo), hi)
}

func clampInt(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// lockedSource lets one *rand.Rand be shared by concurrent requests.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// NewRand returns a goroutine safe generator. A zero seed picks one from the clock.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(&lockedSource{src: rand.NewSource(seed)})
}
