package service

import (
	"errors"

	"github.com/Go-routine-4595/aquavigil/model"
)

const (
	DefaultRegionsCovered   = 4
	DefaultUptimePercentage = 98.5
)

type statsRules struct {
	regionsCovered   int
	uptimePercentage float64
}

type StatsOption func(r *statsRules)

// WithRegionsCovered sets the reported region count. It is configuration, not derived
// from module locations.
func WithRegionsCovered(n int) StatsOption {
	return func(r *statsRules) {
		r.regionsCovered = n
	}
}

// WithUptimePercentage sets the reported uptime. No status history exists to derive it from.
func WithUptimePercentage(p float64) StatsOption {
	return func(r *statsRules) {
		r.uptimePercentage = p
	}
}

// ComputeStats aggregates modules in a single pass. Average TDS is floor divided, the
// other averages and the flow total are rounded to one decimal.
func ComputeStats(modules []model.SensorModule, opts ...StatsOption) (model.SystemStats, error) {
	var (
		stats model.SystemStats
		flow  float64
		ph    float64
		temp  float64
		tds   int
	)

	rules := statsRules{regionsCovered: DefaultRegionsCovered, uptimePercentage: DefaultUptimePercentage}
	n := len(modules)
	if n == 0 {
		return stats, errors.Join(model.ErrEmptyInput, errors.New("cannot compute statistics"))
	}

	for _, opt := range opts {
		opt(&rules)
	}

	for _, m := range modules {
		switch m.Status {
		case model.StatusActive:
			stats.ActiveModules++
		case model.StatusMaintenance:
			stats.MaintenanceModules++
		}
		flow += m.WaterFlow
		ph += m.PH
		tds += m.TDS
		temp += m.Temperature
	}

	stats.TotalModules = n
	stats.TotalFlowRate = round1(flow)
	stats.AveragePH = round1(ph / float64(n))
	stats.AverageTDS = tds / n
	stats.AverageTemperature = round1(temp / float64(n))
	stats.RegionsCovered = rules.regionsCovered
	stats.UptimePercentage = rules.uptimePercentage

	return stats, nil
}
