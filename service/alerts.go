package service

import (
	"fmt"
	"strconv"

	"github.com/Go-routine-4595/aquavigil/model"
)

const (
	phOptimalLow   = 6.5
	phOptimalHigh  = 8.5
	phCriticalLow  = 6.0
	phCriticalHigh = 9.0
	tdsWarning     = 500
	tdsCritical    = 600
	levelCritical  = 30
)

// ComputeAlerts evaluates the threshold rules for every module. Alerts come out in
// module order, then pH, TDS, water level, maintenance within a module.
func ComputeAlerts(modules []model.SensorModule) []model.Alert {
	alerts := make([]model.Alert, 0)

	for _, m := range modules {
		if m.PH < phOptimalLow || m.PH > phOptimalHigh {
			sev := model.SeverityWarning
			if m.PH < phCriticalLow || m.PH > phCriticalHigh {
				sev = model.SeverityCritical
			}
			alerts = append(alerts, newAlert(m, "ph", model.AlertTypePH, sev,
				fmt.Sprintf("pH level %s is outside optimal range (6.5-8.5)", formatFloat(m.PH))))
		}

		if m.TDS > tdsWarning {
			sev := model.SeverityWarning
			if m.TDS > tdsCritical {
				sev = model.SeverityCritical
			}
			alerts = append(alerts, newAlert(m, "tds", model.AlertTypeTDS, sev,
				fmt.Sprintf("TDS level %d ppm exceeds recommended limit (500 ppm)", m.TDS)))
		}

		if m.WaterLevel < levelCritical {
			alerts = append(alerts, newAlert(m, "level", model.AlertTypeWaterLevel, model.SeverityCritical,
				fmt.Sprintf("Low water level: %d%%", m.WaterLevel)))
		}

		if m.Status == model.StatusMaintenance {
			alerts = append(alerts, newAlert(m, "status", model.AlertTypeMaintenance, model.SeverityInfo,
				"Module is currently under maintenance"))
		}
	}

	return alerts
}

func newAlert(m model.SensorModule, kind string, t model.AlertType, sev model.Severity, msg string) model.Alert {
	return model.Alert{
		ID:         kind + "-" + m.ID,
		ModuleID:   m.ID,
		ModuleName: m.Name,
		Type:       t,
		Severity:   sev,
		Message:    msg,
		Timestamp:  m.Timestamp,
	}
}

// formatFloat prints one decimal, so the clamped floor of 6 reads "6.0".
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
