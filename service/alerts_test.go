package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/aquavigil/model"
	"github.com/Go-routine-4595/aquavigil/store"
)

func healthy(id string) model.SensorModule {
	return model.SensorModule{
		ID:          id,
		Name:        "Module " + id,
		Status:      model.StatusActive,
		PH:          7.2,
		TDS:         350,
		WaterFlow:   15,
		WaterLevel:  80,
		Temperature: 24,
		Timestamp:   time.Date(2025, 1, 27, 10, 30, 0, 0, time.UTC),
	}
}

func TestComputeAlertsLowWaterLevel(t *testing.T) {
	m := healthy("s1")
	m.WaterLevel = 20

	alerts := ComputeAlerts([]model.SensorModule{m})
	require.Len(t, alerts, 1)
	assert.Equal(t, model.Alert{
		ID:         "level-s1",
		ModuleID:   "s1",
		ModuleName: "Module s1",
		Type:       model.AlertTypeWaterLevel,
		Severity:   model.SeverityCritical,
		Message:    "Low water level: 20%",
		Timestamp:  m.Timestamp,
	}, alerts[0])
}

func TestComputeAlertsMaintenanceAlwaysFires(t *testing.T) {
	m := healthy("s4")
	m.Status = model.StatusMaintenance

	alerts := ComputeAlerts([]model.SensorModule{m})
	require.Len(t, alerts, 1)
	assert.Equal(t, "status-s4", alerts[0].ID)
	assert.Equal(t, model.AlertTypeMaintenance, alerts[0].Type)
	assert.Equal(t, model.SeverityInfo, alerts[0].Severity)

	m.PH = 5.5
	m.TDS = 700
	m.WaterLevel = 10
	alerts = ComputeAlerts([]model.SensorModule{m})
	require.Len(t, alerts, 4)
	assert.Equal(t, []string{"ph-s4", "tds-s4", "level-s4", "status-s4"},
		[]string{alerts[0].ID, alerts[1].ID, alerts[2].ID, alerts[3].ID})
}

func TestComputeAlertsSeverities(t *testing.T) {
	tests := []struct {
		name     string
		ph       float64
		tds      int
		wantType model.AlertType
		wantSev  model.Severity
		wantMsg  string
	}{
		{"ph slightly low", 6.2, 350, model.AlertTypePH, model.SeverityWarning, "pH level 6.2 is outside optimal range (6.5-8.5)"},
		{"ph very low", 5.9, 350, model.AlertTypePH, model.SeverityCritical, "pH level 5.9 is outside optimal range (6.5-8.5)"},
		{"ph high", 8.8, 350, model.AlertTypePH, model.SeverityWarning, "pH level 8.8 is outside optimal range (6.5-8.5)"},
		{"ph very high", 9.1, 350, model.AlertTypePH, model.SeverityCritical, "pH level 9.1 is outside optimal range (6.5-8.5)"},
		{"ph at critical edge", 6.0, 350, model.AlertTypePH, model.SeverityWarning, "pH level 6.0 is outside optimal range (6.5-8.5)"},
		{"ph whole number", 9.0, 350, model.AlertTypePH, model.SeverityWarning, "pH level 9.0 is outside optimal range (6.5-8.5)"},
		{"tds high", 7.2, 550, model.AlertTypeTDS, model.SeverityWarning, "TDS level 550 ppm exceeds recommended limit (500 ppm)"},
		{"tds at edge", 7.2, 600, model.AlertTypeTDS, model.SeverityWarning, "TDS level 600 ppm exceeds recommended limit (500 ppm)"},
		{"tds very high", 7.2, 601, model.AlertTypeTDS, model.SeverityCritical, "TDS level 601 ppm exceeds recommended limit (500 ppm)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := healthy("x")
			m.PH = tt.ph
			m.TDS = tt.tds

			alerts := ComputeAlerts([]model.SensorModule{m})
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.wantType, alerts[0].Type)
			assert.Equal(t, tt.wantSev, alerts[0].Severity)
			assert.Equal(t, tt.wantMsg, alerts[0].Message)
		})
	}
}

func TestComputeAlertsBoundariesDoNotFire(t *testing.T) {
	a := healthy("a")
	a.PH = 6.5
	a.TDS = 500
	a.WaterLevel = 30
	b := healthy("b")
	b.PH = 8.5

	assert.Empty(t, ComputeAlerts([]model.SensorModule{a, b}))
}

func TestComputeAlertsModuleOrder(t *testing.T) {
	a := healthy("a")
	a.WaterLevel = 5
	b := healthy("b")
	b.TDS = 520

	alerts := ComputeAlerts([]model.SensorModule{b, a})
	require.Len(t, alerts, 2)
	assert.Equal(t, "tds-b", alerts[0].ID)
	assert.Equal(t, "level-a", alerts[1].ID)
}

func TestComputeAlertsOnFixture(t *testing.T) {
	s, err := store.Default()
	require.NoError(t, err)

	alerts := ComputeAlerts(s.All())
	require.Len(t, alerts, 1)
	assert.Equal(t, "status-sensors4", alerts[0].ID)
	assert.Equal(t, "Pipeline Module D4", alerts[0].ModuleName)
}
