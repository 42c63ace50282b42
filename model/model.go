package model

import (
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrEmptyInput = errors.New("empty module set")
	ErrInternal   = errors.New("internal error")
)

type Status string

const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
)

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusMaintenance
}

type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SensorModule is a pipeline module baseline as stored in the fixture, and also the
// shape returned by the live endpoints once a Reading has been applied to it.
type SensorModule struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Location         string     `json:"location"`
	Coordinates      [2]float64 `json:"coordinates"`
	PH               float64    `json:"ph"`
	TDS              int        `json:"tds"`
	WaterFlow        float64    `json:"water_flow"`
	WaterLevel       int        `json:"water_level"`
	Temperature      float64    `json:"temperature"`
	GPS              GPS        `json:"gps"`
	Timestamp        time.Time  `json:"timestamp"`
	Status           Status     `json:"status"`
	InstallationDate string     `json:"installation_date,omitempty"`
	LastMaintenance  string     `json:"last_maintenance,omitempty"`
}

// Reading is the numeric part of a module at one instant.
type Reading struct {
	PH          float64   `json:"ph"`
	TDS         int       `json:"tds"`
	WaterFlow   float64   `json:"water_flow"`
	WaterLevel  int       `json:"water_level"`
	Temperature float64   `json:"temperature"`
	Timestamp   time.Time `json:"timestamp"`
}

func (m SensorModule) Reading() Reading {
	return Reading{
		PH:          m.PH,
		TDS:         m.TDS,
		WaterFlow:   m.WaterFlow,
		WaterLevel:  m.WaterLevel,
		Temperature: m.Temperature,
		Timestamp:   m.Timestamp,
	}
}

// WithReading returns a copy of m carrying r's values.
func (m SensorModule) WithReading(r Reading) SensorModule {
	m.PH = r.PH
	m.TDS = r.TDS
	m.WaterFlow = r.WaterFlow
	m.WaterLevel = r.WaterLevel
	m.Temperature = r.Temperature
	m.Timestamp = r.Timestamp
	return m
}

type History struct {
	ModuleID string    `json:"module_id"`
	History  []Reading `json:"history"`
}

type AlertType string

const (
	AlertTypePH          AlertType = "pH Alert"
	AlertTypeTDS         AlertType = "TDS Alert"
	AlertTypeWaterLevel  AlertType = "Water Level Alert"
	AlertTypeMaintenance AlertType = "Maintenance Required"
)

type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

type Alert struct {
	ID         string    `json:"id"`
	ModuleID   string    `json:"module_id"`
	ModuleName string    `json:"module_name"`
	Type       AlertType `json:"type"`
	Severity   Severity  `json:"severity"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
}

type Alerts struct {
	Alerts []Alert `json:"alerts"`
	Count  int     `json:"count"`
}

type SystemStats struct {
	TotalModules       int     `json:"total_modules"`
	ActiveModules      int     `json:"active_modules"`
	MaintenanceModules int     `json:"maintenance_modules"`
	TotalFlowRate      float64 `json:"total_flow_rate"`
	AveragePH          float64 `json:"average_ph"`
	AverageTDS         int     `json:"average_tds"`
	AverageTemperature float64 `json:"average_temperature"`
	RegionsCovered     int     `json:"regions_covered"`
	UptimePercentage   float64 `json:"uptime_percentage"`
}

type MapPoint struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Location    string     `json:"location"`
	Coordinates [2]float64 `json:"coordinates"`
	Status      Status     `json:"status"`
	PH          float64    `json:"ph"`
	TDS         int        `json:"tds"`
	WaterFlow   float64    `json:"water_flow"`
	WaterLevel  int        `json:"water_level"`
}

type MapData struct {
	Modules []MapPoint `json:"modules"`
}

type ContactMessage struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

type ContactReceipt struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

type Health struct {
	Status        string    `json:"status"`
	Timestamp     time.Time `json:"timestamp"`
	Version       string    `json:"version"`
	ModulesCount  int       `json:"modules_count"`
	ActiveModules int       `json:"active_modules"`
}

type Banner struct {
	Message string `json:"message"`
	Version string `json:"version"`
	Status  string `json:"status"`
}

type MessageType string

const (
	MessageTelemetry MessageType = "telemetry"
	MessageAlerts    MessageType = "alerts"
	MessageContact   MessageType = "contact"
)

// Message is the envelope pushed to the notification gateways.
type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Modules   []SensorModule  `json:"modules,omitempty"`
	Alerts    []Alert         `json:"alerts,omitempty"`
	Contact   *ContactMessage `json:"contact,omitempty"`
}

// Key is used by partitioned transports.
func (m Message) Key() string {
	return string(m.Type)
}

type IGateway interface {
	Send(msg Message) error
}

// IService is what the transport adapters need from the telemetry service.
type IService interface {
	Modules() []SensorModule
	Module(id string) (SensorModule, error)
	History(id string, hours int) (History, error)
	DefaultHistoryHours() int
	Statistics() (SystemStats, error)
	MapData() MapData
	Alerts() Alerts
	Snapshot() ([]SensorModule, []Alert)
	Contact(msg ContactMessage) (ContactReceipt, error)
	Health() Health
	Banner() Banner
}
