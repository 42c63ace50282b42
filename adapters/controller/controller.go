package controller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/aquavigil/model"
)

const defaultFrequency = 5

type ControllerConfig struct {
	Enabled bool `yaml:"Enabled"`
	// Frequency is the number of seconds between two broadcasts.
	Frequency int `yaml:"Frequency"`
	// MaxDataPoint stops the broadcaster after that many ticks, 0 runs until shutdown.
	MaxDataPoint int `yaml:"MaxDataPoint"`
	// DataDefinition is the module fixture, one json module per line. Empty uses the
	// built-in fixture.
	DataDefinition string `yaml:"DataDefinition"`
}

type observer interface {
	ObserveAlerts(alerts []model.Alert)
	ObserveGateway(t model.MessageType, err error)
}

// Controller periodically pushes a live snapshot of the fleet, and the alerts it
// raises, to the gateway.
type Controller struct {
	interval     time.Duration
	maxDataPoint int
	svc          model.IService
	gateway      model.IGateway
	metrics      observer
	logger       zerolog.Logger
}

func NewController(conf ControllerConfig, svc model.IService, g model.IGateway, m observer, l zerolog.Logger) Controller {
	if conf.Frequency <= 0 {
		conf.Frequency = defaultFrequency
	}

	return Controller{
		interval:     time.Duration(conf.Frequency) * time.Second,
		maxDataPoint: conf.MaxDataPoint,
		svc:          svc,
		gateway:      g,
		metrics:      m,
		logger:       l.With().Str("component", "broadcaster").Logger(),
	}
}

func (c Controller) Start(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()

		c.logger.Info().Dur("interval", c.interval).Int("max_data_point", c.maxDataPoint).Msg("broadcaster started")
		for i := 1; ; i++ {
			c.tick()
			if c.maxDataPoint > 0 && i >= c.maxDataPoint {
				break
			}
			select {
			case <-ctx.Done():
				c.logger.Info().Msg("context received signal, shutting down broadcaster")
				return
			case <-time.After(c.interval):
			}
		}
		c.logger.Info().Int("ticks", c.maxDataPoint).Msg("broadcaster done")
	}()
}

func (c Controller) tick() {
	var (
		modules []model.SensorModule
		alerts  []model.Alert
		now     time.Time
	)

	modules, alerts = c.svc.Snapshot()
	now = time.Now().UTC()

	c.send(model.Message{Type: model.MessageTelemetry, Timestamp: now, Modules: modules})

	if len(alerts) > 0 {
		if c.metrics != nil {
			c.metrics.ObserveAlerts(alerts)
		}
		c.send(model.Message{Type: model.MessageAlerts, Timestamp: now, Alerts: alerts})
	}
}

func (c Controller) send(msg model.Message) {
	err := c.gateway.Send(msg)
	if c.metrics != nil {
		c.metrics.ObserveGateway(msg.Type, err)
	}
	if err != nil {
		c.logger.Error().Err(err).Str("type", string(msg.Type)).Msg("gateway send failed")
	}
}
