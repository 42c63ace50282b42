package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/aquavigil/model"
)

const (
	Version = "1.0.0"

	bannerMessage = "AquaVIGIL API - Water Monitoring System"
	contactReply  = "Thank you for your message! We will get back to you soon."
	contactStatus = "received"
	healthyStatus = "healthy"
	activeStatus  = "active"

	outboxSize = 64
)

type ServiceConfig struct {
	Seed                int64   `yaml:"Seed"`
	DefaultHistoryHours int     `yaml:"DefaultHistoryHours"`
	MaxHistoryHours     int     `yaml:"MaxHistoryHours"`
	RegionsCovered      int     `yaml:"RegionsCovered"`
	UptimePercentage    float64 `yaml:"UptimePercentage"`
}

func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultHistoryHours: DefaultHistoryHours,
		MaxHistoryHours:     MaxHistoryHours,
		RegionsCovered:      DefaultRegionsCovered,
		UptimePercentage:    DefaultUptimePercentage,
	}
}

// FixtureStore is the read side of the module fixture.
type FixtureStore interface {
	Get(id string) (model.SensorModule, error)
	All() []model.SensorModule
	Len() int
	CountByStatus(status model.Status) int
}

type Service struct {
	conf    ServiceConfig
	store   FixtureStore
	gateway model.IGateway
	outbox  chan model.Message
	rnd     *rand.Rand
	now     func() time.Time
	newID   func() string
	logger  zerolog.Logger
}

type Option func(s *Service)

// WithRand replaces the random source. The generator must be safe for concurrent use
// if the service is.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Service) {
		s.rnd = rnd
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

func NewService(conf ServiceConfig, st FixtureStore, g model.IGateway, opts ...Option) *Service {
	if conf.DefaultHistoryHours <= 0 {
		conf.DefaultHistoryHours = DefaultHistoryHours
	}
	if conf.MaxHistoryHours <= 0 {
		conf.MaxHistoryHours = MaxHistoryHours
	}

	s := &Service{
		conf:    conf,
		store:   st,
		gateway: g,
		outbox:  make(chan model.Message, outboxSize),
		rnd:     NewRand(conf.Seed),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   func() string { return uuid.New().String() },
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start forwards queued contact messages to the gateway until ctx is done, so a slow
// broker never holds up the acknowledgement.
func (s *Service) Start(ctx context.Context, wg *sync.WaitGroup) {
	if s.gateway == nil {
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				if n := len(s.outbox); n > 0 {
					s.logger.Warn().Int("pending", n).Msg("contact messages not forwarded at shutdown")
				}
				return
			case msg := <-s.outbox:
				if err := s.gateway.Send(msg); err != nil {
					s.logger.Error().Err(errors.Join(err, errors.New("failed to forward contact message"))).Msg("gateway error")
				}
			}
		}
	}()
}

// live applies a fresh live perturbation to a baseline.
func (s *Service) live(m model.SensorModule) model.SensorModule {
	r := m.Reading()
	r.Timestamp = s.now()
	return m.WithReading(Jitter(s.rnd, r, LiveSpread))
}

// Modules returns every module with live readings.
func (s *Service) Modules() []model.SensorModule {
	all := s.store.All()
	for i := range all {
		all[i] = s.live(all[i])
	}
	return all
}

func (s *Service) Module(id string) (model.SensorModule, error) {
	m, err := s.store.Get(id)
	if err != nil {
		return model.SensorModule{}, err
	}
	return s.live(m), nil
}

func (s *Service) DefaultHistoryHours() int {
	return s.conf.DefaultHistoryHours
}

func (s *Service) History(id string, hours int) (model.History, error) {
	var (
		m       model.SensorModule
		history []model.Reading
		err     error
	)

	m, err = s.store.Get(id)
	if err != nil {
		return model.History{}, err
	}

	if hours > s.conf.MaxHistoryHours {
		return model.History{}, fmt.Errorf("hours must be at most %d, got %d: %w", s.conf.MaxHistoryHours, hours, model.ErrValidation)
	}

	history, err = SynthesizeHistory(s.rnd, m, hours, s.now())
	if err != nil {
		return model.History{}, err
	}

	return model.History{ModuleID: id, History: history}, nil
}

func (s *Service) Statistics() (model.SystemStats, error) {
	return ComputeStats(s.Modules(),
		WithRegionsCovered(s.conf.RegionsCovered),
		WithUptimePercentage(s.conf.UptimePercentage),
	)
}

func (s *Service) MapData() model.MapData {
	modules := s.Modules()
	points := make([]model.MapPoint, 0, len(modules))
	for _, m := range modules {
		points = append(points, model.MapPoint{
			ID:          m.ID,
			Name:        m.Name,
			Location:    m.Location,
			Coordinates: m.Coordinates,
			Status:      m.Status,
			PH:          m.PH,
			TDS:         m.TDS,
			WaterFlow:   m.WaterFlow,
			WaterLevel:  m.WaterLevel,
		})
	}
	return model.MapData{Modules: points}
}

func (s *Service) Alerts() model.Alerts {
	alerts := ComputeAlerts(s.Modules())
	return model.Alerts{Alerts: alerts, Count: len(alerts)}
}

// Snapshot is one live pass over the fleet together with the alerts it raises.
func (s *Service) Snapshot() ([]model.SensorModule, []model.Alert) {
	modules := s.Modules()
	return modules, ComputeAlerts(modules)
}

// Contact acknowledges a contact form message. The message is logged and queued for the
// gateway, never stored.
func (s *Service) Contact(msg model.ContactMessage) (model.ContactReceipt, error) {
	var (
		missing []string
		receipt model.ContactReceipt
	)

	if strings.TrimSpace(msg.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(msg.Email) == "" {
		missing = append(missing, "email")
	}
	if strings.TrimSpace(msg.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return receipt, fmt.Errorf("missing required field(s) %s: %w", strings.Join(missing, ", "), model.ErrValidation)
	}

	receipt = model.ContactReceipt{
		ID:        s.newID(),
		Status:    contactStatus,
		Message:   contactReply,
		Timestamp: s.now(),
	}

	s.logger.Info().
		Str("id", receipt.ID).
		Str("name", msg.Name).
		Str("email", msg.Email).
		Str("subject", msg.Subject).
		Msg("new contact message")

	if s.gateway != nil {
		select {
		case s.outbox <- model.Message{Type: model.MessageContact, Timestamp: receipt.Timestamp, Contact: &msg}:
		default:
			s.logger.Warn().Str("id", receipt.ID).Msg("contact outbox full, message not forwarded")
		}
	}

	return receipt, nil
}

func (s *Service) Health() model.Health {
	return model.Health{
		Status:        healthyStatus,
		Timestamp:     s.now(),
		Version:       Version,
		ModulesCount:  s.store.Len(),
		ActiveModules: s.store.CountByStatus(model.StatusActive),
	}
}

func (s *Service) Banner() model.Banner {
	return model.Banner{
		Message: bannerMessage,
		Version: Version,
		Status:  activeStatus,
	}
}
