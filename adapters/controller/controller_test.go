package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Go-routine-4595/aquavigil/model"
)

type snapshotService struct {
	model.IService
	alerts []model.Alert
}

func (s snapshotService) Snapshot() ([]model.SensorModule, []model.Alert) {
	return []model.SensorModule{{ID: "sensors1"}, {ID: "sensors2"}}, s.alerts
}

type recordingGateway struct {
	mu   sync.Mutex
	sent []model.Message
	err  error
}

func (g *recordingGateway) Send(msg model.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sent = append(g.sent, msg)
	return g.err
}

func (g *recordingGateway) messages() []model.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]model.Message(nil), g.sent...)
}

type countingObserver struct {
	mu       sync.Mutex
	alerts   int
	messages int
	errors   int
}

func (o *countingObserver) ObserveAlerts(alerts []model.Alert) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.alerts += len(alerts)
}

func (o *countingObserver) ObserveGateway(_ model.MessageType, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.messages++
	if err != nil {
		o.errors++
	}
}

func TestTickSendsTelemetryOnly(t *testing.T) {
	g := &recordingGateway{}
	c := NewController(ControllerConfig{}, snapshotService{}, g, nil, zerolog.Nop())

	c.tick()

	sent := g.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, model.MessageTelemetry, sent[0].Type)
	assert.Len(t, sent[0].Modules, 2)
	assert.Empty(t, sent[0].Alerts)
}

func TestTickSendsAlerts(t *testing.T) {
	var (
		g   = &recordingGateway{}
		obs = &countingObserver{}
		svc = snapshotService{alerts: []model.Alert{{ID: "status-sensors4", Severity: model.SeverityInfo}}}
	)

	c := NewController(ControllerConfig{}, svc, g, obs, zerolog.Nop())
	c.tick()

	sent := g.messages()
	require.Len(t, sent, 2)
	assert.Equal(t, model.MessageAlerts, sent[1].Type)
	assert.Equal(t, "status-sensors4", sent[1].Alerts[0].ID)
	assert.Equal(t, sent[0].Timestamp, sent[1].Timestamp)
	assert.Equal(t, 1, obs.alerts)
	assert.Equal(t, 2, obs.messages)
}

func TestGatewayErrorsAreCounted(t *testing.T) {
	g := &recordingGateway{err: errors.New("broker down")}
	obs := &countingObserver{}

	c := NewController(ControllerConfig{}, snapshotService{}, g, obs, zerolog.Nop())
	c.tick()
	c.tick()

	assert.Len(t, g.messages(), 2)
	assert.Equal(t, 2, obs.errors)
}

func TestDefaultFrequency(t *testing.T) {
	c := NewController(ControllerConfig{Frequency: -3}, snapshotService{}, &recordingGateway{}, nil, zerolog.Nop())
	assert.Equal(t, defaultFrequency*time.Second, c.interval)

	c = NewController(ControllerConfig{Frequency: 2}, snapshotService{}, &recordingGateway{}, nil, zerolog.Nop())
	assert.Equal(t, 2*time.Second, c.interval)
}

func TestStartStopsAfterMaxDataPoint(t *testing.T) {
	var wg sync.WaitGroup

	g := &recordingGateway{}
	c := NewController(ControllerConfig{MaxDataPoint: 3}, snapshotService{}, g, nil, zerolog.Nop())
	c.interval = time.Millisecond

	c.Start(context.Background(), &wg)
	wg.Wait()

	assert.Len(t, g.messages(), 3)
}

func TestStartStopsOnCancel(t *testing.T) {
	var wg sync.WaitGroup

	g := &recordingGateway{}
	c := NewController(ControllerConfig{}, snapshotService{}, g, nil, zerolog.Nop())
	c.interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx, &wg)

	require.Eventually(t, func() bool { return len(g.messages()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	wg.Wait()

	assert.Len(t, g.messages(), 1)
}

func TestStartReleasesRightAfterLastTick(t *testing.T) {
	var wg sync.WaitGroup

	g := &recordingGateway{}
	c := NewController(ControllerConfig{MaxDataPoint: 1}, snapshotService{}, g, nil, zerolog.Nop())
	c.interval = time.Hour

	c.Start(context.Background(), &wg)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcaster waited a full interval after its last tick")
	}
	assert.Len(t, g.messages(), 1)
}
