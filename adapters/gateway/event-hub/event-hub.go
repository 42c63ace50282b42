package event_hub

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azeventhubs"
	"github.com/rs/zerolog"

	"github.com/Go-routine-4595/aquavigil/model"
)

const sendTimeout = 5 * time.Second

// connection string can have the event hub name like this
// Endpoint=sb://<namespace>.servicebus.windows.net/;SharedAccessKeyName=<KeyName>;SharedAccessKey=<KeyValue>;EntityPath=aquavigil-telemetry
// see https://learn.microsoft.com/en-us/azure/event-hubs/event-hubs-get-connection-string

type EventHubConfig struct {
	Connection   string `yaml:"Connection"`
	EventHubName string `yaml:"EventHubName"`
}

type EventHub struct {
	producerClient *azeventhubs.ProducerClient
	logger         zerolog.Logger
}

func NewEventHub(ctx context.Context, wg *sync.WaitGroup, conf EventHubConfig, l zerolog.Logger) (*EventHub, error) {
	var (
		err            error
		producerClient *azeventhubs.ProducerClient
	)
	producerClient, err = azeventhubs.NewProducerClientFromConnectionString(conf.Connection, conf.EventHubName, nil)
	if err != nil {
		return nil, errors.Join(err, errors.New("failed to create producer client"))
	}

	e := &EventHub{
		producerClient: producerClient,
		logger:         l.With().Str("component", "event-hub").Logger(),
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := producerClient.Close(closeCtx); err != nil {
			e.logger.Error().Err(err).Msg("failed to close producer client")
		}
	}()

	return e, nil
}

// Send packs msg into batches keyed by message type. Telemetry is sent as one event per
// module so a single event never carries the whole fleet.
func (e *EventHub) Send(msg model.Message) error {
	var (
		events []*azeventhubs.EventData
		err    error
	)

	events, err = eventsFor(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	key := msg.Key()
	newBatchOptions := &azeventhubs.EventDataBatchOptions{
		// PartitionKey keeps messages of the same type on the same partition.
		PartitionKey: &key,
	}

	batch, err := e.producerClient.NewEventDataBatch(ctx, newBatchOptions)
	if err != nil {
		return errors.Join(err, errors.New("failed to create event data batch"))
	}

	for i := 0; i < len(events); i++ {
		err = batch.AddEventData(events[i], nil)
		if errors.Is(err, azeventhubs.ErrEventDataTooLarge) {
			if batch.NumEvents() == 0 {
				// This one event is too large for this batch, even on its own.
				return errors.Join(err, errors.New("failed to send message, event is too large"))
			}

			// This batch is full - send it and retry the event on a fresh one.
			if err = e.producerClient.SendEventDataBatch(ctx, batch, nil); err != nil {
				return errors.Join(err, errors.New("failed to send event batch"))
			}

			batch, err = e.producerClient.NewEventDataBatch(ctx, newBatchOptions)
			if err != nil {
				return errors.Join(err, errors.New("failed to create a new batch"))
			}
			i--
			continue
		} else if err != nil {
			return errors.Join(err, errors.New("failed to add event"))
		}
	}

	// if we have any events in the last batch, send it
	if batch.NumEvents() > 0 {
		if err = e.producerClient.SendEventDataBatch(ctx, batch, nil); err != nil {
			return errors.Join(err, errors.New("failed to send event batch"))
		}
	}

	return nil
}

func eventsFor(msg model.Message) ([]*azeventhubs.EventData, error) {
	var (
		buf []byte
		err error
	)

	if msg.Type != model.MessageTelemetry || len(msg.Modules) <= 1 {
		buf, err = json.Marshal(msg)
		if err != nil {
			return nil, errors.Join(err, errors.New("failed to marshal message"))
		}
		return []*azeventhubs.EventData{createEvent(msg.Type, buf)}, nil
	}

	events := make([]*azeventhubs.EventData, 0, len(msg.Modules))
	for _, m := range msg.Modules {
		part := msg
		part.Modules = []model.SensorModule{m}
		buf, err = json.Marshal(part)
		if err != nil {
			return nil, errors.Join(err, errors.New("failed to marshal message"))
		}
		events = append(events, createEvent(msg.Type, buf))
	}
	return events, nil
}

func createEvent(t model.MessageType, buf []byte) *azeventhubs.EventData {
	contentType := "application/json"
	return &azeventhubs.EventData{
		Body:        buf,
		ContentType: &contentType,
		Properties:  map[string]any{"type": string(t)},
	}
}
