package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/Go-routine-4595/aquavigil/model"
)

const writeTimeout = 2 * time.Second

type KafkaConfig struct {
	Brokers []string `yaml:"Brokers"`
	Topic   string   `yaml:"Topic"`
}

// messageWriter is the part of *kafkago.Writer the gateway uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Kafka struct {
	writer messageWriter
	logger zerolog.Logger
}

func NewKafka(ctx context.Context, wg *sync.WaitGroup, conf KafkaConfig, l zerolog.Logger) (*Kafka, error) {
	if len(conf.Brokers) == 0 || conf.Topic == "" {
		return nil, errors.New("kafka gateway needs brokers and a topic")
	}

	k := newKafka(&kafkago.Writer{
		Addr:                   kafkago.TCP(conf.Brokers...),
		Topic:                  conf.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
	}, l)

	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		if err := k.writer.Close(); err != nil {
			k.logger.Error().Err(err).Msg("failed to close kafka writer")
		}
	}()

	return k, nil
}

func newKafka(w messageWriter, l zerolog.Logger) *Kafka {
	return &Kafka{
		writer: w,
		logger: l.With().Str("component", "kafka").Logger(),
	}
}

// Send writes msg keyed by its type, so one type stays on one partition.
func (k *Kafka) Send(msg model.Message) error {
	var (
		b   []byte
		err error
	)

	b, err = json.Marshal(msg)
	if err != nil {
		return errors.Join(err, errors.New("failed to marshal message"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	err = k.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(msg.Key()),
		Value: b,
		Time:  msg.Timestamp,
	})
	if err != nil {
		k.logger.Error().Err(err).Str("type", string(msg.Type)).Msg("failed to write message")
		return errors.Join(err, errors.New("kafka write"))
	}

	return nil
}
