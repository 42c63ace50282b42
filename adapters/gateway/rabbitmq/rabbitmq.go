package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/Go-routine-4595/aquavigil/model"
)

const (
	reconnectDelay = 5 * time.Second
	queueSize      = 64
)

type RabbitMQConfig struct {
	ConnectionString string `yaml:"ConnectionString"`
	QueueName        string `yaml:"QueueName"`
}

// amqpConn is the part of *amqp.Connection the gateway uses.
type amqpConn interface {
	Channel() (*amqp.Channel, error)
	Close() error
}

func dialAMQP(url string) (amqpConn, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// RabbitMQ queues messages in memory and publishes them from a single goroutine, so
// Send never blocks on the broker.
type RabbitMQ struct {
	ConnectionString string
	QueueName        string
	msgs             chan []byte
	logger           zerolog.Logger
	dial             func(url string) (amqpConn, error)
	conn             amqpConn
	ch               *amqp.Channel
}

func NewRabbitMQ(config RabbitMQConfig, l zerolog.Logger) *RabbitMQ {
	return &RabbitMQ{
		msgs:             make(chan []byte, queueSize),
		ConnectionString: config.ConnectionString,
		QueueName:        config.QueueName,
		dial:             dialAMQP,
		logger:           l.With().Str("component", "rabbitmq").Logger(),
	}
}

func (r *RabbitMQ) Send(msg model.Message) error {
	var (
		b   []byte
		err error
	)

	b, err = json.Marshal(msg)
	if err != nil {
		return errors.Join(err, errors.New("failed to marshal message"))
	}

	select {
	case r.msgs <- b:
		return nil
	default:
		return errors.New("rabbitmq publish queue is full")
	}
}

// connect establishes a new connection and channel. A previous connection is closed
// first, and a connection whose channel setup fails is not kept.
func (r *RabbitMQ) connect() error {
	var (
		conn amqpConn
		ch   *amqp.Channel
		err  error
	)

	if err = r.Close(); err != nil {
		r.logger.Debug().Err(err).Msg("closing previous connection")
	}
	r.conn, r.ch = nil, nil

	conn, err = r.dial(r.ConnectionString)
	if err != nil {
		return err
	}

	ch, err = conn.Channel()
	if err != nil {
		conn.Close()
		return err
	}

	_, err = ch.QueueDeclare(
		r.QueueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		conn.Close()
		return err
	}

	r.conn, r.ch = conn, ch
	return nil
}

// reconnect retries until the broker is back or ctx is done.
func (r *RabbitMQ) reconnect(ctx context.Context) bool {
	for {
		r.logger.Info().Msg("Attempting to reconnect to RabbitMQ...")
		err := r.connect()
		if err == nil {
			r.logger.Info().Msg("Successfully reconnected to RabbitMQ...")
			return true
		}
		r.logger.Error().Err(err).Msg("Reconnect failed")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(reconnectDelay):
		}
	}
}

// Start connects and runs the publish loop until ctx is canceled.
func (r *RabbitMQ) Start(ctx context.Context, wg *sync.WaitGroup) error {
	err := r.connect()
	if err != nil {
		return errors.Join(err, errors.New("failed to connect to RabbitMQ"))
	}

	wg.Add(1)
	go r.publish(ctx, wg)
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func (r *RabbitMQ) publish(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			if err := r.Close(); err != nil {
				r.logger.Warn().Err(err).Msg("closing connection")
			}
			r.logger.Info().Msg("Received interrupt signal, closing connection")
			return
		case msg := <-r.msgs:
			err := r.ch.Publish(
				"",          // Exchange
				r.QueueName, // Routing key (queue name)
				false,       // Mandatory
				false,       // Immediate
				amqp.Publishing{
					ContentType: "application/json",
					Timestamp:   time.Now(),
					Body:        msg,
				},
			)
			if err != nil {
				r.logger.Error().Err(err).Msg("Failed to publish a message")
				if !r.reconnect(ctx) {
					return
				}
			}
		}
	}
}
