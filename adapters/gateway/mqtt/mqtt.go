package mqtt

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"sync"
	"time"

	pmqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
	uuid "github.com/satori/go.uuid"

	"github.com/Go-routine-4595/aquavigil/model"
)

const publishTimeout = 200 * time.Millisecond

// MqttConf holds the configuration for the MQTT client.
type MqttConf struct {
	Connection string `yaml:"Connection"`
	Topic      string `yaml:"Topic"`
	// InsecureSkipVerify disables broker certificate checks for self-signed test brokers.
	InsecureSkipVerify bool `yaml:"InsecureSkipVerify"`
}

// Mqtt publishes gateway messages on one topic, with the message type as a sub topic.
type Mqtt struct {
	Topic    string
	MgtUrl   string
	logger   zerolog.Logger
	opt      *pmqtt.ClientOptions
	ClientID uuid.UUID
	client   pmqtt.Client
}

func NewMqtt(ctx context.Context, wg *sync.WaitGroup, conf MqttConf, l zerolog.Logger) (*Mqtt, error) {
	var (
		err        error
		cid        uuid.UUID
		mqttClient *Mqtt
	)

	cid = uuid.NewV4()
	l = l.With().Str("component", "mqtt").Logger()
	mqttClient = &Mqtt{
		Topic:    conf.Topic,
		MgtUrl:   conf.Connection,
		logger:   l,
		ClientID: cid,
		opt: pmqtt.NewClientOptions().
			AddBroker(conf.Connection).
			SetClientID("aquavigil-" + cid.String()).
			SetCleanSession(true).
			SetAutoReconnect(true).
			SetTLSConfig(&tls.Config{
				InsecureSkipVerify: conf.InsecureSkipVerify,
			}).
			SetConnectionLostHandler(ConnectLostHandler(l)).
			SetOnConnectHandler(ConnectHandler(l)),
	}

	err = mqttClient.Connect()
	if err != nil {
		return nil, err
	}

	mqttClient.setupContextListener(ctx, wg)

	return mqttClient, nil
}

// setupContextListener ensures proper disconnection when the context is canceled.
func (m *Mqtt) setupContextListener(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		m.Disconnect()
	}()
}

func (m *Mqtt) topicFor(msg model.Message) string {
	return m.Topic + "/" + string(msg.Type)
}

// Send publishes msg with QoS 1. A publish that does not complete within the timeout is
// logged and reported.
func (m *Mqtt) Send(msg model.Message) error {
	var (
		err   error
		b     []byte
		token pmqtt.Token
	)

	b, err = json.Marshal(msg)
	if err != nil {
		m.logger.Error().Err(err).Str("type", string(msg.Type)).Msg("failed to marshal message")
		return errors.Join(err, errors.New("failed to marshal message"))
	}

	token = m.client.Publish(m.topicFor(msg), 1, false, b)
	if !token.WaitTimeout(publishTimeout) {
		m.logger.Warn().Str("topic", m.topicFor(msg)).Msg("Timeout exceeded during publishing")
		return errors.New("mqtt publish timeout")
	}
	if token.Error() != nil {
		m.logger.Error().Err(token.Error()).Str("topic", m.topicFor(msg)).Msg("failed to publish")
		return errors.Join(token.Error(), errors.New("mqtt publish"))
	}

	return nil
}

// Disconnect terminates the connection to the MQTT broker and logs the disconnection event.
func (m *Mqtt) Disconnect() {
	m.client.Disconnect(250)
	m.logger.Warn().Msg("Mqtt disconnected")
}

func (m *Mqtt) Connect() error {
	m.client = pmqtt.NewClient(m.opt)
	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		m.logger.Error().Err(token.Error()).Msg("Error connecting to mqtt broker")
		return errors.Join(token.Error(), errors.New("Error connecting to mqtt broker"))
	}
	return nil
}

func ConnectHandler(logger zerolog.Logger) func(client pmqtt.Client) {
	return func(client pmqtt.Client) {
		logger.Info().Msg("Connected to mqtt broker")
	}
}

func ConnectLostHandler(logger zerolog.Logger) func(client pmqtt.Client, err error) {
	return func(client pmqtt.Client, err error) {
		logger.Warn().Err(err).Msg("Connection Lost")
	}
}
