package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/Go-routine-4595/aquavigil/adapters/controller"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/event-hub"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/kafka"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/mqtt"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/rabbitmq"
	"github.com/Go-routine-4595/aquavigil/service"
)

const (
	defaultConfigFile = "config.yaml"
	defaultAddr       = ":8001"
)

type Config struct {
	// LogLevel is added to info: -1 is debug, 1 is warn.
	LogLevel int `yaml:"LogLevel"`
	// Display prints every gateway message as a json line on stdout.
	Display                     bool `yaml:"Display"`
	controller.ServerConfig     `yaml:"ServerConfig"`
	controller.ControllerConfig `yaml:"ControllerConfig"`
	service.ServiceConfig       `yaml:"ServiceConfig"`
	mqtt.MqttConf               `yaml:"MqttConfig"`
	rabbitmq.RabbitMQConfig     `yaml:"RabbitConfig"`
	kafka.KafkaConfig           `yaml:"KafkaConfig"`
	event_hub.EventHubConfig    `yaml:"EventHubConfig"`
}

func defaultConfig() Config {
	return Config{
		ServerConfig: controller.ServerConfig{Addr: defaultAddr},
		ControllerConfig: controller.ControllerConfig{
			Frequency: 5,
		},
		ServiceConfig: service.DefaultServiceConfig(),
	}
}

// openConfigFile decodes s over the defaults. A missing default config file is not an
// error, the service runs on defaults.
func openConfigFile(s string) (Config, error) {
	var (
		config   = defaultConfig()
		explicit = s != ""
	)

	if !explicit {
		s = defaultConfigFile
	}

	f, err := os.Open(s)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return config, nil
		}
		return config, errors.Join(err, fmt.Errorf("open %s file", s))
	}
	defer f.Close()

	err = yaml.NewDecoder(f).Decode(&config)
	if err != nil && !errors.Is(err, io.EOF) {
		return config, errors.Join(err, fmt.Errorf("decode %s file", s))
	}

	return config, nil
}

func createLogger(logLevel int) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		Level(zerolog.InfoLevel+zerolog.Level(logLevel)).
		With().Timestamp().Int("pid", os.Getpid()).Logger()
}

func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}
