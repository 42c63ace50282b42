package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Go-routine-4595/aquavigil/adapters/controller"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/display"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/event-hub"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/fanout"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/kafka"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/mqtt"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/rabbitmq"
	"github.com/Go-routine-4595/aquavigil/adapters/gateway/websocket"
	"github.com/Go-routine-4595/aquavigil/adapters/metrics"
	"github.com/Go-routine-4595/aquavigil/service"
	"github.com/Go-routine-4595/aquavigil/store"
)

type flags struct {
	config   string
	addr     string
	seed     int64
	logLevel int
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		processError(err)
	}
}

func newRootCommand() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "aquavigil",
		Short:         "AquaVIGIL water monitoring mock API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := openConfigFile(f.config)
			if err != nil {
				return err
			}
			applyFlags(cmd, f, &conf)
			return run(conf)
		},
	}

	cmd.Flags().StringVarP(&f.config, "config", "c", "", "config file (default "+defaultConfigFile+")")
	cmd.Flags().StringVar(&f.addr, "addr", defaultAddr, "http listen address")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "random seed, 0 seeds from the clock")
	cmd.Flags().IntVar(&f.logLevel, "log-level", 0, "log level offset from info (-1 debug, 1 warn)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the API version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), service.Version)
		},
	})

	return cmd
}

// applyFlags lets explicitly set flags win over the config file.
func applyFlags(cmd *cobra.Command, f flags, conf *Config) {
	if cmd.Flags().Changed("addr") {
		conf.ServerConfig.Addr = f.addr
	}
	if cmd.Flags().Changed("seed") {
		conf.ServiceConfig.Seed = f.seed
	}
	if cmd.Flags().Changed("log-level") {
		conf.LogLevel = f.logLevel
	}
}

func run(conf Config) error {
	var (
		logger zerolog.Logger
		st     *store.Store
		svc    *service.Service
		hub    *websocket.Hub
		gtw    *fanout.Fanout
		mtr    *metrics.Metrics
		ctx    context.Context
		cancel context.CancelFunc
		sig    chan os.Signal
		wg     *sync.WaitGroup
		err    error
	)

	logger = createLogger(conf.LogLevel)

	st, err = store.Load(conf.DataDefinition)
	if err != nil {
		return err
	}

	wg = &sync.WaitGroup{}
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	mtr = metrics.NewMetrics()

	hub = websocket.NewHub(logger)
	hub.Start(ctx, wg)

	gtw = newGateways(ctx, wg, conf, hub, logger)
	logger.Info().Strs("gateways", gtw.Names()).Int("modules", st.Len()).Msg("starting aquavigil")

	svc = service.NewService(conf.ServiceConfig, st, gtw, service.WithLogger(logger))
	svc.Start(ctx, wg)

	err = controller.NewServer(conf.ServerConfig, svc, mtr, hub.ServeWS, logger).Start(ctx, wg)
	if err != nil {
		cancel()
		wg.Wait()
		return err
	}

	if conf.ControllerConfig.Enabled {
		controller.NewController(conf.ControllerConfig, svc, gtw, mtr, logger).Start(ctx, wg)
	}

	sig = make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		logger.Info().Msg("signal received, shutting down")
		cancel()
	}()
	wg.Wait()

	return nil
}

// newGateways builds the notification fan-out. A broker that is configured but cannot
// be reached is logged and left out so the API still comes up.
func newGateways(ctx context.Context, wg *sync.WaitGroup, conf Config, hub *websocket.Hub, logger zerolog.Logger) *fanout.Fanout {
	gtw := fanout.NewFanout().Add("websocket", hub)

	if conf.Display {
		gtw.Add("display", display.NewDisplay())
	}

	if conf.MqttConf.Connection != "" {
		m, err := mqtt.NewMqtt(ctx, wg, conf.MqttConf, logger)
		if err != nil {
			logger.Error().Err(err).Msg("mqtt gateway disabled")
		} else {
			gtw.Add("mqtt", m)
		}
	}

	if conf.RabbitMQConfig.ConnectionString != "" {
		r := rabbitmq.NewRabbitMQ(conf.RabbitMQConfig, logger)
		if err := r.Start(ctx, wg); err != nil {
			logger.Error().Err(err).Msg("rabbitmq gateway disabled")
		} else {
			gtw.Add("rabbitmq", r)
		}
	}

	if len(conf.KafkaConfig.Brokers) > 0 {
		k, err := kafka.NewKafka(ctx, wg, conf.KafkaConfig, logger)
		if err != nil {
			logger.Error().Err(err).Msg("kafka gateway disabled")
		} else {
			gtw.Add("kafka", k)
		}
	}

	if conf.EventHubConfig.Connection != "" {
		eh, err := event_hub.NewEventHub(ctx, wg, conf.EventHubConfig, logger)
		if err != nil {
			logger.Error().Err(err).Msg("event hub gateway disabled")
		} else {
			gtw.Add("event-hub", eh)
		}
	}

	return gtw
}
