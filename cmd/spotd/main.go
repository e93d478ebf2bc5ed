package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mikey-austin/spotctl/internal/adapters/idgen"
	"github.com/mikey-austin/spotctl/internal/adapters/mqttserver"
	"github.com/mikey-austin/spotctl/internal/adapters/tlsconfig"
	"github.com/mikey-austin/spotctl/internal/apiserver"
	"github.com/mikey-austin/spotctl/internal/client"
	"github.com/mikey-austin/spotctl/internal/engine/vlc"
	embeddedmqtt "github.com/mikey-austin/spotctl/internal/modules/embedded_mqtt"
	mqttbridge "github.com/mikey-austin/spotctl/internal/modules/mqtt_bridge"
	"github.com/mikey-austin/spotctl/internal/spotd"
)

func main() {
	var (
		configPath  string
		listen      string
		logLevel    string
		logFormat   string
		logOutput   string
		logSource   bool
		logUTC      bool
		printConfig bool
		dryRun      bool
	)

	flag.StringVar(&configPath, "config", "", "config file path (default $XDG_CONFIG_HOME/spotctl/spotd.toml)")
	flag.StringVar(&listen, "listen", "", "datagram listen address override")
	flag.StringVar(&logLevel, "log-level", "", "log level override")
	flag.StringVar(&logFormat, "log-format", "", "log format override (text|json)")
	flag.StringVar(&logOutput, "log-output", "", "log output override (stdout|stderr)")
	flag.BoolVar(&logSource, "log-source", false, "include source file in logs")
	flag.BoolVar(&logUTC, "log-utc", false, "use UTC timestamps in logs")
	flag.BoolVar(&printConfig, "print-config", false, "print resolved config and exit")
	flag.BoolVar(&dryRun, "dry-run", false, "validate config and exit")
	flag.Parse()

	cfg, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	applyOverrides(&cfg, listen, logLevel, logFormat, logOutput, logSource, logUTC)

	if printConfig {
		printResolvedConfig(cfg)
		return
	}
	if dryRun {
		return
	}

	logger := spotd.NewLogger(spotd.LogConfig{
		Level:     cfg.Server.LogLevel,
		Format:    cfg.Server.LogFormat,
		Output:    cfg.Server.LogOutput,
		AddSource: cfg.Server.LogSource,
		UTC:       cfg.Server.LogUTC,
	})
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Info("spotd starting",
		zap.String("listen", cfg.Server.Listen),
		zap.Int64("recv_timeout_ms", cfg.Server.RecvTimeoutMS),
		zap.Bool("vlc", cfg.Engine.VLC.Enabled),
		zap.Bool("embedded_mqtt", cfg.Modules.EmbeddedMQTT.Enabled),
		zap.Bool("mqtt_bridge", cfg.Modules.MQTTBridge.Enabled),
	)

	if cfg.Modules.EmbeddedMQTT.Enabled {
		if err := startEmbeddedBroker(ctx, cfg, logger, cancel); err != nil {
			logger.Error("embedded mqtt failed", zap.Error(err))
			os.Exit(1)
		}
	}

	var mqttClient *mqttserver.Client
	if cfg.Modules.MQTTBridge.Enabled {
		bridgeCfg := cfg.Modules.MQTTBridge
		mqttClient, err = mqttserver.NewClient(mqttserver.Options{
			BrokerURL:   bridgeCfg.Broker,
			ClientID:    idgen.Generator{Prefix: "spotd"}.NewID(),
			Username:    bridgeCfg.Username,
			Password:    bridgeCfg.Password,
			TLS:         tlsconfig.Paths{CA: bridgeCfg.TLSCA, Cert: bridgeCfg.TLSCert, Key: bridgeCfg.TLSKey},
			Timeout:     2 * time.Second,
			Logger:      logger.With(zap.String("module", "mqtt")),
			Debug:       cfg.Server.LogLevel == "debug",
			WillTopic:   mqttbridge.TopicPresence(bridgeCfg.TopicBase, bridgeCfg.NodeID),
			WillPayload: []byte("offline"),
		})
		if err != nil {
			logger.Error("mqtt connection failed", zap.Error(err))
			os.Exit(1)
		}
		defer mqttClient.Close()
	}

	modules, err := buildModules(cfg, mqttClient, logger)
	if err != nil {
		logger.Error("failed to build modules", zap.Error(err))
		os.Exit(1)
	}

	supervisor := spotd.Supervisor{Logger: logger}
	if err := supervisor.Run(ctx, modules); err != nil {
		logger.Error("supervisor error", zap.Error(err))
		os.Exit(1)
	}
}

func loadConfig(path string) (spotd.Config, error) {
	if path == "" {
		return spotd.LoadDefaultConfig()
	}
	return spotd.LoadConfig(path)
}

func applyOverrides(cfg *spotd.Config, listen string, logLevel string, logFormat string, logOutput string, logSource bool, logUTC bool) {
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if logFormat != "" {
		cfg.Server.LogFormat = logFormat
	}
	if logOutput != "" {
		cfg.Server.LogOutput = logOutput
	}
	if logSource {
		cfg.Server.LogSource = true
	}
	if logUTC {
		cfg.Server.LogUTC = true
	}
	if cfg.Modules.MQTTBridge.TopicBase == "" {
		cfg.Modules.MQTTBridge.TopicBase = mqttbridge.DefaultTopicBase
	}
	if cfg.Modules.MQTTBridge.Broker == "" && cfg.Modules.EmbeddedMQTT.Enabled {
		cfg.Modules.MQTTBridge.Broker = embeddedBrokerURL(*cfg)
	}
}

func buildModules(cfg spotd.Config, mqttClient *mqttserver.Client, logger *zap.Logger) ([]spotd.ModuleRunner, error) {
	modules := []spotd.ModuleRunner{}
	serverCfg := apiserver.Config{
		Listen:      cfg.Server.Listen,
		RecvTimeout: time.Duration(cfg.Server.RecvTimeoutMS) * time.Millisecond,
	}

	if cfg.Modules.MQTTBridge.Enabled {
		if mqttClient == nil {
			return nil, errors.New("mqtt_bridge enabled without mqtt connection")
		}
		bridge, err := mqttbridge.NewModule(
			logger.With(zap.String("module", "mqtt_bridge")),
			mqttClient,
			client.New(cfg.Server.Listen, 2*time.Second),
			mqttbridge.Config{
				NodeID:    cfg.Modules.MQTTBridge.NodeID,
				TopicBase: cfg.Modules.MQTTBridge.TopicBase,
			},
		)
		if err != nil {
			return nil, err
		}
		serverCfg.Observer = bridge
		modules = append(modules, spotd.ModuleRunner{Name: "mqtt_bridge", Run: bridge.Run})
	}

	var server *apiserver.Module
	if cfg.Engine.VLC.Enabled {
		vlcCfg := cfg.Engine.VLC
		engine, err := vlc.NewEngine(logger.With(zap.String("module", "engine_vlc")), vlc.Config{
			BaseURL:      vlcCfg.BaseURL,
			Username:     vlcCfg.Username,
			Password:     vlcCfg.Password,
			Timeout:      time.Duration(vlcCfg.TimeoutMS) * time.Millisecond,
			PollInterval: time.Duration(vlcCfg.PollIntervalMS) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		modules = append(modules, spotd.ModuleRunner{Name: "engine_vlc", Run: engine.Run})
		server = apiserver.NewModule(logger.With(zap.String("module", "api_server")), engine.Events(), engine.Sessions(), serverCfg)
	} else {
		logger.Warn("no playback engine enabled; serving an empty now-playing state")
		server = apiserver.NewModule(logger.With(zap.String("module", "api_server")), nil, nil, serverCfg)
	}
	modules = append(modules, spotd.ModuleRunner{Name: "api_server", Run: server.Run})

	return modules, nil
}

func printResolvedConfig(cfg spotd.Config) {
	fmt.Fprintf(os.Stdout,
		"listen=%s recv_timeout_ms=%d log_level=%s log_format=%s log_output=%s log_source=%t log_utc=%t vlc=%t vlc_base_url=%s embedded_mqtt=%t mqtt_bridge=%t mqtt_broker=%s\n",
		cfg.Server.Listen,
		cfg.Server.RecvTimeoutMS,
		cfg.Server.LogLevel,
		cfg.Server.LogFormat,
		cfg.Server.LogOutput,
		cfg.Server.LogSource,
		cfg.Server.LogUTC,
		cfg.Engine.VLC.Enabled,
		cfg.Engine.VLC.BaseURL,
		cfg.Modules.EmbeddedMQTT.Enabled,
		cfg.Modules.MQTTBridge.Enabled,
		cfg.Modules.MQTTBridge.Broker,
	)
}

func embeddedListen(cfg spotd.Config) string {
	if cfg.Modules.EmbeddedMQTT.Listen == "" {
		return embeddedmqtt.DefaultListen
	}
	return cfg.Modules.EmbeddedMQTT.Listen
}

func embeddedTLS(cfg spotd.Config) tlsconfig.Paths {
	return tlsconfig.Paths{
		CA:   cfg.Modules.EmbeddedMQTT.TLSCA,
		Cert: cfg.Modules.EmbeddedMQTT.TLSCert,
		Key:  cfg.Modules.EmbeddedMQTT.TLSKey,
	}
}

func embeddedBrokerURL(cfg spotd.Config) string {
	return embeddedmqtt.BrokerURL(client.DialAddr(embeddedListen(cfg)), embeddedTLS(cfg).Enabled())
}

// startEmbeddedBroker runs the broker outside the supervisor so that it is
// accepting connections before the bridge dials it.
func startEmbeddedBroker(ctx context.Context, cfg spotd.Config, logger *zap.Logger, cancel context.CancelFunc) error {
	mod, err := embeddedmqtt.NewModule(logger.With(zap.String("module", "embedded_mqtt")), embeddedmqtt.Config{
		Listen:         embeddedListen(cfg),
		AllowAnonymous: cfg.Modules.EmbeddedMQTT.AllowAnonymous,
		Username:       cfg.Modules.EmbeddedMQTT.Username,
		Password:       cfg.Modules.EmbeddedMQTT.Password,
		TLS:            embeddedTLS(cfg),
	})
	if err != nil {
		return err
	}
	go func() {
		if err := mod.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("embedded mqtt exited", zap.Error(err))
			cancel()
		}
	}()
	return waitForListen(embeddedListen(cfg), 3*time.Second)
}

func waitForListen(listen string, timeout time.Duration) error {
	addr := client.DialAddr(listen)
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 200*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("embedded mqtt not ready at %s", addr)
}
