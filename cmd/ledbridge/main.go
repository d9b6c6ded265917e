// ledbridge runs an LED controller: the JSON state API over HTTP and
// websocket, UPnP discovery, MQTT control and Hue light following.
package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	httpadapter "led-json-bridge/internal/adapters/input/http"
	"led-json-bridge/internal/adapters/input/ssdp"
	"led-json-bridge/internal/adapters/input/ws"
	"led-json-bridge/internal/adapters/output/huesync"
	"led-json-bridge/internal/adapters/output/mqtt"
	"led-json-bridge/internal/adapters/output/persistence"
	"led-json-bridge/internal/adapters/output/strip"
	"led-json-bridge/internal/domain/buffer"
	"led-json-bridge/internal/domain/model"
	"led-json-bridge/internal/domain/service"
	"led-json-bridge/internal/logging"
)

var version = "dev"

const defaultConfigPath = "/app/config.yaml"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		listen      string
		leds        int
		logLevel    string
		showVersion bool
	)
	flagSet := pflag.NewFlagSet("ledbridge", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "configuration file (default $CONFIG_PATH or "+defaultConfigPath+")")
	flagSet.StringVar(&listen, "listen", "", "HTTP listen address, overrides server.listen")
	flagSet.IntVar(&leds, "leds", 0, "LED count, overrides strip.led_count")
	flagSet.StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	flagSet.BoolVar(&showVersion, "version", false, "print the version and exit")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if showVersion {
		fmt.Println("ledbridge", version)
		return nil
	}

	if configPath == "" {
		configPath = os.Getenv("CONFIG_PATH")
	}
	if configPath == "" {
		configPath = defaultConfigPath
	}
	configRepo := persistence.NewYAMLConfigRepository(configPath)
	cfg, err := configRepo.Get(context.Background())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyEnv(cfg)
	if listen != "" {
		cfg.Server.Listen = listen
	}
	if leds > 0 {
		cfg.Strip.LEDCount = leds
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	logger := logging.New(cfg.Logging, version)

	ip := cfg.Server.LocalIP
	if ip == "" {
		ip = getLocalIP()
	}
	if ip == "" {
		return errors.New("could not determine local IP, set LOCAL_IP")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cfg, configRepo, ip, logger)
}

func serve(ctx context.Context, cfg *model.Config, configRepo *persistence.YAMLConfigRepository, ip string, logger *logging.Logger) error {
	renderer := strip.New(cfg.Strip, logger)
	arbiter := buffer.NewArbiter(cfg.Server.BufferSize, time.Duration(cfg.Server.LockWaitMS)*time.Millisecond, logger)
	presets := persistence.NewJSONPresetRepository(cfg.Presets.Path)

	st := model.NewState()
	if cfg.Strip.TransitionMS > 0 {
		d := time.Duration(cfg.Strip.TransitionMS) * time.Millisecond
		st.TransitionDefault, st.Transition, st.TransitionTemp = d, d, d
	}
	state := service.NewStateService(arbiter, renderer, presets, logger, service.WithState(st))

	hub := ws.NewHub(cfg.WebSocket, state, logger)
	state.Subscribe(hub)

	port := listenPort(cfg.Server.Listen)
	deviceID := uuid.NewSHA1(uuid.NameSpaceURL, []byte("ledbridge://"+ip)).String()
	httpServer := httpadapter.NewServer(httpadapter.Deps{
		State:   state,
		Config:  service.NewConfigService(configRepo, logger),
		WS:      hub,
		Logger:  logger,
		IP:      ip,
		Port:    port,
		Name:    cfg.Server.Name,
		UUID:    deviceID,
		MaxBody: int64(arbiter.Size()),
	})

	logger.Info("starting", "ip", ip, "listen", cfg.Server.Listen, "leds", cfg.Strip.LEDCount)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return state.Run(ctx) })
	g.Go(func() error { return hub.Run(ctx) })
	g.Go(func() error { return httpServer.ListenAndServe(ctx, cfg.Server.Listen) })

	if cfg.Discovery.Enabled {
		discovery := ssdp.NewServer(ip, port, deviceID, logger)
		g.Go(func() error {
			if err := discovery.Start(ctx); err != nil {
				logger.Warn("ssdp server stopped", "error", err)
			}
			return nil
		})
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.Connect(cfg.MQTT, logger)
		if err != nil {
			logger.Warn("mqtt disabled", "error", err)
		} else {
			bridge := mqtt.NewBridge(cfg.MQTT, state, logger)
			state.Subscribe(bridge)
			g.Go(func() error {
				defer client.Close()
				return bridge.Run(ctx, client)
			})
		}
	}

	if cfg.HueSync.Enabled {
		poller := huesync.NewPoller(cfg.HueSync, huesync.Connect(cfg.HueSync), state, logger)
		g.Go(func() error { return poller.Run(ctx) })
	}

	return g.Wait()
}

// applyEnv copies environment overrides into cfg.
func applyEnv(cfg *model.Config) {
	if v := os.Getenv("LOCAL_IP"); v != "" {
		cfg.Server.LocalIP = v
	}
	if v := os.Getenv("LEDBRIDGE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("LEDBRIDGE_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
}

func listenPort(addr string) int {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(p)
	if err != nil || port == 0 {
		return 80
	}
	return port
}

func getLocalIP() string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, address := range addrs {
		if ipnet, ok := address.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipnet.IP.To4() != nil {
				return ipnet.IP.String()
			}
		}
	}
	return ""
}
