// Command coordinator runs the Trestle coordinator: it loads a house
// profile, aggregates ecosystem facts into the world model, drives the
// decision pipeline from world-model triggers, and delivers realized
// attention to paired panels over the session layer.
//
// # Usage
//
//	coordinator --config /etc/trestle/coordinator.yaml
//
// # Configuration
//
// Configuration can be provided via:
//   - A YAML config file (--config)
//   - Environment variables (TRESTLE_*)
//   - Command-line flags, which take precedence over both
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/trestlehq/coordinator/internal/aggregator"
	"github.com/trestlehq/coordinator/internal/adapter"
	"github.com/trestlehq/coordinator/internal/checkpoint"
	"github.com/trestlehq/coordinator/internal/config"
	"github.com/trestlehq/coordinator/internal/health"
	"github.com/trestlehq/coordinator/internal/inventory"
	"github.com/trestlehq/coordinator/internal/pairing"
	"github.com/trestlehq/coordinator/internal/pipeline"
	"github.com/trestlehq/coordinator/internal/profile"
	"github.com/trestlehq/coordinator/internal/refadapter"
	"github.com/trestlehq/coordinator/internal/secretstore"
	"github.com/trestlehq/coordinator/internal/session"
	"github.com/trestlehq/coordinator/internal/sessionmgr"
	"github.com/trestlehq/coordinator/internal/trace"
	"github.com/trestlehq/coordinator/pkg/types"
)

// Version is the build-time coordinator version, set here rather than
// via a build-time stamp since this reference binary is not released.
const Version = "0.1.0-dev"

func main() {
	var (
		configFile = flag.String("config", "", "Path to config file")
		deviceFile = flag.String("devices", "./devices.yaml", "Path to device inventory file")
		listenAddr = flag.String("listen", "", "Self-health HTTP listen address")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		version    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Printf("trestle-coordinator %s\n", Version)
		os.Exit(0)
	}

	cfg := config.DefaultConfig()
	if *configFile != "" {
		fileCfg, err := config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config file: %v\n", err)
			os.Exit(1)
		}
		cfg = fileCfg
	}
	cfg.ApplyEnvOverrides()
	if *listenAddr != "" {
		cfg.Transport.ListenAddr = *listenAddr
	}
	if *debug {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.Debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	if err := run(ctx, cfg, *deviceFile, logger); err != nil && err != context.Canceled {
		logger.Error("coordinator exited with error", "error", err)
		os.Exit(1)
	}
	logger.Info("coordinator shutdown complete")
}

func run(ctx context.Context, cfg config.Config, deviceFile string, logger *slog.Logger) error {
	loadedProfile, err := profile.Load(cfg.ProfileDir)
	if err != nil {
		return fmt.Errorf("loading profile: %w", err)
	}
	logger.Info("profile loaded", "domains", len(loadedProfile.Domains), "rules", len(loadedProfile.Policy.Rules))

	inv, err := inventory.Load(deviceFile)
	if err != nil {
		return fmt.Errorf("loading device inventory: %w", err)
	}

	secrets, err := secretstore.New(secretstore.Config{
		Backend:            cfg.Secrets.Backend,
		OnePasswordToken:   os.Getenv("TRESTLE_ONEPASSWORD_TOKEN"),
		OnePasswordVaultID: cfg.Secrets.OnePasswordVaultID,
		LocalDir:           cfg.Secrets.LocalPath,
	}, logger)
	if err != nil {
		return fmt.Errorf("constructing secret store: %w", err)
	}
	defer secrets.Close()

	var checkpoints session.CheckpointStore = noopCheckpoints{}
	if cfg.Storage.PostgresURL != "" {
		store, err := checkpoint.NewFromURL(ctx, cfg.Storage.PostgresURL)
		if err != nil {
			return fmt.Errorf("connecting checkpoint store: %w", err)
		}
		defer store.Close()
		checkpoints = store
	}

	var emitter trace.Emitter = trace.NullEmitter{}
	if cfg.Trace.Enabled {
		if cfg.Storage.RedisURL != "" {
			sink, err := trace.NewRedisSink(cfg.Storage.RedisURL, logger, cfg.Trace.BufferSize)
			if err != nil {
				return fmt.Errorf("constructing trace sink: %w", err)
			}
			go sink.Run(ctx)
			emitter = sink
		} else {
			emitter = trace.NewBufferEmitter(cfg.Trace.BufferSize)
		}
	}
	traceCfg := types.TraceConfig{
		Enabled:        cfg.Trace.Enabled,
		SampleRateHigh: cfg.Trace.SampleRateHigh,
		SampleRateLow:  cfg.Trace.SampleRateLow,
	}

	agg := aggregator.New(256)
	agg.RegisterFold("occupancy", aggregator.OccupancyFold)
	agg.RegisterFold("motion", aggregator.MotionFold)
	agg.RegisterFold("security", aggregator.SecurityFold)
	agg.RegisterFold("media_activity", aggregator.MediaActivityFold)
	agg.RegisterFold("weather", aggregator.WeatherFold)

	registry := adapter.NewRegistry()
	weatherAdapter := refadapter.NewWeatherAdapter("weather-station", noopWeatherSource{}, 5*time.Minute)
	if err := registry.Register(weatherAdapter, 0.1); err != nil {
		logger.Warn("weather adapter registration failed", "error", err)
	} else {
		weatherAdapter.SubscribeFacts(agg.Sink(), nil)
		go weatherAdapter.Run(ctx)
	}

	motionAdapter := refadapter.NewMotionAdapter("motion-sensors")
	if err := registry.Register(motionAdapter, 10); err != nil {
		logger.Warn("motion adapter registration failed", "error", err)
	} else {
		motionAdapter.SubscribeFacts(agg.Sink(), nil)
	}

	sessions := sessionmgr.New(checkpoints, logger)

	healthSampler := health.New(registry, sessions.Count, 15*time.Second, logger)

	driver := pipeline.New(loadedProfile, inv, sessions, emitter, traceCfg, logger)

	done := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(done)
	}()

	go agg.Run(done)
	go healthSampler.Run(done)

	startPanelSessions(ctx, inv, secrets, sessions, logger)

	for {
		select {
		case <-ctx.Done():
			sessions.CloseAll()
			return ctx.Err()
		case trigger, ok := <-agg.Triggers():
			if !ok {
				sessions.CloseAll()
				return nil
			}
			driver.Handle(trigger.Updated, trigger.World, time.Now())
		}
	}
}

// startPanelSessions looks up every inventory panel's stored secret,
// confirms its device id through the panel's pairing endpoint, then
// starts its session. Secret lookup and pairing
// failures are logged and skip that panel rather than failing startup,
// matching the session layer's own contained-failure contract.
func startPanelSessions(ctx context.Context, inv *inventory.Inventory, secrets secretstore.Store, sessions *sessionmgr.Manager, logger *slog.Logger) {
	for deviceID, ep := range inv.Endpoints() {
		secret, ok, err := secrets.Get(ctx, deviceID)
		if err != nil {
			logger.Warn("secret lookup failed", "device_id", deviceID, "error", err)
			continue
		}
		if !ok {
			logger.Info("no stored secret for device, skipping until paired", "device_id", deviceID)
			continue
		}

		client := pairing.New(fmt.Sprintf("http://%s:%d", ep.Host, ep.Port), 10*time.Second)
		resolvedID, err := client.FetchDeviceID(ctx, secret)
		if err != nil {
			logger.Warn("pairing recovery failed", "device_id", deviceID, "error", err)
			continue
		}
		if resolvedID != deviceID {
			logger.Warn("panel reported mismatched device id", "expected", deviceID, "got", resolvedID)
		}

		cfg := session.DefaultConfig()
		cfg.Host = ep.Host
		cfg.Port = ep.Port
		cfg.Secret = secret

		hooks := session.Hooks{
			OnStateChange: func(st types.ProtocolState) {
				inv.SetOnline(deviceID, st == types.StateAuthenticated)
			},
			OnInputEvent: func(bindingID, action string, value any) {
				inv.NoteInteraction(deviceID, time.Now())
			},
		}
		sessions.Add(ctx, deviceID, cfg, hooks)
	}
}

// noopCheckpoints is the resume-hint store used when no Postgres URL
// is configured; every load misses and every save is discarded.
type noopCheckpoints struct{}

func (noopCheckpoints) LoadCheckpoint(ctx context.Context, deviceID string) (int64, bool) {
	return 0, false
}

func (noopCheckpoints) SaveCheckpoint(ctx context.Context, deviceID, layoutID string, layoutApplied bool, seq int64, lastInteraction time.Time) {
}

// noopWeatherSource stands in for a real ecosystem weather integration
// (host-provided, out of scope here); it reports nothing new.
type noopWeatherSource struct{}

func (noopWeatherSource) FetchObservation(ctx context.Context) (string, map[string]any, error) {
	return "", nil, fmt.Errorf("no weather source configured")
}
