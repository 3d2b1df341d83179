package goAuthClient

import (
	"errors"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/MrEthical07/goAuthClient/idle"
	"github.com/MrEthical07/goAuthClient/internal/flows"
	"github.com/MrEthical07/goAuthClient/internal/logging"
	"github.com/MrEthical07/goAuthClient/internal/rate"
	"github.com/MrEthical07/goAuthClient/internal/stores"
	"github.com/MrEthical07/goAuthClient/internal/telemetry"
	"github.com/MrEthical07/goAuthClient/jwt"
	"github.com/MrEthical07/goAuthClient/session"
	"github.com/MrEthical07/goAuthClient/transport"
)

// Builder defines a public type used by goAuthClient APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	backend  session.Backend
	api      API
	logger   *slog.Logger
	clock    clock.Clock
	activity idle.Source

	navigator Navigator
	onWarning func(idle.Warning)
	sinks     []TelemetrySink

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithBackend sets where the session is persisted. The default keeps it in
// memory only.
func (b *Builder) WithBackend(backend session.Backend) *Builder {
	b.backend = backend
	return b
}

// WithAPI replaces the HTTP client built from Transport config.
func (b *Builder) WithAPI(api API) *Builder {
	b.api = api
	return b
}

// WithLogger sets the structured logger. Sensitive attributes are not
// redacted unless the logger was built with the logging package's handler.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock replaces the wall clock, mainly for tests.
func (b *Builder) WithClock(c clock.Clock) *Builder {
	b.clock = c
	return b
}

// WithNavigator receives every navigation the engine asks for.
func (b *Builder) WithNavigator(n Navigator) *Builder {
	b.navigator = n
	return b
}

// WithWarningHook is called when the inactivity warning fires.
func (b *Builder) WithWarningHook(fn func(idle.Warning)) *Builder {
	b.onWarning = fn
	return b
}

// WithActivitySource adds an interaction source next to Engine.Activity.
func (b *Builder) WithActivitySource(src idle.Source) *Builder {
	b.activity = src
	return b
}

// WithTelemetrySink adds a sink. Events also go to the service collector
// when the API can send them.
func (b *Builder) WithTelemetrySink(sink TelemetrySink) *Builder {
	if sink != nil {
		b.sinks = append(b.sinks, sink)
	}
	return b
}

// WithMetricsEnabled toggles in-process metrics.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the request latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when the configuration is invalid or when
// neither an API nor a Transport BaseURL is provided. A Builder can be used
// once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.OrDiscard(b.logger)
	clk := b.clock
	if clk == nil {
		clk = clock.New()
	}
	metrics := NewMetrics(cfg.Metrics)

	// -------- TRANSPORT --------
	api := b.api
	if api == nil {
		if cfg.Transport.BaseURL == "" {
			return nil, errors.New("Transport BaseURL or an API is required")
		}
		client, err := transport.New(transport.Config{
			BaseURL:   cfg.Transport.BaseURL,
			Timeout:   cfg.Transport.Timeout,
			UserAgent: cfg.Transport.UserAgent,
			Paths:     cfg.Transport.Paths,
			Observer:  requestObserver(metrics, logger),
		})
		if err != nil {
			return nil, err
		}
		api = client
	}

	// -------- SESSION STORE --------
	jcfg, err := cfg.Session.inspectorConfig()
	if err != nil {
		return nil, err
	}
	inspector, err := jwt.NewInspector(jcfg)
	if err != nil {
		return nil, err
	}
	backend := b.backend
	if backend == nil {
		backend = session.NewMemoryBackend()
	}
	store := session.NewStore(backend, session.StoreOptions{
		Namespace: cfg.Session.Namespace,
		MaxAge:    cfg.Session.MaxAge,
		Expiry:    inspector.Expiry,
		Verify:    inspector.Verify,
		Now:       clk.Now,
	})

	// -------- TELEMETRY --------
	sinks := append([]TelemetrySink(nil), b.sinks...)
	if sender, ok := api.(telemetry.Sender); ok {
		sinks = append(sinks, telemetry.NewCollectorSink(sender, cfg.Telemetry.SendTimeout, logger))
	}
	dispatcher := telemetry.NewDispatcher(telemetry.Config{
		Enabled:    cfg.Telemetry.Enabled,
		BufferSize: cfg.Telemetry.BufferSize,
		DropIfFull: cfg.Telemetry.DropIfFull,
	}, telemetry.MultiSink(sinks))

	bus := idle.NewBus()
	var activity idle.Source = bus
	if b.activity != nil {
		activity = sources{bus, b.activity}
	}

	engine := &Engine{
		config:     cfg,
		store:      store,
		api:        api,
		policy:     cfg.Routes.Policy(),
		passwords:  cfg.Password.Policy(),
		gate:       rate.NewGate(),
		challenges: stores.NewChallengeStore(cfg.Challenge.TTL, clk.Now),
		bus:        bus,
		activity:   activity,
		clock:      clk,
		telemetry:  dispatcher,
		metrics:    metrics,
		logger:     logger,
		navigator:  b.navigator,
		onWarning:  b.onWarning,
		state:      StateUninitialized,
	}
	engine.throttle = rate.NewThrottle(rate.Config{
		PerMinute: cfg.Security.SubmitPerMinute,
		Burst:     cfg.Security.SubmitBurst,
	})

	// -------- FLOWS --------
	logoutDeps := flows.LogoutDeps{
		Disarm:        engine.monitor.Disarm,
		Detach:        engine.detach,
		NotifyTimeout: cfg.Security.LogoutTimeout,
		ClearStore:    engine.clearStore,
		RecordReason:  store.SetLogoutReason,
		Emit:          engine.emitAuth,
		Warn:          logger.Warn,
	}
	if cfg.Security.NotifyLogout {
		logoutDeps.Notify = api.Logout
	}
	engine.flows = flows.Deps{
		Establish: engine.EstablishSession,
		Refresh: flows.RefreshDeps{
			Call:    engine.callRefresh,
			Missing: ErrRefreshTokenMissing,
			Failed:  ErrRefreshFailed,
		},
		Logout: logoutDeps,
	}

	b.built = true

	return engine, nil
}

func requestObserver(m *Metrics, logger *slog.Logger) transport.Observer {
	return func(op string, elapsed time.Duration, err error) {
		m.Observe(MetricRequestLatency, elapsed)
		if err != nil {
			logger.Debug("service call failed", "op", op, "elapsed", elapsed, "error", err)
		}
	}
}
