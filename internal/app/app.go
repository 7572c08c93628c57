// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/AccelByte/extend-realm-guard/internal/bootstrap"
	"github.com/AccelByte/extend-realm-guard/internal/config"
	"github.com/AccelByte/extend-realm-guard/internal/server"
	"github.com/AccelByte/extend-realm-guard/pkg/action"
	"github.com/AccelByte/extend-realm-guard/pkg/common"
	"github.com/AccelByte/extend-realm-guard/pkg/connection"
	"github.com/AccelByte/extend-realm-guard/pkg/event"
	"github.com/AccelByte/extend-realm-guard/pkg/handler"
	"github.com/AccelByte/extend-realm-guard/pkg/pipeline"
	"github.com/AccelByte/extend-realm-guard/pkg/service"
	"github.com/AccelByte/extend-realm-guard/pkg/settings"
	"github.com/AccelByte/extend-realm-guard/pkg/state"
	"github.com/cenkalti/backoff/v4"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/thejerf/suture/v4"

	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/factory"
	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/service/iam"
	"github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/service/social"
	sdkAuth "github.com/AccelByte/accelbyte-go-sdk/services-api/pkg/utils/auth"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	actionBuiltin "github.com/AccelByte/extend-realm-guard/pkg/action/builtin"
)

// App holds all application dependencies and manages the application lifecycle.
type App struct {
	cfg               *config.Config
	grpcServer        *server.GRPCServer
	metricsServer     *server.MetricsServer
	redisClient       *redis.Client
	natsConn          *nats.Conn
	logCloser         io.Closer
	shutdownTelemetry func(context.Context) error

	supervisor  *suture.Supervisor
	connections *connection.Manager
	executor    *action.Executor

	// AccelByte SDK repositories (shared across all services)
	configRepo *sdkAuth.ConfigRepositoryImpl
	tokenRepo  *sdkAuth.TokenRepositoryImpl
}

// New creates and initializes a new application instance.
//
// ============================================================
// DEVELOPER: Application initialization order
// ============================================================
// Components are initialized in dependency order:
// 1. Logging
// 2. Redis (history snapshots) and NATS (ingest + outbound events)
// 3. Pipeline config and tenant settings
// 4. Event bus and external services (profile, ban, statistics)
// 5. Pipeline components (signal → rule → action → pipeline)
// 6. Connection lifecycle manager and the NATS ingest bridge
// 7. Servers (gRPC health, metrics) and the supervisor
// 8. Telemetry (OpenTelemetry tracing)
//
// If you add new external dependencies, initialize them in
// step 4 before bootstrapping pipeline components.
// ============================================================
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{cfg: cfg}

	// ============================================================
	// Step 1: Configure logging
	// ============================================================
	logCloser, err := common.ConfigureLogging(common.LogConfig{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	app.logCloser = logCloser

	logrus.Info("initializing application...")

	// ============================================================
	// Step 2: Initialize Redis and NATS
	// ============================================================
	if err := app.initRedis(ctx); err != nil {
		return nil, fmt.Errorf("failed to init Redis: %w", err)
	}
	if err := app.initNATS(ctx); err != nil {
		return nil, fmt.Errorf("failed to init NATS: %w", err)
	}

	// ============================================================
	// Step 3: Load pipeline configuration and tenant settings
	// ============================================================
	pipelineConfig, err := pipeline.LoadConfig(cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load pipeline config from %s: %w", cfg.ConfigPath, err)
	}
	logrus.Infof("loaded pipeline configuration from %s", cfg.ConfigPath)

	settingsStore := settings.NewStore(cfg.SettingsPath)
	if err := settingsStore.Load(); err != nil {
		return nil, fmt.Errorf("failed to load tenant settings from %s: %w", cfg.SettingsPath, err)
	}
	logrus.Infof("loaded settings for %d tenants from %s", len(settingsStore.Tenants()), cfg.SettingsPath)

	// ============================================================
	// Step 4: Event bus and external services
	// ============================================================
	// DEVELOPER: Add custom external service initialization here.
	// Outbound event consumers are bus subscribers; register them
	// with bus.Subscribe or bus.SubscribeTenant.
	// ============================================================
	clock := clockwork.NewRealClock()

	bus := event.NewBus(cfg.EventBusSize, clock)
	bus.Subscribe(event.LogSink{})
	bus.Subscribe(event.NewNATSSink(app.natsConn, cfg.NATSSubjectPrefix))

	if cfg.AccelByteEnabled() {
		if err := app.initAccelByteSDKAuth(); err != nil {
			return nil, fmt.Errorf("failed to init AccelByte SDK: %w", err)
		}
		bus.Subscribe(service.NewBanStatRecorder(app.initStatisticService(), settingsStore, cfg.BanStatCode))
		logrus.Info("enforcement statistics enabled")
	}

	historyStore := state.NewRedisHistoryStore(app.redisClient, cfg.HistoryTTL)
	profiles := app.initProfileFetcher()

	// ============================================================
	// Step 5: Bootstrap pipeline components
	// ============================================================
	// The pipeline is built in this order:
	// Signal Processor → Rule Engine → Action Executor → Pipeline Manager
	//
	// DEVELOPER: If your custom actions need external services,
	// add them to actionBuiltin.Dependencies (see pkg/action/builtin/init.go).
	// ============================================================
	processor := bootstrap.InitSignalProcessor(clock)

	ruleEngine, ruleRegistry, err := bootstrap.InitRuleEngine(pipelineConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to init rule engine: %w", err)
	}

	commands := app.initCommandSender()
	deps := &actionBuiltin.Dependencies{
		Bans:     app.initBanApplier(),
		Commands: commands,
		// DEVELOPER: Add custom service dependencies here
	}

	executor, actionRegistry, err := bootstrap.InitActionExecutor(pipelineConfig, deps, bus, cfg.EnforcementTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to init action executor: %w", err)
	}
	app.executor = executor

	pipelineManager := bootstrap.InitPipeline(ruleEngine, executor, bus, settingsStore)

	// ============================================================
	// Validate pipeline wiring
	// ============================================================
	// Every action a tenant's automod settings or crash attribution
	// can submit must be registered.
	// ============================================================
	enforcement := bootstrap.EnforcementActions(settingsStore, settingsStore.Tenants(), cfg.CrashAction)
	if err := pipeline.ValidateWiring(ruleRegistry, actionRegistry, pipelineConfig, enforcement); err != nil {
		return nil, fmt.Errorf("pipeline wiring validation failed: %w", err)
	}
	logrus.Info("pipeline wiring validation passed")

	// ============================================================
	// Step 6: Connection lifecycle manager and ingest
	// ============================================================
	app.connections = connection.NewManager(connection.Config{
		ReassertInterval:  cfg.ModeReassertInterval,
		SweepInterval:     cfg.SweepInterval,
		SweepMaxAge:       cfg.SweepMaxAge,
		HistoryMaxAge:     cfg.HistoryMaxAge,
		MaxHistoryEntries: cfg.MaxHistoryEntries,
		InboxSize:         cfg.SessionInboxSize,
		IOTimeout:         cfg.ExternalCallTimeout,
		CrashAction:       cfg.CrashAction,
	}, connection.Dependencies{
		Pipeline: pipelineManager,
		Enforcer: executor,
		Emitter:  bus,
		Settings: settingsStore,
		Commands: commands,
		Profiles: profiles,
		History:  historyStore,
		Clock:    clock,
	})

	ingest := handler.NewIngest(processor, app.connections, handler.WithDispatchTimeout(cfg.DispatchTimeout))
	listener := handler.NewNATSListener(app.natsConn, ingest, cfg.NATSSubjectPrefix)

	// ============================================================
	// Step 7: Setup servers and the supervisor
	// ============================================================
	app.grpcServer = server.NewGRPCServer(cfg.GRPCPort,
		state.NewHealthChecker(app.redisClient),
		event.NewNATSHealthChecker(app.natsConn),
	)
	if err := app.grpcServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup gRPC server: %w", err)
	}

	app.metricsServer = server.NewMetricsServer(cfg.MetricsPort, "/metrics")
	if err := app.metricsServer.Setup(); err != nil {
		return nil, fmt.Errorf("failed to setup metrics server: %w", err)
	}

	// ============================================================
	// DEVELOPER: Long-running services
	// ============================================================
	// Anything with Serve(ctx) error runs under the supervisor and
	// is restarted if it fails.
	// ============================================================
	app.supervisor = newSupervisor(cfg.ServiceName)
	app.supervisor.Add(bus)
	app.supervisor.Add(settingsStore)
	app.supervisor.Add(app.connections)
	app.supervisor.Add(listener)
	app.supervisor.Add(app.grpcServer)

	// ============================================================
	// Step 8: Setup telemetry
	// ============================================================
	if cfg.OtelEnabled {
		shutdownTelemetry, err := server.SetupTelemetry(ctx, cfg.ServiceName, cfg.Environment, 0)
		if err != nil {
			return nil, fmt.Errorf("failed to setup telemetry: %w", err)
		}
		app.shutdownTelemetry = shutdownTelemetry
	}

	logrus.Info("application initialized successfully")

	return app, nil
}

// initAccelByteSDKAuth initializes the AccelByte SDK auth by performing client login.
//
// ============================================================
// DEVELOPER: AccelByte Client Auth configuration
// ============================================================
// The Client Auth is configured via environment variables:
// - AB_BASE_URL: AccelByte platform base URL
// - AB_CLIENT_ID: OAuth2 client ID
// - AB_CLIENT_SECRET: OAuth2 client secret
// - AB_NAMESPACE: Game namespace
//
// The SDK uses automatic token refresh (RefreshRate: 0.8 = 80% of TTL).
//
// IMPORTANT: The configRepo and tokenRepo are stored in the App struct
// and must be reused by all AccelByte services to share authentication.
// ============================================================
func (a *App) initAccelByteSDKAuth() error {
	a.configRepo = sdkAuth.DefaultConfigRepositoryImpl()
	a.tokenRepo = sdkAuth.DefaultTokenRepositoryImpl()
	refreshRepo := &sdkAuth.RefreshTokenImpl{AutoRefresh: true, RefreshRate: 0.8}

	oauthService := iam.OAuth20Service{
		Client:                 factory.NewIamClient(a.configRepo),
		ConfigRepository:       a.configRepo,
		TokenRepository:        a.tokenRepo,
		RefreshTokenRepository: refreshRepo,
	}

	clientID := a.configRepo.GetClientId()
	clientSecret := a.configRepo.GetClientSecret()

	if err := oauthService.LoginClient(&clientID, &clientSecret); err != nil {
		return fmt.Errorf("unable to login using clientId %s: %w", clientID, err)
	}

	logrus.Info("AccelByte SDK initialized and authenticated")
	return nil
}

// initRedis initializes the Redis client.
func (a *App) initRedis(ctx context.Context) error {
	client := redis.NewClient(&redis.Options{
		Addr:         a.cfg.RedisHost + ":" + a.cfg.RedisPort,
		Password:     a.cfg.RedisPassword,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	err := retry(ctx, a.cfg, "Redis", func() error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		_ = client.Close()
		return err
	}

	a.redisClient = client
	logrus.Info("Redis client initialized")
	return nil
}

// initNATS connects to the NATS server carrying ingest and outbound events.
func (a *App) initNATS(ctx context.Context) error {
	err := retry(ctx, a.cfg, "NATS", func() error {
		conn, err := event.ConnectNATS(a.cfg.NATSURL, a.cfg.ServiceName)
		if err != nil {
			return err
		}
		a.natsConn = conn
		return nil
	})
	if err != nil {
		return err
	}

	logrus.Infof("NATS client initialized (%s)", a.cfg.NATSURL)
	return nil
}

// retry runs fn with exponential backoff bounded by REDIS_MAX_RETRIES.
func retry(ctx context.Context, cfg *config.Config, name string, fn func() error) error {
	b := backoff.NewExponentialBackOff()
	if cfg.RedisRetryDelayMs > 0 {
		b.InitialInterval = time.Duration(cfg.RedisRetryDelayMs) * time.Millisecond
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(cfg.RedisMaxRetries)), ctx)

	return backoff.Retry(func() error {
		if err := fn(); err != nil {
			logrus.Warnf("%s connection failed: %v, retrying...", name, err)
			return err
		}
		return nil
	}, policy)
}

// ============================================================
// DEVELOPER: Add custom service initializers here
// ============================================================
// If your custom actions require additional AccelByte Platform
// services, add initialization methods similar to initStatisticService.
//
// IMPORTANT: Always reuse a.configRepo and a.tokenRepo to share the
// authenticated session. Do NOT call DefaultConfigRepositoryImpl() or
// DefaultTokenRepositoryImpl() again - this creates new empty instances!
// ============================================================

// initStatisticService initializes the statistic service client.
//
// IMPORTANT: Reuses a.configRepo and a.tokenRepo to share the authenticated
// session from initAccelByteSDKAuth(). Do NOT create new repository instances.
func (a *App) initStatisticService() service.StatIncrementer {
	statisticService := &social.UserStatisticService{
		Client:           factory.NewSocialClient(a.configRepo),
		ConfigRepository: a.configRepo,
		TokenRepository:  a.tokenRepo,
	}

	return service.NewStatisticService(statisticService,
		service.StatisticServiceConfig{
			Namespace: a.cfg.ABNamespace,
		})
}

// initProfileFetcher returns nil when no profile API is configured, which
// disables the new account check.
func (a *App) initProfileFetcher() service.ProfileFetcher {
	if a.cfg.ProfileAPIURL == "" {
		logrus.Warn("PROFILE_API_URL not set, profile lookups disabled")
		return nil
	}
	return service.NewHTTPProfileFetcher(service.ProfileClientConfig{
		BaseURL:       a.cfg.ProfileAPIURL,
		Timeout:       a.cfg.ExternalCallTimeout,
		RatePerSecond: a.cfg.ProfileRatePerSec,
		Burst:         a.cfg.ProfileBurst,
		Breaker:       service.DefaultBreakerConfig(),
	})
}

func (a *App) initCommandSender() service.CommandSender {
	if a.natsConn == nil {
		logrus.Warn("no NATS connection, commands are logged only")
		return service.LogCommandSender{}
	}
	return service.NewNATSCommandSender(a.natsConn, a.cfg.NATSSubjectPrefix)
}

func (a *App) initBanApplier() service.BanApplier {
	if a.cfg.BanAPIURL == "" {
		logrus.Warn("BAN_API_URL not set, bans are logged only")
		return service.LogBanApplier{}
	}
	return service.NewHTTPBanApplier(service.BanClientConfig{
		BaseURL: a.cfg.BanAPIURL,
		Timeout: a.cfg.ExternalCallTimeout,
		Breaker: service.DefaultBreakerConfig(),
	})
}
