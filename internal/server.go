package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/config"
	"github.com/2beens/liftlog/internal/dashboard"
	"github.com/2beens/liftlog/internal/db"
	workoutsmcp "github.com/2beens/liftlog/internal/mcp"
	"github.com/2beens/liftlog/internal/middleware"
	"github.com/2beens/liftlog/internal/progression"
	"github.com/2beens/liftlog/internal/repometa"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/internal/workouts"
	"github.com/2beens/liftlog/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	apiSecret         string // lets scripts write without a login session
	versionInfo       string

	config      *config.Config
	store       workouts.Store
	schemaRepo  workoutsmcp.SchemaRepo
	closeStore  func()
	repoMetaApi *repometa.Api
	progression progression.Params

	redisClient  *redis.Client
	rateLimiter  middleware.RequestRateLimiter
	loginChecker auth.Checker
	authService  *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	ApiSecret               string
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

// storage is the opened record store, plus what the rest of the server needs from it.
type storage struct {
	store      workouts.Store
	schemaRepo workoutsmcp.SchemaRepo
	collector  prometheus.Collector
	close      func()
}

func openStorage(ctx context.Context, cfg *config.Config, tracingEnabled bool) (*storage, error) {
	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			TracingEnabled: tracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if err := db.EnsurePostgresSchema(ctx, dbPool); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		return &storage{
			store:      workouts.NewRepo(dbPool),
			schemaRepo: workoutsmcp.NewPoolSchemaRepo(dbPool),
			collector: pgxpoolprometheus.NewCollector(
				dbPool,
				map[string]string{"db_name": cfg.PostgresDBName},
			),
			close: dbPool.Close, // blocking operation
		}, nil
	case config.DBDriverSQLite:
		sqlDB, err := db.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite db: %w", err)
		}
		return &storage{
			store:      workouts.NewSQLiteRepo(sqlDB),
			schemaRepo: workoutsmcp.NewSQLiteSchemaRepo(sqlDB),
			collector:  collectors.NewDBStatsCollector(sqlDB, "sqlite"),
			close: func() {
				if err := sqlDB.Close(); err != nil {
					log.Errorf("close sqlite db: %s", err)
				}
			},
		}, nil
	default:
		return nil, fmt.Errorf("unknown db driver: %s", cfg.DBDriver)
	}
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	progressionDefaults := progression.Params{
		BaseIncreasePct: params.Config.BaseIncreasePct,
		MaxIncreaseKg:   params.Config.MaxIncreaseKg,
		MinSessions:     params.Config.MinSessions,
	}
	if err := progressionDefaults.Validate(); err != nil {
		return nil, fmt.Errorf("progression defaults: %w", err)
	}

	storage, err := openStorage(ctx, params.Config, params.HoneycombTracingEnabled)
	if err != nil {
		return nil, err
	}

	promRegistry := metrics.SetupPrometheus(params.VersionInfo, storage.collector)
	metricsManager := metrics.NewManager("liftlog", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	authService := auth.NewAuthService(&auth.Admin{
		Username:     params.AdminUsername,
		PasswordHash: params.AdminPasswordHash,
	}, auth.DefaultTTL, rdb)
	go authService.RunSweeper(ctx, auth.DefaultSweepInterval)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "liftlog-backend", rdb)
	if err != nil {
		storage.close()
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   repometa.DefaultTimeout,
	}

	return &Server{
		config:      params.Config,
		apiSecret:   params.ApiSecret,
		versionInfo: params.VersionInfo,

		store:       storage.store,
		schemaRepo:  storage.schemaRepo,
		closeStore:  storage.close,
		repoMetaApi: repometa.NewApi(params.Config.GitHubApiURL, tracedHttpClient),
		progression: progressionDefaults,

		redisClient:  rdb,
		rateLimiter:  redis_rate.NewLimiter(rdb),
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	workoutsHandler := workouts.NewHandler(s.store, s.metricsManager)
	workoutsHandler.SetupRoutes(r)

	advisor := progression.NewAdvisor(s.store, s.metricsManager)
	progressionHandler := progression.NewHandler(advisor, s.progression)
	progressionHandler.SetupRoutes(r)

	dashboardHandler, err := dashboard.NewHandler(s.store, advisor, s.loginChecker, s.progression)
	if err != nil {
		return nil, fmt.Errorf("new dashboard handler: %w", err)
	}
	dashboardHandler.SetupRoutes(r)

	readmeRouter := repometa.NewHandler(s.repoMetaApi, s.metricsManager).SetupRoutes(r)
	readmeRouter.Use(middleware.RateLimit(s.rateLimiter, "readme", s.config.ReadmeRateLimitAllowedPerMin, s.metricsManager))

	// rate limit the /login and /logout endpoints to prevent abuse
	loginRouter := auth.NewHandler(s.authService, auth.DefaultTTL).SetupRoutes(r)
	loginRouter.Use(middleware.RateLimit(s.rateLimiter, "login", s.config.LoginRateLimitAllowedPerMin, s.metricsManager))

	mcpServer := workoutsmcp.NewServer(s.schemaRepo, s.store, advisor, s.progression, s.versionInfo)
	r.PathPrefix("/mcp").Handler(workoutsmcp.NewHTTPHandler(mcpServer)).Name("mcp")

	r.HandleFunc("/version", func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteTextResponseOK(w, s.versionInfo)
	}).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.apiSecret, s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.InstrumentMetricHandler(
		s.promRegistry,
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	// stop taking requests before the store goes away
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.closeStore != nil {
		log.Debugln("closing record store ...")
		s.closeStore()
		log.Debugln("record store closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
