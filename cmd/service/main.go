package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/liftlog/internal"
	"github.com/2beens/liftlog/internal/config"
	"github.com/2beens/liftlog/internal/logging"

	log "github.com/sirupsen/logrus"
)

// secrets are never part of the TOML config.
type secrets struct {
	adminUsername     string
	adminPasswordHash string
	apiSecret         string
	redisPassword     string
	sentryDSN         string
	honeycombEnabled  bool
}

func secretsFromEnv() secrets {
	return secrets{
		adminUsername:     os.Getenv("LIFTLOG_ADMIN_USERNAME"),
		adminPasswordHash: os.Getenv("LIFTLOG_ADMIN_PASSWORD_HASH"),
		apiSecret:         os.Getenv("LIFTLOG_API_SECRET"),
		redisPassword:     os.Getenv("LIFTLOG_REDIS_PASS"),
		sentryDSN:         os.Getenv("SENTRY_DSN"),
		honeycombEnabled:  os.Getenv("HONEYCOMB_ENABLED") == "true",
	}
}

func (s secrets) warnMissing() {
	if s.adminUsername == "" || s.adminPasswordHash == "" {
		log.Errorln("admin credentials not set, nobody can log in. use LIFTLOG_ADMIN_USERNAME and LIFTLOG_ADMIN_PASSWORD_HASH (see cmd/passhash)")
	}
	if s.apiSecret == "" {
		log.Warnln("LIFTLOG_API_SECRET not set, only logged in sessions can write")
	}
	if s.redisPassword == "" {
		log.Debugln("LIFTLOG_REDIS_PASS not set")
	}
	if os.Getenv("OTEL_SERVICE_NAME") == "" {
		log.Warnln("OTEL_SERVICE_NAME env var not set")
	}
	if s.honeycombEnabled && os.Getenv("HONEYCOMB_API_KEY") == "" {
		log.Warnln("honeycomb enabled, but HONEYCOMB_API_KEY env var not set")
	}
}

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config [%s] from %s: %s\n", *env, *configPath, err)
		os.Exit(1)
	}

	envSecrets := secretsFromEnv()
	logsCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        envSecrets.sentryDSN,
		SentryServerName: "liftlog-service",
	})

	log.Infof("starting liftlog [%s], db driver [%s], port %d", cfg.Environment, cfg.DBDriver, cfg.Port)
	envSecrets.warnMissing()

	versionInfo, err := lastCommitHash()
	if err != nil {
		log.Tracef("no version info, git rev-parse: %s", err)
	} else {
		log.Debugf("running version: %s", versionInfo)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := internal.NewServer(ctx, internal.NewServerParams{
		Config:                  cfg,
		ApiSecret:               envSecrets.apiSecret,
		VersionInfo:             versionInfo,
		AdminUsername:           envSecrets.adminUsername,
		AdminPasswordHash:       envSecrets.adminPasswordHash,
		RedisPassword:           envSecrets.redisPassword,
		HoneycombTracingEnabled: envSecrets.honeycombEnabled,
	})
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	<-ctx.Done()
	log.Warnln("termination signal received, shutting down ...")
	server.GracefulShutdown()

	if err := logsCloser.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "close log file: %s\n", err)
	}
}

// lastCommitHash assumes the binary runs from within the repo checkout.
func lastCommitHash() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--short=12", "HEAD").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
