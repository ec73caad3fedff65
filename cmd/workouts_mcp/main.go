// Package main runs the workouts MCP server over stdio, for local assistants.
// The main service serves the same tools at /mcp over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/2beens/liftlog/internal/config"
	"github.com/2beens/liftlog/internal/db"
	"github.com/2beens/liftlog/internal/logging"
	workoutsmcp "github.com/2beens/liftlog/internal/mcp"
	"github.com/2beens/liftlog/internal/progression"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/workouts"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path to TOML config file")
	flag.Parse()

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %s\n", err)
		os.Exit(1)
	}

	// stdout carries the protocol
	logsCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.LogsPath,
		LogToStdout:   cfg.LogToStdout,
		Console:       os.Stderr,
		LogLevel:      cfg.LogLevel,
		LogFormatJSON: cfg.LogFormatJSON,
		Environment:   cfg.Environment,
	})
	defer logsCloser.Close()

	ctx := context.Background()
	server, closeStore, err := newServer(ctx, cfg)
	if err != nil {
		log.Fatalf("new mcp server: %s", err)
	}
	defer closeStore()

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Errorf("mcp server: %s", err)
	}
}

func newServer(ctx context.Context, cfg *config.Config) (*mcp.Server, func(), error) {
	metricsManager := metrics.NewManager("liftlog", "mcp", prometheus.NewRegistry())
	defaults := progression.Params{
		BaseIncreasePct: cfg.BaseIncreasePct,
		MaxIncreaseKg:   cfg.MaxIncreaseKg,
		MinSessions:     cfg.MinSessions,
	}
	if err := defaults.Validate(); err != nil {
		return nil, nil, fmt.Errorf("progression defaults: %w", err)
	}

	switch cfg.DBDriver {
	case config.DBDriverPostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost: cfg.PostgresHost,
			DBPort: cfg.PostgresPort,
			DBName: cfg.PostgresDBName,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("db pool: %w", err)
		}
		repo := workouts.NewRepo(dbPool)
		advisor := progression.NewAdvisor(repo, metricsManager)
		return workoutsmcp.NewServer(workoutsmcp.NewPoolSchemaRepo(dbPool), repo, advisor, defaults, ""), dbPool.Close, nil
	default:
		sqlDB, err := db.NewSQLiteDB(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite db: %w", err)
		}
		repo := workouts.NewSQLiteRepo(sqlDB)
		advisor := progression.NewAdvisor(repo, metricsManager)
		closeFn := func() { _ = sqlDB.Close() }
		return workoutsmcp.NewServer(workoutsmcp.NewSQLiteSchemaRepo(sqlDB), repo, advisor, defaults, ""), closeFn, nil
	}
}
