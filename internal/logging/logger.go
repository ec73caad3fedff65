package logging

import (
	"io"
	"os"
	"strings"

	"github.com/2beens/liftlog/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	logFileMaxSizeMB  = 20
	logFileMaxBackups = 5
	logFileMaxAgeDays = 60
)

type LoggerSetupParams struct {
	// LogFileName enables a rotated log file; ".log" is appended when missing.
	LogFileName string
	// LogToStdout tees file logs to the console. Ignored without a log file.
	LogToStdout bool
	// Console defaults to stdout. The stdio MCP server points it at stderr.
	Console          io.Writer
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
}

// Setup configures the global logrus logger. Closing the returned closer
// releases the log file, it never closes the console.
func Setup(params LoggerSetupParams) io.Closer {
	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.SentryEnabled {
		setupSentry(params)
	}

	console := params.Console
	if console == nil {
		console = os.Stdout
	}

	out := pkg.NewFanOutWriter(console)
	if fileName := logFileName(params.LogFileName); fileName != "" {
		logFile := &lumberjack.Logger{
			Filename:   fileName,
			MaxSize:    logFileMaxSizeMB,
			MaxBackups: logFileMaxBackups,
			MaxAge:     logFileMaxAgeDays,
			Compress:   true,
		}
		if params.LogToStdout {
			out = pkg.NewFanOutWriter(console, logFile)
		} else {
			out = pkg.NewFanOutWriter(logFile)
		}
	}
	logrus.SetOutput(out)
	logrus.Debugf("logging to %d output(s), level %s", out.Outputs(), logrus.GetLevel())

	return out
}

func setupSentry(params LoggerSetupParams) {
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              params.SentryDSN,
		Environment:      params.Environment,
		ServerName:       params.SentryServerName,
		TracesSampleRate: 0.2,
	})
	if err != nil {
		logrus.Errorf("sentry init: %s", err)
		return
	}
	logrus.AddHook(NewSentryHook([]logrus.Level{
		logrus.PanicLevel,
		logrus.FatalLevel,
		logrus.ErrorLevel,
	}))
	logrus.Infof("sentry enabled for %s", params.Environment)
}

func logFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.HasSuffix(name, ".log") {
		return name
	}
	return name + ".log"
}

// GetLevel falls back to info for unknown names.
func GetLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}
