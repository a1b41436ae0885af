package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/contre95/soulwrite/src/features/config"
)

// SetupLogger builds the application logger from the logger section of the config.
func SetupLogger(cfg *config.Manager) *slog.Logger {
	logCfg := cfg.Get().Logger
	if !logCfg.Enabled {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	var formatter log.Formatter
	switch logCfg.Format {
	case "json":
		formatter = log.JSONFormatter
	case "text":
		formatter = log.TextFormatter
	default:
		formatter = log.LogfmtFormatter
	}

	level := log.InfoLevel
	switch logCfg.Level {
	case "debug":
		level = log.DebugLevel
	case "warn":
		level = log.WarnLevel
	case "error":
		level = log.ErrorLevel
	}

	handler := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "Soulwrite",
		Formatter:       formatter,
		Level:           level,
	})

	logger := slog.New(handler)
	logger.Info("Logger initialized", "time", time.Now().Format(time.RFC3339))
	return logger
}
