package config

import (
	"fmt"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a Zap logger from "logging.level" (debug, info, warn,
// error; default info) and "logging.format" (json, console; default json).
// The returned AtomicLevel lets callers change the level at runtime.
func NewLogger(v *viper.Viper) (*zap.Logger, zap.AtomicLevel, error) {
	level, err := parseLevel(v.GetString("logging.level"))
	if err != nil {
		return nil, zap.AtomicLevel{}, err
	}

	var cfg zap.Config
	switch format := v.GetString("logging.format"); format {
	case "console":
		cfg = zap.NewDevelopmentConfig()
	case "json", "":
		cfg = zap.NewProductionConfig()
	default:
		return nil, zap.AtomicLevel{}, fmt.Errorf("invalid log format %q: must be \"json\" or \"console\"", format)
	}

	atom := zap.NewAtomicLevelAt(level)
	cfg.Level = atom
	logger, err := cfg.Build()
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("build logger: %w", err)
	}
	return logger, atom, nil
}

// WatchLogLevel re-reads "logging.level" whenever the config file changes
// and applies it to level. Invalid values are logged and ignored. It is a
// no-op when v has no config file.
func WatchLogLevel(v *viper.Viper, level zap.AtomicLevel, logger *zap.Logger) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		applyLevel(v, level, logger)
	})
	v.WatchConfig()
}

func applyLevel(v *viper.Viper, level zap.AtomicLevel, logger *zap.Logger) {
	next, err := parseLevel(v.GetString("logging.level"))
	if err != nil {
		logger.Warn("ignoring config change", zap.Error(err))
		return
	}
	if next == level.Level() {
		return
	}
	logger.Info("log level changed",
		zap.Stringer("from", level.Level()),
		zap.Stringer("to", next),
	)
	level.SetLevel(next)
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return l, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return l, nil
}
