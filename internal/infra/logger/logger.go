package logger

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/sifan077/ShortLink/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "shortlink"

// Config drives how the zap logger is built.
type Config struct {
	Development bool
	Level       string
	// Encoding is "console" or "json". Empty picks console in development
	// and json otherwise.
	Encoding string
	// Service is attached to every entry when set.
	Service string
}

// FromApp derives the logger config from the application settings.
func FromApp(app config.AppConfig) Config {
	return Config{
		Development: app.IsDevelopment(),
		Level:       app.LogLevel,
		Service:     serviceName,
	}
}

var (
	mu     sync.RWMutex
	global *zap.Logger
)

// Init builds a logger from cfg and installs it as the global logger.
func Init(cfg Config) (*zap.Logger, error) {
	l, err := New(cfg)
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	if global != nil {
		_ = global.Sync()
	}
	global = l
	return l, nil
}

// MustInit panics if the logger cannot be built.
func MustInit(cfg Config) *zap.Logger {
	l, err := Init(cfg)
	if err != nil {
		panic(err)
	}
	return l
}

// L returns the global logger. Before Init it lazily installs a development
// logger so early startup errors are still printed.
func L() *zap.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		dev, err := New(Config{Development: true, Service: serviceName})
		if err != nil {
			dev = zap.NewNop()
		}
		global = dev
	}
	return global
}

// Sync flushes the global logger. Errors from syncing a terminal are ignored.
func Sync() error {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l == nil {
		return nil
	}

	err := l.Sync()
	if err == nil || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.EINVAL) || errors.Is(err, os.ErrInvalid) {
		return nil
	}
	return err
}

// New returns a zap.Logger configured according to cfg.
func New(cfg Config) (*zap.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Encoding != "" {
		zapCfg.Encoding = cfg.Encoding
	}
	if cfg.Level != "" {
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	zapCfg.EncoderConfig = encoderConfig(zapCfg.Encoding)

	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Service != "" {
		opts = append(opts, zap.Fields(zap.String("service", cfg.Service)))
	}
	return zapCfg.Build(opts...)
}

// ParseLevel maps a case-insensitive level name onto a zap level. Empty
// means info.
func ParseLevel(name string) (zapcore.Level, error) {
	level := zapcore.InfoLevel
	if name == "" {
		return level, nil
	}
	if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return level, fmt.Errorf("logger: invalid level %q: %w", name, err)
	}
	return level, nil
}
