package logger

import (
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

const colorReset = "\x1b[0m"

var levelColors = map[zapcore.Level]string{
	zapcore.DebugLevel:  "\x1b[36m",
	zapcore.InfoLevel:   "\x1b[32m",
	zapcore.WarnLevel:   "\x1b[33m",
	zapcore.ErrorLevel:  "\x1b[31m",
	zapcore.DPanicLevel: "\x1b[35m",
	zapcore.PanicLevel:  "\x1b[35m",
	zapcore.FatalLevel:  "\x1b[31m",
}

var colors = colorEnabled()

func encoderConfig(encoding string) zapcore.EncoderConfig {
	cfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeName:     zapcore.FullNameEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
	}
	if encoding == "console" {
		cfg.ConsoleSeparator = " | "
		cfg.EncodeLevel = consoleLevelEncoder
		cfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
		}
	}
	return cfg
}

func consoleLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(colorize(level, fmt.Sprintf("%-5s", strings.ToUpper(level.String()))))
}

func colorize(level zapcore.Level, label string) string {
	if !colors {
		return label
	}
	color, ok := levelColors[level]
	if !ok {
		return label
	}
	return color + label + colorReset
}

// colorEnabled honours NO_COLOR and only colours a terminal stdout.
func colorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" || os.Stdout == nil {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
