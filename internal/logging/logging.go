package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	*zap.Logger
}

func NewLogger(level string, format string) (*Logger, error) {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	config := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    format,
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "timestamp",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "message",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{Logger: logger}, nil
}

// WithDeviceID tags log lines with the originating device, the join key
// between a journal entry and the sync session that drained it.
func (l *Logger) WithDeviceID(deviceID string) *zap.Logger {
	return l.With(zap.String("device_id", deviceID))
}

// WithChangeID tags log lines with a journal Change's id.
func (l *Logger) WithChangeID(changeID string) *zap.Logger {
	return l.With(zap.String("change_id", changeID))
}

// WithEntityType tags log lines with the domain entity a change targets
// (e.g. "patient").
func (l *Logger) WithEntityType(entityType string) *zap.Logger {
	return l.With(zap.String("entity_type", entityType))
}

func (l *Logger) WithError(err error) *zap.Logger {
	return l.With(zap.Error(err))
}