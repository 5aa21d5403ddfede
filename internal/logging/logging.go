// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package logging wraps zap with engine conventions. Log fields carry
// entity type, position, confidence and error category only; detected
// text never reaches a log line.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger with component scoping helpers.
type Logger struct {
	*zap.Logger
}

// Config contains logger configuration.
type Config struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// New creates a logger. Format "console" is meant for interactive CLI
// runs, everything else emits JSON.
func New(config Config) (*Logger, error) {
	if config.Level == "" {
		config.Level = "info"
	}
	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		return nil, err
	}

	var encoderConfig zapcore.EncoderConfig
	var encoder zapcore.Encoder
	if config.Format == "console" {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return &Logger{Logger: logger}, nil
}

// Nop returns a logger that discards everything, for tests.
func Nop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}

// WithComponent adds a component name to the logger context.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("component", component))}
}

// WithDocument adds a document/session id to the logger context.
func (l *Logger) WithDocument(id string) *Logger {
	return &Logger{Logger: l.Logger.With(zap.String("document_id", id))}
}
