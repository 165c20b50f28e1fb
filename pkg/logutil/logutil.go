// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logutil

import (
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogConfig controls the global logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error, fatal.
	Level string `toml:"level"`
	// Format is json or console.
	Format string `toml:"format"`
	// Filename enables file output with rotation when non-empty.
	Filename string `toml:"filename"`
	// MaxSize is the size in MB a log file may reach before rotation.
	MaxSize int `toml:"max-size"`
	// MaxDays is the number of days rotated files are retained.
	MaxDays int `toml:"max-days"`
	// MaxBackups is the number of rotated files retained.
	MaxBackups int `toml:"max-backups"`
}

func (c *LogConfig) SetDefaultValues() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.MaxSize == 0 {
		c.MaxSize = 512
	}
}

var (
	gLogger atomic.Value
	gOnce   sync.Once
)

// SetupGlobalLogger replaces the global logger according to cfg.
func SetupGlobalLogger(cfg *LogConfig) {
	cfg.SetDefaultValues()
	var level zapcore.Level
	if err := level.Set(cfg.Level); err != nil {
		level = zapcore.InfoLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	var sink zapcore.WriteSyncer
	if cfg.Filename != "" {
		sink = zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxAge:     cfg.MaxDays,
			MaxBackups: cfg.MaxBackups,
		})
	} else {
		sink = zapcore.AddSync(os.Stderr)
	}
	core := zapcore.NewCore(enc, sink, level)
	gLogger.Store(zap.New(core, zap.AddCaller()))
}

// GetGlobalLogger returns the global logger, installing the default one
// on first use.
func GetGlobalLogger() *zap.Logger {
	gOnce.Do(func() {
		if gLogger.Load() == nil {
			SetupGlobalLogger(&LogConfig{})
		}
	})
	return gLogger.Load().(*zap.Logger)
}

func Debug(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Fatal(msg, fields...)
}

// Debugf only use in develop mode
func Debugf(msg string, args ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Debugf(msg, args...)
}

// Infof only use in develop mode
func Infof(msg string, args ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Infof(msg, args...)
}

// Errorf only use in develop mode
func Errorf(msg string, args ...interface{}) {
	GetGlobalLogger().WithOptions(zap.AddCallerSkip(1)).Sugar().Errorf(msg, args...)
}
