// SPDX-License-Identifier: Apache-2.0

package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log         *zap.Logger
	AppLog      *zap.SugaredLogger
	InitLog     *zap.SugaredLogger
	CfgLog      *zap.SugaredLogger
	BitIOLog    *zap.SugaredLogger
	MacLog      *zap.SugaredLogger
	GwLog       *zap.SugaredLogger
	TimerLog    *zap.SugaredLogger
	BusLog      *zap.SugaredLogger
	EnbUserLog  *zap.SugaredLogger
	atomicLevel zap.AtomicLevel
)

func init() {
	atomicLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	config := zap.Config{
		Level:            atomicLevel,
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewProductionEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	// Encoder configuration
	encCfg := &config.EncoderConfig
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.LevelKey = "level"
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.CallerKey = "caller"
	encCfg.EncodeCaller = zapcore.ShortCallerEncoder
	encCfg.MessageKey = "message"
	encCfg.StacktraceKey = ""

	var err error
	log, err = config.Build()
	if err != nil {
		panic(err)
	}

	// Assign sugared loggers for each category
	AppLog = log.Sugar().With("component", "FDD-ENB", "category", "App")
	InitLog = log.Sugar().With("component", "FDD-ENB", "category", "Init")
	CfgLog = log.Sugar().With("component", "FDD-ENB", "category", "CFG")
	BitIOLog = log.Sugar().With("component", "FDD-ENB", "category", "BitIO")
	MacLog = log.Sugar().With("component", "FDD-ENB", "category", "MAC")
	GwLog = log.Sugar().With("component", "FDD-ENB", "category", "GW")
	TimerLog = log.Sugar().With("component", "FDD-ENB", "category", "Timer")
	BusLog = log.Sugar().With("component", "FDD-ENB", "category", "Bus")
	EnbUserLog = log.Sugar().With("component", "FDD-ENB", "category", "EnbUser")
}

// GetLogger returns the base zap.Logger
func GetLogger() *zap.Logger {
	return log
}

// SetLogLevel sets the log level (panic|fatal|error|warn|info|debug)
func SetLogLevel(level zapcore.Level) {
	InitLog.Infoln("set log level:", level)
	atomicLevel.SetLevel(level)
}
