package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup initializes the global zap logger. When filename is set, logs are
// additionally written as JSON to a rotated file.
func Setup(filename string, debug bool) error {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(os.Stdout),
		level,
	)

	var logger *zap.Logger
	if filename != "" {
		fileLogger := &lumberjack.Logger{
			Filename:   filename,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		}
		core := zapcore.NewTee(
			consoleCore,
			zapcore.NewCore(
				zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
				zapcore.AddSync(fileLogger),
				level,
			),
		)
		logger = zap.New(core, zap.AddCaller())
	} else {
		logger = zap.New(consoleCore, zap.AddCaller())
	}

	zap.ReplaceGlobals(logger)
	return nil
}
