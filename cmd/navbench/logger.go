package main

import (
	"io"
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger writes to stderr and, when a file is configured, to a rotated log file.
func newLogger(lc LoggerConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		return nil, err
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeDuration = zapcore.StringDurationEncoder

	consoleEnc := zapcore.NewConsoleEncoder(encCfg)
	if lc.JSON {
		consoleEnc = zapcore.NewJSONEncoder(encCfg)
	}
	cores := []zapcore.Core{zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), level)}
	var libOut io.Writer = os.Stderr
	if lc.File != "" {
		rotate := &lumberjack.Logger{
			Filename:   lc.File,
			MaxSize:    lc.MaxSizeMB,
			MaxBackups: lc.MaxBackups,
			MaxAge:     lc.MaxAgeDays,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(rotate), level))
		libOut = io.MultiWriter(os.Stderr, rotate)
	}

	// The library packages log through slog.
	slogLevel := slog.LevelInfo
	if level == zapcore.DebugLevel {
		slogLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(libOut, &slog.HandlerOptions{Level: slogLevel})))

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
