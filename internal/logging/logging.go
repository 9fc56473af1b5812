// Package logging builds the zap loggers used across the harness: a
// colored console logger for interactive runs and rotating file loggers
// per role (client/server), mirroring the console+per-role-file split the
// retrieved UDP harness used, but built on go.uber.org/zap and
// gopkg.in/natefinch/lumberjack.v2 instead of a hand-rolled level/color
// implementation.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default, Client and Server are populated by Init and are nil until
// then; callers that run before Init should fall back to zap.NewNop().
var (
	Default *zap.Logger
	Client  *zap.Logger
	Server  *zap.Logger
)

// NewConsole returns a human-readable, color-enabled logger writing to
// stderr, suitable for interactive terminal or GUI use.
func NewConsole(level zapcore.Level) *zap.Logger {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(os.Stderr), level)
	return zap.New(core, zap.AddCaller())
}

// NewFile returns a logger that writes JSON-encoded entries into
// logDir/<prefix>_<date>.log, rotated by lumberjack once the active file
// crosses 50MB; at most 7 compressed backups are kept, none older than
// 7 days.
func NewFile(logDir, prefix string, level zapcore.Level) (*zap.Logger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("logging: creating %s: %w", logDir, err)
	}
	logPath := filepath.Join(logDir, fmt.Sprintf("%s_%s.log", prefix, time.Now().Format("2006-01-02")))
	rotator := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50,
		MaxBackups: 7,
		MaxAge:     7,
		Compress:   true,
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(rotator), level)
	return zap.New(core, zap.AddCaller()).With(zap.String("role", prefix)), nil
}

// Init populates Default, Client and Server. It mirrors the retrieved
// harness's InitLoggers(logDir): a console logger for interactive
// feedback plus one rotating file logger per role.
func Init(logDir string) error {
	Default = NewConsole(zapcore.InfoLevel)

	client, err := NewFile(logDir, "client", zapcore.DebugLevel)
	if err != nil {
		return err
	}
	Client = client

	server, err := NewFile(logDir, "server", zapcore.DebugLevel)
	if err != nil {
		return err
	}
	Server = server

	return nil
}

// Close flushes the role loggers with Sync and ignores Sync errors,
// matching the common zap idiom. It does not close the underlying log
// files, and the console Default logger is not synced.
func Close() {
	if Client != nil {
		_ = Client.Sync()
	}
	if Server != nil {
		_ = Server.Sync()
	}
}
