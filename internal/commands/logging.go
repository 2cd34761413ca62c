package commands

import (
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newLogger builds a zap logger writing to w. JSON output is meant for the
// server; the console encoder for humans.
func newLogger(w io.Writer, level zapcore.Level, jsonFormat bool) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	if jsonFormat {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), level), zap.AddCaller())
}

// fileLogger logs to path for commands that own the terminal. It returns a
// no-op logger when the file cannot be opened.
func fileLogger(path string, level zapcore.Level) (*zap.Logger, func()) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return zap.NewNop(), func() {}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return zap.NewNop(), func() {}
	}
	logger := newLogger(f, level, true)
	return logger, func() {
		_ = logger.Sync()
		_ = f.Close()
	}
}
