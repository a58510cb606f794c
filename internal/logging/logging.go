// Package logging builds the zap logger shared by the CLI and MCP server.
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a console logger writing to stderr at the given level
// ("debug", "info", "warn" or "error"). Stdout is left to command output
// and the MCP stdio transport.
func New(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return newLogger(lvl, zapcore.Lock(os.Stderr)), nil
}

func newLogger(lvl zapcore.Level, out zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), out, zap.NewAtomicLevelAt(lvl))
	return zap.New(core).Named("timeriffic")
}
