// Package observability builds the process logger from configuration.
package observability

import (
    "fmt"
    "os"
    "path/filepath"
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
    "gopkg.in/natefinch/lumberjack.v2"

    "wampio/pkg/config"
)

// SetupLogger builds a zap logger writing to every configured output and
// installs it as the process-global logger, so code that defaults to
// zap.L() shares it. The caller should defer logger.Sync().
func SetupLogger(c config.LogConfig) (*zap.Logger, error) {
    level, err := ParseLevel(c.Level)
    if err != nil {
        return nil, err
    }
    enc := newEncoder(c)

    outputs := c.Outputs
    if len(outputs) == 0 {
        outputs = []string{"stdout"}
    }
    cores := make([]zapcore.Core, 0, len(outputs))
    for _, out := range outputs {
        ws, err := openSink(out, c.Rotation)
        if err != nil {
            return nil, fmt.Errorf("log output %q: %w", out, err)
        }
        cores = append(cores, zapcore.NewCore(enc, ws, level))
    }

    opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)}
    if c.Development {
        opts = append(opts, zap.Development())
    }
    logger := zap.New(zapcore.NewTee(cores...), opts...)
    zap.ReplaceGlobals(logger)
    return logger, nil
}

// ParseLevel maps a configured level name to a zap level. An empty name
// means info.
func ParseLevel(name string) (zapcore.Level, error) {
    switch strings.ToLower(strings.TrimSpace(name)) {
    case "", "info":
        return zap.InfoLevel, nil
    case "debug":
        return zap.DebugLevel, nil
    case "warn", "warning":
        return zap.WarnLevel, nil
    case "error":
        return zap.ErrorLevel, nil
    default:
        return 0, fmt.Errorf("unknown log level %q", name)
    }
}

func newEncoder(c config.LogConfig) zapcore.Encoder {
    if strings.ToLower(c.Format) == "json" {
        return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
    }
    cfg := zap.NewDevelopmentEncoderConfig()
    if c.Development {
        cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
    }
    return zapcore.NewConsoleEncoder(cfg)
}

// openSink maps one output name to a write syncer: stdout, stderr, or a
// file path. File outputs go through lumberjack when rotation is enabled;
// lumberjack's own defaults apply to unset size/age/backup limits.
func openSink(out string, r config.RotationConfig) (zapcore.WriteSyncer, error) {
    switch strings.ToLower(out) {
    case "stdout":
        return zapcore.AddSync(os.Stdout), nil
    case "stderr":
        return zapcore.AddSync(os.Stderr), nil
    }

    if r.Enable {
        name := out
        if strings.TrimSpace(r.Filename) != "" {
            name = r.Filename
        }
        return zapcore.AddSync(&lumberjack.Logger{
            Filename:   name,
            MaxSize:    r.MaxSizeMB,
            MaxBackups: r.MaxBackups,
            MaxAge:     r.MaxAgeDays,
            Compress:   r.Compress,
        }), nil
    }

    if dir := filepath.Dir(out); dir != "." {
        if err := os.MkdirAll(dir, 0o755); err != nil {
            return nil, err
        }
    }
    f, err := os.OpenFile(out, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
    if err != nil {
        return nil, err
    }
    return zapcore.AddSync(f), nil
}
