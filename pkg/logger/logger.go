package logger

// Process-wide structured logger. Plain Info/Warn/Error carry a message
// string; the J variants emit an event name plus a flat field map, which is
// the shape every service-level log line in this repo uses.

import (
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

var base = newDefault()

func newDefault() *zap.Logger {
    cfg := zap.NewProductionConfig()
    cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    cfg.DisableStacktrace = true
    l, err := cfg.Build(zap.AddCallerSkip(1))
    if err != nil {
        // Production config only fails on a bad output path; none is set.
        panic(err)
    }
    return l
}

func Info(msg string)  { base.Info(msg) }
func Warn(msg string)  { base.Warn(msg) }
func Error(msg string) { base.Error(msg) }

// InfoJ logs an event with structured fields.
func InfoJ(event string, kv map[string]any) { base.Info(event, fields(kv)...) }

// ErrorJ logs an error-level event with structured fields.
func ErrorJ(event string, kv map[string]any) { base.Error(event, fields(kv)...) }

// Sync flushes buffered records; call before process exit.
func Sync() { _ = base.Sync() }

func fields(kv map[string]any) []zap.Field {
    fs := make([]zap.Field, 0, len(kv))
    for k, v := range kv { fs = append(fs, zap.Any(k, v)) }
    return fs
}
