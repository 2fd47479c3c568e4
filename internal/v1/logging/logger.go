// Package logging provides the process-wide zap logger and the context
// carriers used to attach a session's identity to every log line it
// produces, without threading sessionId/userId/roomId through every
// function signature in C3-C6.
package logging

import (
	"context"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.Logger
	once   sync.Once
)

// serviceName tags every log line with the binary that produced it.
const serviceName = "cardduel-session"

type contextKey int

const (
	correlationIDKey contextKey = iota
	sessionIDKey
	userIDKey
	roomIDKey
)

// WithCorrelationID attaches a request/handshake correlation id to ctx.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// WithSessionID attaches a transport session id (spec C3) to ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithUserID attaches the authenticated principal's user id to ctx.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// WithRoomID attaches a room id (spec C4) to ctx.
func WithRoomID(ctx context.Context, roomID int64) context.Context {
	return context.WithValue(ctx, roomIDKey, strconv.FormatInt(roomID, 10))
}

// Initialize sets up the global logger for the process. development
// switches between a human-readable console encoder (local runs, test
// mode) and a JSON production encoder.
func Initialize(development bool) error {
	var err error
	once.Do(func() {
		var cfg zap.Config
		if development {
			cfg = zap.NewDevelopmentConfig()
			cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		} else {
			cfg = zap.NewProductionConfig()
			cfg.EncoderConfig.TimeKey = "timestamp"
			cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		}

		cfg.OutputPaths = []string{"stdout"}
		cfg.ErrorOutputPaths = []string{"stderr"}

		logger, err = cfg.Build(zap.AddCallerSkip(1), zap.Fields(zap.String("service", serviceName)))
	})
	return err
}

// GetLogger returns the global logger, building an unconfigured
// development logger on demand if Initialize hasn't run yet (tests and
// packages that log before main's startup sequence completes).
func GetLogger() *zap.Logger {
	if logger == nil {
		l, _ := zap.NewDevelopment()
		return l
	}
	return logger
}

func Info(ctx context.Context, msg string, fields ...zap.Field) {
	logAt(zapcore.InfoLevel, ctx, msg, fields)
}

func Warn(ctx context.Context, msg string, fields ...zap.Field) {
	logAt(zapcore.WarnLevel, ctx, msg, fields)
}

func Error(ctx context.Context, msg string, fields ...zap.Field) {
	logAt(zapcore.ErrorLevel, ctx, msg, fields)
}

func Fatal(ctx context.Context, msg string, fields ...zap.Field) {
	logAt(zapcore.FatalLevel, ctx, msg, fields)
}

// logAt is the single write path every level helper above funnels
// through, so context extraction happens exactly once per call site.
func logAt(level zapcore.Level, ctx context.Context, msg string, fields []zap.Field) {
	l := GetLogger()
	fields = withContextFields(ctx, fields)
	switch level {
	case zapcore.InfoLevel:
		l.Info(msg, fields...)
	case zapcore.WarnLevel:
		l.Warn(msg, fields...)
	case zapcore.ErrorLevel:
		l.Error(msg, fields...)
	case zapcore.FatalLevel:
		l.Fatal(msg, fields...)
	}
}

// withContextFields reads the identity carried on ctx (if any) and
// prepends it to fields, so a handler only needs to pass a context built
// with WithSessionID/WithUserID/WithRoomID once instead of repeating
// zap.String("sessionId", ...) at every log call within that handler.
func withContextFields(ctx context.Context, fields []zap.Field) []zap.Field {
	if ctx == nil {
		return fields
	}

	out := make([]zap.Field, 0, len(fields)+4)
	if cid, ok := ctx.Value(correlationIDKey).(string); ok {
		out = append(out, zap.String("correlationId", cid))
	}
	if sid, ok := ctx.Value(sessionIDKey).(string); ok {
		out = append(out, zap.String("sessionId", sid))
	}
	if uid, ok := ctx.Value(userIDKey).(string); ok {
		out = append(out, zap.String("userId", uid))
	}
	if rid, ok := ctx.Value(roomIDKey).(string); ok {
		out = append(out, zap.String("roomId", rid))
	}
	return append(out, fields...)
}

// RedactEmail masks the local part of an email address, keeping only the
// domain, for log lines that would otherwise carry a principal's email
// (spec C3 Principal) in plaintext.
func RedactEmail(email string) string {
	if len(email) == 0 {
		return ""
	}
	for i, c := range email {
		if c == '@' {
			if i == 0 {
				return "***"
			}
			return "***" + email[i:]
		}
	}
	return "***"
}
