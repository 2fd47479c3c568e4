package logging

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func resetLogger() {
	logger = nil
	once = sync.Once{}
}

func TestGetLogger_FallsBackBeforeInitialize(t *testing.T) {
	resetLogger()
	assert.NotNil(t, GetLogger())
}

func TestInitialize_IsIdempotent(t *testing.T) {
	resetLogger()
	require.NoError(t, Initialize(true))

	first := GetLogger()
	require.NoError(t, Initialize(false))
	assert.Same(t, first, GetLogger(), "a second Initialize call must not rebuild the logger")
}

func TestWithSessionFields_AttachIdentityToEveryLine(t *testing.T) {
	resetLogger()
	core, logs := observer.New(zap.InfoLevel)
	logger = zap.New(core)

	Info(context.Background(), "no identity yet")
	require.Equal(t, 1, logs.Len())
	assert.Empty(t, logs.All()[0].ContextMap()["sessionId"])

	ctx := WithSessionID(context.Background(), "sess-1")
	ctx = WithUserID(ctx, "user-1")
	ctx = WithRoomID(ctx, 42)

	Info(ctx, "with identity")
	require.Equal(t, 2, logs.Len())
	fields := logs.All()[1].ContextMap()
	assert.Equal(t, "sess-1", fields["sessionId"])
	assert.Equal(t, "user-1", fields["userId"])
	assert.Equal(t, "42", fields["roomId"])
}

func TestLevelHelpers_RouteToTheMatchingZapLevel(t *testing.T) {
	resetLogger()
	core, logs := observer.New(zap.DebugLevel)
	logger = zap.New(core)

	ctx := context.Background()
	Info(ctx, "info msg")
	Warn(ctx, "warn msg")
	Error(ctx, "error msg")

	require.Equal(t, 3, logs.Len())
	assert.Equal(t, zapcore.InfoLevel, logs.All()[0].Level)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[1].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[2].Level)
}

func TestWithContextFields_NilContextIsANoop(t *testing.T) {
	fields := withContextFields(nil, []zap.Field{zap.String("k", "v")})
	require.Len(t, fields, 1)
	assert.Equal(t, "k", fields[0].Key)
}

func TestRedactEmail(t *testing.T) {
	assert.Equal(t, "", RedactEmail(""))
	assert.Equal(t, "***", RedactEmail("plainstring"))
	assert.Equal(t, "***@example.com", RedactEmail("user@example.com"))
	assert.Equal(t, "***@sub.domain.com", RedactEmail("firstname.lastname@sub.domain.com"))
}
