package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	require.Equal(t, Get(), FromContext(context.Background()))
}

func TestWithContext(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	l := zap.New(core)
	ctx := WithContext(context.Background(), l)
	FromContext(ctx).Info("hello", zap.String("k", "v"))
	require.Equal(t, 1, logs.Len())
	require.Equal(t, "hello", logs.All()[0].Message)
}

func TestInit_Development(t *testing.T) {
	require.NoError(t, Init(LogConfig{Level: "debug", Environment: "development", ServiceName: "test"}))
	require.True(t, Get().Core().Enabled(zap.DebugLevel))
}
