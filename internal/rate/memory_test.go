package rate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterAllowsUpToLimit(t *testing.T) {
	l := NewMemory(3, time.Minute)
	now := time.Now()

	for i := 0; i < 3; i++ {
		ok, _, err := l.Allow(context.Background(), "0xA1", now)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, retryAfter, err := l.Allow(context.Background(), "0xA1", now)
	require.NoError(t, err)
	require.False(t, ok)
	require.Greater(t, retryAfter, time.Duration(0))
}

func TestMemoryLimiterKeysIndependent(t *testing.T) {
	l := NewMemory(1, time.Minute)
	now := time.Now()

	ok, _, _ := l.Allow(context.Background(), "0xA1", now)
	require.True(t, ok)

	ok, _, _ = l.Allow(context.Background(), "0xB2", now)
	require.True(t, ok)

	ok, _, _ = l.Allow(context.Background(), "0xA1", now)
	require.False(t, ok)
}

func TestMemoryLimiterWindowResets(t *testing.T) {
	l := NewMemory(1, time.Minute)
	now := time.Now()

	ok, _, _ := l.Allow(context.Background(), "0xA1", now)
	require.True(t, ok)

	ok, _, _ = l.Allow(context.Background(), "0xA1", now)
	require.False(t, ok)

	ok, _, _ = l.Allow(context.Background(), "0xA1", now.Add(2*time.Minute))
	require.True(t, ok)
}
