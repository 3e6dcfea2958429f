package cache

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Istiyak4099/Airdrop/config"
	"github.com/Istiyak4099/Airdrop/pkg/logger"
)

func discardLogger() *slog.Logger {
	return logger.Discard()
}

func TestNewWithoutHostIsDisabled(t *testing.T) {
	c := New(context.Background(), config.RedisConfig{}, discardLogger())
	assert.False(t, c.Enabled())
	assert.Equal(t, defaultTTL, c.ttl)
	assert.NoError(t, c.Close())
}

func TestNewUnreachableIsDisabled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c := New(ctx, config.RedisConfig{Host: "127.0.0.1", Port: "1", TTL: time.Minute}, discardLogger())
	assert.False(t, c.Enabled())
	assert.NoError(t, c.Close())
}

func TestGetOrLoadDisabledAlwaysLoads(t *testing.T) {
	c := Disabled(discardLogger())
	calls := 0
	load := func(context.Context) (string, error) {
		calls++
		return "value", nil
	}

	for i := 0; i < 3; i++ {
		v, err := GetOrLoad(context.Background(), c, "k", load)
		require.NoError(t, err)
		assert.Equal(t, "value", v)
	}
	assert.Equal(t, 3, calls)
	assert.NoError(t, c.Invalidate(context.Background(), "k"))
}

func TestGetOrLoadPropagatesError(t *testing.T) {
	want := errors.New("not there")
	_, err := GetOrLoad(context.Background(), Disabled(discardLogger()), "k", func(context.Context) (int, error) {
		return 0, want
	})
	assert.ErrorIs(t, err, want)
}

func TestNilCache(t *testing.T) {
	var c *Cache
	assert.False(t, c.Enabled())
	v, err := GetOrLoad(context.Background(), c, "k", func(context.Context) (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
	assert.NoError(t, c.Close())
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "page:123:credential", PageKey("123"))
	assert.Equal(t, "profile:u1:business", ProfileKey("u1"))
	assert.Equal(t, "customer:p1:c1:name", CustomerNameKey("p1", "c1"))
}
