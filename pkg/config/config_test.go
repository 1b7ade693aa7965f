package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `
instruments:
  - symbol: " ANKHU "
    window: 90
    model: m.json
    scaler: s.json
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, minimal))
	require.NoError(t, err)

	assert.Equal(t, "development", c.Environment)
	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, 10*time.Second, c.Server.ShutdownTimeout)
	assert.Equal(t, SeriesCSV, c.Storage.SeriesBackend)
	assert.Equal(t, StateFile, c.Storage.StateBackend)
	assert.Equal(t, SequenceNative, c.Sequence.Backend)

	require.Len(t, c.Instruments, 1)
	in := c.Instruments[0]
	assert.Equal(t, "ankhu", in.Symbol)
	assert.Equal(t, "close", in.Target)
	assert.Equal(t, []string{"open", "high", "low", "close", "volume"}, in.Features)
	assert.Equal(t, "dataset/ankhu_Feb.csv", c.DatasetPath(in))
	assert.Equal(t, "models/arima/arima_ankhu.msgpack", c.StatePath(in))
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("SERIES_BACKEND", "sqlite")
	t.Setenv("STATE_BACKEND", "redis")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("REDIS_ADDR", "cache:6379")

	c, err := LoadWithEnv(writeConfig(t, minimal))
	require.NoError(t, err)
	assert.Equal(t, SeriesSQLite, c.Storage.SeriesBackend)
	assert.Equal(t, StateRedis, c.Storage.StateBackend)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "cache:6379", c.Redis.Addr)
}

func TestValidate(t *testing.T) {
	cases := map[string]string{
		"no instruments":  "environment: test\n",
		"bad backend":     "storage:\n  series_backend: parquet\n" + minimal,
		"zero window":     "instruments:\n  - symbol: ntc\n    model: m\n    scaler: s\n",
		"target missing":  "instruments:\n  - symbol: ntc\n    window: 3\n    model: m\n    scaler: s\n    features: [open]\n",
		"remote no url":   "sequence:\n  backend: remote\n" + minimal,
		"duplicate":       minimal + "  - symbol: ankhu\n    window: 3\n    model: m\n    scaler: s\n",
		"kafka no broker": "kafka:\n  enabled: true\n" + minimal,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestShippedConfigLoads(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	require.NoError(t, err)
	require.Len(t, c.Instruments, 5)

	windows := map[string]int{}
	for _, in := range c.Instruments {
		windows[in.Symbol] = in.Window
	}
	assert.Equal(t, map[string]int{"ankhu": 90, "asian": 60, "ntc": 90, "sahas": 60, "siddhartha": 60}, windows)
	assert.Equal(t, "dataset/asian_Feb.csv", c.DatasetPath(c.Instruments[1]))
}
