package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadEnv_Defaults(t *testing.T) {
	cfg := LoadEnv()

	assert.Equal(t, ":8080", cfg.Server.HTTPPort)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Empty(t, cfg.Forecast.APIKey)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SEED_ENABLED", "nope")
	t.Setenv("SHUTDOWN_TIMEOUT_SECONDS", "3")

	cfg := LoadEnv()

	assert.Equal(t, "9000", cfg.Server.HTTPPort)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Seed.Enabled, "unparsable bools fall back")
	assert.Equal(t, 3, cfg.Server.ShutdownTimeout)
}
