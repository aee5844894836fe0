package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "entregas-users.json", cfg.DataFile)
	assert.Equal(t, "order_events", cfg.KafkaTopic)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, 2*time.Second, cfg.SimInterval)
	assert.Equal(t, time.Second, cfg.ExpirySweep)
	assert.Equal(t, 7*time.Second, cfg.ToastDismiss)
	assert.Equal(t, 500*time.Millisecond, cfg.CatalogDelay)
	assert.False(t, cfg.Debug)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("ENTREGAS_HTTP_ADDR", ":9090")
	t.Setenv("ENTREGAS_SIM_INTERVAL", "250ms")
	t.Setenv("ENTREGAS_KAFKA_BROKERS", "localhost:9092, localhost:9093 ,")
	t.Setenv("ENTREGAS_DEBUG", "true")

	cfg := Load()

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.SimInterval)
	assert.Equal(t, []string{"localhost:9092", "localhost:9093"}, cfg.KafkaBrokers)
	assert.True(t, cfg.Debug)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("ENTREGAS_EXPIRY_SWEEP", "not-a-duration")
	t.Setenv("ENTREGAS_DEBUG", "not-a-bool")

	cfg := Load()

	assert.Equal(t, time.Second, cfg.ExpirySweep)
	assert.False(t, cfg.Debug)
}
