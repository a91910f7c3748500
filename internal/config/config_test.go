package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "production")
	cfg := Load()

	assert.True(t, cfg.Production())
	assert.Equal(t, "pathway", cfg.Database.Name)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiryPeriod)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("CLOSER_DRY_RUN", "true")
	t.Setenv("SMTP_PORT", "not-a-number")

	cfg := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.True(t, cfg.Closer.DryRun)
	assert.Equal(t, 1025, cfg.SMTP.Port)
}
