package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("SESSION_STORE", "")
	t.Setenv("ENGINE_MAX_ATTEMPTS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, SessionStoreMemory, cfg.SessionStore)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 3, cfg.Engine.MaxAttempts)
	assert.Equal(t, 70.0, cfg.Engine.MinPassingScore)
	assert.True(t, cfg.Engine.AutoSave)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("ENGINE_MIN_PASSING_SCORE", "65.5")
	t.Setenv("ENGINE_SHUFFLE_QUESTIONS", "true")
	t.Setenv("EVENTS_PUBLISHER", "mock")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, SessionStoreRedis, cfg.SessionStore)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, 65.5, cfg.Engine.MinPassingScore)
	assert.True(t, cfg.Engine.ShuffleQuestions)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.GetKafkaBrokers())
}

func TestLoadConfigRejectsUnknownStore(t *testing.T) {
	t.Setenv("SESSION_STORE", "etcd")

	_, err := LoadConfig()
	assert.Error(t, err)
}
