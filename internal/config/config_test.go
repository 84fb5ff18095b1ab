package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 48*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "order.events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("GLAM_SERVER_ADDR", ":9090")
	t.Setenv("GLAM_DB_DSN", "postgres://u:p@db:5432/store")
	t.Setenv("GLAM_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("GLAM_AUTH_TOKEN_TTL", "1h")
	t.Setenv("GLAM_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadConfig()

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "postgres://u:p@db:5432/store", cfg.DB.DSN)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.NoError(t, cfg.Validate())
}

func TestValidateRequiresSecret(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.ErrorContains(t, cfg.Validate(), "jwt_secret")
}

func TestValidateOutbox(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"zero interval", map[string]string{"GLAM_OUTBOX_INTERVAL": "0s"}, "outbox.interval"},
		{"negative interval", map[string]string{"GLAM_OUTBOX_INTERVAL": "-1s"}, "outbox.interval"},
		{"zero batch", map[string]string{"GLAM_OUTBOX_BATCH_SIZE": "0"}, "outbox.batch_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GLAM_AUTH_JWT_SECRET", "s3cret")
			t.Setenv("GLAM_KAFKA_BROKERS", "k1:9092")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := LoadConfig()
			require.NoError(t, err)

			assert.ErrorContains(t, cfg.Validate(), tt.wantErr)
		})
	}
}
