package logger

import (
	"testing"

	"github.com/mailsignal/dmarclens/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  config.LoggerConfig
		wantErr bool
	}{
		{
			name: "valid json config",
			config: config.LoggerConfig{
				Level:  "debug",
				Format: "json",
			},
			wantErr: false,
		},
		{
			name: "valid console config",
			config: config.LoggerConfig{
				Level:  "info",
				Format: "console",
			},
			wantErr: false,
		},
		{
			name: "invalid level",
			config: config.LoggerConfig{
				Level:  "invalid",
				Format: "json",
			},
			wantErr: true,
		},
		{
			name:    "empty config uses defaults",
			config:  config.LoggerConfig{},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, logger)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, logger)
			}
		})
	}
}

func TestWithComponent(t *testing.T) {
	logger, err := New(config.LoggerConfig{Level: "info", Format: "json"})
	require.NoError(t, err)

	child := logger.WithComponent("resolver")
	assert.NotNil(t, child)
	assert.NotSame(t, logger, child)
}

func TestWithFields(t *testing.T) {
	logger, err := New(config.LoggerConfig{Level: "info", Format: "json"})
	require.NoError(t, err)

	child := logger.WithFields("ip", "203.0.113.5", "cached", true)
	assert.NotNil(t, child)
	assert.NotSame(t, logger, child)
}

func TestNewNop(t *testing.T) {
	logger := NewNop()
	require.NotNil(t, logger)

	// Must be safe to log and sync without side effects.
	logger.Infow("discarded", "key", "value")
	assert.NoError(t, logger.Sync())
}
