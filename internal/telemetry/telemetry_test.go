package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigDefaults(t *testing.T) {
	var config Config
	config.ApplyDefaults()

	assert.Equal(t, "localhost:4317", config.Endpoint)
	assert.Equal(t, "grpc", config.Protocol)
	assert.Equal(t, "shoplynkd", config.ServiceName)
	assert.Equal(t, 1.0, config.SampleRate)
	assert.Equal(t, 15*time.Second, config.MetricInterval)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"disabled skips validation", Config{Enabled: false, Protocol: "carrier-pigeon"}, false},
		{"valid grpc", Config{Enabled: true, Protocol: "grpc", SampleRate: 0.5}, false},
		{"valid http", Config{Enabled: true, Protocol: "http", SampleRate: 1.0}, false},
		{"bad protocol", Config{Enabled: true, Protocol: "udp", SampleRate: 1.0}, true},
		{"sample rate too high", Config{Enabled: true, Protocol: "grpc", SampleRate: 1.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDisabledIsNoOp(t *testing.T) {
	tel, err := New(context.Background(), Config{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := New(context.Background(), Config{Enabled: true, Protocol: "udp"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
