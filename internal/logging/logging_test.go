package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/profile-dashboard/internal/config"
)

func TestNew_LevelFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Log
		debugOn bool
		warnOn  bool
	}{
		{"development info", config.Log{Mode: config.LogModeDevelopment, Level: "info"}, false, true},
		{"development debug", config.Log{Mode: config.LogModeDevelopment, Level: "debug"}, true, true},
		{"production error", config.Log{Mode: config.LogModeProduction, Level: "error"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, sync, err := New(tt.cfg)
			require.NoError(t, err)
			defer sync()

			ctx := context.Background()
			assert.Equal(t, tt.debugOn, logger.Enabled(ctx, slog.LevelDebug))
			assert.Equal(t, tt.warnOn, logger.Enabled(ctx, slog.LevelWarn))
		})
	}
}

func TestNew_BadLevel(t *testing.T) {
	_, _, err := New(config.Log{Mode: config.LogModeProduction, Level: "loud"})
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
	logger.Error("dropped")
}
