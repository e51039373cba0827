package scoreeffort

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reading-effort/internal/common/camunda/camundatest"
	"reading-effort/internal/common/config"
	"reading-effort/internal/common/errors"
	"reading-effort/internal/common/logger"
	"reading-effort/internal/common/validation"
	"reading-effort/pkg/registry"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	v, err := validation.NewValidator(registry.MustDefault())
	require.NoError(t, err)
	h, err := NewHandler(DefaultConfig(), v, logger.NewTestLogger(t))
	require.NoError(t, err)
	return h
}

func TestLoadConfig(t *testing.T) {
	activity, ok := registry.MustDefault().Lookup(TaskType)
	require.True(t, ok)

	cfg := LoadConfig(config.WorkerConfig{Enabled: true}, activity)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 10, cfg.MaxJobsActive)
	assert.Equal(t, 5*time.Second, cfg.Timeout)

	cfg = LoadConfig(config.WorkerConfig{MaxJobsActive: 3, Timeout: 250}, activity)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, 3, cfg.MaxJobsActive)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
}

func TestNewHandler_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
		errMsg string
	}{
		{"zero timeout", &Config{MaxJobsActive: 1}, "timeout must be positive"},
		{"zero max jobs", &Config{Timeout: time.Second}, "max_jobs_active must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandler(tt.config, nil, logger.NewTestLogger(t))
			assert.Nil(t, h)
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}

func TestHandler_Execute(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{
		Attention: [][]float64{{0, 0, 0, 0}, {0, 0, 1, 0}, {0, 1, 0, 0}, {0, 0, 0, 0}},
		Tokens:    []string{"[CLS]", "hello", "world", "[SEP]"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello", "world"}, out.Tokens)
	assert.InDeltaSlice(t, []float64{0.5, 1.0}, out.Effort, 1e-9)

	_, err = h.Execute(context.Background(), &Input{Attention: [][]float64{{0, 1}}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeShapeError))
}

func TestHandler_Handle(t *testing.T) {
	tests := []struct {
		name          string
		variables     interface{}
		wantCompleted bool
		wantError     string
	}{
		{
			name: "completes with scores",
			variables: map[string]interface{}{
				"attention": [][]float64{{0, 1}, {1, 0}},
				"knownness": []float64{1, 1},
			},
			wantCompleted: true,
		},
		{
			name:      "missing attention",
			variables: map[string]interface{}{"knownness": []float64{1}},
			wantError: "INVALID_INPUT",
		},
		{
			name: "ragged matrix",
			variables: map[string]interface{}{
				"attention": [][]float64{{0, 1}, {1}},
			},
			wantError: "SHAPE_ERROR",
		},
		{
			name:      "variables are not JSON",
			variables: "{not json",
			wantError: "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t)
			client := camundatest.NewJobClient()

			h.Handle(client, camundatest.NewJob(7, TaskType, tt.variables))

			if !tt.wantCompleted {
				thrown := client.Gateway.Thrown()
				require.Len(t, thrown, 1)
				assert.Equal(t, tt.wantError, thrown[0].ErrorCode)
				assert.Empty(t, client.Gateway.Completed())
				return
			}

			completed := client.Gateway.Completed()
			require.Len(t, completed, 1)
			assert.Equal(t, int64(7), completed[0].JobKey)

			var out Output
			require.NoError(t, json.Unmarshal([]byte(completed[0].Variables), &out))
			assert.InDeltaSlice(t, []float64{0.5, 1.0}, out.Integration, 1e-9)
			assert.InDeltaSlice(t, []float64{1.0, 0.0}, out.Contribution, 1e-9)
			assert.InDeltaSlice(t, []float64{0.5, 1.0}, out.Effort, 1e-9)
		})
	}
}
