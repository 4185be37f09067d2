package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pegdyn/pegsim/internal/types"
)

func TestDefaultSimulationParameters_Valid(t *testing.T) {
	require.NoError(t, DefaultSimulationParameters.Validate())

	// The reference scenario: pool seeded at a $3.141 market price.
	assert.Equal(t, 10_000_000.0, DefaultSimulationParameters.InitialPoolStable)
	assert.Equal(t, 20_940.0, DefaultSimulationParameters.InitialPoolRef)
	assert.Equal(t, 365*24, DefaultSimulationParameters.Steps())
}

func TestLoadParametersFile_EmptyPathReturnsDefaults(t *testing.T) {
	params, err := LoadParametersFile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSimulationParameters, params)
}

func TestLoadParametersFile_OverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	body := `{"seed": 99, "days": 30, "controller": {"kp": 0.001, "update_period_steps": 8}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	params, err := LoadParametersFile(path)
	require.NoError(t, err)

	assert.Equal(t, int64(99), params.Seed)
	assert.Equal(t, 30, params.Days)
	assert.Equal(t, 0.001, params.Controller.Kp)
	assert.Equal(t, 8, params.Controller.UpdatePeriodSteps)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultSimulationParameters.NumAgents, params.NumAgents)
	assert.Equal(t, DefaultSimulationParameters.Proportions, params.Proportions)
}

func TestLoadParametersFile_MissingFile(t *testing.T) {
	_, err := LoadParametersFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestLoadParametersFile_MalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "params.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	_, err := LoadParametersFile(path)
	require.ErrorIs(t, err, types.ErrInvalidConfiguration)
}
