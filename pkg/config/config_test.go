package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oficaz/billing-engine/pkg/config"
)

type testConfig struct {
	Name  string `env:"CONFIG_TEST_NAME" envDefault:"billing"`
	Count int    `env:"CONFIG_TEST_COUNT" envDefault:"3"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "billing", cfg.Name)
	assert.Equal(t, 3, cfg.Count)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CONFIG_TEST_NAME", "engine")
	t.Setenv("CONFIG_TEST_COUNT", "7")

	var cfg testConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "engine", cfg.Name)
	assert.Equal(t, 7, cfg.Count)
}

func TestLoad_NilPointer(t *testing.T) {
	err := config.Load[testConfig](nil)
	assert.ErrorIs(t, err, config.ErrNilPointer)
}

func TestLoad_ParseError(t *testing.T) {
	t.Setenv("CONFIG_TEST_COUNT", "not-a-number")

	var cfg testConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)
}
