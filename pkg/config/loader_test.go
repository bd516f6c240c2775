package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/metisnation/registry/pkg/config"
)

type serverConfig struct {
	Addr    string        `env:"TEST_CFG_ADDR" envDefault:":8080"`
	Timeout time.Duration `env:"TEST_CFG_TIMEOUT" envDefault:"5s"`
	Debug   bool          `env:"TEST_CFG_DEBUG"`
}

type cachedConfig struct {
	Value string `env:"TEST_CFG_CACHED" envDefault:"first"`
}

type requiredConfig struct {
	Secret string `env:"TEST_CFG_REQUIRED,required"`
}

type poolConfig struct {
	Size int `env:"TEST_CFG_POOL" envDefault:"4"`
}

func (c poolConfig) Validate() error {
	if c.Size <= 0 {
		return errors.New("pool size must be positive")
	}
	return nil
}

func TestParse(t *testing.T) {
	t.Setenv("TEST_CFG_ADDR", ":9000")
	t.Setenv("TEST_CFG_DEBUG", "true")

	var cfg serverConfig
	require.NoError(t, config.Parse(&cfg))
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.True(t, cfg.Debug)
}

func TestParse_Errors(t *testing.T) {
	var nilCfg *serverConfig
	assert.ErrorIs(t, config.Parse(nilCfg), config.ErrNilPointer)

	var req requiredConfig
	assert.ErrorIs(t, config.Parse(&req), config.ErrParsingConfig)

	t.Setenv("TEST_CFG_POOL", "0")
	var pool poolConfig
	err := config.Parse(&pool)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), "pool size must be positive")
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("TEST_CFG_CACHED", "first")

	var a cachedConfig
	require.NoError(t, config.Load(&a))
	assert.Equal(t, "first", a.Value)

	t.Setenv("TEST_CFG_CACHED", "second")

	var b cachedConfig
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Value)
}

func TestMustLoad(t *testing.T) {
	var req requiredConfig
	assert.Panics(t, func() { config.MustLoad(&req) })
}
