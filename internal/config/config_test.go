package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	v.Set("DB_DSN", "postgres://localhost/trips")
	v.Set("JWT_ACCESS_SECRET", "secret")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, DBDriverPostgres, cfg.DB.Driver)
	assert.Equal(t, DefaultClassifierURL, cfg.Classifier.BaseURL)
	assert.Equal(t, DefaultClassifierTimeout, cfg.Classifier.Timeout)
	assert.Equal(t, DefaultRoutesTTL, cfg.Cache.RoutesTTL)
	assert.Equal(t, time.UTC, cfg.Reports.Location)
	assert.Equal(t, []string{"*"}, cfg.HTTP.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	v.Set("DB_DRIVER", "memory")
	v.Set("JWT_ACCESS_SECRET", "secret")
	v.Set("ML_URL", "http://model:8000/")
	v.Set("ML_TIMEOUT", "750ms")
	v.Set("REPORT_TIMEZONE", "Europe/Paris")
	v.Set("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := fromViper(v)
	require.NoError(t, err)

	assert.Equal(t, DBDriverMemory, cfg.DB.Driver)
	assert.Equal(t, "http://model:8000", cfg.Classifier.BaseURL)
	assert.Equal(t, 750*time.Millisecond, cfg.Classifier.Timeout)
	assert.Equal(t, "Europe/Paris", cfg.Reports.Location.String())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowedOrigins)
}

func TestFromViperValidation(t *testing.T) {
	t.Run("postgres requires dsn", func(t *testing.T) {
		v := viper.New()
		v.Set("JWT_ACCESS_SECRET", "secret")
		_, err := fromViper(v)
		assert.EqualError(t, err, "DB_DSN is required")
	})

	t.Run("secret required", func(t *testing.T) {
		v := viper.New()
		v.Set("DB_DRIVER", "memory")
		_, err := fromViper(v)
		assert.EqualError(t, err, "JWT_ACCESS_SECRET is required")
	})

	t.Run("unknown driver", func(t *testing.T) {
		v := viper.New()
		v.Set("DB_DRIVER", "sqlite")
		v.Set("JWT_ACCESS_SECRET", "secret")
		_, err := fromViper(v)
		assert.Error(t, err)
	})

	t.Run("bad timezone", func(t *testing.T) {
		v := viper.New()
		v.Set("DB_DRIVER", "memory")
		v.Set("JWT_ACCESS_SECRET", "secret")
		v.Set("REPORT_TIMEZONE", "Mars/Olympus")
		_, err := fromViper(v)
		assert.Error(t, err)
	})
}
