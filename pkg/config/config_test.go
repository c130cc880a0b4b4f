package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)

	assert.Equal(t, "/api", cfg.APIPrefix)
	assert.Equal(t, int64(5242880), cfg.Storage.MaxFileSize)
	assert.Equal(t, []string{"jpg", "jpeg", "png", "webp"}, cfg.Storage.AllowedExtensions)
	assert.Equal(t, 1920, cfg.Storage.MaxWidth)
	assert.Equal(t, 1080, cfg.Storage.MaxHeight)
	assert.Equal(t, 85, cfg.Storage.JPEGQuality)
	assert.Equal(t, 100.0, cfg.Verification.MaxDistanceMeters)
	assert.Equal(t, 24*time.Hour, cfg.RateLimit.Window)
	assert.Equal(t, "tankas", cfg.Mongo.Database)
}

func TestOverridesAndFallbacks(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("MAX_VERIFICATION_DISTANCE", -5)
	v.Set("CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")
	v.Set("PUBLIC_BASE_URL", "https://cdn.test/")
	cfg := fromViper(v)

	assert.Equal(t, 100.0, cfg.Verification.MaxDistanceMeters)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "https://cdn.test", cfg.Storage.PublicBaseURL)
}
