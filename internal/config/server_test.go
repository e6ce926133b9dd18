package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestServerFromEnv(t *testing.T) {
	t.Setenv("CAMRIG_ADDR", "")
	t.Setenv("CAMRIG_ENV", "")
	t.Setenv("CAMRIG_ORIGINS", "")
	t.Setenv("CAMRIG_MAX_FRAMES", "")

	s := ServerFromEnv()
	assert.Equal(t, DefaultMaxFrames, s.FrameLimit())
	assert.Equal(t, "127.0.0.1:8787", s.Addr)
	assert.False(t, s.IsProduction())
	assert.Equal(t, DefaultAllowedOrigins, s.AllowedOrigins)

	t.Setenv("CAMRIG_ADDR", ":9000")
	t.Setenv("CAMRIG_ENV", "production")
	t.Setenv("CAMRIG_ORIGINS", "http://a.test, ,http://b.test")
	t.Setenv("CAMRIG_MAX_FRAMES", "500")

	s = ServerFromEnv()
	assert.Equal(t, ":9000", s.Addr)
	assert.True(t, s.IsProduction())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, s.AllowedOrigins)
	assert.Equal(t, 500, s.FrameLimit())

	t.Setenv("CAMRIG_MAX_FRAMES", "-3")
	assert.Equal(t, DefaultMaxFrames, ServerFromEnv().FrameLimit())
	assert.Equal(t, DefaultMaxFrames, Server{}.FrameLimit())
}
