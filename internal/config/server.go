package config

import (
	"os"
	"strconv"
	"strings"
)

// DefaultMaxFrames bounds the frame span of one bridge request.
const DefaultMaxFrames = 10000

// DefaultAllowedOrigins are the local editor origins allowed to call the
// HTTP bridge.
var DefaultAllowedOrigins = []string{
	"http://127.0.0.1:5173",
	"http://localhost:5173",
	"http://127.0.0.1:8787",
	"http://localhost:8787",
}

// Server holds the settings of the HTTP bridge.
type Server struct {
	Addr           string
	Environment    string
	AllowedOrigins []string
	Workers        int
	MaxFrames      int
}

// FrameLimit returns MaxFrames, or DefaultMaxFrames when it is not positive.
func (s Server) FrameLimit() int {
	if s.MaxFrames <= 0 {
		return DefaultMaxFrames
	}
	return s.MaxFrames
}

// IsProduction reports whether gin should run in release mode.
func (s Server) IsProduction() bool {
	return s.Environment == "production"
}

// ServerFromEnv reads the bridge settings from the environment.
// CAMRIG_ORIGINS is a comma separated list; "*" allows any origin.
// CAMRIG_MAX_FRAMES limits the frame span of a request.
func ServerFromEnv() Server {
	s := Server{
		Addr:           getEnv("CAMRIG_ADDR", "127.0.0.1:8787"),
		Environment:    getEnv("CAMRIG_ENV", "development"),
		AllowedOrigins: DefaultAllowedOrigins,
		MaxFrames:      DefaultMaxFrames,
	}
	if n, err := strconv.Atoi(os.Getenv("CAMRIG_MAX_FRAMES")); err == nil && n > 0 {
		s.MaxFrames = n
	}
	if v := os.Getenv("CAMRIG_ORIGINS"); v != "" {
		s.AllowedOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				s.AllowedOrigins = append(s.AllowedOrigins, o)
			}
		}
	}
	return s
}

// getEnv returns the environment variable or def when it is empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
