package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host      string `env:"HOST,default=localhost"`
	Port      int    `env:"PORT,default=8080"`
	DebugPort int    `env:"DEBUG_PORT,default=8081"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	TokenSecret    string `env:"TOKEN_SECRET,required=true"`

	// BufferSize is the shared fan-out channel capacity;
	// ConnectionBufferSize bounds each session's outbound queue.
	BufferSize           int `env:"BUFFER_SIZE,default=256"`
	ConnectionBufferSize int `env:"CONNECTION_BUFFER_SIZE,default=64"`

	// LimitMessages caps every history replay window.
	LimitMessages    int `env:"LIMIT_MESSAGES,default=50"`
	MaxContentLength int `env:"MAX_CONTENT_LENGTH,default=2000"`

	SinkTimeout     time.Duration `env:"SINK_TIMEOUT,default=2s"`
	WriteTimeout    time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`

	MaskCharacter string `env:"MASK_CHARACTER,default=*"`
}

// MaskRune validates that the configured mask is a single character.
func MaskRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("MASK_CHARACTER must be a single character, got %q", str)
	}
	return r[0], nil
}
