package sh

import (
	"flag"
	"os"
	"time"
)

// Config defines the configurations of the host shell.
type Config struct {
	// Link is the URL of the board link, see transport.Dial.
	Link    string
	Timeout time.Duration
}

var defaultConfig = Config{
	Link:    "ws://localhost:8080/miniboard",
	Timeout: time.Second,
}

func init() {
	if val := os.Getenv("MINIBOARD_LINK"); val != "" {
		defaultConfig.Link = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Link, "link", defaultConfig.Link, "Board link URL (serial://, ws://)")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Request timeout")
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}
