package mqtt

import (
	"flag"
	"os"
	"strconv"

	"github.com/robotalks/miniboard/pkg/l0/regs"
)

// Config defines the configurations of telemetry.
type Config struct {
	// BrokerURL is mqtt://[user:pass@]host:port/topic-prefix/,
	// telemetry is disabled if empty.
	BrokerURL string
	Every     uint64
}

var defaultConfig = Config{
	Every: 1,
}

func init() {
	if val := os.Getenv("MINIBOARD_MQTT_URL"); val != "" {
		defaultConfig.BrokerURL = val
	}
	if val, err := strconv.ParseUint(os.Getenv("MINIBOARD_TELEMETRY_EVERY"), 10, 64); err == nil && val > 0 {
		defaultConfig.Every = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.BrokerURL, "mqtt", defaultConfig.BrokerURL, "MQTT broker URL for telemetry")
	flag.Uint64Var(&defaultConfig.Every, "telemetry-every", defaultConfig.Every, "Publish telemetry every N iterations")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// Enabled indicates telemetry is configured.
func (c *Config) Enabled() bool {
	return c.BrokerURL != ""
}

// NewBridge creates the bridge using the config.
func (c *Config) NewBridge(tbl *regs.Table, boardID, build string) (*Bridge, error) {
	b, err := NewBridge(c.BrokerURL, tbl, boardID, build)
	if err != nil {
		return nil, err
	}
	b.Every = c.Every
	return b, nil
}
