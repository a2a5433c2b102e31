package board

import (
	"flag"
	"io"
	"os"
	"strconv"
	"time"

	fx "github.com/robotalks/miniboard/pkg/framework"
	"github.com/robotalks/miniboard/pkg/l0/comm"
)

// Config defines the configurations of a board.
type Config struct {
	// Transport is the link URL, e.g.
	// serial:///dev/ttyUSB0?baud=115200 or ws://:8080/miniboard
	Transport    string
	SamplePeriod time.Duration
	FrameTimeout time.Duration
	BoardID      string
	Callsign     string
	MotorEnabled bool
}

var defaultConfig = Config{
	Transport:    "serial:///dev/ttyUSB0?baud=115200",
	SamplePeriod: fx.DefaultInterval,
	FrameTimeout: comm.DefaultTimeout,
}

func init() {
	if val := os.Getenv("MINIBOARD_TRANSPORT"); val != "" {
		defaultConfig.Transport = val
	}
	if val := os.Getenv("MINIBOARD_ID"); val != "" {
		defaultConfig.BoardID = val
	}
	if val := os.Getenv("MINIBOARD_CALLSIGN"); val != "" {
		defaultConfig.Callsign = val
	}
	if val, err := strconv.ParseBool(os.Getenv("MINIBOARD_MOTOR")); err == nil {
		defaultConfig.MotorEnabled = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Transport, "transport", defaultConfig.Transport, "Link URL (serial://, ws://)")
	flag.DurationVar(&defaultConfig.SamplePeriod, "period", defaultConfig.SamplePeriod, "Main loop period")
	flag.DurationVar(&defaultConfig.FrameTimeout, "frame-timeout", defaultConfig.FrameTimeout, "Inter-byte timeout of a frame")
	flag.StringVar(&defaultConfig.BoardID, "id", defaultConfig.BoardID, "Board ID, machine ID by default")
	flag.StringVar(&defaultConfig.Callsign, "callsign", defaultConfig.Callsign, "Initial callsign")
	flag.BoolVar(&defaultConfig.MotorEnabled, "motor", defaultConfig.MotorEnabled, "Enable motor driver")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewBoard creates a board using the config.
func (c *Config) NewBoard(p Peripherals, rw io.ReadWriter) (*Board, error) {
	return New(c, p, rw)
}
