// Package serial opens UART links.
package serial

import (
	"fmt"
	"net/url"
	"strconv"

	"go.bug.st/serial"
)

// DefaultBaudRate is used when the URL has no baud parameter.
const DefaultBaudRate = 115200

// Port is an open serial port.
type Port struct {
	serial.Port
	Name string
}

// Mode returns 8N1 at baud.
func Mode(baud int) *serial.Mode {
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens port name at baud, 8N1.
func Open(name string, baud int) (*Port, error) {
	port, err := serial.Open(name, Mode(baud))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return &Port{Port: port, Name: name}, nil
}

// ParseURL extracts the port name and baud rate from
// serial:///dev/ttyUSB0?baud=115200 or serial://COM3.
func ParseURL(u *url.URL) (name string, baud int, err error) {
	name = u.Path
	if u.Host != "" {
		name = u.Host + u.Path
	}
	if name == "" {
		return "", 0, fmt.Errorf("missing serial port in %q", u.String())
	}
	baud = DefaultBaudRate
	if val := u.Query().Get("baud"); val != "" {
		if baud, err = strconv.Atoi(val); err != nil || baud <= 0 {
			return "", 0, fmt.Errorf("invalid baud rate %q", val)
		}
	}
	return name, baud, nil
}

// OpenURL opens the port described by u.
func OpenURL(u *url.URL) (*Port, error) {
	name, baud, err := ParseURL(u)
	if err != nil {
		return nil, err
	}
	return Open(name, baud)
}

// Ports lists the serial ports on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}
