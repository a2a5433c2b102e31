// Package transport opens the byte stream between a board and a host.
package transport

import (
	"fmt"
	"io"
	"net/url"

	"github.com/robotalks/miniboard/pkg/transport/serial"
	"github.com/robotalks/miniboard/pkg/transport/websocket"
)

// Listen opens the board end of the link described by rawURL:
//
//	serial:///dev/ttyUSB0?baud=115200
//	ws://:8080/miniboard
func Listen(rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %v", err)
	}
	var rw io.ReadWriteCloser
	switch u.Scheme {
	case "serial":
		rw, err = serial.OpenURL(u)
	case "ws":
		path := u.Path
		if path == "" {
			path = "/"
		}
		rw, err = websocket.Listen(u.Host, path)
	default:
		err = fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	return rw, nil
}

// Dial opens the host end of the link described by rawURL.
func Dial(rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport URL: %v", err)
	}
	var rw io.ReadWriteCloser
	switch u.Scheme {
	case "serial":
		rw, err = serial.OpenURL(u)
	case "ws", "wss":
		rw, err = websocket.Dial(rawURL)
	default:
		err = fmt.Errorf("unknown transport URL scheme: %q", u.Scheme)
	}
	if err != nil {
		return nil, err
	}
	return rw, nil
}
