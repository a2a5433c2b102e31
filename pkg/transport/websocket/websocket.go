// Package websocket carries the board link over websocket binary frames.
package websocket

import (
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"
)

// DefaultOrigin is the Origin header sent by Dial.
const DefaultOrigin = "http://localhost/"

// Dial connects a host to a board link at rawURL, e.g. ws://board:8080/miniboard.
func Dial(rawURL string) (*websocket.Conn, error) {
	conn, err := websocket.Dial(rawURL, "", DefaultOrigin)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

type session struct {
	conn *websocket.Conn
	done chan struct{}
	once sync.Once
}

func (s *session) close() {
	s.once.Do(func() { close(s.done) })
}

// Link is the board end of a websocket link. It serves one host at a
// time: a new connection replaces the current one. Bytes written with
// no host connected are dropped.
type Link struct {
	listener net.Listener
	server   *http.Server

	lock     sync.Mutex
	sess     *session
	notifyCh chan struct{}
	closedCh chan struct{}
	closed   sync.Once
}

// Listen creates a Link accepting hosts on addr at path.
func Listen(addr, path string) (*Link, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	l := &Link{
		listener: ln,
		notifyCh: make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}
	mux := http.NewServeMux()
	mux.Handle(path, websocket.Handler(l.serve))
	l.server = &http.Server{Handler: mux}
	go func() {
		if err := l.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			glog.Errorf("websocket: serve error: %v", err)
		}
	}()
	glog.Infof("websocket: listening on %s%s", ln.Addr(), path)
	return l, nil
}

// Addr returns the listening address.
func (l *Link) Addr() net.Addr {
	return l.listener.Addr()
}

func (l *Link) serve(conn *websocket.Conn) {
	conn.PayloadType = websocket.BinaryFrame
	s := &session{conn: conn, done: make(chan struct{})}
	l.lock.Lock()
	old := l.sess
	l.sess = s
	l.lock.Unlock()
	if old != nil {
		glog.Warningf("websocket: host %s replaced by %s", old.conn.Request().RemoteAddr, conn.Request().RemoteAddr)
		old.close()
	} else {
		glog.Infof("websocket: host %s connected", conn.Request().RemoteAddr)
	}
	select {
	case l.notifyCh <- struct{}{}:
	default:
	}
	select {
	case <-s.done:
	case <-l.closedCh:
	}
}

func (l *Link) current() *session {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.sess
}

func (l *Link) drop(s *session, err error) {
	l.lock.Lock()
	if l.sess == s {
		l.sess = nil
		glog.Infof("websocket: host %s disconnected: %v", s.conn.Request().RemoteAddr, err)
	}
	l.lock.Unlock()
	s.close()
}

// Read implements io.Reader. It blocks until a host is connected.
func (l *Link) Read(p []byte) (int, error) {
	for {
		s := l.current()
		if s == nil {
			select {
			case <-l.notifyCh:
				continue
			case <-l.closedCh:
				return 0, io.EOF
			}
		}
		n, err := s.conn.Read(p)
		if n > 0 || err == nil {
			return n, nil
		}
		l.drop(s, err)
	}
}

// Write implements io.Writer.
func (l *Link) Write(p []byte) (int, error) {
	if s := l.current(); s != nil {
		if _, err := s.conn.Write(p); err != nil {
			l.drop(s, err)
		}
	}
	return len(p), nil
}

// Close stops accepting hosts and disconnects the current one.
func (l *Link) Close() error {
	l.closed.Do(func() { close(l.closedCh) })
	return l.server.Close()
}
