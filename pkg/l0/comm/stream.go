package comm

import (
	"context"
	"io"
	"time"
)

// byteHandler consumes the receive side of a link.
type byteHandler interface {
	feed(ctx context.Context, b byte) error
	expire(ctx context.Context) error
	timerAction() TimerAction
}

// runStream pumps bytes from r into h, with the inter-byte timeout.
// The reader goroutine stands in for the receive interrupt.
func runStream(ctx context.Context, r io.Reader, timeout time.Duration, h byteHandler) error {
	byteCh, errCh := make(chan byte), make(chan error, 1)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go readLoop(subCtx, r, byteCh, errCh)

	var timer <-chan time.Time
	for {
		var err error
		select {
		case b := <-byteCh:
			err = h.feed(ctx, b)
		case err = <-errCh:
			return err
		case <-ctx.Done():
			return ctx.Err()
		case <-timer:
			err = h.expire(ctx)
		}
		if err != nil {
			return err
		}
		switch h.timerAction() {
		case TimerRestart:
			timer = time.After(timeout)
		case TimerStop:
			timer = nil
		}
	}
}

func readLoop(ctx context.Context, r io.Reader, byteCh chan byte, errCh chan error) {
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		for _, b := range buf[:n] {
			select {
			case byteCh <- b:
			case <-ctx.Done():
				return
			}
		}
		if err != nil {
			errCh <- err
			return
		}
	}
}
