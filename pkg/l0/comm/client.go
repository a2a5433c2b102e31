package comm

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"
)

// Result is the result of a request.
type Result struct {
	Err      error
	Response *Frame
}

// Call represents a pending request waiting for its response.
type Call struct {
	request  *Frame
	resultCh chan Result
	next     *Call
}

// Request returns the request frame.
func (c *Call) Request() *Frame {
	return c.request
}

// ResultChan returns the chan to retrieve result.
func (c *Call) ResultChan() <-chan Result {
	return c.resultCh
}

// Client issues requests to a board.
//
// The link carries no sequence numbers: responses arrive in request
// order and the board silently drops frames it can't parse. A response
// completes the oldest pending call for the same register, and every
// older call fails with ErrNoReply.
type Client struct {
	ReadWriter io.ReadWriter
	Timeout    time.Duration

	parser    Parser
	callsHead *Call
	callsTail *Call
	callsLock sync.Mutex
	sendLock  sync.Mutex
}

// NewClient creates a Client.
func NewClient(rw io.ReadWriter) *Client {
	return &Client{ReadWriter: rw, Timeout: DefaultTimeout}
}

// Send sends a request and returns a Call for result.
func (c *Client) Send(req *Frame) *Call {
	call := &Call{request: req, resultCh: make(chan Result, 1)}
	if len(req.Payload) > MaxPayload {
		call.resultCh <- Result{Err: ErrOverflow}
		return call
	}

	c.sendLock.Lock()
	defer c.sendLock.Unlock()
	c.callsLock.Lock()
	if c.callsHead == nil {
		c.callsHead = call
	} else {
		c.callsTail.next = call
	}
	c.callsTail = call
	c.callsLock.Unlock()

	if _, err := req.WriteTo(c.ReadWriter); err != nil {
		c.remove(call)
		call.resultCh <- Result{Err: err}
	}
	return call
}

// Do sends a request and waits for the response.
// Non-OK responses are returned as *StatusError along with the frame.
func (c *Client) Do(ctx context.Context, req *Frame) (*Frame, error) {
	call := c.Send(req)
	select {
	case res := <-call.ResultChan():
		return res.Response, res.Err
	case <-ctx.Done():
		c.remove(call)
		return nil, ctx.Err()
	}
}

// Read reads a register.
func (c *Client) Read(ctx context.Context, reg byte) ([]byte, error) {
	resp, err := c.Do(ctx, NewRequest(CmdRead, reg, nil))
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// Write writes a register.
func (c *Client) Write(ctx context.Context, reg byte, value []byte) error {
	_, err := c.Do(ctx, NewRequest(CmdWrite, reg, value))
	return err
}

// Trigger invokes the trigger of a register and returns its result.
func (c *Client) Trigger(ctx context.Context, reg byte) ([]byte, error) {
	resp, err := c.Do(ctx, NewRequest(CmdTrigger, reg, nil))
	if err != nil {
		return nil, err
	}
	return resp.Payload, nil
}

// Run receives responses until ctx is done or the stream fails.
func (c *Client) Run(ctx context.Context) error {
	c.parser.Reset()
	timeout := c.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return runStream(ctx, c.ReadWriter, timeout, c)
}

func (c *Client) feed(ctx context.Context, b byte) error {
	pr := c.parser.Parse(b)
	if pr.Err != nil {
		glog.V(2).Infof("comm: response dropped: %v", pr.Err)
		return nil
	}
	if pr.Frame != nil {
		c.HandleResponse(pr.Frame.Clone())
	}
	return nil
}

func (c *Client) expire(ctx context.Context) error {
	if pr := c.parser.Timeout(); pr.Err != nil {
		glog.V(2).Infof("comm: response dropped: %v", pr.Err)
	}
	return nil
}

func (c *Client) timerAction() TimerAction {
	return ParseResult{State: c.parser.State()}.WhatAboutTimer()
}

// HandleResponse completes pending calls with a received response.
func (c *Client) HandleResponse(resp *Frame) {
	c.callsLock.Lock()
	head := c.callsHead
	curr := c.callsHead
	for ; curr != nil; curr = curr.next {
		if curr.request.Reg == resp.Reg {
			break
		}
	}
	if curr != nil {
		// everything before curr is dropped.
		if c.callsHead = curr.next; c.callsHead == nil {
			c.callsTail = nil
		}
		curr.next = nil
	}
	c.callsLock.Unlock()
	if curr == nil {
		glog.V(2).Infof("comm: unexpected response reg=%02x", resp.Reg)
		return
	}
	for ; head != curr; head = head.next {
		head.resultCh <- Result{Err: ErrNoReply}
	}
	if status := Status(resp.Code); status != StatusOK {
		curr.resultCh <- Result{Err: &StatusError{Status: status}, Response: resp}
		return
	}
	curr.resultCh <- Result{Response: resp}
}

func (c *Client) remove(call *Call) {
	c.callsLock.Lock()
	defer c.callsLock.Unlock()
	var prev *Call
	for curr := c.callsHead; curr != nil; prev, curr = curr, curr.next {
		if curr != call {
			continue
		}
		if prev == nil {
			c.callsHead = curr.next
		} else {
			prev.next = curr.next
		}
		if c.callsTail == curr {
			c.callsTail = prev
		}
		curr.next = nil
		return
	}
}
