package comm

// State is the state of the link as seen by a Parser or an Engine.
type State int32

// States.
const (
	StateIdle State = iota
	StateReceivingHeader
	StateReceivingPayload
	StateReceivingChecksum
	StateDispatching
	StateResponding
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateReceivingHeader:
		return "ReceivingHeader"
	case StateReceivingPayload:
		return "ReceivingPayload"
	case StateReceivingChecksum:
		return "ReceivingChecksum"
	case StateDispatching:
		return "Dispatching"
	case StateResponding:
		return "Responding"
	}
	return "Unknown"
}

// IsReceiving indicates a frame is partially received.
func (s State) IsReceiving() bool {
	return s >= StateReceivingHeader && s <= StateReceivingChecksum
}

// TimerAction defines what to do with timer.
type TimerAction int

const (
	// TimerNoChange indicates keep the timer as-is.
	TimerNoChange TimerAction = iota
	// TimerRestart to restart the timer.
	TimerRestart
	// TimerStop to stop/cancel the timer.
	TimerStop
)

// ParseResult indicates the result after one parsing step.
//
// Frame is set when a frame completes. Err is ErrChecksum when the
// completed frame failed validation (Frame still carries the header),
// ErrOverflow or ErrTimeout when a partial frame was dropped.
type ParseResult struct {
	State State
	Frame *Frame
	Err   error
}

// WhatAboutTimer decides what to do with the inter-byte timer.
func (r ParseResult) WhatAboutTimer() TimerAction {
	if r.State.IsReceiving() {
		return TimerRestart
	}
	if r.State == StateIdle {
		return TimerStop
	}
	return TimerNoChange
}

type parseState int

const (
	stateIdle     parseState = iota // waiting for SOF
	stateCode                       // waiting for cmd/status
	stateReg                        // waiting for register id
	stateLen                        // waiting for payload length
	statePayload                    // waiting for payload bytes
	stateChecksum                   // waiting for checksum
)

// Parser assembles frames byte by byte.
// The Frame in a ParseResult and its payload are owned by the Parser
// and valid only until the next call.
type Parser struct {
	state   parseState
	frame   Frame
	length  byte
	recvLen byte
	payload [MaxPayload]byte
}

// State gets the current receiving state.
func (p *Parser) State() State {
	switch p.state {
	case stateCode, stateReg, stateLen:
		return StateReceivingHeader
	case statePayload:
		return StateReceivingPayload
	case stateChecksum:
		return StateReceivingChecksum
	}
	return StateIdle
}

// Reset drops any partial frame.
func (p *Parser) Reset() (pr ParseResult) {
	p.state = stateIdle
	pr.State = p.State()
	return
}

// Timeout notifies the inter-byte timer expired.
func (p *Parser) Timeout() (pr ParseResult) {
	if p.state != stateIdle {
		pr.Err = ErrTimeout
	}
	p.state = stateIdle
	pr.State = p.State()
	return
}

// Parse consumes one byte.
func (p *Parser) Parse(b byte) (pr ParseResult) {
	pr.Frame, pr.Err = p.parseByte(b)
	pr.State = p.State()
	return
}

func (p *Parser) parseByte(b byte) (*Frame, error) {
	switch p.state {
	case stateIdle:
		if b == SOF {
			p.state = stateCode
		}
	case stateCode:
		p.frame.Code = b
		p.state = stateReg
	case stateReg:
		p.frame.Reg = b
		p.state = stateLen
	case stateLen:
		if int(b) > MaxPayload {
			p.state = stateIdle
			return nil, ErrOverflow
		}
		p.length, p.recvLen = b, 0
		if b == 0 {
			p.state = stateChecksum
		} else {
			p.state = statePayload
		}
	case statePayload:
		p.payload[p.recvLen] = b
		p.recvLen++
		if p.recvLen >= p.length {
			p.state = stateChecksum
		}
	case stateChecksum:
		p.state = stateIdle
		p.frame.Payload = p.payload[:p.length]
		if Checksum(p.frame.Code, p.frame.Reg, p.frame.Payload) != b {
			return &p.frame, ErrChecksum
		}
		return &p.frame, nil
	}
	return nil, nil
}
