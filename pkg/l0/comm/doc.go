// Package comm provides L0 protocol support.
package comm

// L0 protocol is communicated between the miniboard firmware and a host
// computer over a point-to-point byte stream (e.g. serial port).
//
// Every request addresses a register:
//
//   [SOF][CMD][REG][LEN][PAYLOAD...][CHK]
//
// and is answered with exactly one response of the same shape carrying a
// status code instead of the command, unless the frame was dropped:
// a declared length above MaxPayload, an inter-byte timeout, or a board in
// the fatal trap state. CHK makes the 8-bit sum of all bytes after SOF zero.
//
// Producer: host
// Consumer: miniboard firmware
