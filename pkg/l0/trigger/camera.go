// Package trigger implements the on-demand register handlers of the board.
//
// A trigger runs synchronously inside dispatch. It returns its result in
// the response and may also publish into the single store cell it owns.
package trigger

import (
	"encoding/binary"

	"github.com/golang/glog"

	"github.com/robotalks/miniboard/pkg/l0/store"
)

// Snapshotter captures a camera frame.
type Snapshotter interface {
	Snapshot() (uint16, error)
}

// CameraSnapshot captures a frame and publishes its id to Cell.
// A failed capture yields an empty result and leaves Cell untouched.
type CameraSnapshot struct {
	Camera Snapshotter
	Cell   *store.Cell
}

// Fire implements regs.Trigger.
func (c *CameraSnapshot) Fire(dst []byte) int {
	if c.Camera == nil || len(dst) < 2 {
		return 0
	}
	id, err := c.Camera.Snapshot()
	if err != nil {
		glog.Warningf("camera snapshot failed: %v", err)
		return 0
	}
	binary.LittleEndian.PutUint16(dst, id)
	c.Cell.Commit(dst[:2])
	return 2
}
