package sim

import (
	"context"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/miniboard/pkg/l0/store"
)

// GPS fix values.
const (
	FixNone uint8 = 0
	Fix3D   uint8 = 3
)

// GPS reports the position of a Rover.
type GPS struct {
	Rover  *Rover
	Origin LatLon
	// Period between fixes.
	Period time.Duration
	// Acquire is the number of periods before the first fix.
	Acquire int

	store *store.Store
	ticks int
}

// NewGPS creates a GPS tracking rover.
func NewGPS(rover *Rover, origin LatLon) *GPS {
	return &GPS{Rover: rover, Origin: origin, Period: time.Second, Acquire: 3}
}

// Init implements board.GPS.
func (g *GPS) Init(s *store.Store) error {
	g.store, g.ticks = s, 0
	return s.GPSFix.SetUint8(FixNone)
}

// Run implements Runnable.
func (g *GPS) Run(ctx context.Context) error {
	ticker := time.NewTicker(g.Period)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := g.Step(now.Sub(last)); err != nil {
				return err
			}
			last = now
		}
	}
}

// Step advances the rover by dt and publishes a fix once acquired.
func (g *GPS) Step(dt time.Duration) error {
	pose := g.Rover.Advance(dt)
	if g.ticks++; g.ticks <= g.Acquire {
		return nil
	}
	pos := g.Origin.Offset(pose.Pos2D)
	if err := g.store.GPSLatitude.SetFloat32(float32(pos.Lat)); err != nil {
		return err
	}
	if err := g.store.GPSLongitude.SetFloat32(float32(pos.Lon)); err != nil {
		return err
	}
	if g.ticks == g.Acquire+1 {
		glog.Infof("gps: fix acquired at %.6f,%.6f", pos.Lat, pos.Lon)
	}
	return g.store.GPSFix.SetUint8(Fix3D)
}
