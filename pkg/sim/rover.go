package sim

import (
	"math"
	"sync"
	"time"
)

// Rover is a differential drive rover on a plane.
type Rover struct {
	// MaxSpeed is the wheel speed in m/s at full motor command.
	MaxSpeed float64
	// TrackWidth is the distance between the wheels in meters.
	TrackWidth float64

	lock        sync.Mutex
	pose        Pose2D
	left, right float64
}

// NewRover creates a Rover at the origin heading North.
func NewRover() *Rover {
	return &Rover{
		MaxSpeed:   1,
		TrackWidth: 0.3,
		pose:       Pose2D{Orientation: AngleFromDegrees(90)},
	}
}

// SetWheels sets wheel speeds from motor commands.
func (r *Rover) SetWheels(left, right int16) {
	r.lock.Lock()
	r.left = float64(left) / math.MaxInt16 * r.MaxSpeed
	r.right = float64(right) / math.MaxInt16 * r.MaxSpeed
	r.lock.Unlock()
}

// Stop stops both wheels.
func (r *Rover) Stop() {
	r.SetWheels(0, 0)
}

// Pose returns the current pose.
func (r *Rover) Pose() Pose2D {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.pose
}

// Advance moves the rover for dt at current wheel speeds.
func (r *Rover) Advance(dt time.Duration) Pose2D {
	r.lock.Lock()
	defer r.lock.Unlock()
	secs := dt.Seconds()
	v := (r.left + r.right) / 2
	w := (r.right - r.left) / r.TrackWidth
	heading := float64(r.pose.Orientation)
	if w == 0 {
		r.pose.OffsetBy(r.pose.Orientation.Project(v * secs))
		return r.pose
	}
	radius, turn := v/w, w*secs
	r.pose.OffsetBy(Pos2D{
		X: radius * (math.Sin(heading+turn) - math.Sin(heading)),
		Y: -radius * (math.Cos(heading+turn) - math.Cos(heading)),
	})
	r.pose.Orientation = r.pose.Orientation.AddRadians(turn)
	return r.pose
}

// Motor drives a Rover.
type Motor struct {
	Rover *Rover
}

// Init implements board.Motor.
func (m *Motor) Init() error {
	m.Rover.Stop()
	return nil
}

// Drive implements board.Motor.
func (m *Motor) Drive(left, right int16) error {
	m.Rover.SetWheels(left, right)
	return nil
}

// Stop implements board.Motor.
func (m *Motor) Stop() error {
	m.Rover.Stop()
	return nil
}
