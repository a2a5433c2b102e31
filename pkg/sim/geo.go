// Package sim provides simulated peripherals for running a miniboard
// without hardware.
package sim

import "math"

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000.0

// Angle is the common representation of angle, in radians,
// normalized to (-Pi, Pi].
type Angle float64

// AngleFromDegrees creates Angle from degrees.
func AngleFromDegrees(d float64) Angle {
	return Angle(normalizeRadians(d * math.Pi / 180.0))
}

// AddRadians adds radians to current angle.
func (a Angle) AddRadians(r float64) Angle {
	return Angle(normalizeRadians(float64(a) + r))
}

// Degrees gets angle in degrees.
func (a Angle) Degrees() float64 {
	return float64(a) * 180 / math.Pi
}

// Project projects distance into East (X) and North (Y) offsets,
// with the angle measured counterclockwise from East.
func (a Angle) Project(dist float64) Pos2D {
	return Pos2D{X: dist * math.Cos(float64(a)), Y: dist * math.Sin(float64(a))}
}

// Pos2D is a position on the local plane in meters.
type Pos2D struct {
	X, Y float64
}

// OffsetBy adds p1 in-place.
func (p *Pos2D) OffsetBy(p1 Pos2D) *Pos2D {
	p.X += p1.X
	p.Y += p1.Y
	return p
}

// Pose2D defines the pose in 2D.
type Pose2D struct {
	Pos2D
	Orientation Angle
}

// LatLon is a geographic coordinate in degrees.
type LatLon struct {
	Lat, Lon float64
}

// Offset returns the coordinate displaced by p on the local plane.
// Equirectangular, fine for the few kilometers a rover covers.
func (c LatLon) Offset(p Pos2D) LatLon {
	lat := c.Lat + p.Y/EarthRadius*180/math.Pi
	lon := c.Lon + p.X/(EarthRadius*math.Cos(c.Lat*math.Pi/180))*180/math.Pi
	return LatLon{Lat: lat, Lon: lon}
}

func normalizeRadians(r float64) float64 {
	if r >= 2*math.Pi || r <= -2*math.Pi {
		r = math.Remainder(r, 2*math.Pi)
	}
	if r > math.Pi {
		r -= 2 * math.Pi
	} else if r < -math.Pi {
		r += 2 * math.Pi
	}
	return r
}
