package sfcanvas

import (
	"math"
	"time"

	"oss.terrastruct.com/stockflow/lib/geo"
)

const (
	// MomentumFriction is the fraction of velocity left after one second.
	MomentumFriction = 0.05
	// MomentumStationary is how long the pointer must rest before release to
	// cancel momentum.
	MomentumStationary = 40 * time.Millisecond
	// MomentumMinSpeed in screen pixels per second.
	MomentumMinSpeed = 20.

	velocityWindow = 100 * time.Millisecond
)

type sample struct {
	p geo.Point
	t time.Time
}

// velocityTracker keeps recent pointer samples for release velocity.
type velocityTracker struct {
	samples []sample
	// lastChange is when the pointer last moved to a new position.
	lastChange time.Time
}

func (vt *velocityTracker) reset(p geo.Point, t time.Time) {
	vt.samples = append(vt.samples[:0], sample{p, t})
	vt.lastChange = t
}

func (vt *velocityTracker) add(p geo.Point, t time.Time) {
	if n := len(vt.samples); n == 0 || !vt.samples[n-1].p.Equals(p) {
		vt.lastChange = t
	}
	vt.samples = append(vt.samples, sample{p, t})
	cut := 0
	for cut < len(vt.samples)-2 && t.Sub(vt.samples[cut].t) > velocityWindow {
		cut++
	}
	vt.samples = vt.samples[cut:]
}

// velocity at release in screen pixels per second. A pointer that rested for
// MomentumStationary or longer before release has none.
func (vt *velocityTracker) velocity(release time.Time) geo.Point {
	if len(vt.samples) < 2 || release.Sub(vt.lastChange) >= MomentumStationary {
		return geo.Point{}
	}
	first, last := vt.samples[0], vt.samples[len(vt.samples)-1]
	dt := last.t.Sub(first.t).Seconds()
	if dt <= 0 {
		return geo.Point{}
	}
	return last.p.Sub(first.p).Scale(1 / dt)
}

// momentum is an exponential friction decay: v(t) = v0·k^t and
// x(t) = x0 + v0·(k^t − 1)/ln k. Positions come from elapsed time, not from
// summing frame deltas.
type momentum struct {
	start  time.Time
	origin geo.Point
	// v0 in model units per second.
	v0 geo.Point
	// stopAfter is when speed falls below the minimum.
	stopAfter float64
}

func newMomentum(start time.Time, origin, v0 geo.Point, minSpeed float64) (momentum, bool) {
	speed := v0.Length()
	if speed < minSpeed || speed == 0 {
		return momentum{}, false
	}
	return momentum{
		start:     start,
		origin:    origin,
		v0:        v0,
		stopAfter: math.Log(minSpeed/speed) / math.Log(MomentumFriction),
	}, true
}

// at returns the position at now and whether motion has finished.
func (m momentum) at(now time.Time) (geo.Point, bool) {
	t := now.Sub(m.start).Seconds()
	done := false
	if t >= m.stopAfter {
		t = m.stopAfter
		done = true
	}
	if t < 0 {
		t = 0
	}
	f := (math.Pow(MomentumFriction, t) - 1) / math.Log(MomentumFriction)
	return m.origin.Add(m.v0.Scale(f)), done
}
