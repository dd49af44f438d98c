package game

import (
	"math"
)

// Motion tuning.
const (
	arrivalRadius         = 5.0  // "reached target" threshold in pixels
	repulseRadius         = 50.0 // unit-to-unit steering range
	repulseWeight         = 0.5
	buildingRepulseRadius = 30.0 // distance from a footprint edge
	buildingRepulseWeight = 1.5
)

// moveToward advances the unit one step toward (tx, ty) with steering
// collision avoidance. Returns true once the unit is within the arrival
// radius. The candidate step is rejected if it lands on impassable terrain
// or inside an incomplete building's footprint; alternate headings at
// +-pi/4 and +-pi/2 are tried in order before the unit stalls for the tick.
func (e *Engine) moveToward(u *Unit, tx, ty float64) bool {
	dx := tx - u.X
	dy := ty - u.Y
	dist := math.Hypot(dx, dy)
	if dist <= arrivalRadius {
		return true
	}

	step := u.Speed
	if dist < step {
		step = dist
	}

	sx, sy := e.steering(u)
	mx := dx/dist*step + sx
	my := dy/dist*step + sy
	mag := math.Hypot(mx, my)
	if mag == 0 {
		return false
	}
	mx, my = mx/mag*step, my/mag*step

	headings := [5]float64{0, math.Pi / 4, -math.Pi / 4, math.Pi / 2, -math.Pi / 2}
	for _, a := range headings {
		cos, sin := math.Cos(a), math.Sin(a)
		cx := u.X + mx*cos - my*sin
		cy := u.Y + mx*sin + my*cos
		if !e.stepAllowed(cx, cy) {
			continue
		}
		u.X, u.Y = cx, cy
		return math.Hypot(tx-u.X, ty-u.Y) <= arrivalRadius
	}

	// All headings blocked; stall this tick.
	return false
}

// steering accumulates the radial repulsion vector from nearby entities:
// units within 50px push at weight 0.5, building footprint edges within
// 30px push at weight 1.5.
func (e *Engine) steering(u *Unit) (float64, float64) {
	var sx, sy float64
	for _, ref := range e.grid.QueryRadius(u.X, u.Y, repulseRadius+80) {
		if ref&buildingRef != 0 {
			b := e.buildings[ref&^buildingRef]
			if b.HP <= 0 {
				continue
			}
			// Closest point on the square footprint.
			ex := clamp(u.X, b.X-b.Size/2, b.X+b.Size/2)
			ey := clamp(u.Y, b.Y-b.Size/2, b.Y+b.Size/2)
			d := math.Hypot(u.X-ex, u.Y-ey)
			if d > 0 && d < buildingRepulseRadius {
				sx += (u.X - ex) / d * buildingRepulseWeight
				sy += (u.Y - ey) / d * buildingRepulseWeight
			}
			continue
		}
		o := e.units[ref]
		if o == u || o.HP <= 0 {
			continue
		}
		d := math.Hypot(u.X-o.X, u.Y-o.Y)
		if d > 0 && d < repulseRadius {
			sx += (u.X - o.X) / d * repulseWeight
			sy += (u.Y - o.Y) / d * repulseWeight
		}
	}
	return sx, sy
}

// stepAllowed checks a candidate position against terrain and incomplete
// building footprints. Complete buildings repel via steering instead of a
// hard block so units slide along them.
func (e *Engine) stepAllowed(x, y float64) bool {
	if !e.gameMap.PassableAt(x, y) {
		return false
	}
	for _, ref := range e.grid.QueryRadius(x, y, 80) {
		if ref&buildingRef == 0 {
			continue
		}
		b := e.buildings[ref&^buildingRef]
		if b.HP <= 0 || b.Complete() {
			continue
		}
		half := b.Size / 2
		if x >= b.X-half && x <= b.X+half && y >= b.Y-half && y <= b.Y+half {
			return false
		}
	}
	return true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dist(x1, y1, x2, y2 float64) float64 {
	return math.Hypot(x2-x1, y2-y1)
}
