package game

import (
	"math"
)

// ProjectileLifetimeTicks is a hard cap so nothing persists indefinitely
// if a target handle goes stale mid-flight.
const ProjectileLifetimeTicks = 600

// Projectile is a moving attack or heal entity. It travels over multiple
// ticks toward its target, re-aiming at the target's live position each
// tick and falling back to the last cached position when the target dies.
// The origin owner is preserved through flight; damage application
// respects it.
type Projectile struct {
	ID      string         `json:"id"`
	Kind    ProjectileKind `json:"kind"`
	OwnerID string         `json:"ownerId"`

	X float64 `json:"x"`
	Y float64 `json:"y"`

	TargetID string  `json:"-"`
	TargetX  float64 `json:"-"` // cached aim point
	TargetY  float64 `json:"-"`

	Speed        float64 `json:"-"` // pixels per tick
	Damage       int     `json:"-"`
	SplashRadius float64 `json:"-"` // 0 for single-target
	FromTower    bool    `json:"-"` // towers get +3 per attack upgrade
	CreatedTick  int64   `json:"-"`
}

// newProjectile spawns a projectile at the shooter's edge aimed at the
// target point.
func newProjectile(id string, kind ProjectileKind, ownerID string, fromX, fromY, targetX, targetY float64, targetID string, speed float64, damage int, splash float64, tick int64) *Projectile {
	dx := targetX - fromX
	dy := targetY - fromY
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		dist = 1
	}

	return &Projectile{
		ID:           id,
		Kind:         kind,
		OwnerID:      ownerID,
		X:            fromX + dx/dist*10,
		Y:            fromY + dy/dist*10,
		TargetID:     targetID,
		TargetX:      targetX,
		TargetY:      targetY,
		Speed:        speed,
		Damage:       damage,
		SplashRadius: splash,
		CreatedTick:  tick,
	}
}

// advance moves the projectile one tick toward its aim point.
// Returns true when the projectile reached the aim point this tick.
func (p *Projectile) advance() bool {
	dx := p.TargetX - p.X
	dy := p.TargetY - p.Y
	dist := math.Hypot(dx, dy)

	if dist <= p.Speed {
		p.X = p.TargetX
		p.Y = p.TargetY
		return true
	}

	p.X += dx / dist * p.Speed
	p.Y += dy / dist * p.Speed
	return false
}

// expired reports whether the projectile outlived its hard lifetime cap.
func (p *Projectile) expired(tick int64) bool {
	return tick-p.CreatedTick > ProjectileLifetimeTicks
}

// splashFactor is the radial damage falloff within the splash radius:
// full damage at the center, half at the rim.
func splashFactor(d, r float64) float64 {
	if r <= 0 || d > r {
		return 0
	}
	return 1 - d/(2*r)
}
