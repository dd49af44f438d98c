package game

import (
	"math"
)

// acquireRadius is how far a combat unit scans for auto-attack targets.
func acquireRadius(u *Unit, owner *Player) float64 {
	return 1.5*u.AttackRange + 10*float64(owner.Upgrades.Range)
}

// effectiveRange extends attack range by the target's body radius so big
// footprints are hittable from outside their edge.
func effectiveRange(attackRange, targetSize float64) float64 {
	return attackRange + targetSize/2
}

// ---------------------------------------------------------------------------
// Unit advancement
// ---------------------------------------------------------------------------

func (e *Engine) advanceUnits() {
	for _, u := range e.units {
		if u.HP <= 0 {
			continue
		}
		if u.CooldownLeft > 0 {
			u.CooldownLeft--
		}

		switch u.State {
		case StateIdle:
			e.stepIdle(u)
		case StateMoving:
			e.stepMoving(u)
		case StateAttacking:
			e.stepAttacking(u)
		case StateAttackMove:
			e.stepAttackMove(u)
		case StatePatrol:
			e.stepPatrol(u)
		case StateHold:
			e.stepHold(u)
		case StateGathering:
			e.stepGathering(u)
		case StateReturning:
			e.stepReturning(u)
		case StateBuilding:
			e.stepRepairing(u)
		case StateHealing:
			e.stepHealing(u)
		}
	}
}

func (e *Engine) stepIdle(u *Unit) {
	if u.Variant == UnitHealer {
		e.autoHeal(u)
		return
	}
	if !u.Variant.IsCombat() {
		return
	}
	owner := e.players[u.OwnerID]
	if target := e.nearestHostileUnit(u.OwnerID, u.X, u.Y, acquireRadius(u, owner)); target != nil {
		u.TargetID = target.ID
		u.resumeAttackMove = false
		u.State = StateAttacking
	}
}

func (e *Engine) stepMoving(u *Unit) {
	if !u.HasTarget {
		u.State = StateIdle
		return
	}
	if e.moveToward(u, u.TargetX, u.TargetY) {
		e.popWaypoint(u)
	}
}

// popWaypoint advances to the next queued waypoint or goes idle.
func (e *Engine) popWaypoint(u *Unit) {
	if len(u.Waypoints) > 0 {
		next := u.Waypoints[0]
		u.Waypoints = u.Waypoints[1:]
		u.TargetX, u.TargetY = next.X, next.Y
		u.HasTarget = true
		u.State = StateMoving
		return
	}
	u.HasTarget = false
	u.State = StateIdle
}

func (e *Engine) stepAttacking(u *Unit) {
	// Catapult shelling a ground point.
	if u.AttackGround {
		if u.Variant != UnitCatapult {
			u.clearOrders()
			return
		}
		if dist(u.X, u.Y, u.AttackGroundX, u.AttackGroundY) > u.AttackRange {
			e.moveToward(u, u.AttackGroundX, u.AttackGroundY)
			return
		}
		if u.CooldownLeft <= 0 {
			e.fireAtPoint(u, u.AttackGroundX, u.AttackGroundY)
			u.CooldownLeft = u.Cooldown
		}
		return
	}

	tu := e.unitIndex[u.TargetID]
	tb := e.buildingIndex[u.TargetID]
	if tu == nil && tb == nil {
		// Target is gone. An interrupted attack-move resumes its march.
		u.TargetID = ""
		if u.resumeAttackMove {
			u.resumeAttackMove = false
			u.TargetX, u.TargetY = u.resumeX, u.resumeY
			u.HasTarget = true
			u.State = StateAttackMove
			return
		}
		e.popWaypoint(u)
		return
	}

	var tx, ty, tsize float64
	if tu != nil {
		tx, ty, tsize = tu.X, tu.Y, tu.Size
	} else {
		tx, ty, tsize = tb.X, tb.Y, tb.Size
	}

	if dist(u.X, u.Y, tx, ty) > effectiveRange(u.AttackRange, tsize) {
		e.moveToward(u, tx, ty)
		return
	}
	if u.CooldownLeft > 0 {
		return
	}
	e.fire(u, tu, tb, tx, ty)
	u.CooldownLeft = u.Cooldown
}

func (e *Engine) stepAttackMove(u *Unit) {
	owner := e.players[u.OwnerID]
	if target := e.nearestHostileUnit(u.OwnerID, u.X, u.Y, acquireRadius(u, owner)); target != nil {
		u.resumeAttackMove = true
		u.resumeX, u.resumeY = u.TargetX, u.TargetY
		u.TargetID = target.ID
		u.State = StateAttacking
		return
	}
	if e.moveToward(u, u.TargetX, u.TargetY) {
		e.popWaypoint(u)
	}
}

func (e *Engine) stepPatrol(u *Unit) {
	if u.Variant.IsCombat() {
		owner := e.players[u.OwnerID]
		if target := e.nearestHostileUnit(u.OwnerID, u.X, u.Y, acquireRadius(u, owner)); target != nil {
			u.resumeAttackMove = true
			u.resumeX, u.resumeY = u.TargetX, u.TargetY
			u.TargetID = target.ID
			u.State = StateAttacking
			return
		}
	}
	if e.moveToward(u, u.TargetX, u.TargetY) {
		// Swap endpoints and walk back.
		u.TargetX, u.PatrolX = u.PatrolX, u.TargetX
		u.TargetY, u.PatrolY = u.PatrolY, u.TargetY
	}
}

// stepHold fires at anything inside attack range but never chases.
func (e *Engine) stepHold(u *Unit) {
	if !u.Variant.IsCombat() {
		return
	}
	target := e.nearestHostileUnit(u.OwnerID, u.X, u.Y, u.AttackRange)
	if target == nil || u.CooldownLeft > 0 {
		return
	}
	e.fire(u, target, nil, target.X, target.Y)
	u.CooldownLeft = u.Cooldown
}

func (e *Engine) stepHealing(u *Unit) {
	target := e.unitIndex[u.TargetID]
	if target == nil || target.OwnerID != u.OwnerID || target.HP >= target.MaxHP {
		u.TargetID = ""
		u.State = StateIdle
		return
	}
	if dist(u.X, u.Y, target.X, target.Y) > u.AttackRange {
		e.moveToward(u, target.X, target.Y)
		return
	}
	if u.CooldownLeft > 0 {
		return
	}
	e.fire(u, target, nil, target.X, target.Y)
	u.CooldownLeft = u.Cooldown
}

// autoHeal lets an idle healer pick any injured ally in range.
func (e *Engine) autoHeal(u *Unit) {
	if u.CooldownLeft > 0 {
		return
	}
	for _, ref := range e.grid.QueryRadius(u.X, u.Y, u.AttackRange) {
		if ref&buildingRef != 0 {
			continue
		}
		ally := e.units[ref]
		if ally == u || ally.HP <= 0 || ally.OwnerID != u.OwnerID || ally.HP >= ally.MaxHP {
			continue
		}
		if dist(u.X, u.Y, ally.X, ally.Y) > u.AttackRange {
			continue
		}
		e.fire(u, ally, nil, ally.X, ally.Y)
		u.CooldownLeft = u.Cooldown
		return
	}
}

// fire resolves one attack (or heal): melee variants apply damage
// instantly, ranged variants spawn a projectile.
func (e *Engine) fire(u *Unit, tu *Unit, tb *Building, tx, ty float64) {
	stats, _ := GetUnitStats(u.Variant)
	if stats.Projectile == "" {
		if tu != nil {
			e.damageUnit(u.OwnerID, tu, u.AttackDamage, false)
		} else if tb != nil {
			e.damageBuilding(u.OwnerID, tb, u.AttackDamage, false)
		}
		return
	}
	targetID := ""
	if tu != nil {
		targetID = tu.ID
	} else if tb != nil {
		targetID = tb.ID
	}
	p := newProjectile(e.newProjectileID(), stats.Projectile, u.OwnerID,
		u.X, u.Y, tx, ty, targetID, stats.ProjSpeed, u.AttackDamage, stats.SplashRadius, e.tick)
	e.projectiles = append(e.projectiles, p)
}

// fireAtPoint launches a boulder at bare ground.
func (e *Engine) fireAtPoint(u *Unit, tx, ty float64) {
	stats, _ := GetUnitStats(u.Variant)
	p := newProjectile(e.newProjectileID(), stats.Projectile, u.OwnerID,
		u.X, u.Y, tx, ty, "", stats.ProjSpeed, u.AttackDamage, stats.SplashRadius, e.tick)
	e.projectiles = append(e.projectiles, p)
}

// ---------------------------------------------------------------------------
// Damage
// ---------------------------------------------------------------------------

// dealtDamage computes max(1, base + 2*atkUpg - 2*defUpg). Tower shots
// scale attack upgrades at 3 instead of 2.
func dealtDamage(base int, attacker, defender *Player, fromTower bool) int {
	atkScale := 2
	if fromTower {
		atkScale = 3
	}
	atk, def := 0, 0
	if attacker != nil {
		atk = attacker.Upgrades.Attack
	}
	if defender != nil {
		def = defender.Upgrades.Defense
	}
	dealt := base + atkScale*atk - 2*def
	if dealt < 1 {
		dealt = 1
	}
	return dealt
}

func (e *Engine) damageUnit(attackerID string, target *Unit, base int, fromTower bool) {
	target.HP -= dealtDamage(base, e.players[attackerID], e.players[target.OwnerID], fromTower)
	target.UnderAttack = true
	target.LastHitTick = e.tick
}

func (e *Engine) damageBuilding(attackerID string, target *Building, base int, fromTower bool) {
	target.HP -= dealtDamage(base, e.players[attackerID], e.players[target.OwnerID], fromTower)
	target.UnderAttack = true
	target.LastHitTick = e.tick
}

// ---------------------------------------------------------------------------
// Building advancement
// ---------------------------------------------------------------------------

func (e *Engine) advanceBuildings() {
	for _, b := range e.buildings {
		if b.HP <= 0 {
			continue
		}
		if !b.Complete() {
			e.advanceConstruction(b)
			continue
		}
		if len(b.Queue) > 0 {
			e.advanceProduction(b)
		}
		if b.Variant == BuildingTower {
			e.towerAutoFire(b)
		}
	}
}

// advanceConstruction ticks progress and grows HP from the 10% starting
// point toward full, carrying the fractional remainder between ticks.
func (e *Engine) advanceConstruction(b *Building) {
	stats, _ := GetBuildingStats(b.Variant)
	b.Progress += stats.ProgressPerTick()
	if b.Progress > 100 {
		b.Progress = 100
	}

	e.hpAcc[b.ID] += float64(stats.MaxHP) * (1 - InitialBuildingProgressHP) / float64(stats.BuildTicks())
	if e.hpAcc[b.ID] >= 1 {
		whole := int(e.hpAcc[b.ID])
		e.hpAcc[b.ID] -= float64(whole)
		b.HP += whole
		if b.HP > b.MaxHP {
			b.HP = b.MaxHP
		}
	}

	if b.Complete() {
		delete(e.hpAcc, b.ID)
		// A finished farm or extra base raises the owner's cap now.
		e.recomputeSupplyCaps()
		e.logEvent(EventTypeBuildingComplete, b.OwnerID, BuildingPayload{
			BuildingID: b.ID,
			Variant:    b.Variant,
			X:          b.X,
			Y:          b.Y,
		})
	}
}

// advanceProduction ticks the FIFO queue head and spawns on completion.
func (e *Engine) advanceProduction(b *Building) {
	item := &b.Queue[0]
	item.Elapsed++
	stats, _ := GetUnitStats(item.Variant)
	if item.Elapsed < stats.TrainTicks() {
		return
	}

	variant := item.Variant
	b.Queue = b.Queue[1:]

	// Spawn at the south edge; the rally point becomes the first order.
	sx := b.X
	sy := b.Y + b.Size/2 + stats.Size/2 + 2
	u := NewUnit(e.newUnitID(), b.OwnerID, variant, sx, sy)
	e.addUnit(u)
	if b.HasRally {
		u.setMoveTarget(b.RallyX, b.RallyY)
	}
	e.logEvent(EventTypeUnitTrained, b.OwnerID, UnitPayload{
		UnitID:  u.ID,
		Variant: u.Variant,
		X:       u.X,
		Y:       u.Y,
	})
}

// towerAutoFire shoots the nearest hostile unit within upgraded range.
// Cooldown decrements before the fire check, matching the unit cadence:
// a shot lands every CooldownTicks, not every CooldownTicks+1.
func (e *Engine) towerAutoFire(b *Building) {
	if b.CooldownLeft > 0 {
		b.CooldownLeft--
	}
	if b.CooldownLeft > 0 {
		return
	}
	owner := e.players[b.OwnerID]
	rng := TowerBaseRange + TowerRangePerUpg*float64(owner.Upgrades.Range)
	target := e.nearestHostileUnit(b.OwnerID, b.X, b.Y, rng)
	if target == nil {
		return
	}
	p := newProjectile(e.newProjectileID(), ProjectileArrow, b.OwnerID,
		b.X, b.Y, target.X, target.Y, target.ID, 6, TowerDamage, 0, e.tick)
	p.FromTower = true
	e.projectiles = append(e.projectiles, p)
	b.CooldownLeft = TowerCooldownTicks
}

// ---------------------------------------------------------------------------
// Projectile advancement
// ---------------------------------------------------------------------------

func (e *Engine) advanceProjectiles() {
	n := 0
	for _, p := range e.projectiles {
		if p.expired(e.tick) {
			continue
		}

		// Track the target's live position; a dead target leaves the
		// cached aim point in place so the shot still lands somewhere.
		if p.TargetID != "" {
			if tu := e.unitIndex[p.TargetID]; tu != nil && tu.HP > 0 {
				p.TargetX, p.TargetY = tu.X, tu.Y
			} else if tb := e.buildingIndex[p.TargetID]; tb != nil && tb.HP > 0 {
				p.TargetX, p.TargetY = tb.X, tb.Y
			} else {
				p.TargetID = ""
			}
		}

		if p.advance() {
			e.impact(p)
			continue
		}

		e.projectiles[n] = p
		n++
	}
	e.projectiles = e.projectiles[:n]
}

// impact applies the projectile payload at its aim point.
func (e *Engine) impact(p *Projectile) {
	base := p.Damage
	// The difficulty multiplier applies only to AI-owned projectiles in
	// single-player rooms.
	if e.singlePlayer {
		if owner := e.players[p.OwnerID]; owner != nil && owner.Team == TeamAI {
			base = int(math.Round(float64(base) * e.difficulty.Multiplier()))
		}
	}

	if p.Kind == ProjectileHeal {
		if tu := e.unitIndex[p.TargetID]; tu != nil && tu.HP > 0 {
			tu.HP += p.Damage
			if tu.HP > tu.MaxHP {
				tu.HP = tu.MaxHP
			}
		}
		return
	}

	if p.SplashRadius > 0 {
		e.applySplash(p, base)
		return
	}

	if tu := e.unitIndex[p.TargetID]; tu != nil && tu.HP > 0 {
		e.damageUnit(p.OwnerID, tu, base, p.FromTower)
	} else if tb := e.buildingIndex[p.TargetID]; tb != nil && tb.HP > 0 {
		e.damageBuilding(p.OwnerID, tb, base, p.FromTower)
	}
}

// applySplash damages every hostile entity within the splash radius with
// radial falloff: full damage at the center, half at the rim.
func (e *Engine) applySplash(p *Projectile, base int) {
	r := p.SplashRadius
	for _, u := range e.units {
		if u.HP <= 0 || u.OwnerID == p.OwnerID {
			continue
		}
		d := dist(p.X, p.Y, u.X, u.Y)
		if d > r {
			continue
		}
		if dmg := int(math.Round(float64(base) * splashFactor(d, r))); dmg > 0 {
			e.damageUnit(p.OwnerID, u, dmg, p.FromTower)
		}
	}
	for _, b := range e.buildings {
		if b.HP <= 0 || b.OwnerID == p.OwnerID {
			continue
		}
		d := dist(p.X, p.Y, b.X, b.Y)
		if d > r {
			continue
		}
		if dmg := int(math.Round(float64(base) * splashFactor(d, r))); dmg > 0 {
			e.damageBuilding(p.OwnerID, b, dmg, p.FromTower)
		}
	}
}
