package game

import (
	"sync"
	"time"

	"rts-arena/internal/config"
)

// Result is the validation verdict handed back to the transport layer so
// the client can be told exactly why an action was dropped.
type Result struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

func accept() Result              { return Result{Valid: true} }
func reject(reason string) Result { return Result{Valid: false, Reason: reason} }

// Rejection reasons. Stable strings so clients can match on them.
const (
	ReasonRateLimited      = "Rate limit exceeded"
	ReasonClockSkew        = "Timestamp out of range"
	ReasonMalformed        = "Malformed action"
	ReasonNotYourUnit      = "Unit not owned by player"
	ReasonNotYourBuilding  = "Building not owned by player"
	ReasonUnknownEntity    = "Unknown entity"
	ReasonOutOfBounds      = "Target out of bounds"
	ReasonImpassable       = "Target not walkable"
	ReasonBlockedPlacement = "Placement blocked"
	ReasonInsufficient     = "Insufficient resources"
	ReasonSupplyCap        = "Supply cap reached"
	ReasonUpgradeCapped    = "Upgrade already at maximum"
	ReasonBadTarget        = "Invalid target"
	ReasonBusy             = "Building cannot produce that unit"
	ReasonIncomplete       = "Building under construction"
)

// Validator gates every inbound action before the engine sees it. It never
// mutates game state: affordability is re-checked inside the engine at
// apply time, because ticks run between validation and application.
//
// Validator has its own lock because the transport calls it from reader
// goroutines while the scheduler owns the engine. Engine reads here are
// safe: the scheduler drains actions only at tick boundaries, so state is
// quiescent whenever Validate runs.
type Validator struct {
	limits config.ActionLimits
	engine *Engine

	mu      sync.Mutex
	windows map[string][]time.Time

	now func() time.Time // stubbed in tests
}

// NewValidator creates a validator bound to one room's engine.
func NewValidator(limits config.ActionLimits, engine *Engine) *Validator {
	return &Validator{
		limits:  limits,
		engine:  engine,
		windows: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Validate runs the full gate sequence. The first failing gate wins; order
// is cheapest-first so floods are shed before any state is touched.
func (v *Validator) Validate(playerID string, a *Action) Result {
	if !v.allowRate(playerID) {
		return reject(ReasonRateLimited)
	}
	if a == nil || a.Type == "" {
		return reject(ReasonMalformed)
	}
	if a.Timestamp != 0 {
		skew := v.now().UnixMilli() - a.Timestamp
		if skew < 0 {
			skew = -skew
		}
		if time.Duration(skew)*time.Millisecond > v.limits.MaxSkew {
			return reject(ReasonClockSkew)
		}
	}

	if r := v.checkShape(a); !r.Valid {
		return r
	}
	if r := v.checkOwnership(playerID, a); !r.Valid {
		return r
	}
	if r := v.checkBounds(a); !r.Valid {
		return r
	}

	switch a.Type {
	case ActionBuild:
		return v.checkBuild(playerID, a)
	case ActionProduce:
		return v.checkProduce(playerID, a)
	case ActionCancelProduce:
		return v.checkCancelProduce(a)
	case ActionUpgrade:
		return v.checkUpgrade(playerID, a)
	case ActionAttack, ActionGather, ActionRepair, ActionHeal:
		return v.checkTarget(playerID, a)
	}
	return accept()
}

// allowRate enforces both sliding windows; an allowed action is recorded.
func (v *Validator) allowRate(playerID string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	w := v.windows[playerID]

	// Drop entries older than the long window.
	n := 0
	for _, t := range w {
		if now.Sub(t) < time.Minute {
			w[n] = t
			n++
		}
	}
	w = w[:n]

	if len(w) >= v.limits.PerMinute {
		v.windows[playerID] = w
		return false
	}
	recent := 0
	for _, t := range w {
		if now.Sub(t) < time.Second {
			recent++
		}
	}
	if recent >= v.limits.PerSecond {
		v.windows[playerID] = w
		return false
	}

	v.windows[playerID] = append(w, now)
	return true
}

// Forget drops a player's rate window, for room leave cleanup.
func (v *Validator) Forget(playerID string) {
	v.mu.Lock()
	delete(v.windows, playerID)
	v.mu.Unlock()
}

func (v *Validator) checkShape(a *Action) Result {
	if a.Type.needsUnits() && len(a.unitIDs()) == 0 {
		return reject(ReasonMalformed)
	}
	if a.Type.needsTargetPoint() && a.Target == nil {
		return reject(ReasonMalformed)
	}
	switch a.Type {
	case ActionProduce, ActionBuild, ActionUpgrade:
		if a.Variant == "" {
			return reject(ReasonMalformed)
		}
	case ActionAttack, ActionGather, ActionRepair, ActionHeal:
		if a.TargetID == "" {
			return reject(ReasonMalformed)
		}
	}
	return accept()
}

func (v *Validator) checkOwnership(playerID string, a *Action) Result {
	for _, id := range a.unitIDs() {
		u := v.engine.UnitByID(id)
		if u == nil {
			return reject(ReasonUnknownEntity)
		}
		if u.OwnerID != playerID {
			return reject(ReasonNotYourUnit)
		}
	}
	if a.BuildingID != "" {
		b := v.engine.BuildingByID(a.BuildingID)
		if b == nil {
			return reject(ReasonUnknownEntity)
		}
		if b.OwnerID != playerID {
			return reject(ReasonNotYourBuilding)
		}
	}
	return accept()
}

func (v *Validator) checkBounds(a *Action) Result {
	if a.Target == nil {
		return accept()
	}
	m := v.engine.Map()
	if !m.InBounds(a.Target.X, a.Target.Y) {
		return reject(ReasonOutOfBounds)
	}
	// Movement destinations must be walkable; attack-ground may shell any
	// terrain and build placement has its own footprint gate.
	switch a.Type {
	case ActionMove, ActionAttackMove, ActionPatrol:
		if !m.PassableAt(a.Target.X, a.Target.Y) {
			return reject(ReasonImpassable)
		}
	}
	return accept()
}

// checkBuild validates placement geometry and affordability for a new
// construction site.
func (v *Validator) checkBuild(playerID string, a *Action) Result {
	stats, ok := GetBuildingStats(BuildingVariant(a.Variant))
	if !ok {
		return reject(ReasonMalformed)
	}

	x, y := a.Target.X, a.Target.Y
	m := v.engine.Map()

	// Every corner of the footprint must land on passable terrain.
	half := stats.Size / 2
	corners := [4][2]float64{
		{x - half, y - half}, {x + half, y - half},
		{x - half, y + half}, {x + half, y + half},
	}
	if !m.PassableAt(x, y) {
		return reject(ReasonBlockedPlacement)
	}
	for _, c := range corners {
		if !m.PassableAt(c[0], c[1]) {
			return reject(ReasonBlockedPlacement)
		}
	}

	// Keep clear of every standing building, friend or foe.
	for _, b := range v.engine.Buildings() {
		if b.HP <= 0 {
			continue
		}
		minDist := (stats.Size+b.Size)/2 + BuildingClearance
		if dist(x, y, b.X, b.Y) < minDist {
			return reject(ReasonBlockedPlacement)
		}
	}

	p := v.engine.PlayerByID(playerID)
	if p == nil || p.Gold < stats.Cost.Gold || p.Wood < stats.Cost.Wood {
		return reject(ReasonInsufficient)
	}
	return accept()
}

func (v *Validator) checkProduce(playerID string, a *Action) Result {
	b := v.engine.BuildingByID(a.BuildingID)
	if b == nil {
		return reject(ReasonUnknownEntity)
	}
	if !b.Complete() {
		return reject(ReasonIncomplete)
	}
	stats, ok := GetUnitStats(UnitVariant(a.Variant))
	if !ok {
		return reject(ReasonMalformed)
	}
	bstats, _ := GetBuildingStats(b.Variant)
	if !bstats.CanTrain(stats.Variant) {
		return reject(ReasonBusy)
	}

	p := v.engine.PlayerByID(playerID)
	if p == nil || p.Gold < stats.Cost.Gold || p.Wood < stats.Cost.Wood {
		return reject(ReasonInsufficient)
	}
	if p.Supply+stats.Cost.Supply > p.MaxSupply {
		return reject(ReasonSupplyCap)
	}
	return accept()
}

func (v *Validator) checkCancelProduce(a *Action) Result {
	b := v.engine.BuildingByID(a.BuildingID)
	if b == nil {
		return reject(ReasonUnknownEntity)
	}
	if a.QueueIndex < 0 || a.QueueIndex >= len(b.Queue) {
		return reject(ReasonMalformed)
	}
	return accept()
}

func (v *Validator) checkUpgrade(playerID string, a *Action) Result {
	kind := UpgradeKind(a.Variant)
	p := v.engine.PlayerByID(playerID)
	if p == nil {
		return reject(ReasonUnknownEntity)
	}

	var level int
	switch kind {
	case UpgradeAttack:
		level = p.Upgrades.Attack
	case UpgradeDefense:
		level = p.Upgrades.Defense
	case UpgradeRange:
		level = p.Upgrades.Range
	default:
		return reject(ReasonMalformed)
	}
	if level >= UpgradeCap(kind) {
		return reject(ReasonUpgradeCapped)
	}

	cost := UpgradeCost(level)
	if p.Gold < cost.Gold || p.Wood < cost.Wood {
		return reject(ReasonInsufficient)
	}
	return accept()
}

// checkTarget enforces target legality per action type: attacks need a
// hostile entity, gather a live node, repair an own damaged building, heal
// an own injured unit.
func (v *Validator) checkTarget(playerID string, a *Action) Result {
	switch a.Type {
	case ActionAttack:
		if u := v.engine.UnitByID(a.TargetID); u != nil {
			if u.OwnerID == playerID {
				return reject(ReasonBadTarget)
			}
			return accept()
		}
		if b := v.engine.BuildingByID(a.TargetID); b != nil {
			if b.OwnerID == playerID {
				return reject(ReasonBadTarget)
			}
			return accept()
		}
		return reject(ReasonUnknownEntity)

	case ActionGather:
		n := v.engine.NodeByID(a.TargetID)
		if n == nil || n.Amount <= 0 {
			return reject(ReasonUnknownEntity)
		}
		return accept()

	case ActionRepair:
		b := v.engine.BuildingByID(a.TargetID)
		if b == nil {
			return reject(ReasonUnknownEntity)
		}
		if b.OwnerID != playerID {
			return reject(ReasonNotYourBuilding)
		}
		if b.HP >= b.MaxHP {
			return reject(ReasonBadTarget)
		}
		return accept()

	case ActionHeal:
		u := v.engine.UnitByID(a.TargetID)
		if u == nil {
			return reject(ReasonUnknownEntity)
		}
		if u.OwnerID != playerID {
			return reject(ReasonBadTarget)
		}
		return accept()
	}
	return accept()
}
