package game

import (
	"fmt"
	"math"

	"rts-arena/internal/config"
	"rts-arena/internal/game/spatial"
)

// Player colors by join order: host blue, guest red.
var playerColors = []string{"#2196f3", "#f44336"}

// buildingRef marks a spatial grid reference as a building index; unit
// references use the raw slice index.
const buildingRef uint32 = 1 << 31

// Engine owns the canonical game state for one room and advances it with
// a bounded-cost synchronous Tick. It is deliberately unlocked: per the
// concurrency model a single scheduler goroutine owns all mutation, and
// everything else only enqueues actions that the scheduler drains at tick
// boundaries.
type Engine struct {
	cfg     config.GameConfig
	gameMap *GameMap

	players     map[string]*Player
	playerOrder []string // deterministic iteration order (join order)

	// Entities live in insertion-ordered slices so two engines fed the
	// same inputs iterate identically; index maps are lookup only.
	units         []*Unit
	unitIndex     map[string]*Unit
	buildings     []*Building
	buildingIndex map[string]*Building
	nodes         []*ResourceNode
	nodeIndex     map[string]*ResourceNode
	projectiles   []*Projectile

	grid *spatial.Grid

	// Fog of war: visible is rebuilt each tick, discovered only grows.
	visible    map[string]map[int]struct{}
	discovered map[string]map[int]struct{}

	tick      int64
	gameOver  bool
	winner    string
	winReason string

	nextUnitID     uint64
	nextBuildingID uint64
	nextProjID     uint64

	difficulty   Difficulty
	singlePlayer bool
	ai           *aiController

	initialized bool

	// hpAcc accumulates fractional construction HP per building id.
	hpAcc map[string]float64

	// eventLog is optional; emission failures never affect simulation.
	eventLog *EventLog
	roomID   string
}

// NewEngine generates the map from the seed and prepares an empty match.
func NewEngine(cfg config.GameConfig, seed int64, difficulty Difficulty) (*Engine, error) {
	m, err := GenerateMap(cfg.MapWidth, cfg.MapHeight, seed, cfg.TileSize)
	if err != nil {
		return nil, err
	}

	maxEntities := cfg.MapWidth * cfg.MapHeight / 8
	return &Engine{
		cfg:           cfg,
		gameMap:       m,
		players:       make(map[string]*Player),
		unitIndex:     make(map[string]*Unit),
		buildingIndex: make(map[string]*Building),
		nodeIndex:     make(map[string]*ResourceNode),
		grid:          spatial.NewGrid(m.PixelWidth(), m.PixelHeight(), cfg.GridCellSize, maxEntities),
		visible:       make(map[string]map[int]struct{}),
		discovered:    make(map[string]map[int]struct{}),
		difficulty:    difficulty,
		hpAcc:         make(map[string]float64),
	}, nil
}

// AddPlayer registers a human participant before Initialize.
func (e *Engine) AddPlayer(id, name, team string) (*Player, error) {
	if e.initialized {
		return nil, fmt.Errorf("match already started")
	}
	if _, ok := e.players[id]; ok {
		return nil, fmt.Errorf("player %s already present", id)
	}
	if len(e.playerOrder) >= 2 {
		return nil, fmt.Errorf("room is full")
	}

	p := &Player{
		ID:    id,
		Name:  name,
		Team:  team,
		Color: playerColors[len(e.playerOrder)%len(playerColors)],
	}
	e.players[id] = p
	e.playerOrder = append(e.playerOrder, id)
	e.visible[id] = make(map[int]struct{})
	e.discovered[id] = make(map[int]struct{})
	return p, nil
}

// AddAI fills the guest slot with a computer opponent.
func (e *Engine) AddAI(id, name string) (*Player, error) {
	p, err := e.AddPlayer(id, name, TeamAI)
	if err != nil {
		return nil, err
	}
	e.singlePlayer = true
	e.ai = newAIController(id, e.difficulty)
	return p, nil
}

// Initialize spawns the starting base and workers for every player and
// seeds resources. Must be called exactly once, after all players joined.
func (e *Engine) Initialize() error {
	if e.initialized {
		return fmt.Errorf("already initialized")
	}
	if len(e.playerOrder) == 0 {
		return fmt.Errorf("no players")
	}

	for _, node := range e.gameMap.Nodes {
		e.nodes = append(e.nodes, node)
		e.nodeIndex[node.ID] = node
	}

	spawns := e.gameMap.SpawnPoints()
	for i, pid := range e.playerOrder {
		p := e.players[pid]
		p.Gold = 200
		p.Wood = 100
		p.ledgerGold = p.Gold
		p.ledgerWood = p.Wood
		p.Supply = 0
		p.MaxSupply = 10

		spawn := spawns[i%2]
		base := NewCompleteBuilding(e.newBuildingID(), pid, BuildingBase, spawn.X, spawn.Y)
		e.addBuilding(base)

		// Three starting workers along the base's south edge.
		wy := spawn.Y + base.Size/2 + 20
		for w := 0; w < 3; w++ {
			wx := spawn.X + float64(w-1)*30
			e.addUnit(NewUnit(e.newUnitID(), pid, UnitWorker, wx, wy))
			p.Supply++
		}
	}

	e.initialized = true
	e.updateFog()
	e.logEvent(EventTypeMatchStart, "", MatchStartPayload{
		Seed:       e.gameMap.Seed,
		Difficulty: e.difficulty,
		PlayerIDs:  append([]string(nil), e.playerOrder...),
	})
	return nil
}

// SetEventLog attaches the shared match log. Call before Initialize.
func (e *Engine) SetEventLog(el *EventLog, roomID string) {
	e.eventLog = el
	e.roomID = roomID
}

// logEvent emits to the match log when one is attached.
func (e *Engine) logEvent(t EventType, playerID string, payload interface{}) {
	if e.eventLog != nil {
		e.eventLog.EmitSimple(t, e.tick, e.roomID, playerID, payload)
	}
}

// LogAction records an accepted player action in the match log.
func (e *Engine) LogAction(playerID string, a *Action) {
	e.logEvent(EventTypeAction, playerID, ActionPayload{
		ActionType: a.Type,
		ActionID:   a.ID,
	})
}

// InjectElimination is the room manager's forfeit path (surrender,
// disconnect grace expiry). The win arbiter honors the flag on the next
// tick.
func (e *Engine) InjectElimination(playerID string) {
	if p, ok := e.players[playerID]; ok {
		p.Eliminated = true
	}
}

// Tick advances the simulation exactly one step. The per-stage order is
// fixed because it affects outcomes: projectiles, buildings, units,
// cleanup, economy, fog, win check, counter.
func (e *Engine) Tick() {
	if e.gameOver || !e.initialized {
		return
	}

	if e.ai != nil {
		e.ai.think(e)
	}

	e.rebuildGrid()

	e.advanceProjectiles()
	e.advanceBuildings()
	e.advanceUnits()
	e.removeDead()
	e.updateEconomy()
	e.updateFog()
	e.checkWin()

	e.tick++
}

// Apply mutates state for one validated action. Handles are re-resolved
// here (resolve-then-check-live): validation happened at the input edge
// and entities may have died since.
func (e *Engine) Apply(playerID string, a *Action) {
	if e.gameOver {
		return
	}
	p, ok := e.players[playerID]
	if !ok {
		return
	}

	switch a.Type {
	case ActionSurrender:
		p.Eliminated = true
	case ActionBuild:
		e.applyBuild(p, a)
	case ActionProduce:
		e.applyProduce(p, a)
	case ActionCancelProduce:
		e.applyCancelProduce(p, a)
	case ActionUpgrade:
		e.applyUpgrade(p, a)
	case ActionRally:
		e.applyRally(p, a)
	default:
		e.applyUnitOrder(p, a)
	}
}

func (e *Engine) applyBuild(p *Player, a *Action) {
	stats, ok := GetBuildingStats(BuildingVariant(a.Variant))
	if !ok || a.Target == nil {
		return
	}
	if p.Gold < stats.Cost.Gold || p.Wood < stats.Cost.Wood {
		return
	}
	p.Gold -= stats.Cost.Gold
	p.Wood -= stats.Cost.Wood
	p.ledgerGold -= stats.Cost.Gold
	p.ledgerWood -= stats.Cost.Wood
	b := NewBuilding(e.newBuildingID(), p.ID, stats.Variant, a.Target.X, a.Target.Y)
	e.addBuilding(b)
	if stats.Variant == BuildingBase {
		// Base sites count toward the cap from placement, not from the
		// next periodic recompute.
		e.recomputeSupplyCaps()
	}
	e.logEvent(EventTypeBuildingPlaced, p.ID, BuildingPayload{
		BuildingID: b.ID,
		Variant:    b.Variant,
		X:          b.X,
		Y:          b.Y,
	})
}

func (e *Engine) applyProduce(p *Player, a *Action) {
	b := e.buildingIndex[a.BuildingID]
	if b == nil || b.OwnerID != p.ID || !b.Complete() {
		return
	}
	stats, ok := GetUnitStats(UnitVariant(a.Variant))
	if !ok {
		return
	}
	if p.Gold < stats.Cost.Gold || p.Wood < stats.Cost.Wood {
		return
	}
	if p.Supply+stats.Cost.Supply > p.MaxSupply {
		return
	}
	// Debit and reserve immediately; the queue entry carries the elapsed
	// tick counter.
	p.Gold -= stats.Cost.Gold
	p.Wood -= stats.Cost.Wood
	p.ledgerGold -= stats.Cost.Gold
	p.ledgerWood -= stats.Cost.Wood
	p.Supply += stats.Cost.Supply
	b.Queue = append(b.Queue, ProductionItem{Variant: stats.Variant})
}

func (e *Engine) applyCancelProduce(p *Player, a *Action) {
	b := e.buildingIndex[a.BuildingID]
	if b == nil || b.OwnerID != p.ID {
		return
	}
	if a.QueueIndex < 0 || a.QueueIndex >= len(b.Queue) {
		return
	}
	// No refund; the supply reservation is released so the cap reflects
	// live and queued units only.
	stats, _ := GetUnitStats(b.Queue[a.QueueIndex].Variant)
	p.Supply -= stats.Cost.Supply
	b.Queue = append(b.Queue[:a.QueueIndex], b.Queue[a.QueueIndex+1:]...)
}

func (e *Engine) applyUpgrade(p *Player, a *Action) {
	kind := UpgradeKind(a.Variant)
	var level *int
	switch kind {
	case UpgradeAttack:
		level = &p.Upgrades.Attack
	case UpgradeDefense:
		level = &p.Upgrades.Defense
	case UpgradeRange:
		level = &p.Upgrades.Range
	default:
		return
	}
	if *level >= UpgradeCap(kind) {
		return
	}
	cost := UpgradeCost(*level)
	if p.Gold < cost.Gold || p.Wood < cost.Wood {
		return
	}
	p.Gold -= cost.Gold
	p.Wood -= cost.Wood
	p.ledgerGold -= cost.Gold
	p.ledgerWood -= cost.Wood
	*level++
}

func (e *Engine) applyRally(p *Player, a *Action) {
	b := e.buildingIndex[a.BuildingID]
	if b == nil || b.OwnerID != p.ID || a.Target == nil {
		return
	}
	b.HasRally = true
	b.RallyX = a.Target.X
	b.RallyY = a.Target.Y
}

// applyUnitOrder dispatches movement/combat/economy orders to each named
// unit that is still alive and owned by the sender.
func (e *Engine) applyUnitOrder(p *Player, a *Action) {
	for _, id := range a.unitIDs() {
		u := e.unitIndex[id]
		if u == nil || u.OwnerID != p.ID {
			continue
		}
		e.orderUnit(u, a)
	}
}

func (e *Engine) orderUnit(u *Unit, a *Action) {
	switch a.Type {
	case ActionMove:
		if a.Target == nil {
			return
		}
		if a.Queue && (u.State == StateMoving || len(u.Waypoints) > 0) {
			u.Waypoints = append(u.Waypoints, *a.Target)
			return
		}
		u.setMoveTarget(a.Target.X, a.Target.Y)
	case ActionStop:
		u.clearOrders()
	case ActionHold:
		u.clearOrders()
		u.State = StateHold
	case ActionPatrol:
		if a.Target == nil {
			return
		}
		u.PatrolX, u.PatrolY = u.X, u.Y
		u.TargetX, u.TargetY = a.Target.X, a.Target.Y
		u.HasTarget = true
		u.TargetID = ""
		u.State = StatePatrol
	case ActionAttack:
		if a.TargetID == "" {
			return
		}
		u.TargetID = a.TargetID
		u.HasTarget = false
		u.State = StateAttacking
	case ActionAttackMove:
		if a.Target == nil {
			return
		}
		u.setMoveTarget(a.Target.X, a.Target.Y)
		u.State = StateAttackMove
	case ActionAttackGround:
		if u.Variant != UnitCatapult || a.Target == nil {
			return
		}
		u.AttackGround = true
		u.AttackGroundX, u.AttackGroundY = a.Target.X, a.Target.Y
		u.TargetID = ""
		u.State = StateAttacking
	case ActionGather:
		if u.Variant != UnitWorker || a.TargetID == "" {
			return
		}
		u.GatherNodeID = a.TargetID
		u.TargetID = a.TargetID
		u.State = StateGathering
	case ActionRepair:
		if u.Variant != UnitWorker || a.TargetID == "" {
			return
		}
		u.TargetID = a.TargetID
		u.State = StateBuilding
	case ActionHeal:
		if u.Variant != UnitHealer || a.TargetID == "" {
			return
		}
		u.TargetID = a.TargetID
		u.State = StateHealing
	}
}

// setMoveTarget issues a plain move order, preserving nothing but queued
// waypoints (a fresh order replaces the waypoint list head).
func (u *Unit) setMoveTarget(x, y float64) {
	u.TargetX, u.TargetY = x, y
	u.HasTarget = true
	u.TargetID = ""
	u.AttackGround = false
	u.State = StateMoving
}

func (u *Unit) clearOrders() {
	u.State = StateIdle
	u.TargetID = ""
	u.HasTarget = false
	u.AttackGround = false
	u.Waypoints = nil
}

// ---------------------------------------------------------------------------
// Entity bookkeeping
// ---------------------------------------------------------------------------

func (e *Engine) addUnit(u *Unit) {
	e.units = append(e.units, u)
	e.unitIndex[u.ID] = u
}

func (e *Engine) addBuilding(b *Building) {
	e.buildings = append(e.buildings, b)
	e.buildingIndex[b.ID] = b
}

func (e *Engine) newUnitID() string {
	e.nextUnitID++
	return fmt.Sprintf("unit_%d", e.nextUnitID)
}

func (e *Engine) newBuildingID() string {
	e.nextBuildingID++
	return fmt.Sprintf("bld_%d", e.nextBuildingID)
}

func (e *Engine) newProjectileID() string {
	e.nextProjID++
	return fmt.Sprintf("proj_%d", e.nextProjID)
}

// rebuildGrid refreshes the spatial index from the current unit and
// building collections. Called once per tick.
func (e *Engine) rebuildGrid() {
	e.grid.Clear()
	for i, u := range e.units {
		if u.HP > 0 {
			e.grid.Insert(uint32(i), u.X, u.Y)
		}
	}
	for i, b := range e.buildings {
		if b.HP > 0 {
			e.grid.Insert(uint32(i)|buildingRef, b.X, b.Y)
		}
	}
}

// nearestHostileUnit scans the spatial index for the closest living enemy
// unit within radius of (x, y).
func (e *Engine) nearestHostileUnit(ownerID string, x, y, radius float64) *Unit {
	var best *Unit
	bestDist := math.MaxFloat64
	for _, ref := range e.grid.QueryRadius(x, y, radius) {
		if ref&buildingRef != 0 {
			continue
		}
		u := e.units[ref]
		if u.HP <= 0 || u.OwnerID == ownerID {
			continue
		}
		d := math.Hypot(u.X-x, u.Y-y)
		if d <= radius && d < bestDist {
			bestDist = d
			best = u
		}
	}
	return best
}

// removeDead filters out dead units, destroyed buildings, depleted nodes
// and clears stale under-attack flags, then recomputes every player's
// supply figures from what is actually alive.
func (e *Engine) removeDead() {
	n := 0
	for _, u := range e.units {
		if u.HP > 0 {
			if u.UnderAttack && e.tick-u.LastHitTick > UnderAttackTicks {
				u.UnderAttack = false
			}
			e.units[n] = u
			n++
			continue
		}
		delete(e.unitIndex, u.ID)
		e.logEvent(EventTypeUnitKilled, u.OwnerID, UnitPayload{
			UnitID:  u.ID,
			Variant: u.Variant,
			X:       u.X,
			Y:       u.Y,
		})
		if p, ok := e.players[u.OwnerID]; ok {
			stats, _ := GetUnitStats(u.Variant)
			p.Supply -= stats.Cost.Supply
			if p.Supply < 0 {
				p.Supply = 0
			}
		}
	}
	e.units = e.units[:n]

	n = 0
	supplyDirty := false
	for _, b := range e.buildings {
		if b.HP > 0 {
			if b.UnderAttack && e.tick-b.LastHitTick > UnderAttackTicks {
				b.UnderAttack = false
			}
			e.buildings[n] = b
			n++
			continue
		}
		delete(e.buildingIndex, b.ID)
		delete(e.hpAcc, b.ID)
		e.logEvent(EventTypeBuildingDestroyed, b.OwnerID, BuildingPayload{
			BuildingID: b.ID,
			Variant:    b.Variant,
			X:          b.X,
			Y:          b.Y,
		})
		// Release supply reserved by anything still queued inside.
		if p, ok := e.players[b.OwnerID]; ok {
			for _, item := range b.Queue {
				stats, _ := GetUnitStats(item.Variant)
				p.Supply -= stats.Cost.Supply
			}
			if p.Supply < 0 {
				p.Supply = 0
			}
		}
		supplyDirty = true
	}
	e.buildings = e.buildings[:n]

	if supplyDirty || e.tick%TicksPerSecond == 0 {
		e.recomputeSupplyCaps()
	}

	n = 0
	for _, node := range e.nodes {
		if node.Amount > 0 {
			e.nodes[n] = node
			n++
			continue
		}
		delete(e.nodeIndex, node.ID)
	}
	e.nodes = e.nodes[:n]
}

// recomputeSupplyCaps applies the cap formula per player: 10 base cap,
// +8 per completed farm, +10 per base beyond the first.
func (e *Engine) recomputeSupplyCaps() {
	for _, pid := range e.playerOrder {
		farms, bases := 0, 0
		for _, b := range e.buildings {
			if b.OwnerID != pid || b.HP <= 0 {
				continue
			}
			switch {
			case b.Variant == BuildingFarm && b.Complete():
				farms++
			case b.Variant == BuildingBase:
				bases++
			}
		}
		e.players[pid].MaxSupply = MaxSupplyFor(farms, bases)
	}
}

// updateEconomy applies the AI income trickle.
func (e *Engine) updateEconomy() {
	for _, pid := range e.playerOrder {
		p := e.players[pid]
		if p.Team != TeamAI {
			continue
		}
		p.incomeAcc += 0.5 * e.difficulty.Multiplier()
		if p.incomeAcc >= 1 {
			whole := int(p.incomeAcc)
			p.Gold += whole
			p.ledgerGold += whole
			p.incomeAcc -= float64(whole)
		}
	}
}

// ---------------------------------------------------------------------------
// Read accessors
// ---------------------------------------------------------------------------

// TickCount returns the current tick counter.
func (e *Engine) TickCount() int64 { return e.tick }

// GameOver reports terminal state along with winner id and reason.
func (e *Engine) GameOver() (bool, string, string) {
	return e.gameOver, e.winner, e.winReason
}

// Map returns the generated map.
func (e *Engine) Map() *GameMap { return e.gameMap }

// PlayerByID resolves a player handle.
func (e *Engine) PlayerByID(id string) *Player { return e.players[id] }

// PlayerIDs returns the join-ordered player id list.
func (e *Engine) PlayerIDs() []string { return e.playerOrder }

// UnitByID resolves a unit handle; nil when dead or unknown.
func (e *Engine) UnitByID(id string) *Unit { return e.unitIndex[id] }

// BuildingByID resolves a building handle; nil when dead or unknown.
func (e *Engine) BuildingByID(id string) *Building { return e.buildingIndex[id] }

// NodeByID resolves a resource node handle; nil when depleted or unknown.
func (e *Engine) NodeByID(id string) *ResourceNode { return e.nodeIndex[id] }

// Units returns the live unit slice. Callers must not mutate it.
func (e *Engine) Units() []*Unit { return e.units }

// Buildings returns the live building slice. Callers must not mutate it.
func (e *Engine) Buildings() []*Building { return e.buildings }

// Nodes returns the live resource node slice. Callers must not mutate it.
func (e *Engine) Nodes() []*ResourceNode { return e.nodes }

// Projectiles returns the in-flight projectile slice.
func (e *Engine) Projectiles() []*Projectile { return e.projectiles }

// Difficulty returns the room difficulty.
func (e *Engine) Difficulty() Difficulty { return e.difficulty }
