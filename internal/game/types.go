package game

// TicksPerSecond is the simulation baseline. All durations expressed in
// seconds (build times, cooldowns) convert to ticks with this constant so
// the simulation outcome does not depend on the wall-clock pacing rate.
const TicksPerSecond = 60

// Point is a pixel position on the map.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Team roles within a room.
const (
	TeamHost  = "host"
	TeamGuest = "guest"
	TeamAI    = "ai"
)

// Upgrades holds a player's researched upgrade levels.
type Upgrades struct {
	Attack  int `json:"attack"`  // 0-3
	Defense int `json:"defense"` // 0-3
	Range   int `json:"range"`   // 0-2
}

// Upgrade level caps.
const (
	MaxAttackUpgrade  = 3
	MaxDefenseUpgrade = 3
	MaxRangeUpgrade   = 2
)

// Player is a participant in a match. Created on join; mutated only by the
// engine (resources, upgrades) and the room manager (ready flag).
type Player struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Team      string   `json:"team"` // host|guest|ai
	Color     string   `json:"color"`
	Gold      int      `json:"gold"`
	Wood      int      `json:"wood"`
	Supply    int      `json:"supply"`
	MaxSupply int      `json:"maxSupply"`
	Upgrades  Upgrades `json:"upgrades"`
	Ready     bool     `json:"ready"`

	// Eliminated is the room manager's injection point for surrender and
	// disconnect forfeits; the win arbiter honors it.
	Eliminated bool `json:"eliminated"`

	// Fractional income accumulator for the AI trickle.
	incomeAcc float64

	// Shadow ledger written only by legitimate economy paths. The
	// anti-cheat drift check compares it against the visible balances,
	// so out-of-band mutation shows up as divergence.
	ledgerGold int
	ledgerWood int
}

// Ledger returns the expected gold and wood balances per the shadow
// ledger.
func (p *Player) Ledger() (gold, wood int) {
	return p.ledgerGold, p.ledgerWood
}

// CommandState is a unit's command state machine state.
type CommandState string

const (
	StateIdle       CommandState = "idle"
	StateMoving     CommandState = "moving"
	StateAttacking  CommandState = "attacking"
	StateAttackMove CommandState = "attackMove"
	StatePatrol     CommandState = "patrol"
	StateHold       CommandState = "holdPosition"
	StateGathering  CommandState = "gathering"
	StateReturning  CommandState = "returning"
	StateBuilding   CommandState = "building"
	StateHealing    CommandState = "healing"
)

// UnitVariant identifies a unit type.
type UnitVariant string

const (
	UnitWorker   UnitVariant = "worker"
	UnitSoldier  UnitVariant = "soldier"
	UnitArcher   UnitVariant = "archer"
	UnitHealer   UnitVariant = "healer"
	UnitCatapult UnitVariant = "catapult"
)

// BuildingVariant identifies a building type.
type BuildingVariant string

const (
	BuildingBase          BuildingVariant = "base"
	BuildingBarracks      BuildingVariant = "barracks"
	BuildingFarm          BuildingVariant = "farm"
	BuildingTower         BuildingVariant = "tower"
	BuildingBlacksmith    BuildingVariant = "blacksmith"
	BuildingSiegeWorkshop BuildingVariant = "siegeWorkshop"
	BuildingWall          BuildingVariant = "wall"
)

// ResourceKind identifies a harvestable resource.
type ResourceKind string

const (
	ResourceGold ResourceKind = "gold"
	ResourceWood ResourceKind = "wood"
)

// UnderAttackTicks is how long the under-attack flag stays raised after
// the last hit.
const UnderAttackTicks = 120

// Unit is a mobile entity. Created by production completion or at match
// start; removed when HP reaches zero.
type Unit struct {
	ID      string      `json:"id"`
	OwnerID string      `json:"ownerId"`
	Variant UnitVariant `json:"variant"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	HP      int         `json:"hp"`
	MaxHP   int         `json:"maxHp"`
	Size    float64     `json:"size"`

	State     CommandState `json:"state"`
	TargetID  string       `json:"targetId,omitempty"`
	TargetX   float64      `json:"-"`
	TargetY   float64      `json:"-"`
	HasTarget bool         `json:"-"`
	Waypoints []Point      `json:"-"`

	// Patrol endpoints: the unit walks between its issue point and the
	// ordered point.
	PatrolX, PatrolY float64 `json:"-"`

	AttackRange  float64 `json:"attackRange"`
	AttackDamage int     `json:"attackDamage"`
	Cooldown     int     `json:"-"` // ticks between attacks
	CooldownLeft int     `json:"-"`
	Speed        float64 `json:"speed"` // pixels per tick
	Armor        int     `json:"-"`

	// Worker-only carrying state.
	CarryKind    ResourceKind `json:"carryKind,omitempty"`
	CarryAmount  int          `json:"carryAmount,omitempty"`
	GatherNodeID string       `json:"-"` // remembered node until it is empty
	gatherTicks  int          // progress toward the next carried point

	// Attack-move resume point: where to keep heading once an acquired
	// target dies.
	resumeAttackMove bool
	resumeX, resumeY float64

	// Catapult-only attack-ground point.
	AttackGround  bool    `json:"-"`
	AttackGroundX float64 `json:"-"`
	AttackGroundY float64 `json:"-"`

	UnderAttack bool  `json:"underAttack"`
	LastHitTick int64 `json:"-"`
}

// ProductionItem is one entry in a building's FIFO production queue.
type ProductionItem struct {
	Variant UnitVariant `json:"variant"`
	Elapsed int         `json:"elapsed"` // ticks spent so far
}

// Building is a static entity. Created by a build action at 10% HP, or
// complete at match start; removed when HP reaches zero.
type Building struct {
	ID      string          `json:"id"`
	OwnerID string          `json:"ownerId"`
	Variant BuildingVariant `json:"variant"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	HP      int             `json:"hp"`
	MaxHP   int             `json:"maxHp"`
	Size    float64         `json:"size"` // square footprint edge in pixels

	Progress float64          `json:"progress"` // 0-100 construction
	Queue    []ProductionItem `json:"queue,omitempty"`

	HasRally bool    `json:"hasRally"`
	RallyX   float64 `json:"rallyX,omitempty"`
	RallyY   float64 `json:"rallyY,omitempty"`

	CooldownLeft int `json:"-"` // tower auto-fire

	UnderAttack bool  `json:"underAttack"`
	LastHitTick int64 `json:"-"`
}

// Complete reports whether construction has finished. A building with
// progress < 100 cannot produce units or shoot.
func (b *Building) Complete() bool {
	return b.Progress >= 100
}

// ResourceNode is a harvestable map feature. Created by the map generator;
// removed when its amount reaches zero.
type ResourceNode struct {
	ID        string       `json:"id"`
	Kind      ResourceKind `json:"kind"`
	X         float64      `json:"x"`
	Y         float64      `json:"y"`
	Amount    int          `json:"amount"`
	MaxAmount int          `json:"maxAmount"`
}

// ProjectileKind identifies a projectile payload.
type ProjectileKind string

const (
	ProjectileArrow   ProjectileKind = "arrow"
	ProjectileBoulder ProjectileKind = "boulder"
	ProjectileHeal    ProjectileKind = "heal"
)

// Difficulty levels for the optional AI slot.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// Multiplier returns the AI damage/income multiplier for the difficulty.
func (d Difficulty) Multiplier() float64 {
	switch d {
	case DifficultyEasy:
		return 0.7
	case DifficultyHard:
		return 1.3
	default:
		return 1.0
	}
}

// MaxSupplyFor computes the supply cap from completed supply buildings:
// 10 base cap, +8 per completed farm, +10 per base beyond the first.
func MaxSupplyFor(farms, bases int) int {
	extra := bases - 1
	if extra < 0 {
		extra = 0
	}
	return 10 + 8*farms + 10*extra
}
