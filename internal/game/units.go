package game

// Cost is the price of a unit, building or upgrade.
type Cost struct {
	Gold   int `json:"gold"`
	Wood   int `json:"wood"`
	Supply int `json:"supply,omitempty"`
}

// UnitStats is the static definition of a unit variant.
type UnitStats struct {
	Variant      UnitVariant
	MaxHP        int
	Size         float64 // collision diameter in pixels
	AttackDamage int
	AttackRange  float64 // pixels
	Cooldown     int     // ticks between attacks
	Speed        float64 // pixels per tick
	Armor        int
	Cost         Cost
	TrainSeconds int
	Projectile   ProjectileKind // empty for melee
	ProjSpeed    float64        // pixels per tick
	SplashRadius float64        // catapult only
}

// Worker economy tuning.
const (
	WorkerCarryCapacity = 10
	GatherIntervalTicks = 10 // one carried point per interval
	RepairIntervalTicks = 10
	RepairAmount        = 2
	DepositRange        = 20.0 // extra reach beyond footprints for deposit/gather
)

var unitStats = map[UnitVariant]UnitStats{
	UnitWorker: {
		Variant:      UnitWorker,
		MaxHP:        50,
		Size:         16,
		AttackDamage: 3,
		AttackRange:  18,
		Cooldown:     60,
		Speed:        1.6,
		Cost:         Cost{Gold: 50, Supply: 1},
		TrainSeconds: 10,
	},
	UnitSoldier: {
		Variant:      UnitSoldier,
		MaxHP:        80,
		Size:         20,
		AttackDamage: 10,
		AttackRange:  25,
		Cooldown:     60,
		Speed:        1.8,
		Cost:         Cost{Gold: 60, Wood: 20, Supply: 1},
		TrainSeconds: 15,
	},
	UnitArcher: {
		Variant:      UnitArcher,
		MaxHP:        50,
		Size:         18,
		AttackDamage: 8,
		AttackRange:  120,
		Cooldown:     70,
		Speed:        1.7,
		Cost:         Cost{Gold: 70, Wood: 30, Supply: 1},
		TrainSeconds: 18,
		Projectile:   ProjectileArrow,
		ProjSpeed:    6,
	},
	UnitHealer: {
		Variant:      UnitHealer,
		MaxHP:        45,
		Size:         18,
		AttackDamage: 6, // heal amount
		AttackRange:  100,
		Cooldown:     80,
		Speed:        1.6,
		Cost:         Cost{Gold: 80, Wood: 40, Supply: 1},
		TrainSeconds: 20,
		Projectile:   ProjectileHeal,
		ProjSpeed:    5,
	},
	UnitCatapult: {
		Variant:      UnitCatapult,
		MaxHP:        120,
		Size:         28,
		AttackDamage: 25,
		AttackRange:  200,
		Cooldown:     180,
		Speed:        0.9,
		Cost:         Cost{Gold: 150, Wood: 100, Supply: 3},
		TrainSeconds: 30,
		Projectile:   ProjectileBoulder,
		ProjSpeed:    3,
		SplashRadius: 60,
	},
}

// GetUnitStats returns the static definition for a variant.
// The second return is false for unknown variants.
func GetUnitStats(v UnitVariant) (UnitStats, bool) {
	s, ok := unitStats[v]
	return s, ok
}

// NewUnit creates a unit of the given variant at a position, owned by a
// player. The caller assigns the id.
func NewUnit(id, ownerID string, variant UnitVariant, x, y float64) *Unit {
	s := unitStats[variant]
	return &Unit{
		ID:           id,
		OwnerID:      ownerID,
		Variant:      variant,
		X:            x,
		Y:            y,
		HP:           s.MaxHP,
		MaxHP:        s.MaxHP,
		Size:         s.Size,
		State:        StateIdle,
		AttackRange:  s.AttackRange,
		AttackDamage: s.AttackDamage,
		Cooldown:     s.Cooldown,
		Speed:        s.Speed,
		Armor:        s.Armor,
	}
}

// IsCombat reports whether the variant auto-acquires hostile targets.
func (v UnitVariant) IsCombat() bool {
	switch v {
	case UnitSoldier, UnitArcher, UnitCatapult:
		return true
	}
	return false
}

// TrainTicks returns the production duration in ticks.
func (s UnitStats) TrainTicks() int {
	return s.TrainSeconds * TicksPerSecond
}
