package game

// BuildingStats is the static definition of a building variant.
type BuildingStats struct {
	Variant      BuildingVariant
	MaxHP        int
	Size         float64 // square footprint edge in pixels
	Cost         Cost
	BuildSeconds int
	Farms        bool // contributes +8 supply when complete
	DepositPoint bool // workers can return resources here
	Trains       []UnitVariant
}

// Tower auto-fire tuning.
const (
	TowerDamage        = 12
	TowerBaseRange     = 150.0
	TowerRangePerUpg   = 10.0
	TowerCooldownTicks = 60
)

// Minimum clearance between any two building footprints, in pixels.
const BuildingClearance = 10.0

// InitialBuildingProgressHP is the HP fraction a freshly placed
// construction site starts with.
const InitialBuildingProgressHP = 0.10

var buildingStats = map[BuildingVariant]BuildingStats{
	BuildingBase: {
		Variant:      BuildingBase,
		MaxHP:        1000,
		Size:         100,
		Cost:         Cost{Gold: 400, Wood: 200},
		BuildSeconds: 60,
		DepositPoint: true,
		Trains:       []UnitVariant{UnitWorker},
	},
	BuildingBarracks: {
		Variant:      BuildingBarracks,
		MaxHP:        500,
		Size:         80,
		Cost:         Cost{Gold: 150, Wood: 100},
		BuildSeconds: 30,
		Trains:       []UnitVariant{UnitSoldier, UnitArcher, UnitHealer},
	},
	BuildingFarm: {
		Variant:      BuildingFarm,
		MaxHP:        300,
		Size:         60,
		Cost:         Cost{Gold: 60, Wood: 40},
		BuildSeconds: 20,
		Farms:        true,
		DepositPoint: true,
	},
	BuildingTower: {
		Variant:      BuildingTower,
		MaxHP:        400,
		Size:         50,
		Cost:         Cost{Gold: 100, Wood: 80},
		BuildSeconds: 25,
	},
	BuildingBlacksmith: {
		Variant:      BuildingBlacksmith,
		MaxHP:        450,
		Size:         70,
		Cost:         Cost{Gold: 120, Wood: 80},
		BuildSeconds: 30,
	},
	BuildingSiegeWorkshop: {
		Variant:      BuildingSiegeWorkshop,
		MaxHP:        500,
		Size:         90,
		Cost:         Cost{Gold: 180, Wood: 120},
		BuildSeconds: 40,
		Trains:       []UnitVariant{UnitCatapult},
	},
	BuildingWall: {
		Variant:      BuildingWall,
		MaxHP:        600,
		Size:         40,
		Cost:         Cost{Gold: 20, Wood: 40},
		BuildSeconds: 10,
	},
}

// GetBuildingStats returns the static definition for a variant.
// The second return is false for unknown variants.
func GetBuildingStats(v BuildingVariant) (BuildingStats, bool) {
	s, ok := buildingStats[v]
	return s, ok
}

// CanTrain reports whether the building variant produces the unit variant.
func (s BuildingStats) CanTrain(u UnitVariant) bool {
	for _, t := range s.Trains {
		if t == u {
			return true
		}
	}
	return false
}

// BuildTicks returns the construction duration in ticks.
func (s BuildingStats) BuildTicks() int {
	return s.BuildSeconds * TicksPerSecond
}

// ProgressPerTick returns the construction progress gained each tick.
func (s BuildingStats) ProgressPerTick() float64 {
	return 100.0 / float64(s.BuildTicks())
}

// NewBuilding creates a construction site at 10% HP and zero progress.
// The caller assigns the id.
func NewBuilding(id, ownerID string, variant BuildingVariant, x, y float64) *Building {
	s := buildingStats[variant]
	return &Building{
		ID:      id,
		OwnerID: ownerID,
		Variant: variant,
		X:       x,
		Y:       y,
		HP:      int(float64(s.MaxHP) * InitialBuildingProgressHP),
		MaxHP:   s.MaxHP,
		Size:    s.Size,
	}
}

// NewCompleteBuilding creates a finished building at full HP, used for
// match-start placement.
func NewCompleteBuilding(id, ownerID string, variant BuildingVariant, x, y float64) *Building {
	b := NewBuilding(id, ownerID, variant, x, y)
	b.HP = b.MaxHP
	b.Progress = 100
	return b
}

// UpgradeKind identifies a blacksmith research line.
type UpgradeKind string

const (
	UpgradeAttack  UpgradeKind = "attack"
	UpgradeDefense UpgradeKind = "defense"
	UpgradeRange   UpgradeKind = "range"
)

// UpgradeCost returns the price of researching the next level.
func UpgradeCost(level int) Cost {
	return Cost{Gold: 100 + 75*level, Wood: 50 + 50*level}
}

// UpgradeCap returns the maximum level for an upgrade kind.
func UpgradeCap(k UpgradeKind) int {
	if k == UpgradeRange {
		return MaxRangeUpgrade
	}
	return MaxAttackUpgrade
}
