package game

import (
	"testing"

	"rts-arena/internal/config"
)

func newSinglePlayerEngine(t *testing.T, d Difficulty) *Engine {
	t.Helper()
	e, err := NewEngine(config.DefaultGame(), 42, d)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	if _, err := e.AddPlayer("p1", "Alice", TeamHost); err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddAI("ai_1", "Computer"); err != nil {
		t.Fatal(err)
	}
	if err := e.Initialize(); err != nil {
		t.Fatal(err)
	}
	return e
}

func TestAIOpensWithEconomyAndBarracks(t *testing.T) {
	e := newSinglePlayerEngine(t, DifficultyNormal)

	// First decision pass fires on the very first tick.
	runTicks(e, 2)

	gathering := 0
	for _, u := range e.Units() {
		if u.OwnerID == "ai_1" && u.State == StateGathering {
			gathering++
		}
	}
	if gathering == 0 {
		t.Error("AI left all workers idle")
	}

	var barracks *Building
	for _, b := range e.Buildings() {
		if b.OwnerID == "ai_1" && b.Variant == BuildingBarracks {
			barracks = b
		}
	}
	if barracks == nil {
		t.Fatal("AI never placed a barracks")
	}
	if barracks.Complete() {
		t.Error("fresh AI barracks must start as a construction site")
	}
}

func TestAITrainsSoldiersOnceBarracksStands(t *testing.T) {
	e := newSinglePlayerEngine(t, DifficultyNormal)

	// Fund the AI so the opener never stalls on resources.
	ai := e.PlayerByID("ai_1")
	ai.Gold, ai.Wood = 2000, 2000

	// Barracks construction takes 30s; give the AI time to finish it and
	// run a few more decision passes.
	runTicks(e, BuildingBarracks.buildTicksForTest()+3*aiThinkInterval)

	queued := 0
	for _, b := range e.Buildings() {
		if b.OwnerID == "ai_1" && b.Variant == BuildingBarracks {
			queued += len(b.Queue)
		}
	}
	soldiers := 0
	for _, u := range e.Units() {
		if u.OwnerID == "ai_1" && u.Variant == UnitSoldier {
			soldiers++
		}
	}
	if queued == 0 && soldiers == 0 {
		t.Error("AI never queued a soldier after its barracks completed")
	}
}

// buildTicksForTest resolves the construction duration for a variant.
func (v BuildingVariant) buildTicksForTest() int {
	stats, _ := GetBuildingStats(v)
	return stats.BuildTicks()
}

func TestAIObeysCostRules(t *testing.T) {
	e := newSinglePlayerEngine(t, DifficultyNormal)
	ai := e.PlayerByID("ai_1")
	ai.Gold, ai.Wood = 0, 0

	buildingsBefore := len(e.Buildings())
	runTicks(e, 2)

	if len(e.Buildings()) != buildingsBefore {
		t.Error("broke AI still placed a building")
	}
}

func TestDifficultyMultipliers(t *testing.T) {
	cases := []struct {
		d    Difficulty
		want float64
	}{
		{DifficultyEasy, 0.7},
		{DifficultyNormal, 1.0},
		{DifficultyHard, 1.3},
		{Difficulty("unknown"), 1.0},
	}
	for _, tc := range cases {
		if got := tc.d.Multiplier(); got != tc.want {
			t.Errorf("%s multiplier = %v, want %v", tc.d, got, tc.want)
		}
	}
}

func TestAIDamageMultiplierSinglePlayerOnly(t *testing.T) {
	// AI-owned arrow in a hard single-player room hits for 1.3x.
	e := newSinglePlayerEngine(t, DifficultyHard)
	archer := spawnAt(e, "ai_1", UnitArcher, 280, 280)
	victim := spawnAt(e, "p1", UnitWorker, 350, 280)

	e.Apply("ai_1", &Action{Type: ActionAttack, UnitID: archer.ID, TargetID: victim.ID})
	runTicks(e, 20)

	want := 50 - 10 // round(8 * 1.3)
	if victim.HP != want {
		t.Errorf("victim HP = %d, want %d with the hard multiplier", victim.HP, want)
	}

	// The human's shots are never scaled.
	e2 := newSinglePlayerEngine(t, DifficultyHard)
	archer2 := spawnAt(e2, "p1", UnitArcher, 280, 280)
	victim2 := spawnAt(e2, "ai_1", UnitWorker, 350, 280)

	e2.Apply("p1", &Action{Type: ActionAttack, UnitID: archer2.ID, TargetID: victim2.ID})
	runTicks(e2, 20)

	if victim2.HP != 42 {
		t.Errorf("victim HP = %d, want 42 without scaling", victim2.HP)
	}
}
