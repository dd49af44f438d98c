package game

import (
	"testing"

	"rts-arena/internal/config"
)

func TestWorkerGatherAndDeposit(t *testing.T) {
	e := newTestEngine(t)
	if len(e.Nodes()) == 0 {
		t.Fatal("map generated no resource nodes")
	}
	node := e.Nodes()[0]
	startAmount := node.Amount

	w := e.UnitByID("unit_1")
	w.X, w.Y = node.X+25, node.Y

	e.Apply("p1", &Action{Type: ActionGather, UnitID: "unit_1", TargetID: node.ID})
	if w.State != StateGathering {
		t.Fatalf("state = %s, want gathering", w.State)
	}

	// One point per interval until the carry slot fills.
	runTicks(e, GatherIntervalTicks*WorkerCarryCapacity+20)

	if w.CarryAmount != WorkerCarryCapacity {
		t.Fatalf("carry = %d, want %d", w.CarryAmount, WorkerCarryCapacity)
	}
	if node.Amount != startAmount-WorkerCarryCapacity {
		t.Errorf("node amount = %d, want %d", node.Amount, startAmount-WorkerCarryCapacity)
	}
	if w.State != StateReturning {
		t.Fatalf("state = %s, want returning with a full load", w.State)
	}

	// Skip the walk home; drop the worker next to its base.
	w.X, w.Y = 445, 380
	p := e.PlayerByID("p1")
	gold, wood := p.Gold, p.Wood
	kind := w.CarryKind

	runTicks(e, 2)

	switch kind {
	case ResourceGold:
		if p.Gold != gold+WorkerCarryCapacity {
			t.Errorf("gold = %d, want %d", p.Gold, gold+WorkerCarryCapacity)
		}
	case ResourceWood:
		if p.Wood != wood+WorkerCarryCapacity {
			t.Errorf("wood = %d, want %d", p.Wood, wood+WorkerCarryCapacity)
		}
	default:
		t.Fatalf("unexpected carry kind %q", kind)
	}
	if w.CarryAmount != 0 {
		t.Errorf("carry after deposit = %d, want 0", w.CarryAmount)
	}
	if w.State != StateGathering {
		t.Errorf("state after deposit = %s, want gathering (node remembered)", w.State)
	}
}

func TestGatherOnlyWorkers(t *testing.T) {
	e := newTestEngine(t)
	node := e.Nodes()[0]
	soldier := spawnAt(e, "p1", UnitSoldier, 280, 280)

	e.Apply("p1", &Action{Type: ActionGather, UnitID: soldier.ID, TargetID: node.ID})
	if soldier.State == StateGathering {
		t.Error("gather order accepted by a non-worker")
	}
}

func TestDepletedNodeSendsWorkerHome(t *testing.T) {
	e := newTestEngine(t)
	node := e.Nodes()[0]
	node.Amount = 3

	w := e.UnitByID("unit_1")
	w.X, w.Y = node.X+25, node.Y
	e.Apply("p1", &Action{Type: ActionGather, UnitID: "unit_1", TargetID: node.ID})

	runTicks(e, GatherIntervalTicks*5)

	if w.CarryAmount != 3 {
		t.Errorf("carry = %d, want the node's last 3 points", w.CarryAmount)
	}
	if w.State != StateReturning {
		t.Errorf("state = %s, want returning after depletion", w.State)
	}
	if e.NodeByID(node.ID) != nil {
		t.Error("depleted node still resolvable")
	}
}

func TestWorkerRepairsBuilding(t *testing.T) {
	e := newTestEngine(t)
	base := e.BuildingByID("bld_1")
	base.HP = 500

	w := e.UnitByID("unit_1")
	w.X, w.Y = 445, 380

	e.Apply("p1", &Action{Type: ActionRepair, UnitID: "unit_1", TargetID: "bld_1"})
	runTicks(e, RepairIntervalTicks*2+5)

	if base.HP != 500+2*RepairAmount {
		t.Errorf("base HP = %d, want %d after two repair intervals", base.HP, 500+2*RepairAmount)
	}
}

func TestRepairStopsAtFullHP(t *testing.T) {
	e := newTestEngine(t)
	base := e.BuildingByID("bld_1")
	base.HP = base.MaxHP - 1

	w := e.UnitByID("unit_1")
	w.X, w.Y = 445, 380

	e.Apply("p1", &Action{Type: ActionRepair, UnitID: "unit_1", TargetID: "bld_1"})
	runTicks(e, RepairIntervalTicks*3)

	if base.HP != base.MaxHP {
		t.Errorf("base HP = %d, want clamped at %d", base.HP, base.MaxHP)
	}
	if w.State != StateIdle {
		t.Errorf("worker state = %s, want idle once repairs finish", w.State)
	}
}

func TestAIIncomeTrickle(t *testing.T) {
	e, err := NewEngine(config.DefaultGame(), 42, DifficultyHard)
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

	human := e.PlayerByID("p1")
	ai := e.PlayerByID("ai_1")
	humanGold := human.Gold
	aiGold := ai.Gold

	runTicks(e, 100)

	// Hard difficulty trickles 0.65 gold per tick into the AI only. The AI
	// controller also spends, so measure net inflow minus known purchases.
	earned := ai.Gold - aiGold + aiSpentGold(e, "ai_1")
	if earned < 64 || earned > 65 {
		t.Errorf("AI earned %d gold over 100 ticks, want ~65", earned)
	}
	if human.Gold != humanGold {
		t.Errorf("human gold drifted to %d without any income source", human.Gold)
	}
}

// aiSpentGold totals the gold cost of everything the AI controller bought
// beyond its starting roster.
func aiSpentGold(e *Engine, aiID string) int {
	spent := 0
	for _, b := range e.Buildings() {
		if b.OwnerID == aiID && b.Variant != BuildingBase {
			stats, _ := GetBuildingStats(b.Variant)
			spent += stats.Cost.Gold
		}
		if b.OwnerID == aiID {
			for _, item := range b.Queue {
				stats, _ := GetUnitStats(item.Variant)
				spent += stats.Cost.Gold
			}
		}
	}
	for _, u := range e.Units() {
		if u.OwnerID == aiID && u.Variant != UnitWorker {
			stats, _ := GetUnitStats(u.Variant)
			spent += stats.Cost.Gold
		}
	}
	return spent
}
