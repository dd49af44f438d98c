package game

import (
	"strings"
	"testing"
)

func TestBaseLossEliminates(t *testing.T) {
	e := newTestEngine(t)

	e.BuildingByID("bld_2").HP = 0
	e.Tick()

	over, winner, reason := e.GameOver()
	if !over {
		t.Fatal("match not resolved after last base fell")
	}
	if winner != "p1" {
		t.Errorf("winner = %q, want p1", winner)
	}
	if !strings.Contains(reason, "elimination") {
		t.Errorf("reason = %q, want an elimination message", reason)
	}
	if !e.PlayerByID("p2").Eliminated {
		t.Error("p2 not flagged eliminated")
	}
}

func TestSimultaneousDestructionIsADraw(t *testing.T) {
	e := newTestEngine(t)

	e.BuildingByID("bld_1").HP = 0
	e.BuildingByID("bld_2").HP = 0
	e.Tick()

	over, winner, reason := e.GameOver()
	if !over {
		t.Fatal("match not resolved")
	}
	if winner != "" {
		t.Errorf("winner = %q, want none", winner)
	}
	if reason != "draw" {
		t.Errorf("reason = %q, want draw", reason)
	}
}

func TestSecondBaseKeepsPlayerAlive(t *testing.T) {
	e := newTestEngine(t)
	e.addBuilding(NewCompleteBuilding(e.newBuildingID(), "p2", BuildingBase, 1800, 1800))

	e.BuildingByID("bld_2").HP = 0
	e.Tick()

	if over, _, _ := e.GameOver(); over {
		t.Fatal("match resolved while p2 still holds a base")
	}
	if e.PlayerByID("p2").Eliminated {
		t.Error("p2 eliminated despite a standing base")
	}
}

// A construction site counts as a standing base the moment it is placed.
func TestBaseSiteCountsAsStanding(t *testing.T) {
	e := newTestEngine(t)
	e.addBuilding(NewBuilding(e.newBuildingID(), "p2", BuildingBase, 1800, 1800))

	e.BuildingByID("bld_2").HP = 0
	e.Tick()

	if over, _, _ := e.GameOver(); over {
		t.Fatal("match resolved while p2 still has a base under construction")
	}
}

func TestTerminalStateLatches(t *testing.T) {
	e := newTestEngine(t)

	e.BuildingByID("bld_2").HP = 0
	e.Tick()
	_, winner, _ := e.GameOver()
	tick := e.TickCount()

	runTicks(e, 10)

	if e.TickCount() != tick {
		t.Error("engine kept ticking after the match resolved")
	}
	if _, w, _ := e.GameOver(); w != winner {
		t.Error("terminal result changed after resolution")
	}

	// Late actions are ignored.
	e.Apply("p1", &Action{Type: ActionProduce, BuildingID: "bld_1", Variant: string(UnitWorker)})
	if len(e.BuildingByID("bld_1").Queue) != 0 {
		t.Error("action applied after game over")
	}
}
