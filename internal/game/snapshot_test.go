package game

import (
	"testing"
)

func snapshotHasUnit(s Snapshot, id string) bool {
	for _, u := range s.Units {
		if u.ID == id {
			return true
		}
	}
	return false
}

func snapshotHasBuilding(s Snapshot, id string) bool {
	for _, b := range s.Buildings {
		if b.ID == id {
			return true
		}
	}
	return false
}

func TestSnapshotForHidesUndiscoveredEnemies(t *testing.T) {
	e := newTestEngine(t)
	e.Tick()

	s := e.SnapshotFor("p1")

	for _, id := range []string{"unit_1", "unit_2", "unit_3"} {
		if !snapshotHasUnit(s, id) {
			t.Errorf("own unit %s missing from filtered snapshot", id)
		}
	}
	if !snapshotHasBuilding(s, "bld_1") {
		t.Error("own base missing from filtered snapshot")
	}

	// The enemy spawn is some 2300px away; nothing of theirs is in view.
	for _, id := range []string{"unit_4", "unit_5", "unit_6"} {
		if snapshotHasUnit(s, id) {
			t.Errorf("enemy unit %s leaked through the fog", id)
		}
	}
	if snapshotHasBuilding(s, "bld_2") {
		t.Error("enemy base leaked through the fog")
	}

	if len(s.Visible) == 0 || len(s.Discovered) == 0 {
		t.Error("fog layers missing from filtered snapshot")
	}
}

func TestScoutingRevealsAndDiscoveryPersists(t *testing.T) {
	e := newTestEngine(t)

	// Park a scout inside the enemy spawn square.
	scout := spawnAt(e, "p1", UnitWorker, 1960, 2060)
	e.Tick()

	s := e.SnapshotFor("p1")
	if !snapshotHasBuilding(s, "bld_2") {
		t.Fatal("enemy base not revealed by a nearby scout")
	}

	enemyVisible := 0
	for _, id := range []string{"unit_4", "unit_5", "unit_6"} {
		if snapshotHasUnit(s, id) {
			enemyVisible++
		}
	}
	if enemyVisible == 0 {
		t.Error("no enemy units visible next to the scout")
	}

	// Kill the scout: live enemies vanish, the discovered base stays.
	scout.HP = 0
	runTicks(e, 2)

	s = e.SnapshotFor("p1")
	if !snapshotHasBuilding(s, "bld_2") {
		t.Error("discovered enemy base forgotten after losing vision")
	}
	for _, id := range []string{"unit_4", "unit_5", "unit_6"} {
		if snapshotHasUnit(s, id) {
			t.Errorf("enemy unit %s still visible without any scout", id)
		}
	}
}

func TestFullSnapshotIsUnfiltered(t *testing.T) {
	e := newTestEngine(t)
	e.Tick()

	s := e.Snapshot()
	if len(s.Units) != 6 {
		t.Errorf("full snapshot has %d units, want 6", len(s.Units))
	}
	if len(s.Buildings) != 2 {
		t.Errorf("full snapshot has %d buildings, want 2", len(s.Buildings))
	}
	if len(s.Players) != 2 {
		t.Errorf("full snapshot has %d players, want 2", len(s.Players))
	}
	if s.Visible != nil || s.Discovered != nil {
		t.Error("full snapshot carries per-recipient fog layers")
	}
}

func TestSnapshotTickAdvances(t *testing.T) {
	e := newTestEngine(t)

	prev := e.SnapshotFor("p1").Tick
	for i := 0; i < 5; i++ {
		runTicks(e, 6)
		s := e.SnapshotFor("p1")
		if s.Tick <= prev {
			t.Fatalf("snapshot tick %d not greater than previous %d", s.Tick, prev)
		}
		prev = s.Tick
	}
}

func TestSnapshotIsValueCopy(t *testing.T) {
	e := newTestEngine(t)
	e.Tick()

	s := e.Snapshot()
	before := s.Units[0].X
	runTicks(e, 1)
	e.UnitByID(s.Units[0].ID).X += 100

	if s.Units[0].X != before {
		t.Error("snapshot aliased live engine state")
	}
}
