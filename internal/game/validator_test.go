package game

import (
	"testing"
	"time"

	"rts-arena/internal/config"
)

// looseLimits keeps the rate gate out of the way for the shape/ownership
// tests.
func looseLimits() config.ActionLimits {
	return config.ActionLimits{PerSecond: 1000, PerMinute: 10000, MaxSkew: 5 * time.Second}
}

func TestValidateGates(t *testing.T) {
	e := newTestEngine(t)
	v := NewValidator(looseLimits(), e)
	node := e.Nodes()[0]

	cases := []struct {
		name   string
		player string
		action *Action
		reason string // empty means accept
	}{
		{"nil type", "p1", &Action{}, ReasonMalformed},
		{"move without units", "p1", &Action{Type: ActionMove, Target: &Point{X: 300, Y: 300}}, ReasonMalformed},
		{"move without target", "p1", &Action{Type: ActionMove, UnitID: "unit_1"}, ReasonMalformed},
		{"move ok", "p1", &Action{Type: ActionMove, UnitID: "unit_1", Target: &Point{X: 300, Y: 300}}, ""},
		{"batch move ok", "p1", &Action{Type: ActionMove, UnitIDs: []string{"unit_1", "unit_2"}, Target: &Point{X: 300, Y: 300}}, ""},
		{"unknown unit", "p1", &Action{Type: ActionMove, UnitID: "unit_99", Target: &Point{X: 300, Y: 300}}, ReasonUnknownEntity},
		{"enemy unit", "p1", &Action{Type: ActionMove, UnitID: "unit_4", Target: &Point{X: 300, Y: 300}}, ReasonNotYourUnit},
		{"enemy building", "p1", &Action{Type: ActionRally, BuildingID: "bld_2", Target: &Point{X: 300, Y: 300}}, ReasonNotYourBuilding},
		{"target out of bounds", "p1", &Action{Type: ActionMove, UnitID: "unit_1", Target: &Point{X: -10, Y: 300}}, ReasonOutOfBounds},
		{"attack own unit", "p1", &Action{Type: ActionAttack, UnitID: "unit_1", TargetID: "unit_2"}, ReasonBadTarget},
		{"attack enemy unit", "p1", &Action{Type: ActionAttack, UnitID: "unit_1", TargetID: "unit_4"}, ""},
		{"attack enemy building", "p1", &Action{Type: ActionAttack, UnitID: "unit_1", TargetID: "bld_2"}, ""},
		{"attack unknown", "p1", &Action{Type: ActionAttack, UnitID: "unit_1", TargetID: "ghost"}, ReasonUnknownEntity},
		{"gather live node", "p1", &Action{Type: ActionGather, UnitID: "unit_1", TargetID: node.ID}, ""},
		{"gather unknown node", "p1", &Action{Type: ActionGather, UnitID: "unit_1", TargetID: "node_999999"}, ReasonUnknownEntity},
		{"repair enemy building", "p1", &Action{Type: ActionRepair, UnitID: "unit_1", TargetID: "bld_2"}, ReasonNotYourBuilding},
		{"repair full building", "p1", &Action{Type: ActionRepair, UnitID: "unit_1", TargetID: "bld_1"}, ReasonBadTarget},
		{"heal enemy unit", "p1", &Action{Type: ActionHeal, UnitID: "unit_1", TargetID: "unit_4"}, ReasonBadTarget},
		{"produce without variant", "p1", &Action{Type: ActionProduce, BuildingID: "bld_1"}, ReasonMalformed},
		{"surrender ok", "p1", &Action{Type: ActionSurrender}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := v.Validate(tc.player, tc.action)
			if tc.reason == "" {
				if !res.Valid {
					t.Fatalf("rejected with %q, want accept", res.Reason)
				}
				return
			}
			if res.Valid {
				t.Fatalf("accepted, want rejection %q", tc.reason)
			}
			if res.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", res.Reason, tc.reason)
			}
		})
	}
}

func TestValidateImpassableTarget(t *testing.T) {
	e := newTestEngine(t)
	v := NewValidator(looseLimits(), e)
	m := e.Map()

	var blocked *Point
	for ty := 0; ty < m.Height && blocked == nil; ty++ {
		for tx := 0; tx < m.Width; tx++ {
			x := (float64(tx) + 0.5) * m.TileSize
			y := (float64(ty) + 0.5) * m.TileSize
			if !m.PassableAt(x, y) {
				blocked = &Point{X: x, Y: y}
				break
			}
		}
	}
	if blocked == nil {
		t.Skip("no impassable terrain on this seed")
	}

	res := v.Validate("p1", &Action{Type: ActionMove, UnitID: "unit_1", Target: blocked})
	if res.Valid || res.Reason != ReasonImpassable {
		t.Fatalf("move onto blocked terrain: got %+v, want %q", res, ReasonImpassable)
	}
	res = v.Validate("p1", &Action{Type: ActionAttackMove, UnitID: "unit_1", Target: blocked})
	if res.Valid || res.Reason != ReasonImpassable {
		t.Fatalf("attack-move onto blocked terrain: got %+v, want %q", res, ReasonImpassable)
	}

	// Catapults may shell unwalkable ground.
	cat := spawnAt(e, "p1", UnitCatapult, 280, 280)
	res = v.Validate("p1", &Action{Type: ActionAttackGround, UnitID: cat.ID, Target: blocked})
	if !res.Valid {
		t.Fatalf("attack-ground onto blocked terrain rejected: %q", res.Reason)
	}
}

func TestValidateBuildPlacement(t *testing.T) {
	e := newTestEngine(t)
	v := NewValidator(looseLimits(), e)

	// Clear ground inside the spawn square, far enough from the base.
	res := v.Validate("p1", &Action{Type: ActionBuild, Variant: string(BuildingFarm), Target: &Point{X: 290, Y: 290}})
	if !res.Valid {
		t.Fatalf("clean placement rejected: %q", res.Reason)
	}

	// Overlapping the base footprint.
	res = v.Validate("p1", &Action{Type: ActionBuild, Variant: string(BuildingFarm), Target: &Point{X: 390, Y: 390}})
	if res.Valid || res.Reason != ReasonBlockedPlacement {
		t.Fatalf("overlapping placement: got %+v, want %q", res, ReasonBlockedPlacement)
	}

	// Just inside the clearance band: centers 89px apart need at least
	// (100+60)/2 + 10 = 90.
	res = v.Validate("p1", &Action{Type: ActionBuild, Variant: string(BuildingFarm), Target: &Point{X: 380 - 89, Y: 380}})
	if res.Valid || res.Reason != ReasonBlockedPlacement {
		t.Fatalf("clearance violation: got %+v, want %q", res, ReasonBlockedPlacement)
	}

	// Unaffordable but geometrically fine.
	p := e.PlayerByID("p1")
	p.Gold = 0
	res = v.Validate("p1", &Action{Type: ActionBuild, Variant: string(BuildingFarm), Target: &Point{X: 290, Y: 290}})
	if res.Valid || res.Reason != ReasonInsufficient {
		t.Fatalf("unaffordable placement: got %+v, want %q", res, ReasonInsufficient)
	}
}

func TestValidateProduce(t *testing.T) {
	e := newTestEngine(t)
	v := NewValidator(looseLimits(), e)
	p := e.PlayerByID("p1")

	res := v.Validate("p1", &Action{Type: ActionProduce, BuildingID: "bld_1", Variant: string(UnitWorker)})
	if !res.Valid {
		t.Fatalf("valid produce rejected: %q", res.Reason)
	}

	// Bases cannot train soldiers.
	res = v.Validate("p1", &Action{Type: ActionProduce, BuildingID: "bld_1", Variant: string(UnitSoldier)})
	if res.Valid || res.Reason != ReasonBusy {
		t.Fatalf("wrong trainer: got %+v, want %q", res, ReasonBusy)
	}

	// Construction sites cannot produce.
	site := NewBuilding(e.newBuildingID(), "p1", BuildingBarracks, 290, 290)
	e.addBuilding(site)
	res = v.Validate("p1", &Action{Type: ActionProduce, BuildingID: site.ID, Variant: string(UnitSoldier)})
	if res.Valid || res.Reason != ReasonIncomplete {
		t.Fatalf("incomplete trainer: got %+v, want %q", res, ReasonIncomplete)
	}

	// Supply cap.
	p.Supply = p.MaxSupply
	res = v.Validate("p1", &Action{Type: ActionProduce, BuildingID: "bld_1", Variant: string(UnitWorker)})
	if res.Valid || res.Reason != ReasonSupplyCap {
		t.Fatalf("supply cap: got %+v, want %q", res, ReasonSupplyCap)
	}
	p.Supply = 3

	// Affordability.
	p.Gold = 0
	res = v.Validate("p1", &Action{Type: ActionProduce, BuildingID: "bld_1", Variant: string(UnitWorker)})
	if res.Valid || res.Reason != ReasonInsufficient {
		t.Fatalf("unaffordable produce: got %+v, want %q", res, ReasonInsufficient)
	}
}

func TestValidateUpgrade(t *testing.T) {
	e := newTestEngine(t)
	v := NewValidator(looseLimits(), e)
	p := e.PlayerByID("p1")

	res := v.Validate("p1", &Action{Type: ActionUpgrade, Variant: string(UpgradeAttack)})
	if !res.Valid {
		t.Fatalf("affordable upgrade rejected: %q", res.Reason)
	}

	res = v.Validate("p1", &Action{Type: ActionUpgrade, Variant: "teleport"})
	if res.Valid || res.Reason != ReasonMalformed {
		t.Fatalf("unknown upgrade kind: got %+v, want %q", res, ReasonMalformed)
	}

	p.Upgrades.Range = MaxRangeUpgrade
	res = v.Validate("p1", &Action{Type: ActionUpgrade, Variant: string(UpgradeRange)})
	if res.Valid || res.Reason != ReasonUpgradeCapped {
		t.Fatalf("capped upgrade: got %+v, want %q", res, ReasonUpgradeCapped)
	}

	p.Gold = 0
	res = v.Validate("p1", &Action{Type: ActionUpgrade, Variant: string(UpgradeAttack)})
	if res.Valid || res.Reason != ReasonInsufficient {
		t.Fatalf("unaffordable upgrade: got %+v, want %q", res, ReasonInsufficient)
	}
}

func TestValidateRateLimit(t *testing.T) {
	e := newTestEngine(t)
	v := NewValidator(config.ActionLimits{PerSecond: 3, PerMinute: 5, MaxSkew: 5 * time.Second}, e)

	cur := time.Unix(1_700_000_000, 0)
	v.now = func() time.Time { return cur }

	ping := &Action{Type: ActionStop, UnitID: "unit_1"}

	for i := 0; i < 3; i++ {
		if res := v.Validate("p1", ping); !res.Valid {
			t.Fatalf("action %d rejected: %q", i, res.Reason)
		}
	}
	if res := v.Validate("p1", ping); res.Valid || res.Reason != ReasonRateLimited {
		t.Fatalf("4th action in one second: got %+v, want %q", res, ReasonRateLimited)
	}

	// Another player is unaffected.
	if res := v.Validate("p2", &Action{Type: ActionStop, UnitID: "unit_4"}); !res.Valid {
		t.Fatalf("other player throttled: %q", res.Reason)
	}

	// A fresh second clears the short window but the minute cap holds.
	cur = cur.Add(2 * time.Second)
	for i := 0; i < 2; i++ {
		if res := v.Validate("p1", ping); !res.Valid {
			t.Fatalf("action after window reset rejected: %q", res.Reason)
		}
	}
	if res := v.Validate("p1", ping); res.Valid || res.Reason != ReasonRateLimited {
		t.Fatalf("6th action in one minute: got %+v, want %q", res, ReasonRateLimited)
	}

	// The minute rolling over clears everything.
	cur = cur.Add(61 * time.Second)
	if res := v.Validate("p1", ping); !res.Valid {
		t.Fatalf("action after minute reset rejected: %q", res.Reason)
	}

	// Forget drops the window outright.
	for i := 0; i < 3; i++ {
		v.Validate("p1", ping)
	}
	v.Forget("p1")
	if res := v.Validate("p1", ping); !res.Valid {
		t.Fatalf("action after Forget rejected: %q", res.Reason)
	}
}

func TestValidateClockSkew(t *testing.T) {
	e := newTestEngine(t)
	v := NewValidator(looseLimits(), e)

	cur := time.Unix(1_700_000_000, 0)
	v.now = func() time.Time { return cur }

	stale := &Action{Type: ActionStop, UnitID: "unit_1", Timestamp: cur.Add(-6 * time.Second).UnixMilli()}
	if res := v.Validate("p1", stale); res.Valid || res.Reason != ReasonClockSkew {
		t.Fatalf("stale timestamp: got %+v, want %q", res, ReasonClockSkew)
	}

	future := &Action{Type: ActionStop, UnitID: "unit_1", Timestamp: cur.Add(6 * time.Second).UnixMilli()}
	if res := v.Validate("p1", future); res.Valid || res.Reason != ReasonClockSkew {
		t.Fatalf("future timestamp: got %+v, want %q", res, ReasonClockSkew)
	}

	fresh := &Action{Type: ActionStop, UnitID: "unit_1", Timestamp: cur.Add(-2 * time.Second).UnixMilli()}
	if res := v.Validate("p1", fresh); !res.Valid {
		t.Fatalf("fresh timestamp rejected: %q", res.Reason)
	}

	// Zero means the client did not supply one.
	missing := &Action{Type: ActionStop, UnitID: "unit_1"}
	if res := v.Validate("p1", missing); !res.Valid {
		t.Fatalf("missing timestamp rejected: %q", res.Reason)
	}
}

func TestValidatorNeverMutates(t *testing.T) {
	e := newTestEngine(t)
	v := NewValidator(looseLimits(), e)
	p := e.PlayerByID("p1")

	v.Validate("p1", &Action{Type: ActionBuild, Variant: string(BuildingFarm), Target: &Point{X: 290, Y: 290}})
	v.Validate("p1", &Action{Type: ActionProduce, BuildingID: "bld_1", Variant: string(UnitWorker)})

	if p.Gold != 200 || p.Wood != 100 || p.Supply != 3 {
		t.Error("validation changed player state")
	}
	if len(e.BuildingByID("bld_1").Queue) != 0 {
		t.Error("validation queued production")
	}
}
