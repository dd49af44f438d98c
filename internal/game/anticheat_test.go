package game

import (
	"strings"
	"testing"
	"time"
)

func newTestMonitor() (*Monitor, *time.Time) {
	m := NewMonitor()
	cur := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return cur }
	return m, &cur
}

func TestObserveActionPacing(t *testing.T) {
	m, _ := newTestMonitor()

	for i := 0; i < suspiciousActionsPerMinute; i++ {
		if sev := m.ObserveAction("p1", int64(i)); sev != SeverityNone {
			t.Fatalf("action %d flagged %s below the threshold", i, sev)
		}
	}

	if sev := m.ObserveAction("p1", 100); sev != SeveritySuspicious {
		t.Fatalf("crossing the suspicious threshold gave %s", sev)
	}

	for i := 0; i < confirmedActionsPerMinute-suspiciousActionsPerMinute-1; i++ {
		m.ObserveAction("p1", 200)
	}
	if sev := m.ObserveAction("p1", 300); sev != SeverityConfirmed {
		t.Fatalf("crossing the confirmed threshold gave %s", sev)
	}

	if len(m.Events()) == 0 {
		t.Error("no cheat events recorded")
	}
}

func TestObserveActionWindowSlides(t *testing.T) {
	m, cur := newTestMonitor()

	for i := 0; i < suspiciousActionsPerMinute; i++ {
		m.ObserveAction("p1", int64(i))
	}
	*cur = cur.Add(61 * time.Second)

	if sev := m.ObserveAction("p1", 999); sev != SeverityNone {
		t.Errorf("stale window still flagged %s", sev)
	}
}

func TestForgetDropsPacingWindow(t *testing.T) {
	m, _ := newTestMonitor()

	for i := 0; i < suspiciousActionsPerMinute; i++ {
		m.ObserveAction("p1", int64(i))
	}
	m.Forget("p1")

	if sev := m.ObserveAction("p1", 999); sev != SeverityNone {
		t.Errorf("forgotten player still flagged %s", sev)
	}
}

func TestCheckResourceDrift(t *testing.T) {
	m, _ := newTestMonitor()
	p := &Player{ID: "p1"}

	cases := []struct {
		name     string
		gold     int
		expected int
		want     Severity
	}{
		{"exact", 100, 100, SeverityNone},
		{"accounting noise", 104, 100, SeverityNone},
		{"small drift", 120, 100, SeveritySuspicious},
		{"negative drift", 100, 120, SeveritySuspicious},
		{"tampered", 200, 100, SeverityConfirmed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p.Gold = tc.gold
			p.Wood = 0
			if got := m.CheckResourceDrift("p1", tc.expected, 0, p, 0); got != tc.want {
				t.Errorf("drift severity = %s, want %s", got, tc.want)
			}
		})
	}

	if m.CheckResourceDrift("p1", 0, 0, nil, 0) != SeverityNone {
		t.Error("nil player must not be flagged")
	}
}

func TestAuditStateFlagsInflatedStats(t *testing.T) {
	e := newTestEngine(t)

	hacked := e.UnitByID("unit_1")
	stats, _ := GetUnitStats(hacked.Variant)
	hacked.Speed = stats.Speed * 3

	stray := e.UnitByID("unit_2")
	stray.X = -500

	m := NewMonitor()
	found := m.AuditState(e)

	if len(found) != 2 {
		t.Fatalf("audit found %d events, want 2", len(found))
	}
	var speedHit, boundsHit bool
	for _, ev := range found {
		if ev.Severity != SeverityConfirmed {
			t.Errorf("audit severity = %s, want confirmed", ev.Severity)
		}
		if strings.Contains(ev.Detail, "speed") {
			speedHit = true
		}
		if strings.Contains(ev.Detail, "outside world") {
			boundsHit = true
		}
	}
	if !speedHit || !boundsHit {
		t.Errorf("audit details missed a finding: %+v", found)
	}
}

func TestAuditStatePassesLegitimateState(t *testing.T) {
	e := newTestEngine(t)
	runTicks(e, 30)

	m := NewMonitor()
	if found := m.AuditState(e); len(found) != 0 {
		t.Errorf("audit flagged a clean match: %+v", found)
	}
}

func TestMonitorNeverMutates(t *testing.T) {
	e := newTestEngine(t)
	m := NewMonitor()

	before := e.Snapshot()
	m.ObserveAction("p1", 0)
	m.AuditState(e)
	after := e.Snapshot()

	if len(before.Units) != len(after.Units) || before.Players[0].Gold != after.Players[0].Gold {
		t.Error("monitor mutated engine state")
	}
}
