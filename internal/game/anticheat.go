package game

import (
	"fmt"
	"sync"
	"time"
)

// Severity classifies an anti-cheat finding.
type Severity string

const (
	SeverityNone       Severity = "none"
	SeveritySuspicious Severity = "suspicious"
	SeverityConfirmed  Severity = "confirmed"
)

// CheatEvent is a single anti-cheat finding. Events are reported, never
// acted on automatically; policy belongs to the operator.
type CheatEvent struct {
	PlayerID string    `json:"playerId"`
	Severity Severity  `json:"severity"`
	Detail   string    `json:"detail"`
	Tick     int64     `json:"tick"`
	At       time.Time `json:"at"`
}

// Action pacing thresholds, sustained per minute.
const (
	suspiciousActionsPerMinute = 30
	confirmedActionsPerMinute  = 60
)

// Resource drift tolerances against the expected ledger.
const (
	suspiciousDrift = 5
	confirmedDrift  = 50
)

// Stat inflation factors over the static definitions.
const (
	statHPFactor    = 1.5
	statDmgFactor   = 2.0
	statRangeFactor = 2.0
	statSpeedFactor = 1.5
)

// Monitor watches one room for impossible client behavior. It observes and
// reports only; it never mutates engine state.
type Monitor struct {
	mu     sync.Mutex
	counts map[string][]time.Time
	events []CheatEvent

	now func() time.Time
}

// NewMonitor creates an empty monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		counts: make(map[string][]time.Time),
		now:    time.Now,
	}
}

// ObserveAction records one accepted action and flags sustained inhuman
// pacing. The rate limiter bounds bursts; this catches a client pinned at
// the limit for a full minute.
func (m *Monitor) ObserveAction(playerID string, tick int64) Severity {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w := m.counts[playerID]
	n := 0
	for _, t := range w {
		if now.Sub(t) < time.Minute {
			w[n] = t
			n++
		}
	}
	w = append(w[:n], now)
	m.counts[playerID] = w

	switch {
	case len(w) > confirmedActionsPerMinute:
		m.record(playerID, SeverityConfirmed, fmt.Sprintf("sustained %d actions/min", len(w)), tick)
		return SeverityConfirmed
	case len(w) > suspiciousActionsPerMinute:
		m.record(playerID, SeveritySuspicious, fmt.Sprintf("sustained %d actions/min", len(w)), tick)
		return SeveritySuspicious
	}
	return SeverityNone
}

// CheckResourceDrift compares a player's actual resources against an
// externally tracked expected ledger. Small drift is accounting noise;
// large drift means the state was tampered with.
func (m *Monitor) CheckResourceDrift(playerID string, expectedGold, expectedWood int, p *Player, tick int64) Severity {
	if p == nil {
		return SeverityNone
	}
	dg := p.Gold - expectedGold
	if dg < 0 {
		dg = -dg
	}
	dw := p.Wood - expectedWood
	if dw < 0 {
		dw = -dw
	}
	drift := dg
	if dw > drift {
		drift = dw
	}

	switch {
	case drift > confirmedDrift:
		m.recordLocked(playerID, SeverityConfirmed, fmt.Sprintf("resource drift %d", drift), tick)
		return SeverityConfirmed
	case drift > suspiciousDrift:
		m.recordLocked(playerID, SeveritySuspicious, fmt.Sprintf("resource drift %d", drift), tick)
		return SeveritySuspicious
	}
	return SeverityNone
}

// AuditState sweeps live entities for stats no legitimate client could
// produce: inflated unit stats or positions outside the world.
func (m *Monitor) AuditState(e *Engine) []CheatEvent {
	var found []CheatEvent
	tick := e.TickCount()

	for _, u := range e.Units() {
		stats, ok := GetUnitStats(u.Variant)
		if !ok {
			continue
		}
		switch {
		case float64(u.MaxHP) > float64(stats.MaxHP)*statHPFactor:
			found = append(found, m.recordLocked(u.OwnerID, SeverityConfirmed,
				fmt.Sprintf("unit %s hp %d exceeds limit", u.ID, u.MaxHP), tick))
		case float64(u.AttackDamage) > float64(stats.AttackDamage)*statDmgFactor:
			found = append(found, m.recordLocked(u.OwnerID, SeverityConfirmed,
				fmt.Sprintf("unit %s damage %d exceeds limit", u.ID, u.AttackDamage), tick))
		case u.AttackRange > stats.AttackRange*statRangeFactor:
			found = append(found, m.recordLocked(u.OwnerID, SeverityConfirmed,
				fmt.Sprintf("unit %s range %.0f exceeds limit", u.ID, u.AttackRange), tick))
		case u.Speed > stats.Speed*statSpeedFactor:
			found = append(found, m.recordLocked(u.OwnerID, SeverityConfirmed,
				fmt.Sprintf("unit %s speed %.2f exceeds limit", u.ID, u.Speed), tick))
		case !e.Map().InBounds(u.X, u.Y):
			found = append(found, m.recordLocked(u.OwnerID, SeverityConfirmed,
				fmt.Sprintf("unit %s outside world at (%.0f, %.0f)", u.ID, u.X, u.Y), tick))
		}
	}
	return found
}

// Events returns a copy of everything recorded so far.
func (m *Monitor) Events() []CheatEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CheatEvent(nil), m.events...)
}

// Forget drops a player's pacing window, for room leave cleanup.
func (m *Monitor) Forget(playerID string) {
	m.mu.Lock()
	delete(m.counts, playerID)
	m.mu.Unlock()
}

// record appends an event; caller holds the lock.
func (m *Monitor) record(playerID string, sev Severity, detail string, tick int64) CheatEvent {
	ev := CheatEvent{
		PlayerID: playerID,
		Severity: sev,
		Detail:   detail,
		Tick:     tick,
		At:       m.now(),
	}
	m.events = append(m.events, ev)
	return ev
}

// recordLocked appends an event, taking the lock itself.
func (m *Monitor) recordLocked(playerID string, sev Severity, detail string, tick int64) CheatEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.record(playerID, sev, detail, tick)
}
