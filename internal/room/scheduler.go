package room

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"rts-arena/internal/config"
	"rts-arena/internal/game"
)

// Sink receives the scheduler's outbound traffic. The WebSocket hub
// implements it; tests use a recording fake.
type Sink interface {
	GameStart(roomID string, info game.StartInfo)
	Snapshot(roomID, playerID string, snap game.Snapshot)
	ActionAccepted(roomID, playerID, actionID string)
	ActionRejected(roomID, playerID, actionID, reason string)
	GameOver(roomID, winner, reason string)
}

// actionQueueSize bounds the per-room inbound buffer; a full queue sheds
// load instead of blocking transport goroutines.
const actionQueueSize = 256

// pendingAction is one enqueued command with its arrival metadata.
type pendingAction struct {
	playerID string
	action   *game.Action
	arrival  time.Time
	seq      uint64
	trusted  bool // room-manager injections skip validation
}

// Scheduler is the single goroutine that owns one room's engine. Actions
// arrive on a channel from transport goroutines and are drained only at
// tick boundaries, ordered by (arrival, playerID), so the engine itself
// never needs a lock.
type Scheduler struct {
	roomID    string
	engine    *game.Engine
	validator *game.Validator
	monitor   *game.Monitor
	sink      Sink

	tickInterval time.Duration
	ticksPerSnap int
	auditEvery   int

	actions  chan pendingAction
	pauseCh  chan bool
	stopCh   chan struct{}
	stopOnce sync.Once
	seq      uint64
	curTick  int64 // atomic; last completed engine tick

	// trusted holds manager injections (surrenders). Separate from the
	// bounded channel so a flooded queue can never swallow one.
	trustedMu sync.Mutex
	trusted   []pendingAction

	// OnTick reports per-tick wall time, for metrics wiring.
	OnTick func(time.Duration)
	// OnEnded fires once when the match resolves.
	OnEnded func(winner, reason string)
	// OnCheat receives each new anti-cheat finding as it is recorded.
	OnCheat func(game.CheatEvent)
}

// NewScheduler wires a scheduler to one engine. Run must be called on its
// own goroutine.
func NewScheduler(roomID string, engine *game.Engine, validator *game.Validator, monitor *game.Monitor, cfg config.GameConfig, sink Sink) *Scheduler {
	ticksPerSnap := cfg.TickRate / cfg.SnapshotRate
	if ticksPerSnap < 1 {
		ticksPerSnap = 1
	}
	auditEvery := cfg.TickRate
	if auditEvery < 1 {
		auditEvery = 1
	}
	return &Scheduler{
		roomID:       roomID,
		engine:       engine,
		validator:    validator,
		monitor:      monitor,
		sink:         sink,
		tickInterval: time.Second / time.Duration(cfg.TickRate),
		ticksPerSnap: ticksPerSnap,
		auditEvery:   auditEvery,
		actions:      make(chan pendingAction, actionQueueSize),
		pauseCh:      make(chan bool, 4),
		stopCh:       make(chan struct{}),
	}
}

// Submit queues a player action for the next tick boundary. Never blocks;
// a full queue rejects the action outright.
func (s *Scheduler) Submit(playerID string, a *game.Action) error {
	pa := pendingAction{
		playerID: playerID,
		action:   a,
		arrival:  time.Now(),
		seq:      atomic.AddUint64(&s.seq, 1),
	}
	select {
	case s.actions <- pa:
		return nil
	case <-s.stopCh:
		return fmt.Errorf("match stopped")
	default:
		return fmt.Errorf("action queue full")
	}
}

// SubmitTrusted queues a manager-originated action (surrender injection)
// that bypasses validation. Trusted actions ride their own unbounded
// slice: a flood that fills the player queue cannot drop them.
func (s *Scheduler) SubmitTrusted(playerID string, a *game.Action) {
	pa := pendingAction{
		playerID: playerID,
		action:   a,
		arrival:  time.Now(),
		seq:      atomic.AddUint64(&s.seq, 1),
		trusted:  true,
	}
	s.trustedMu.Lock()
	s.trusted = append(s.trusted, pa)
	s.trustedMu.Unlock()
}

// DropPending discards a player's queued actions, for disconnect and
// leave cleanup. Trusted injections are kept.
func (s *Scheduler) DropPending(playerID string) {
	var keep []pendingAction
	for {
		select {
		case pa := <-s.actions:
			if pa.playerID != playerID {
				keep = append(keep, pa)
			}
		default:
			for _, pa := range keep {
				select {
				case s.actions <- pa:
				default:
				}
			}
			return
		}
	}
}

// Pause suspends ticking; queued actions wait untouched.
func (s *Scheduler) Pause() {
	select {
	case s.pauseCh <- true:
	case <-s.stopCh:
	}
}

// Resume continues ticking after a pause.
func (s *Scheduler) Resume() {
	select {
	case s.pauseCh <- false:
	case <-s.stopCh:
	}
}

// Stop terminates the loop. Idempotent.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// TickNow reports the last completed engine tick. Safe from any
// goroutine; the transport uses it for pong replies.
func (s *Scheduler) TickNow() int64 {
	return atomic.LoadInt64(&s.curTick)
}

// Run is the room's simulation loop: fixed-rate ticks, snapshot broadcast
// every Nth tick, terminal broadcast and shutdown once the match resolves.
func (s *Scheduler) Run() {
	ticker := time.NewTicker(s.tickInterval)
	defer ticker.Stop()

	paused := false
	sinceSnap := 0
	sinceAudit := 0
	forwarded := 0
	pending := make([]pendingAction, 0, actionQueueSize)
	var held []pendingAction

	for {
		select {
		case <-s.stopCh:
			return

		case p := <-s.pauseCh:
			paused = p

		case <-ticker.C:
			if paused {
				continue
			}

			pending = s.drainTrusted(pending[:0])
			pending = append(pending, held...)
			held = held[:0]
			pending = s.drain(pending)
			held = s.applyPending(pending, held)

			start := time.Now()
			s.engine.Tick()
			atomic.StoreInt64(&s.curTick, s.engine.TickCount())
			if s.OnTick != nil {
				s.OnTick(time.Since(start))
			}

			sinceAudit++
			if sinceAudit >= s.auditEvery {
				sinceAudit = 0
				s.audit()
				forwarded = s.forwardFindings(forwarded)
			}

			if over, winner, reason := s.engine.GameOver(); over {
				s.broadcastSnapshots()
				s.sink.GameOver(s.roomID, winner, reason)
				if s.OnEnded != nil {
					s.OnEnded(winner, reason)
				}
				s.Stop()
				return
			}

			sinceSnap++
			if sinceSnap >= s.ticksPerSnap {
				sinceSnap = 0
				s.broadcastSnapshots()
			}
		}
	}
}

// drainTrusted moves queued manager injections into the tick batch.
func (s *Scheduler) drainTrusted(buf []pendingAction) []pendingAction {
	s.trustedMu.Lock()
	buf = append(buf, s.trusted...)
	s.trusted = s.trusted[:0]
	s.trustedMu.Unlock()
	return buf
}

// audit runs the once-per-second anti-cheat sweep: entity stat audit plus
// the resource drift check against each player's shadow ledger.
func (s *Scheduler) audit() {
	s.monitor.AuditState(s.engine)
	tick := s.engine.TickCount()
	for _, pid := range s.engine.PlayerIDs() {
		p := s.engine.PlayerByID(pid)
		if p == nil {
			continue
		}
		gold, wood := p.Ledger()
		s.monitor.CheckResourceDrift(pid, gold, wood, p, tick)
	}
}

// forwardFindings pushes monitor events recorded since the last audit to
// OnCheat, returning the new high-water mark.
func (s *Scheduler) forwardFindings(from int) int {
	events := s.monitor.Events()
	if s.OnCheat != nil {
		for _, ev := range events[from:] {
			s.OnCheat(ev)
		}
	}
	return len(events)
}

// drain empties the action channel without blocking.
func (s *Scheduler) drain(buf []pendingAction) []pendingAction {
	for {
		select {
		case pa := <-s.actions:
			buf = append(buf, pa)
		default:
			return buf
		}
	}
}

// applyPending validates and applies one tick's worth of actions in
// deterministic order: arrival time, then player id, then sequence.
// Actions pinned to a future tick are returned in held for a later tick.
func (s *Scheduler) applyPending(pending, held []pendingAction) []pendingAction {
	sort.Slice(pending, func(i, j int) bool {
		a, b := pending[i], pending[j]
		if !a.arrival.Equal(b.arrival) {
			return a.arrival.Before(b.arrival)
		}
		if a.playerID != b.playerID {
			return a.playerID < b.playerID
		}
		return a.seq < b.seq
	})

	cur := s.engine.TickCount()
	for _, pa := range pending {
		if pa.trusted {
			s.engine.Apply(pa.playerID, pa.action)
			continue
		}
		if pa.action != nil && pa.action.ClientTick > cur {
			held = append(held, pa)
			continue
		}
		res := s.validator.Validate(pa.playerID, pa.action)
		if !res.Valid {
			s.sink.ActionRejected(s.roomID, pa.playerID, pa.action.ID, res.Reason)
			continue
		}
		s.monitor.ObserveAction(pa.playerID, cur)
		s.engine.Apply(pa.playerID, pa.action)
		s.engine.LogAction(pa.playerID, pa.action)
		s.sink.ActionAccepted(s.roomID, pa.playerID, pa.action.ID)
	}
	return held
}

// broadcastSnapshots sends each human player their fog-filtered view.
func (s *Scheduler) broadcastSnapshots() {
	for _, pid := range s.engine.PlayerIDs() {
		p := s.engine.PlayerByID(pid)
		if p == nil || p.Team == game.TeamAI {
			continue
		}
		s.sink.Snapshot(s.roomID, pid, s.engine.SnapshotFor(pid))
	}
}
