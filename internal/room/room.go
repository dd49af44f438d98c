package room

import (
	"fmt"
	"sync"
	"time"

	"rts-arena/internal/config"
	"rts-arena/internal/game"
)

// Status is the room lifecycle state.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

// Member is one human participant's roster entry. The first member is the
// host; leaving promotes the next in join order.
type Member struct {
	ID        string
	Name      string
	Ready     bool
	Connected bool
	LastPing  time.Time

	// graceTimer fires elimination if the member does not reconnect
	// within the grace window. Nil while connected.
	graceTimer *time.Timer
}

// MemberInfo is the REST view of a roster entry.
type MemberInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Host      bool   `json:"host"`
	Ready     bool   `json:"ready"`
	Connected bool   `json:"connected"`
}

// Info is the REST view of a room.
type Info struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Status       Status          `json:"status"`
	Players      []MemberInfo    `json:"players"`
	SinglePlayer bool            `json:"singlePlayer"`
	Difficulty   game.Difficulty `json:"difficulty,omitempty"`
	Seed         int64           `json:"seed"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Room is one match lobby and, once started, its running simulation. Room
// state (roster, status) has its own lock because HTTP handlers, WebSocket
// readers and the scheduler all touch it; engine state stays single-owner
// behind the scheduler.
type Room struct {
	ID           string
	Name         string
	Seed         int64
	Difficulty   game.Difficulty
	SinglePlayer bool
	CreatedAt    time.Time

	cfg      config.AppConfig
	sink     Sink
	tickObs  func(time.Duration)
	cheatObs func(playerID, severity string)
	eventLog *game.EventLog

	mu        sync.Mutex
	status    Status
	members   []*Member
	engine    *game.Engine
	validator *game.Validator
	monitor   *game.Monitor
	scheduler *Scheduler
}

func newRoom(id, name string, seed int64, singlePlayer bool, difficulty game.Difficulty, cfg config.AppConfig, sink Sink) *Room {
	return &Room{
		ID:           id,
		Name:         name,
		Seed:         seed,
		Difficulty:   difficulty,
		SinglePlayer: singlePlayer,
		CreatedAt:    time.Now(),
		cfg:          cfg,
		sink:         sink,
		status:       StatusWaiting,
	}
}

// Join adds a player to a waiting room. Rejoining with a known player id
// is idempotent before the match and a reconnect during it.
func (r *Room) Join(playerID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m := r.member(playerID); m != nil {
		// Reconnect path.
		m.Connected = true
		m.LastPing = time.Now()
		if m.graceTimer != nil {
			m.graceTimer.Stop()
			m.graceTimer = nil
		}
		if r.status == StatusPaused && r.allConnected() {
			r.status = StatusPlaying
			r.scheduler.Resume()
		}
		return nil
	}

	if r.status != StatusWaiting {
		return fmt.Errorf("match already started")
	}
	maxHumans := r.cfg.Room.MaxPlayers
	if r.SinglePlayer {
		maxHumans = 1
	}
	if len(r.members) >= maxHumans {
		return fmt.Errorf("room is full")
	}

	r.members = append(r.members, &Member{
		ID:        playerID,
		Name:      name,
		Connected: true,
		LastPing:  time.Now(),
	})
	return nil
}

// Leave removes a player from a waiting room or forfeits them from a
// running one. Returns true when the room is now empty and should be
// dropped by the manager.
func (r *Room) Leave(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.member(playerID)
	if m == nil {
		return len(r.members) == 0
	}

	if r.status == StatusWaiting {
		n := 0
		for _, mm := range r.members {
			if mm.ID != playerID {
				r.members[n] = mm
				n++
			}
		}
		r.members = r.members[:n]
		return len(r.members) == 0
	}

	// Leaving mid-match gets the same grace window as a dropped
	// connection: the match pauses and the player may rejoin before the
	// timer forfeits them.
	m.Connected = false
	if r.scheduler != nil {
		r.scheduler.DropPending(playerID)
		if r.status == StatusPlaying {
			r.status = StatusPaused
			r.scheduler.Pause()
		}
		if m.graceTimer == nil {
			id := playerID
			m.graceTimer = time.AfterFunc(r.cfg.Room.GraceWindow, func() {
				r.graceExpired(id)
			})
		}
	}
	return false
}

// Disconnect marks a player's transport as gone. During a match the room
// pauses and a grace timer starts; if it fires before a reconnect the
// player forfeits.
func (r *Room) Disconnect(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.member(playerID)
	if m == nil {
		return
	}
	m.Connected = false

	if r.status != StatusPlaying || r.scheduler == nil {
		return
	}

	r.status = StatusPaused
	r.scheduler.Pause()
	r.scheduler.DropPending(playerID)

	id := playerID
	m.graceTimer = time.AfterFunc(r.cfg.Room.GraceWindow, func() {
		r.graceExpired(id)
	})
}

// graceExpired forfeits a player who never came back and unpauses the
// match so the opponent can win.
func (r *Room) graceExpired(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m := r.member(playerID)
	if m == nil || m.Connected || r.scheduler == nil {
		return
	}
	m.graceTimer = nil
	r.scheduler.SubmitTrusted(playerID, &game.Action{Type: game.ActionSurrender})
	if r.status == StatusPaused {
		r.status = StatusPlaying
		r.scheduler.Resume()
	}
}

// Ready toggles a player's ready flag in a waiting room.
func (r *Room) Ready(playerID string, ready bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusWaiting {
		return fmt.Errorf("match already started")
	}
	m := r.member(playerID)
	if m == nil {
		return fmt.Errorf("player not in room")
	}
	m.Ready = ready
	return nil
}

// Start launches the match. Only the host may start, everyone must be
// ready, and two-player rooms need a full roster.
func (r *Room) Start(playerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusWaiting {
		return fmt.Errorf("match already started")
	}
	if len(r.members) == 0 || r.members[0].ID != playerID {
		return fmt.Errorf("only the host can start")
	}
	needed := r.cfg.Room.MaxPlayers
	if r.SinglePlayer {
		needed = 1
	}
	if len(r.members) < needed {
		return fmt.Errorf("waiting for players")
	}
	for _, m := range r.members {
		if !m.Ready {
			return fmt.Errorf("not all players ready")
		}
	}

	engine, err := game.NewEngine(r.cfg.Game, r.Seed, r.Difficulty)
	if err != nil {
		return fmt.Errorf("map generation: %w", err)
	}
	if r.eventLog != nil {
		engine.SetEventLog(r.eventLog, r.ID)
	}

	teams := []string{game.TeamHost, game.TeamGuest}
	for i, m := range r.members {
		if _, err := engine.AddPlayer(m.ID, m.Name, teams[i%2]); err != nil {
			return err
		}
	}
	if r.SinglePlayer {
		if _, err := engine.AddAI("ai_"+r.ID, "Computer"); err != nil {
			return err
		}
	}
	if err := engine.Initialize(); err != nil {
		return err
	}

	r.engine = engine
	r.validator = game.NewValidator(r.cfg.Actions, engine)
	r.monitor = game.NewMonitor()
	r.scheduler = NewScheduler(r.ID, engine, r.validator, r.monitor, r.cfg.Game, r.sink)
	r.scheduler.OnEnded = r.matchEnded
	r.scheduler.OnTick = r.tickObs
	if obs := r.cheatObs; obs != nil {
		r.scheduler.OnCheat = func(ev game.CheatEvent) {
			obs(ev.PlayerID, string(ev.Severity))
		}
	}
	r.status = StatusPlaying

	r.sink.GameStart(r.ID, engine.StartInfo())
	go r.scheduler.Run()
	return nil
}

// matchEnded is the scheduler's callback once the win arbiter resolves.
func (r *Room) matchEnded(winner, reason string) {
	r.mu.Lock()
	r.status = StatusEnded
	for _, m := range r.members {
		if m.graceTimer != nil {
			m.graceTimer.Stop()
			m.graceTimer = nil
		}
	}
	r.mu.Unlock()
}

// Ping records client liveness.
func (r *Room) Ping(playerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.member(playerID); m != nil {
		m.LastPing = time.Now()
	}
}

// Submit queues a gameplay action for the next tick boundary.
func (r *Room) Submit(playerID string, a *game.Action) error {
	r.mu.Lock()
	s := r.scheduler
	status := r.status
	known := r.member(playerID) != nil
	r.mu.Unlock()

	if !known {
		return fmt.Errorf("player not in room")
	}
	if s == nil || (status != StatusPlaying && status != StatusPaused) {
		return fmt.Errorf("match not running")
	}
	return s.Submit(playerID, a)
}

// CurrentTick reports the simulation tick last completed, zero before the
// match starts.
func (r *Room) CurrentTick() int64 {
	r.mu.Lock()
	s := r.scheduler
	r.mu.Unlock()
	if s == nil {
		return 0
	}
	return s.TickNow()
}

// Status returns the lifecycle state.
func (r *Room) StatusNow() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Info snapshots the room for REST responses.
func (r *Room) Info() Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := Info{
		ID:           r.ID,
		Name:         r.Name,
		Status:       r.status,
		SinglePlayer: r.SinglePlayer,
		Difficulty:   r.Difficulty,
		Seed:         r.Seed,
		CreatedAt:    r.CreatedAt,
	}
	for i, m := range r.members {
		info.Players = append(info.Players, MemberInfo{
			ID:        m.ID,
			Name:      m.Name,
			Host:      i == 0,
			Ready:     m.Ready,
			Connected: m.Connected,
		})
	}
	return info
}

// HasMember reports roster membership.
func (r *Room) HasMember(playerID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.member(playerID) != nil
}

// Monitor exposes the anti-cheat monitor; nil before the match starts.
func (r *Room) Monitor() *game.Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.monitor
}

// stopAll tears down the scheduler and timers, for manager sweep.
func (r *Room) stopAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler != nil {
		r.scheduler.Stop()
	}
	for _, m := range r.members {
		if m.graceTimer != nil {
			m.graceTimer.Stop()
			m.graceTimer = nil
		}
	}
}

// checkPings marks members silent past the ping timeout as disconnected.
// Caller is the manager sweeper.
func (r *Room) checkPings(timeout time.Duration) {
	r.mu.Lock()
	var stale []string
	if r.status == StatusPlaying {
		now := time.Now()
		for _, m := range r.members {
			if m.Connected && now.Sub(m.LastPing) > timeout {
				stale = append(stale, m.ID)
			}
		}
	}
	r.mu.Unlock()

	for _, id := range stale {
		r.Disconnect(id)
	}
}

// member looks up a roster entry; caller holds the lock.
func (r *Room) member(playerID string) *Member {
	for _, m := range r.members {
		if m.ID == playerID {
			return m
		}
	}
	return nil
}

// allConnected reports whether every roster entry has a live transport;
// caller holds the lock.
func (r *Room) allConnected() bool {
	for _, m := range r.members {
		if !m.Connected {
			return false
		}
	}
	return true
}
