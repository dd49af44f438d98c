package room

import (
	"fmt"
	"log"
	"sync"
	"time"

	"rts-arena/internal/config"
	"rts-arena/internal/game"

	"github.com/google/uuid"
)

// Manager is the room registry. It owns creation, lookup, the lobby
// sweeper and the cap on concurrent rooms.
type Manager struct {
	cfg  config.AppConfig
	sink Sink

	// TickObserver, when set, receives each room's per-tick wall time.
	// Set before the first room starts; the metrics layer wires it.
	TickObserver func(time.Duration)

	// CheatObserver, when set, receives every anti-cheat finding any
	// room's monitor records.
	CheatObserver func(playerID, severity string)

	// EventLog, when set, is the shared match log every room writes to.
	EventLog *game.EventLog

	mu    sync.RWMutex
	rooms map[string]*Room

	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewManager creates an empty registry. Call StartSweeper to launch the
// background expiry loop. The sink may be nil at construction and set
// later with SetSink, because the WebSocket hub needs the manager first.
func NewManager(cfg config.AppConfig, sink Sink) *Manager {
	return &Manager{
		cfg:    cfg,
		sink:   sink,
		rooms:  make(map[string]*Room),
		stopCh: make(chan struct{}),
	}
}

// SetSink wires the outbound sink. Must be called before the first room
// is created.
func (m *Manager) SetSink(sink Sink) {
	m.mu.Lock()
	m.sink = sink
	m.mu.Unlock()
}

// CreateRoom registers a new waiting room. A zero seed draws one from the
// clock; fixed seeds give reproducible maps.
func (m *Manager) CreateRoom(name string, singlePlayer bool, difficulty game.Difficulty, seed int64) (*Room, error) {
	if name == "" {
		return nil, fmt.Errorf("room name required")
	}
	switch difficulty {
	case "", game.DifficultyEasy, game.DifficultyNormal, game.DifficultyHard:
	default:
		return nil, fmt.Errorf("unknown difficulty %q", difficulty)
	}
	if difficulty == "" {
		difficulty = game.DifficultyNormal
	}
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.rooms) >= m.cfg.Server.MaxRooms {
		return nil, fmt.Errorf("room limit reached")
	}

	r := newRoom(uuid.NewString(), name, seed, singlePlayer, difficulty, m.cfg, m.sink)
	r.tickObs = m.TickObserver
	r.cheatObs = m.CheatObserver
	r.eventLog = m.EventLog
	m.rooms[r.ID] = r
	log.Printf("🏠 Room %s created (%q, singlePlayer=%v, difficulty=%s)", r.ID, name, singlePlayer, difficulty)
	return r, nil
}

// Get resolves a room by id.
func (m *Manager) Get(id string) (*Room, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rooms[id]
	return r, ok
}

// List snapshots every room for the lobby listing.
func (m *Manager) List() []Info {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	return infos
}

// Count returns the number of live rooms.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms)
}

// Leave removes a player and drops the room if it emptied.
func (m *Manager) Leave(roomID, playerID string) error {
	r, ok := m.Get(roomID)
	if !ok {
		return fmt.Errorf("room not found")
	}
	if empty := r.Leave(playerID); empty {
		m.remove(roomID)
	}
	return nil
}

// StartSweeper launches the periodic expiry loop: waiting rooms past
// their TTL, ended rooms, and ping-silent players.
func (m *Manager) StartSweeper() {
	go func() {
		ticker := time.NewTicker(m.cfg.Room.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// Stop halts the sweeper and every room's scheduler.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })

	m.mu.Lock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.Unlock()

	for _, r := range rooms {
		r.stopAll()
	}
}

func (m *Manager) sweep() {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	now := time.Now()
	for _, r := range rooms {
		switch r.StatusNow() {
		case StatusWaiting:
			if now.Sub(r.CreatedAt) > m.cfg.Room.WaitingTTL {
				log.Printf("🧹 Sweeping expired waiting room %s", r.ID)
				m.remove(r.ID)
			}
		case StatusEnded:
			m.remove(r.ID)
		case StatusPlaying:
			r.checkPings(m.cfg.Room.PingTimeout)
		}
	}
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	r, ok := m.rooms[id]
	if ok {
		delete(m.rooms, id)
	}
	m.mu.Unlock()
	if ok {
		r.stopAll()
	}
}
