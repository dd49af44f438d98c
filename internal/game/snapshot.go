package game

import "time"

// Snapshot types are value copies of live state, safe to marshal and send
// off the scheduler goroutine after Tick returns.

// PlayerSnapshot is the public view of a participant. Resources are
// included for every player; clients render only their own.
type PlayerSnapshot struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Team       string   `json:"team"`
	Color      string   `json:"color"`
	Gold       int      `json:"gold"`
	Wood       int      `json:"wood"`
	Supply     int      `json:"supply"`
	MaxSupply  int      `json:"maxSupply"`
	Upgrades   Upgrades `json:"upgrades"`
	Eliminated bool     `json:"eliminated"`
}

// UnitSnapshot is the wire form of a unit.
type UnitSnapshot struct {
	ID          string       `json:"id"`
	OwnerID     string       `json:"ownerId"`
	Variant     UnitVariant  `json:"variant"`
	X           float64      `json:"x"`
	Y           float64      `json:"y"`
	HP          int          `json:"hp"`
	MaxHP       int          `json:"maxHp"`
	State       CommandState `json:"state"`
	CarryKind   ResourceKind `json:"carryKind,omitempty"`
	CarryAmount int          `json:"carryAmount,omitempty"`
	UnderAttack bool         `json:"underAttack,omitempty"`
}

// BuildingSnapshot is the wire form of a building.
type BuildingSnapshot struct {
	ID          string           `json:"id"`
	OwnerID     string           `json:"ownerId"`
	Variant     BuildingVariant  `json:"variant"`
	X           float64          `json:"x"`
	Y           float64          `json:"y"`
	HP          int              `json:"hp"`
	MaxHP       int              `json:"maxHp"`
	Progress    float64          `json:"progress"`
	Queue       []ProductionItem `json:"queue,omitempty"`
	HasRally    bool             `json:"hasRally,omitempty"`
	RallyX      float64          `json:"rallyX,omitempty"`
	RallyY      float64          `json:"rallyY,omitempty"`
	UnderAttack bool             `json:"underAttack,omitempty"`
}

// ProjectileSnapshot is the wire form of an in-flight projectile.
type ProjectileSnapshot struct {
	ID      string         `json:"id"`
	Kind    ProjectileKind `json:"kind"`
	OwnerID string         `json:"ownerId"`
	X       float64        `json:"x"`
	Y       float64        `json:"y"`
}

// NodeSnapshot is the wire form of a resource node.
type NodeSnapshot struct {
	ID     string       `json:"id"`
	Kind   ResourceKind `json:"kind"`
	X      float64      `json:"x"`
	Y      float64      `json:"y"`
	Amount int          `json:"amount"`
}

// Snapshot is one broadcast frame. Tick counts strictly increase between
// frames sent to the same client; Timestamp is server wall clock at copy
// time and carries no simulation meaning.
type Snapshot struct {
	Tick      int64  `json:"tick"`
	Timestamp int64  `json:"timestamp"` // unix milliseconds
	GameOver  bool   `json:"gameOver"`
	Winner    string `json:"winner,omitempty"`
	WinReason string `json:"winReason,omitempty"`

	Players     []PlayerSnapshot     `json:"players"`
	Units       []UnitSnapshot       `json:"units"`
	Buildings   []BuildingSnapshot   `json:"buildings"`
	Projectiles []ProjectileSnapshot `json:"projectiles"`
	Nodes       []NodeSnapshot       `json:"nodes"`

	// Per-recipient fog layers; empty in the unfiltered snapshot.
	Visible    []int `json:"visible,omitempty"`
	Discovered []int `json:"discovered,omitempty"`
}

// StartInfo is the gameStart payload broadcast once when a match begins:
// everything a client needs to render the terrain without a second fetch.
type StartInfo struct {
	Seed      int64            `json:"seed"`
	MapWidth  int              `json:"mapWidth"`  // tiles
	MapHeight int              `json:"mapHeight"` // tiles
	TileSize  float64          `json:"tileSize"`  // pixels
	Tiles     [][]TileKind     `json:"tiles"`
	Players   []PlayerSnapshot `json:"players"`
}

// StartInfo copies the match-start view: map geometry plus the roster.
func (e *Engine) StartInfo() StartInfo {
	info := StartInfo{
		Seed:      e.gameMap.Seed,
		MapWidth:  e.gameMap.Width,
		MapHeight: e.gameMap.Height,
		TileSize:  e.gameMap.TileSize,
	}
	info.Tiles = make([][]TileKind, len(e.gameMap.Tiles))
	for i, row := range e.gameMap.Tiles {
		info.Tiles[i] = append([]TileKind(nil), row...)
	}
	info.Players = e.snapshotHeader().Players
	return info
}

// Snapshot copies the full unfiltered state, for spectator tooling and
// tests.
func (e *Engine) Snapshot() Snapshot {
	s := e.snapshotHeader()
	for _, u := range e.units {
		s.Units = append(s.Units, snapUnit(u))
	}
	for _, b := range e.buildings {
		s.Buildings = append(s.Buildings, snapBuilding(b))
	}
	for _, p := range e.projectiles {
		s.Projectiles = append(s.Projectiles, snapProjectile(p))
	}
	for _, n := range e.nodes {
		s.Nodes = append(s.Nodes, snapNode(n))
	}
	return s
}

// SnapshotFor copies state filtered by the recipient's fog of war: own
// entities always, enemy units and projectiles only on currently visible
// tiles, enemy buildings and resource nodes once discovered.
func (e *Engine) SnapshotFor(playerID string) Snapshot {
	s := e.snapshotHeader()

	for _, u := range e.units {
		if u.OwnerID != playerID && !e.tileVisible(playerID, u.X, u.Y) {
			continue
		}
		s.Units = append(s.Units, snapUnit(u))
	}
	for _, b := range e.buildings {
		if b.OwnerID != playerID && !e.tileDiscovered(playerID, b.X, b.Y) {
			continue
		}
		s.Buildings = append(s.Buildings, snapBuilding(b))
	}
	for _, p := range e.projectiles {
		if p.OwnerID != playerID && !e.tileVisible(playerID, p.X, p.Y) {
			continue
		}
		s.Projectiles = append(s.Projectiles, snapProjectile(p))
	}
	for _, n := range e.nodes {
		if !e.tileDiscovered(playerID, n.X, n.Y) {
			continue
		}
		s.Nodes = append(s.Nodes, snapNode(n))
	}

	s.Visible = e.VisibleTiles(playerID)
	s.Discovered = e.DiscoveredTiles(playerID)
	return s
}

func (e *Engine) snapshotHeader() Snapshot {
	s := Snapshot{
		Tick:      e.tick,
		Timestamp: time.Now().UnixMilli(),
		GameOver:  e.gameOver,
		Winner:    e.winner,
		WinReason: e.winReason,
	}
	for _, pid := range e.playerOrder {
		p := e.players[pid]
		s.Players = append(s.Players, PlayerSnapshot{
			ID:         p.ID,
			Name:       p.Name,
			Team:       p.Team,
			Color:      p.Color,
			Gold:       p.Gold,
			Wood:       p.Wood,
			Supply:     p.Supply,
			MaxSupply:  p.MaxSupply,
			Upgrades:   p.Upgrades,
			Eliminated: p.Eliminated,
		})
	}
	return s
}

func snapUnit(u *Unit) UnitSnapshot {
	return UnitSnapshot{
		ID:          u.ID,
		OwnerID:     u.OwnerID,
		Variant:     u.Variant,
		X:           u.X,
		Y:           u.Y,
		HP:          u.HP,
		MaxHP:       u.MaxHP,
		State:       u.State,
		CarryKind:   u.CarryKind,
		CarryAmount: u.CarryAmount,
		UnderAttack: u.UnderAttack,
	}
}

func snapBuilding(b *Building) BuildingSnapshot {
	s := BuildingSnapshot{
		ID:          b.ID,
		OwnerID:     b.OwnerID,
		Variant:     b.Variant,
		X:           b.X,
		Y:           b.Y,
		HP:          b.HP,
		MaxHP:       b.MaxHP,
		Progress:    b.Progress,
		HasRally:    b.HasRally,
		RallyX:      b.RallyX,
		RallyY:      b.RallyY,
		UnderAttack: b.UnderAttack,
	}
	if len(b.Queue) > 0 {
		s.Queue = append([]ProductionItem(nil), b.Queue...)
	}
	return s
}

func snapProjectile(p *Projectile) ProjectileSnapshot {
	return ProjectileSnapshot{
		ID:      p.ID,
		Kind:    p.Kind,
		OwnerID: p.OwnerID,
		X:       p.X,
		Y:       p.Y,
	}
}

func snapNode(n *ResourceNode) NodeSnapshot {
	return NodeSnapshot{
		ID:     n.ID,
		Kind:   n.Kind,
		X:      n.X,
		Y:      n.Y,
		Amount: n.Amount,
	}
}
