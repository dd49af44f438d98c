package game

import (
	"fmt"
)

// TileKind is one of the seven terrain kinds produced by the generator.
type TileKind uint8

const (
	TileGrass TileKind = iota
	TileDirt
	TileSand
	TileForest
	TileGold
	TileWater
	TileMountain
)

// Passable reports whether units can walk on the tile.
func (t TileKind) Passable() bool {
	return t != TileWater && t != TileMountain
}

func (t TileKind) String() string {
	switch t {
	case TileGrass:
		return "grass"
	case TileDirt:
		return "dirt"
	case TileSand:
		return "sand"
	case TileForest:
		return "forest"
	case TileGold:
		return "gold"
	case TileWater:
		return "water"
	case TileMountain:
		return "mountain"
	}
	return "unknown"
}

// lcg is a reproducible linear-congruential stream. Map generation must not
// depend on math/rand internals (which may change across Go releases) nor on
// any shared RNG, so the generator carries its own stream derived from the
// room seed. Identical seeds yield identical maps.
type lcg struct {
	state uint32
}

func newLCG(seed int64) *lcg {
	return &lcg{state: uint32(uint64(seed))}
}

func (r *lcg) next() uint32 {
	r.state = r.state*1664525 + 1013904223
	return r.state
}

// Intn returns a value in [0, n).
func (r *lcg) Intn(n int) int {
	return int(r.next() % uint32(n))
}

// Float64 returns a value in [0, 1).
func (r *lcg) Float64() float64 {
	return float64(r.next()) / 4294967296.0
}

// GameMap is the generated terrain plus resource nodes.
type GameMap struct {
	Width    int          // tiles
	Height   int          // tiles
	TileSize float64      // pixels
	Seed     int64        `json:"seed"`
	Tiles    [][]TileKind // Tiles[y][x]
	Nodes    []*ResourceNode
}

// spawnSquareRadius is half the forced-grass square edge (7x7).
const spawnSquareRadius = 3

// Resource amounts per tile kind.
const (
	goldNodeMin = 1500
	goldNodeMax = 3000
	woodNodeMin = 800
	woodNodeMax = 1500
)

// GenerateMap deterministically produces terrain and resource nodes from a
// seed. It is a pure function: identical (width, height, seed) yield
// identical maps. Fails only on malformed input; placement contradictions
// reset non-spawn tiles and retry within an iteration budget of
// 2*width*height.
func GenerateMap(width, height int, seed int64, tileSize float64) (*GameMap, error) {
	if width < 16 || height < 16 {
		return nil, fmt.Errorf("map too small: %dx%d", width, height)
	}
	if seed <= 0 {
		return nil, fmt.Errorf("malformed seed: %d", seed)
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("invalid tile size: %v", tileSize)
	}

	m := &GameMap{
		Width:    width,
		Height:   height,
		TileSize: tileSize,
		Seed:     seed,
	}
	rng := newLCG(seed)

	// Placement contradictions reset non-spawn tiles and retry until the
	// iteration budget is exhausted; after that the partial map stands
	// (spawn squares are grass regardless, so it remains playable).
	budget := 2 * width * height
	spent := 0
	for {
		m.resetTiles()
		if m.placeFeatures(rng, &spent, budget) || spent >= budget {
			break
		}
	}

	m.placeResources(rng)
	return m, nil
}

// resetTiles fills the whole grid with grass and re-stamps spawn squares.
func (m *GameMap) resetTiles() {
	if m.Tiles == nil {
		m.Tiles = make([][]TileKind, m.Height)
		for y := range m.Tiles {
			m.Tiles[y] = make([]TileKind, m.Width)
		}
	}
	for y := range m.Tiles {
		for x := range m.Tiles[y] {
			m.Tiles[y][x] = TileGrass
		}
	}
}

// placeFeatures stamps terrain blobs, skipping spawn squares. Returns false
// if a blob could not find room within the shared iteration budget.
func (m *GameMap) placeFeatures(rng *lcg, spent *int, budget int) bool {
	area := m.Width * m.Height

	type featurePlan struct {
		kind    TileKind
		blobs   int
		minSize int
		maxSize int
	}
	plans := []featurePlan{
		{TileWater, area / 600, 8, 20},
		{TileMountain, area / 600, 6, 16},
		{TileForest, area / 360, 3, 8},
		{TileGold, area / 600, 2, 4},
		{TileSand, area / 450, 4, 10},
		{TileDirt, area / 450, 4, 10},
	}

	for _, plan := range plans {
		for b := 0; b < plan.blobs; b++ {
			size := plan.minSize + rng.Intn(plan.maxSize-plan.minSize+1)
			if !m.placeBlob(rng, plan.kind, size, spent, budget) {
				return false
			}
		}
	}
	return true
}

// placeBlob grows a random-walk blob of the given kind. Every rejected
// candidate tile counts against the iteration budget; a blob that cannot
// find a clean seed tile is a placement contradiction.
func (m *GameMap) placeBlob(rng *lcg, kind TileKind, size int, spent *int, budget int) bool {
	seedAttempts := m.Width + m.Height
	var x, y int
	found := false
	for i := 0; i < seedAttempts && *spent < budget; i++ {
		*spent++
		x = rng.Intn(m.Width)
		y = rng.Intn(m.Height)
		if m.Tiles[y][x] == TileGrass && !m.inSpawnZone(x, y) {
			found = true
			break
		}
	}
	if !found {
		return false
	}

	placed := 0
	steps := 0
	for placed < size {
		if m.Tiles[y][x] == TileGrass && !m.inSpawnZone(x, y) {
			m.Tiles[y][x] = kind
			placed++
		} else {
			*spent++
			steps++
			if *spent >= budget || steps > 8*size {
				return placed > 0
			}
		}

		// Random walk step.
		switch rng.Intn(4) {
		case 0:
			x++
		case 1:
			x--
		case 2:
			y++
		case 3:
			y--
		}
		if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
			// Walked off the map; restart the walk from a fresh tile.
			x = rng.Intn(m.Width)
			y = rng.Intn(m.Height)
		}
	}
	return true
}

// placeResources turns gold/forest tiles into resource nodes with seeded
// amounts: gold in [1500,3000], wood in [800,1500]. Node ids follow tile
// scan order so identical seeds yield identical id sets.
func (m *GameMap) placeResources(rng *lcg) {
	m.Nodes = m.Nodes[:0]
	n := 0
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			var kind ResourceKind
			var amount int
			switch m.Tiles[y][x] {
			case TileGold:
				kind = ResourceGold
				amount = goldNodeMin + rng.Intn(goldNodeMax-goldNodeMin+1)
			case TileForest:
				kind = ResourceWood
				amount = woodNodeMin + rng.Intn(woodNodeMax-woodNodeMin+1)
			default:
				continue
			}
			cx, cy := m.TileCenter(x, y)
			m.Nodes = append(m.Nodes, &ResourceNode{
				ID:        fmt.Sprintf("node_%d", n),
				Kind:      kind,
				X:         cx,
				Y:         cy,
				Amount:    amount,
				MaxAmount: amount,
			})
			n++
		}
	}
}

// SpawnPoints returns the two spawn pixel positions, centered at 15% and
// 85% of both axes.
func (m *GameMap) SpawnPoints() [2]Point {
	x1, y1 := m.spawnTile(0.15)
	x2, y2 := m.spawnTile(0.85)
	p1x, p1y := m.TileCenter(x1, y1)
	p2x, p2y := m.TileCenter(x2, y2)
	return [2]Point{{X: p1x, Y: p1y}, {X: p2x, Y: p2y}}
}

func (m *GameMap) spawnTile(frac float64) (int, int) {
	return int(frac * float64(m.Width)), int(frac * float64(m.Height))
}

// inSpawnZone reports whether the tile is inside either forced-grass 7x7
// spawn square.
func (m *GameMap) inSpawnZone(x, y int) bool {
	for _, frac := range [2]float64{0.15, 0.85} {
		cx, cy := m.spawnTile(frac)
		if abs(x-cx) <= spawnSquareRadius && abs(y-cy) <= spawnSquareRadius {
			return true
		}
	}
	return false
}

// TileCenter returns the pixel center of tile (x, y).
func (m *GameMap) TileCenter(x, y int) (float64, float64) {
	return (float64(x) + 0.5) * m.TileSize, (float64(y) + 0.5) * m.TileSize
}

// TileAt returns the tile containing pixel (px, py). ok is false outside
// the map.
func (m *GameMap) TileAt(px, py float64) (TileKind, bool) {
	x := int(px / m.TileSize)
	y := int(py / m.TileSize)
	if x < 0 || x >= m.Width || y < 0 || y >= m.Height {
		return TileWater, false
	}
	return m.Tiles[y][x], true
}

// PassableAt reports whether pixel (px, py) is on walkable terrain.
func (m *GameMap) PassableAt(px, py float64) bool {
	t, ok := m.TileAt(px, py)
	return ok && t.Passable()
}

// PixelWidth and PixelHeight are the world bounds in pixels.
func (m *GameMap) PixelWidth() float64  { return float64(m.Width) * m.TileSize }
func (m *GameMap) PixelHeight() float64 { return float64(m.Height) * m.TileSize }

// InBounds reports whether a pixel position lies inside the world.
func (m *GameMap) InBounds(px, py float64) bool {
	return px >= 0 && px <= m.PixelWidth() && py >= 0 && py <= m.PixelHeight()
}

// TileIndex flattens a tile coordinate for set membership.
func (m *GameMap) TileIndex(x, y int) int {
	return y*m.Width + x
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
