package game

// updateFog rebuilds each player's currently-visible tile set from their
// living units and buildings, then folds it into the monotonic discovered
// set. Visibility is per-player; there are no shared-vision alliances.
func (e *Engine) updateFog() {
	vision := e.cfg.VisionRange

	for _, pid := range e.playerOrder {
		vis := e.visible[pid]
		for k := range vis {
			delete(vis, k)
		}

		for _, u := range e.units {
			if u.OwnerID == pid && u.HP > 0 {
				e.revealAround(vis, u.X, u.Y, vision)
			}
		}
		for _, b := range e.buildings {
			if b.OwnerID == pid && b.HP > 0 {
				e.revealAround(vis, b.X, b.Y, vision)
			}
		}

		disc := e.discovered[pid]
		for k := range vis {
			disc[k] = struct{}{}
		}
	}
}

// revealAround marks every tile whose center lies within radius of (x, y).
func (e *Engine) revealAround(vis map[int]struct{}, x, y, radius float64) {
	m := e.gameMap
	ts := m.TileSize

	minTX := int((x - radius) / ts)
	maxTX := int((x + radius) / ts)
	minTY := int((y - radius) / ts)
	maxTY := int((y + radius) / ts)
	if minTX < 0 {
		minTX = 0
	}
	if minTY < 0 {
		minTY = 0
	}
	if maxTX >= m.Width {
		maxTX = m.Width - 1
	}
	if maxTY >= m.Height {
		maxTY = m.Height - 1
	}

	r2 := radius * radius
	for ty := minTY; ty <= maxTY; ty++ {
		for tx := minTX; tx <= maxTX; tx++ {
			cx, cy := m.TileCenter(tx, ty)
			dx, dy := cx-x, cy-y
			if dx*dx+dy*dy <= r2 {
				vis[m.TileIndex(tx, ty)] = struct{}{}
			}
		}
	}
}

// tileVisible reports whether the player currently sees the tile under a
// pixel position.
func (e *Engine) tileVisible(playerID string, x, y float64) bool {
	tx := int(x / e.gameMap.TileSize)
	ty := int(y / e.gameMap.TileSize)
	if tx < 0 || tx >= e.gameMap.Width || ty < 0 || ty >= e.gameMap.Height {
		return false
	}
	_, ok := e.visible[playerID][e.gameMap.TileIndex(tx, ty)]
	return ok
}

// tileDiscovered reports whether the player has ever seen the tile under a
// pixel position.
func (e *Engine) tileDiscovered(playerID string, x, y float64) bool {
	tx := int(x / e.gameMap.TileSize)
	ty := int(y / e.gameMap.TileSize)
	if tx < 0 || tx >= e.gameMap.Width || ty < 0 || ty >= e.gameMap.Height {
		return false
	}
	_, ok := e.discovered[playerID][e.gameMap.TileIndex(tx, ty)]
	return ok
}

// VisibleTiles returns a copy of the player's currently-visible tile
// indices, for snapshot payloads.
func (e *Engine) VisibleTiles(playerID string) []int {
	vis := e.visible[playerID]
	out := make([]int, 0, len(vis))
	for k := range vis {
		out = append(out, k)
	}
	return out
}

// DiscoveredTiles returns a copy of the player's discovered tile indices.
func (e *Engine) DiscoveredTiles(playerID string) []int {
	disc := e.discovered[playerID]
	out := make([]int, 0, len(disc))
	for k := range disc {
		out = append(out, k)
	}
	return out
}
