package game

// AI decision pacing and army threshold.
const (
	aiThinkInterval = 120 // ticks between decision passes
	aiAttackArmy    = 6   // combat units before marching out
)

// aiController drives the computer opponent in single-player rooms. It
// issues ordinary actions through Engine.Apply, so it obeys the same cost
// and ownership rules as a human. All decisions derive from engine state
// and the tick counter, keeping single-player matches deterministic per
// seed.
type aiController struct {
	playerID   string
	difficulty Difficulty
}

func newAIController(playerID string, difficulty Difficulty) *aiController {
	return &aiController{playerID: playerID, difficulty: difficulty}
}

// think runs one decision pass every interval: keep workers harvesting,
// expand production, train an army, then attack.
func (c *aiController) think(e *Engine) {
	if e.tick%aiThinkInterval != 0 {
		return
	}

	base := c.ownBuilding(e, BuildingBase)
	if base == nil {
		return
	}

	c.assignIdleWorkers(e, base)

	barracks := c.ownBuilding(e, BuildingBarracks)
	if barracks == nil {
		c.tryBuild(e, base, BuildingBarracks)
	}

	p := e.players[c.playerID]
	if p.MaxSupply-p.Supply <= 2 {
		c.tryBuild(e, base, BuildingFarm)
	}

	if barracks != nil && barracks.Complete() && len(barracks.Queue) < 3 {
		e.Apply(c.playerID, &Action{
			Type:       ActionProduce,
			BuildingID: barracks.ID,
			Variant:    string(UnitSoldier),
		})
	}

	c.maybeAttack(e)
}

// assignIdleWorkers sends every idle worker to the nearest live node.
func (c *aiController) assignIdleWorkers(e *Engine, base *Building) {
	for _, u := range e.units {
		if u.OwnerID != c.playerID || u.HP <= 0 {
			continue
		}
		if u.Variant != UnitWorker || u.State != StateIdle {
			continue
		}
		node := c.nearestNode(e, u.X, u.Y)
		if node == nil {
			continue
		}
		e.Apply(c.playerID, &Action{
			Type:     ActionGather,
			UnitID:   u.ID,
			TargetID: node.ID,
		})
	}
}

// maybeAttack marches the army at the enemy base once it is big enough.
func (c *aiController) maybeAttack(e *Engine) {
	var army []string
	for _, u := range e.units {
		if u.OwnerID == c.playerID && u.HP > 0 && u.Variant.IsCombat() && u.State == StateIdle {
			army = append(army, u.ID)
		}
	}
	if len(army) < aiAttackArmy {
		return
	}
	target := c.enemyBase(e)
	if target == nil {
		return
	}
	e.Apply(c.playerID, &Action{
		Type:    ActionAttackMove,
		UnitIDs: army,
		Target:  &Point{X: target.X, Y: target.Y},
	})
}

// tryBuild places a building on the first clear spot around the base.
func (c *aiController) tryBuild(e *Engine, base *Building, variant BuildingVariant) {
	stats, _ := GetBuildingStats(variant)
	p := e.players[c.playerID]
	if p.Gold < stats.Cost.Gold || p.Wood < stats.Cost.Wood {
		return
	}

	gap := base.Size/2 + stats.Size/2 + BuildingClearance + 10
	candidates := [8]Point{
		{X: base.X + gap, Y: base.Y},
		{X: base.X - gap, Y: base.Y},
		{X: base.X, Y: base.Y + gap},
		{X: base.X, Y: base.Y - gap},
		{X: base.X + gap, Y: base.Y + gap},
		{X: base.X - gap, Y: base.Y + gap},
		{X: base.X + gap, Y: base.Y - gap},
		{X: base.X - gap, Y: base.Y - gap},
	}
	for _, pt := range candidates {
		if !c.placementClear(e, stats, pt.X, pt.Y) {
			continue
		}
		e.Apply(c.playerID, &Action{
			Type:    ActionBuild,
			Variant: string(variant),
			Target:  &pt,
		})
		return
	}
}

// placementClear mirrors the validator's geometry gate; the AI skips the
// validator so it must not place into terrain or other footprints.
func (c *aiController) placementClear(e *Engine, stats BuildingStats, x, y float64) bool {
	m := e.gameMap
	half := stats.Size / 2
	if !m.PassableAt(x, y) ||
		!m.PassableAt(x-half, y-half) || !m.PassableAt(x+half, y-half) ||
		!m.PassableAt(x-half, y+half) || !m.PassableAt(x+half, y+half) {
		return false
	}
	for _, b := range e.buildings {
		if b.HP <= 0 {
			continue
		}
		if dist(x, y, b.X, b.Y) < (stats.Size+b.Size)/2+BuildingClearance {
			return false
		}
	}
	return true
}

func (c *aiController) ownBuilding(e *Engine, variant BuildingVariant) *Building {
	for _, b := range e.buildings {
		if b.OwnerID == c.playerID && b.Variant == variant && b.HP > 0 {
			return b
		}
	}
	return nil
}

func (c *aiController) enemyBase(e *Engine) *Building {
	for _, b := range e.buildings {
		if b.OwnerID != c.playerID && b.Variant == BuildingBase && b.HP > 0 {
			return b
		}
	}
	return nil
}

func (c *aiController) nearestNode(e *Engine, x, y float64) *ResourceNode {
	var best *ResourceNode
	bestDist := -1.0
	for _, n := range e.nodes {
		if n.Amount <= 0 {
			continue
		}
		d := dist(x, y, n.X, n.Y)
		if best == nil || d < bestDist {
			best = n
			bestDist = d
		}
	}
	return best
}
