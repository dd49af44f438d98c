package game

import "math"

// gatherReach is how close a worker must be to a node's tile to harvest.
func (e *Engine) gatherReach(u *Unit) float64 {
	return e.gameMap.TileSize/2 + u.Size/2 + 4
}

// stepGathering walks the worker to its node and harvests into the carry
// slot: one point per interval, up to capacity, then heads home.
func (e *Engine) stepGathering(u *Unit) {
	node := e.nodeIndex[u.GatherNodeID]
	if node == nil || node.Amount <= 0 {
		// Node depleted under us.
		u.GatherNodeID = ""
		u.gatherTicks = 0
		if u.CarryAmount > 0 {
			u.State = StateReturning
			return
		}
		u.clearOrders()
		return
	}

	if dist(u.X, u.Y, node.X, node.Y) > e.gatherReach(u) {
		e.moveToward(u, node.X, node.Y)
		return
	}

	u.CarryKind = node.Kind
	u.gatherTicks++
	if u.gatherTicks < GatherIntervalTicks {
		return
	}
	u.gatherTicks = 0

	take := 1
	if take > node.Amount {
		take = node.Amount
	}
	node.Amount -= take
	u.CarryAmount += take

	if u.CarryAmount >= WorkerCarryCapacity || node.Amount <= 0 {
		u.State = StateReturning
	}
}

// stepReturning carries the load to the nearest own completed deposit
// building, credits the owner, then resumes the remembered node or idles.
func (e *Engine) stepReturning(u *Unit) {
	depot := e.nearestDepot(u.OwnerID, u.X, u.Y)
	if depot == nil {
		u.State = StateIdle
		return
	}

	reach := depot.Size/2 + u.Size/2 + DepositRange
	if dist(u.X, u.Y, depot.X, depot.Y) > reach {
		e.moveToward(u, depot.X, depot.Y)
		return
	}

	p := e.players[u.OwnerID]
	switch u.CarryKind {
	case ResourceGold:
		p.Gold += u.CarryAmount
		p.ledgerGold += u.CarryAmount
	case ResourceWood:
		p.Wood += u.CarryAmount
		p.ledgerWood += u.CarryAmount
	}
	u.CarryAmount = 0
	u.CarryKind = ""

	if node := e.nodeIndex[u.GatherNodeID]; node != nil && node.Amount > 0 {
		u.State = StateGathering
		return
	}
	u.GatherNodeID = ""
	u.clearOrders()
}

// stepRepairing restores HP on an own damaged building at a fixed rate.
func (e *Engine) stepRepairing(u *Unit) {
	b := e.buildingIndex[u.TargetID]
	if b == nil || b.OwnerID != u.OwnerID || b.HP >= b.MaxHP {
		u.TargetID = ""
		u.State = StateIdle
		return
	}

	reach := b.Size/2 + u.Size/2 + DepositRange
	if dist(u.X, u.Y, b.X, b.Y) > reach {
		e.moveToward(u, b.X, b.Y)
		return
	}

	u.gatherTicks++
	if u.gatherTicks < RepairIntervalTicks {
		return
	}
	u.gatherTicks = 0
	b.HP += RepairAmount
	if b.HP > b.MaxHP {
		b.HP = b.MaxHP
	}
}

// nearestDepot finds the closest own completed building that accepts
// resource returns.
func (e *Engine) nearestDepot(ownerID string, x, y float64) *Building {
	var best *Building
	bestDist := math.MaxFloat64
	for _, b := range e.buildings {
		if b.OwnerID != ownerID || b.HP <= 0 || !b.Complete() {
			continue
		}
		stats, _ := GetBuildingStats(b.Variant)
		if !stats.DepositPoint {
			continue
		}
		d := dist(x, y, b.X, b.Y)
		if d < bestDist {
			bestDist = d
			best = b
		}
	}
	return best
}
