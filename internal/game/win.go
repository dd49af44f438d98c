package game

// checkWin eliminates players with no standing base and resolves the match
// once at most one player remains. The terminal state latches: after the
// first resolution no further tick mutates the outcome.
func (e *Engine) checkWin() {
	if e.gameOver || len(e.playerOrder) < 2 {
		return
	}

	for _, pid := range e.playerOrder {
		p := e.players[pid]
		if p.Eliminated {
			continue
		}
		bases := 0
		for _, b := range e.buildings {
			if b.OwnerID == pid && b.Variant == BuildingBase && b.HP > 0 {
				bases++
			}
		}
		if bases == 0 {
			p.Eliminated = true
			e.logEvent(EventTypeElimination, pid, nil)
		}
	}

	var standing []*Player
	for _, pid := range e.playerOrder {
		if p := e.players[pid]; !p.Eliminated {
			standing = append(standing, p)
		}
	}

	switch len(standing) {
	case 1:
		e.gameOver = true
		e.winner = standing[0].ID
		e.winReason = standing[0].Name + " wins by elimination"
	case 0:
		// Simultaneous destruction.
		e.gameOver = true
		e.winner = ""
		e.winReason = "draw"
	}
	if e.gameOver {
		e.logEvent(EventTypeGameOver, e.winner, GameOverPayload{
			Winner: e.winner,
			Reason: e.winReason,
		})
	}
}
