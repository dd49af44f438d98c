package game

// ActionType identifies a player command.
type ActionType string

const (
	ActionMove          ActionType = "move"
	ActionStop          ActionType = "stop"
	ActionHold          ActionType = "holdPosition"
	ActionPatrol        ActionType = "patrol"
	ActionAttack        ActionType = "attack"
	ActionAttackMove    ActionType = "attackMove"
	ActionAttackGround  ActionType = "attackGround"
	ActionGather        ActionType = "gather"
	ActionRepair        ActionType = "repair"
	ActionHeal          ActionType = "heal"
	ActionBuild         ActionType = "build"
	ActionProduce       ActionType = "produce"
	ActionCancelProduce ActionType = "cancelProduce"
	ActionUpgrade       ActionType = "upgrade"
	ActionRally         ActionType = "rally"
	ActionSurrender     ActionType = "surrender"
)

// Action is the client command envelope. Fields are populated per type;
// the validator enforces shape before the engine ever sees one.
type Action struct {
	ID   string     `json:"id,omitempty"`
	Type ActionType `json:"type"`

	UnitID  string   `json:"unitId,omitempty"`
	UnitIDs []string `json:"unitIds,omitempty"`

	BuildingID string `json:"buildingId,omitempty"`
	TargetID   string `json:"targetId,omitempty"`
	Target     *Point `json:"target,omitempty"`

	// Variant names a unit (produce), building (build) or upgrade kind
	// (upgrade) depending on Type.
	Variant string `json:"variant,omitempty"`

	// QueueIndex selects a production queue entry for cancelProduce.
	QueueIndex int `json:"queueIndex,omitempty"`

	// Queue appends the move target as a waypoint instead of replacing
	// the current order.
	Queue bool `json:"queue,omitempty"`

	// Timestamp is client wall-clock in unix milliseconds, used for the
	// clock-skew guard. Zero means "not supplied".
	Timestamp int64 `json:"timestamp,omitempty"`

	// ClientTick pins the action to a simulation tick: it is held until
	// the engine reaches that tick. Zero means "apply immediately".
	ClientTick int64 `json:"clientTick,omitempty"`
}

// unitIDs returns the action's unit handle set, folding the single-unit
// field into the batch form.
func (a *Action) unitIDs() []string {
	if len(a.UnitIDs) > 0 {
		return a.UnitIDs
	}
	if a.UnitID != "" {
		return []string{a.UnitID}
	}
	return nil
}

// needsUnits reports whether the action type addresses units.
func (t ActionType) needsUnits() bool {
	switch t {
	case ActionMove, ActionStop, ActionHold, ActionPatrol, ActionAttack,
		ActionAttackMove, ActionAttackGround, ActionGather, ActionRepair,
		ActionHeal:
		return true
	}
	return false
}

// needsTargetPoint reports whether the action type requires a map position.
func (t ActionType) needsTargetPoint() bool {
	switch t {
	case ActionMove, ActionPatrol, ActionAttackMove, ActionAttackGround,
		ActionBuild, ActionRally:
		return true
	}
	return false
}
