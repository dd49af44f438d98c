package game

import (
	"encoding/json"
	"time"
)

// EventType classifies match log entries.
type EventType uint8

const (
	EventTypeUnknown EventType = iota
	EventTypeMatchStart
	EventTypeAction
	EventTypeUnitTrained
	EventTypeBuildingPlaced
	EventTypeBuildingComplete
	EventTypeUnitKilled
	EventTypeBuildingDestroyed
	EventTypeElimination
	EventTypeGameOver
)

// EventVersion guards replay compatibility across schema changes.
const EventVersion uint8 = 1

// Event is one match log entry, written as a JSONL line.
type Event struct {
	Version   uint8     `json:"version"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"` // unix nano
	Sequence  uint64    `json:"sequence"`  // monotonic per log
	Tick      int64     `json:"tick"`
	RoomID    string    `json:"roomId,omitempty"`
	PlayerID  string    `json:"playerId,omitempty"` // attributed player
	Payload   []byte    `json:"payload,omitempty"`  // JSON-encoded detail
}

func (t EventType) String() string {
	switch t {
	case EventTypeMatchStart:
		return "match_start"
	case EventTypeAction:
		return "action"
	case EventTypeUnitTrained:
		return "unit_trained"
	case EventTypeBuildingPlaced:
		return "building_placed"
	case EventTypeBuildingComplete:
		return "building_complete"
	case EventTypeUnitKilled:
		return "unit_killed"
	case EventTypeBuildingDestroyed:
		return "building_destroyed"
	case EventTypeElimination:
		return "elimination"
	case EventTypeGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Typed payloads.

// MatchStartPayload records the reproducibility inputs.
type MatchStartPayload struct {
	Seed       int64      `json:"seed"`
	Difficulty Difficulty `json:"difficulty,omitempty"`
	PlayerIDs  []string   `json:"playerIds"`
}

// ActionPayload records one accepted player action.
type ActionPayload struct {
	ActionType ActionType `json:"actionType"`
	ActionID   string     `json:"actionId,omitempty"`
}

// UnitPayload records a unit lifecycle event.
type UnitPayload struct {
	UnitID  string      `json:"unitId"`
	Variant UnitVariant `json:"variant"`
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
}

// BuildingPayload records a building lifecycle event.
type BuildingPayload struct {
	BuildingID string          `json:"buildingId"`
	Variant    BuildingVariant `json:"variant"`
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
}

// GameOverPayload records the terminal result.
type GameOverPayload struct {
	Winner string `json:"winner,omitempty"`
	Reason string `json:"reason"`
}

// EncodePayload marshals a payload; nil on failure.
func EncodePayload(payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return data
}

// NewEvent stamps an event with the wall clock.
func NewEvent(eventType EventType, tick int64, roomID, playerID string, payload interface{}) Event {
	return Event{
		Version:   EventVersion,
		Type:      eventType,
		Timestamp: time.Now().UnixNano(),
		Tick:      tick,
		RoomID:    roomID,
		PlayerID:  playerID,
		Payload:   EncodePayload(payload),
	}
}
