package api

import (
	"encoding/json"
	"net/http"

	"rts-arena/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler methods for routerHandlers. Used by both the standalone router
// (for tests) and the full Server.

func (h *routerHandlers) handleListRooms(w http.ResponseWriter, r *http.Request) {
	infos := h.manager.List()
	UpdateRoomCount(len(infos))
	writeJSON(w, map[string]interface{}{"rooms": infos})
}

func (h *routerHandlers) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "Room not found", http.StatusNotFound)
		return
	}
	writeJSON(w, rm.Info())
}

func (h *routerHandlers) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		PlayerName   string `json:"playerName"`
		SinglePlayer bool   `json:"singlePlayer"`
		Difficulty   string `json:"difficulty"`
		Seed         int64  `json:"seed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.PlayerName == "" {
		writeError(w, "name and playerName are required", http.StatusBadRequest)
		return
	}

	rm, err := h.manager.CreateRoom(req.Name, req.SinglePlayer, game.Difficulty(req.Difficulty), req.Seed)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	playerID := uuid.NewString()
	if err := rm.Join(playerID, req.PlayerName); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	UpdateRoomCount(h.manager.Count())
	writeJSONStatus(w, http.StatusCreated, map[string]interface{}{
		"room":     rm.Info(),
		"playerId": playerID,
	})
}

func (h *routerHandlers) handleJoinRoom(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "Room not found", http.StatusNotFound)
		return
	}

	var req struct {
		PlayerName string `json:"playerName"`
		PlayerID   string `json:"playerId"` // set on reconnect
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	playerID := req.PlayerID
	if playerID == "" {
		if req.PlayerName == "" {
			writeError(w, "playerName is required", http.StatusBadRequest)
			return
		}
		playerID = uuid.NewString()
	}

	if err := rm.Join(playerID, req.PlayerName); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, map[string]interface{}{
		"room":     rm.Info(),
		"playerId": playerID,
	})
}

func (h *routerHandlers) handleLeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if _, ok := h.manager.Get(roomID); !ok {
		writeError(w, "Room not found", http.StatusNotFound)
		return
	}

	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeError(w, "playerId is required", http.StatusBadRequest)
		return
	}

	if err := h.manager.Leave(roomID, req.PlayerID); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	UpdateRoomCount(h.manager.Count())
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleReady(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "Room not found", http.StatusNotFound)
		return
	}

	var req struct {
		PlayerID string `json:"playerId"`
		Ready    *bool  `json:"ready"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeError(w, "playerId is required", http.StatusBadRequest)
		return
	}
	ready := true
	if req.Ready != nil {
		ready = *req.Ready
	}

	if err := rm.Ready(req.PlayerID, ready); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, rm.Info())
}

func (h *routerHandlers) handleStart(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.manager.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "Room not found", http.StatusNotFound)
		return
	}

	var req struct {
		PlayerID string `json:"playerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PlayerID == "" {
		writeError(w, "playerId is required", http.StatusBadRequest)
		return
	}

	if err := rm.Start(req.PlayerID); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, rm.Info())
}

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status": "ok",
		"rooms":  h.manager.Count(),
	})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
