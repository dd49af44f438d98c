package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"rts-arena/internal/config"
	"rts-arena/internal/game"
	"rts-arena/internal/room"
)

// noopSink satisfies room.Sink for REST-level tests that never read the
// scheduler's output.
type noopSink struct{}

func (noopSink) GameStart(roomID string, info game.StartInfo)             {}
func (noopSink) Snapshot(roomID, playerID string, snap game.Snapshot)     {}
func (noopSink) ActionAccepted(roomID, playerID, actionID string)         {}
func (noopSink) ActionRejected(roomID, playerID, actionID, reason string) {}
func (noopSink) GameOver(roomID, winner, reason string)                   {}

func newTestServer(t *testing.T) (*httptest.Server, *room.Manager) {
	t.Helper()

	cfg := config.AppConfig{
		Game:    config.DefaultGame(),
		Room:    config.DefaultRoom(),
		Actions: config.DefaultActionLimits(),
		Server:  config.DefaultServer(),
	}
	manager := room.NewManager(cfg, nil)
	manager.SetSink(noopSink{})
	t.Cleanup(manager.Stop)

	router := NewRouter(RouterConfig{
		Manager:        manager,
		DisableLogging: true,
		RateLimitConfig: &RateLimitConfig{
			RequestsPerSecond: 1000,
			Burst:             1000,
			CleanupInterval:   time.Minute,
		},
	})
	ts := httptest.NewServer(router)
	t.Cleanup(ts.Close)
	return ts, manager
}

func postJSON(t *testing.T, url string, body interface{}) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response from %s: %v", url, err)
	}
	return resp, out
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()

	var out map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response from %s: %v", url, err)
	}
	return resp, out
}

// createRoom drives POST /api/rooms and returns the room id and host id.
func createRoom(t *testing.T, ts *httptest.Server, name string) (roomID, hostID string) {
	t.Helper()
	resp, out := postJSON(t, ts.URL+"/api/rooms", map[string]interface{}{
		"name":       name,
		"playerName": "Alice",
		"seed":       42,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create room status = %d, want 201", resp.StatusCode)
	}

	var info room.Info
	if err := json.Unmarshal(out["room"], &info); err != nil {
		t.Fatalf("decode room info: %v", err)
	}
	if err := json.Unmarshal(out["playerId"], &hostID); err != nil {
		t.Fatalf("decode playerId: %v", err)
	}
	if hostID == "" {
		t.Fatal("create room returned an empty playerId")
	}
	return info.ID, hostID
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, out := getJSON(t, ts.URL+"/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d, want 200", resp.StatusCode)
	}
	var status string
	json.Unmarshal(out["status"], &status)
	if status != "ok" {
		t.Errorf("health status field = %q, want ok", status)
	}
}

func TestCreateRoomEndpoint(t *testing.T) {
	ts, manager := newTestServer(t)

	roomID, _ := createRoom(t, ts, "arena")
	if _, ok := manager.Get(roomID); !ok {
		t.Error("created room not registered with the manager")
	}

	// Creator is already on the roster as host.
	_, out := getJSON(t, ts.URL+"/api/rooms/"+roomID)
	var info room.Info
	if err := json.Unmarshal(out["id"], &info.ID); err == nil && info.ID != roomID {
		t.Errorf("room id = %q, want %q", info.ID, roomID)
	}

	// Missing fields are rejected.
	resp, _ := postJSON(t, ts.URL+"/api/rooms", map[string]interface{}{"playerName": "Alice"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("nameless create status = %d, want 400", resp.StatusCode)
	}
	resp, _ = postJSON(t, ts.URL+"/api/rooms", map[string]interface{}{"name": "arena"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("playerless create status = %d, want 400", resp.StatusCode)
	}
}

func TestListAndGetRooms(t *testing.T) {
	ts, _ := newTestServer(t)
	roomID, _ := createRoom(t, ts, "arena")

	resp, out := getJSON(t, ts.URL+"/api/rooms")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d, want 200", resp.StatusCode)
	}
	var rooms []room.Info
	if err := json.Unmarshal(out["rooms"], &rooms); err != nil {
		t.Fatalf("decode rooms: %v", err)
	}
	if len(rooms) != 1 || rooms[0].ID != roomID {
		t.Errorf("list = %+v, want the one created room", rooms)
	}

	resp, err := http.Get(ts.URL + "/api/rooms/does-not-exist")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown room status = %d, want 404", resp.StatusCode)
	}
}

func TestJoinRoomEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	roomID, _ := createRoom(t, ts, "arena")
	joinURL := fmt.Sprintf("%s/api/rooms/%s/join", ts.URL, roomID)

	resp, out := postJSON(t, joinURL, map[string]interface{}{"playerName": "Bob"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("second join status = %d, want 200", resp.StatusCode)
	}
	var guestID string
	json.Unmarshal(out["playerId"], &guestID)
	if guestID == "" {
		t.Fatal("join returned an empty playerId")
	}

	resp, out = postJSON(t, joinURL, map[string]interface{}{"playerName": "Carol"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("overfull join status = %d, want 400", resp.StatusCode)
	}
	var errMsg string
	json.Unmarshal(out["error"], &errMsg)
	if errMsg == "" {
		t.Error("overfull join carried no error message")
	}
}

func TestReadyAndStartFlow(t *testing.T) {
	ts, _ := newTestServer(t)
	roomID, hostID := createRoom(t, ts, "arena")
	base := fmt.Sprintf("%s/api/rooms/%s", ts.URL, roomID)

	_, out := postJSON(t, base+"/join", map[string]interface{}{"playerName": "Bob"})
	var guestID string
	json.Unmarshal(out["playerId"], &guestID)

	for _, id := range []string{hostID, guestID} {
		resp, _ := postJSON(t, base+"/ready", map[string]interface{}{"playerId": id})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("ready for %s status = %d, want 200", id, resp.StatusCode)
		}
	}

	// Only the host may start.
	resp, _ := postJSON(t, base+"/start", map[string]interface{}{"playerId": guestID})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("guest start status = %d, want 400", resp.StatusCode)
	}

	resp, out = postJSON(t, base+"/start", map[string]interface{}{"playerId": hostID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("host start status = %d, want 200", resp.StatusCode)
	}
	var status room.Status
	json.Unmarshal(out["status"], &status)
	if status != room.StatusPlaying {
		t.Errorf("room status after start = %s, want playing", status)
	}
}

func TestLeaveRoomEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)
	roomID, hostID := createRoom(t, ts, "arena")
	base := fmt.Sprintf("%s/api/rooms/%s", ts.URL, roomID)

	resp, out := postJSON(t, base+"/leave", map[string]interface{}{"playerId": hostID})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leave status = %d, want 200", resp.StatusCode)
	}
	var success bool
	json.Unmarshal(out["success"], &success)
	if !success {
		t.Error("leave did not report success")
	}

	// Missing playerId is rejected.
	roomID2, _ := createRoom(t, ts, "arena2")
	resp, _ = postJSON(t, fmt.Sprintf("%s/api/rooms/%s/leave", ts.URL, roomID2), map[string]interface{}{})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("playerless leave status = %d, want 400", resp.StatusCode)
	}
}
