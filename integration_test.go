package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// ---------- helpers ----------

// startTestServer spins up an httptest.Server with the full stack and
// returns the server, its WebSocket URL, and a cleanup func.
func startTestServer(t *testing.T) (*httptest.Server, string, func()) {
	t.Helper()

	db, err := OpenDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenDB: %v", err)
	}
	stats := NewStatsWriter(db)
	registry := NewRegistry()
	chat := NewChatLog()

	cfg := Config{
		MaxConnsPerIP: 16,
		MaxTotalConns: 64,
		MsgRate:       200,
		MsgBurst:      400,
	}
	hub := NewHub(cfg, registry, db, stats, chat)
	go hub.Run()

	router := SetupRoutes(hub, t.TempDir())
	srv := httptest.NewServer(router)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	return srv, wsURL, func() {
		srv.Close()
		stats.Close()
		db.Close()
	}
}

func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	return conn
}

func sendMsg(t *testing.T, conn *websocket.Conn, env Envelope) {
	t.Helper()
	raw, _ := json.Marshal(env)
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// readUntil reads frames until a text message of the wanted type arrives,
// skipping binary state frames and other text messages.
func readUntil(t *testing.T, conn *websocket.Conn, want MessageType) InEnvelope {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read WS waiting for %s: %v", want, err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		var env InEnvelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if env.Type == want {
			return env
		}
	}
	t.Fatalf("no %s message within deadline", want)
	return InEnvelope{}
}

// readSnapshot reads frames until a binary state frame arrives.
func readSnapshot(t *testing.T, conn *websocket.Conn) GameState {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read WS waiting for snapshot: %v", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		var state GameState
		if err := msgpack.Unmarshal(raw, &state); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return state
	}
	t.Fatal("no snapshot within deadline")
	return GameState{}
}

func joinAs(t *testing.T, conn *websocket.Conn, name string) (playerID string) {
	t.Helper()
	sendMsg(t, conn, Envelope{Type: MsgJoin, PlayerName: name})
	env := readUntil(t, conn, MsgPlayerID)
	if env.PlayerID == "" {
		t.Fatal("playerId message should carry the assigned id")
	}
	return env.PlayerID
}

// ---------- WebSocket flow ----------

func TestJoinAssignsIDAndRoom(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	sendMsg(t, c, Envelope{Type: MsgJoin, PlayerName: "Alice"})
	env := readUntil(t, c, MsgPlayerID)

	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["roomId"] == "" {
		t.Error("join response should carry the room id")
	}

	state := readSnapshot(t, c)
	if _, ok := state.Players[env.PlayerID]; !ok {
		t.Error("initial snapshot should contain the joining player")
	}
}

func TestSecondJoinerAnnounced(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	joinAs(t, c1, "Alice")

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	bobID := joinAs(t, c2, "Bob")

	joined := readUntil(t, c1, MsgPlayerJoined)
	if joined.PlayerID != bobID || joined.PlayerName != "Bob" {
		t.Errorf("expected Bob's arrival, got %s/%s", joined.PlayerID, joined.PlayerName)
	}
}

func TestMoveEchoesActualPosition(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	id := joinAs(t, c, "Mover")

	// An out-of-bounds target clamps to the margin
	sendMsg(t, c, Envelope{Type: MsgMove, Data: MoveData{X: -50, Y: 300, Direction: int(DirLeft)}})
	update := readUntil(t, c, MsgPositionUpdate)
	if update.PlayerID != id {
		t.Errorf("update should name the mover, got %s", update.PlayerID)
	}
	var move MoveData
	if err := json.Unmarshal(update.Data, &move); err != nil {
		t.Fatal(err)
	}
	if move.X != MoveMargin {
		t.Errorf("broadcast position should be the clamped one, got %v", move.X)
	}
}

func TestShootBroadcastsBullet(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	id := joinAs(t, c, "Shooter")

	sendMsg(t, c, Envelope{Type: MsgShoot, Data: ShootData{X: 400, Y: 300, Direction: int(DirUp)}})
	created := readUntil(t, c, MsgBulletCreated)
	if created.PlayerID != id {
		t.Errorf("bullet should belong to the shooter, got %s", created.PlayerID)
	}
	var bullet BulletState
	if err := json.Unmarshal(created.Data, &bullet); err != nil {
		t.Fatal(err)
	}
	if bullet.VY != -BulletSpeed || bullet.VX != 0 {
		t.Errorf("upward bullet should move along -y, got (%v,%v)", bullet.VX, bullet.VY)
	}
}

func TestChatBroadcast(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	defer c1.Close()
	joinAs(t, c1, "Alice")

	c2 := dialWS(t, wsURL)
	defer c2.Close()
	joinAs(t, c2, "Bob")

	sendMsg(t, c1, Envelope{Type: MsgChat, Text: "good luck"})
	msg := readUntil(t, c2, MsgChatMessage)
	if msg.PlayerName != "Alice" || msg.Text != "good luck" {
		t.Errorf("unexpected chat broadcast: %s/%q", msg.PlayerName, msg.Text)
	}
}

func TestRespawnConfirmed(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	joinAs(t, c, "Phoenix")

	sendMsg(t, c, Envelope{Type: MsgRespawn})
	env := readUntil(t, c, MsgRespawnConfirmed)
	var state PlayerState
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatal(err)
	}
	if !state.Alive || state.Health != PlayerMaxHealth {
		t.Error("respawn confirmation should carry a live full-health player")
	}
}

func TestIntentsBeforeJoinIgnored(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()

	// None of these should crash the connection
	sendMsg(t, c, Envelope{Type: MsgMove, Data: MoveData{X: 100, Y: 100}})
	sendMsg(t, c, Envelope{Type: MsgShoot, Data: ShootData{X: 100, Y: 100}})
	sendMsg(t, c, Envelope{Type: MsgChat, Text: "anyone?"})
	sendMsg(t, c, Envelope{Type: "bogus"})

	if id := joinAs(t, c, "Late"); id == "" {
		t.Error("connection should survive pre-join intents")
	}
}

func TestDisconnectTearsDownRoom(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	joinAs(t, c, "Ghost")
	c.Close()

	// Wait for the hub to process the unregister
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(srv.URL + "/api/rooms")
		if err != nil {
			t.Fatal(err)
		}
		var rooms []RoomInfo
		json.NewDecoder(resp.Body).Decode(&rooms)
		resp.Body.Close()
		if len(rooms) == 0 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("empty room should be deleted after its only player disconnects")
}

func TestRejoinAfterDisconnect(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c1 := dialWS(t, wsURL)
	joinAs(t, c1, "Veteran")
	c1.Close()

	// A fresh connection under the same name gets a new player seeded from
	// whatever totals the store has for it.
	c2 := dialWS(t, wsURL)
	defer c2.Close()
	id2 := joinAs(t, c2, "Veteran")
	state := readSnapshot(t, c2)
	me, ok := state.Players[id2]
	if !ok || me.Name != "Veteran" {
		t.Error("rejoining player should appear in the snapshot")
	}
}

func TestJoinSpecificRoom(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	body := bytes.NewBufferString(`{"name":"Private","maxPlayers":4}`)
	resp, err := http.Post(srv.URL+"/api/rooms/create", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	var created RoomInfo
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	c := dialWS(t, wsURL)
	defer c.Close()
	sendMsg(t, c, Envelope{Type: MsgJoin, Data: JoinData{PlayerName: "Guest", RoomID: created.ID}})
	env := readUntil(t, c, MsgPlayerID)

	var data map[string]string
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data["roomId"] != created.ID {
		t.Errorf("targeted join should land in room %s, got %s", created.ID, data["roomId"])
	}
}

func TestJoinUnknownRoomReportsError(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	c := dialWS(t, wsURL)
	defer c.Close()
	sendMsg(t, c, Envelope{Type: MsgJoin, Data: JoinData{PlayerName: "Lost", RoomID: "missing"}})
	env := readUntil(t, c, MsgError)
	if env.Text == "" {
		t.Error("error message should say what went wrong")
	}

	// The connection survives and a plain join still quick-matches
	if id := joinAs(t, c, "Lost"); id == "" {
		t.Error("connection should survive a refused join")
	}
}

func TestJoinStartedRoomReportsError(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	body := bytes.NewBufferString(`{"name":"Duel","maxPlayers":2}`)
	resp, err := http.Post(srv.URL+"/api/rooms/create", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	var created RoomInfo
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	// Two targeted joins fill the duel and start the game
	for _, name := range []string{"A", "B"} {
		c := dialWS(t, wsURL)
		defer c.Close()
		sendMsg(t, c, Envelope{Type: MsgJoin, Data: JoinData{PlayerName: name, RoomID: created.ID}})
		readUntil(t, c, MsgPlayerID)
	}

	late := dialWS(t, wsURL)
	defer late.Close()
	sendMsg(t, late, Envelope{Type: MsgJoin, Data: JoinData{PlayerName: "C", RoomID: created.ID}})
	env := readUntil(t, late, MsgError)
	if env.Text != ErrRoomNotJoinable.Error() {
		t.Errorf("expected %q over the wire, got %q", ErrRoomNotJoinable.Error(), env.Text)
	}
}

// ---------- REST surface ----------

func TestHealthz(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz = %d, want 200", resp.StatusCode)
	}
}

func TestRoomLifecycleOverREST(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	body := bytes.NewBufferString(`{"name":"Arena","maxPlayers":4}`)
	resp, err := http.Post(srv.URL+"/api/rooms/create", "application/json", body)
	if err != nil {
		t.Fatal(err)
	}
	var created RoomInfo
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	if created.Name != "Arena" || created.MaxPlayers != 4 || created.Status != string(StatusWaiting) {
		t.Errorf("unexpected created room: %+v", created)
	}

	resp, err = http.Get(srv.URL + "/api/rooms/" + created.ID)
	if err != nil {
		t.Fatal(err)
	}
	var fetched RoomInfo
	json.NewDecoder(resp.Body).Decode(&fetched)
	resp.Body.Close()
	if fetched.ID != created.ID {
		t.Errorf("fetched wrong room: %+v", fetched)
	}

	resp, err = http.Get(srv.URL + "/api/rooms")
	if err != nil {
		t.Fatal(err)
	}
	var rooms []RoomInfo
	json.NewDecoder(resp.Body).Decode(&rooms)
	resp.Body.Close()
	if len(rooms) != 1 {
		t.Errorf("expected 1 room in list, got %d", len(rooms))
	}

	resp, err = http.Get(srv.URL + "/api/rooms/stats")
	if err != nil {
		t.Fatal(err)
	}
	var stats RegistryStats
	json.NewDecoder(resp.Body).Decode(&stats)
	resp.Body.Close()
	if stats.TotalRooms != 1 || stats.WaitingRooms != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestRoomNotFoundOverREST(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/api/rooms/missing")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing room status = %d, want 404", resp.StatusCode)
	}
}

func TestRoomQRCode(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	body := bytes.NewBufferString(`{"name":"QR","maxPlayers":4}`)
	resp, _ := http.Post(srv.URL+"/api/rooms/create", "application/json", body)
	var created RoomInfo
	json.NewDecoder(resp.Body).Decode(&created)
	resp.Body.Close()

	resp, err := http.Get(srv.URL + "/api/rooms/" + created.ID + "/qr")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("qr status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
		t.Errorf("qr content type = %q, want image/png", ct)
	}
}

func TestLeaderboardEndpoint(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/api/leaderboard?by=kills&limit=5")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("leaderboard status = %d, want 200", resp.StatusCode)
	}
	var entries []LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("leaderboard should decode as an array: %v", err)
	}
}

func TestChatHistoryEndpoint(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/api/chat/history")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("chat history status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d, want 200", resp.StatusCode)
	}
}
