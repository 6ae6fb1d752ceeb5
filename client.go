package main

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufSize    = 256
	maxNameLen     = 16
)

// Client represents a WebSocket connection
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	limiter    *rate.Limiter
	remoteAddr string

	playerID   string
	playerName string
	roomID     string

	// leaveOnce collapses the two disconnect routes (explicit message and
	// connection teardown) into one departure.
	leaveOnce sync.Once
}

// NewClient creates a new Client
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		limiter:    rate.NewLimiter(rate.Limit(hub.msgRate), hub.msgBurst),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("ws read error", "addr", c.remoteAddr, "err", err)
			}
			break
		}

		if !c.limiter.Allow() {
			Log.Warnw("rate limit exceeded, disconnecting", "addr", c.remoteAddr)
			RecordConnectionRejected("rate_limit")
			break
		}
		IncWSMessages()
		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// Check for binary marker (0xFF prefix from SendBinary)
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client
func (c *Client) SendJSON(msg Envelope) {
	data, err := json.Marshal(msg)
	if err != nil {
		Log.Warnw("marshal error", "err", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF marker byte so WritePump can distinguish from text
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF // binary marker
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming messages (single-pass decode via InEnvelope).
// Unknown types are dropped.
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		Log.Debugw("unmarshal error", "addr", c.remoteAddr, "err", err)
		return
	}

	switch env.Type {
	case MsgJoin:
		c.handleJoin(env)
	case MsgMove:
		c.handleMove(env.Data)
	case MsgShoot:
		c.handleShoot(env.Data)
	case MsgChat:
		c.handleChat(env)
	case MsgRespawn:
		c.handleRespawn()
	case MsgDisconnect:
		c.leave()
	}
}

// handleJoin places the player into a room, replays their persisted totals
// onto the fresh player, and sends them their id followed by an initial
// snapshot. A join naming a roomId targets that room and reports failures
// back over the wire; otherwise the player is quick-matched. Everyone else
// in the room learns about the newcomer.
func (c *Client) handleJoin(env InEnvelope) {
	if c.playerID != "" {
		return // already in a room
	}
	name := env.PlayerName
	var roomID string
	if len(env.Data) > 0 {
		dataName, dataRoom := decodeJoin(env.Data)
		if name == "" {
			name = dataName
		}
		roomID = dataRoom
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Tank"
	}
	name = truncateUTF8(name, maxNameLen)

	var (
		room   *Room
		player *Player
		err    error
	)
	if roomID != "" {
		room, player, err = c.hub.registry.JoinRoom(roomID, name)
	} else {
		room, player, err = c.hub.registry.QuickMatch(name)
	}
	if err != nil {
		Log.Infow("join refused", "name", name, "room", roomID, "err", err)
		c.SendJSON(Envelope{Type: MsgError, Text: err.Error()})
		return
	}
	c.playerID = player.ID
	c.playerName = player.Name
	c.roomID = room.ID
	room.SetClient(player.ID, c)

	if c.hub.db != nil {
		if saved, err := c.hub.db.FindStatsByName(name); err == nil && saved != nil {
			room.SeedStats(player.ID, saved.TotalScore, saved.TotalKills, saved.TotalDeaths)
		}
	}

	c.SendJSON(Envelope{Type: MsgPlayerID, PlayerID: player.ID, Data: map[string]string{"roomId": room.ID}})
	room.BroadcastJSON(Envelope{
		Type:       MsgPlayerJoined,
		PlayerID:   player.ID,
		PlayerName: player.Name,
		Data:       player.ToState(),
	}, player.ID)

	snapshotToClient(room, c)
	Log.Infow("player joined", "player", player.ID, "name", player.Name, "room", room.ID)
}

// handleMove applies a movement intent and broadcasts the player's actual
// resulting position, which on a rejected move is the unchanged old one.
func (c *Client) handleMove(data json.RawMessage) {
	if c.playerID == "" {
		return
	}
	var move MoveData
	if err := json.Unmarshal(data, &move); err != nil {
		return
	}
	room, ok := c.hub.registry.RoomForPlayer(c.playerID)
	if !ok {
		return
	}
	x, y, dir, ok := room.UpdatePlayerPosition(c.playerID, move.X, move.Y, Direction(move.Direction))
	if !ok {
		return
	}
	room.BroadcastJSON(Envelope{
		Type:     MsgPositionUpdate,
		PlayerID: c.playerID,
		Data:     MoveData{X: x, Y: y, Direction: int(dir)},
	}, "")
}

func (c *Client) handleShoot(data json.RawMessage) {
	if c.playerID == "" {
		return
	}
	var shoot ShootData
	if err := json.Unmarshal(data, &shoot); err != nil {
		return
	}
	room, ok := c.hub.registry.RoomForPlayer(c.playerID)
	if !ok {
		return
	}
	bullet := room.CreateBullet(c.playerID, shoot.X, shoot.Y, Direction(shoot.Direction))
	if bullet == nil {
		return
	}
	room.BroadcastJSON(Envelope{
		Type:     MsgBulletCreated,
		PlayerID: c.playerID,
		Data:     bullet.ToState(),
	}, "")
}

func (c *Client) handleChat(env InEnvelope) {
	if c.playerID == "" {
		return
	}
	room, ok := c.hub.registry.RoomForPlayer(c.playerID)
	if !ok {
		return
	}
	msg, ok := c.hub.chat.Add(room.ID, c.playerID, c.playerName, env.Text)
	if !ok {
		return
	}
	room.BroadcastJSON(Envelope{
		Type:       MsgChatMessage,
		PlayerID:   c.playerID,
		PlayerName: c.playerName,
		Text:       msg.Content,
		Data:       msg,
	}, "")
}

// handleRespawn revives the player, persists their carried-over totals and
// pushes a fresh snapshot to the whole room.
func (c *Client) handleRespawn() {
	if c.playerID == "" {
		return
	}
	room, ok := c.hub.registry.RoomForPlayer(c.playerID)
	if !ok {
		return
	}
	state, ok := room.RespawnPlayer(c.playerID)
	if !ok {
		return
	}
	if c.hub.stats != nil {
		c.hub.stats.Flush(state.Name, state.Score, state.Kills, state.Deaths)
	}
	room.BroadcastSnapshot()
	c.SendJSON(Envelope{Type: MsgRespawnConfirmed, PlayerID: c.playerID, Data: state})
}

// leave detaches the client from its room exactly once, persisting final
// totals and notifying the remaining players.
func (c *Client) leave() {
	c.leaveOnce.Do(func() {
		if c.playerID == "" {
			return
		}
		room, player := c.hub.registry.RemovePlayer(c.playerID)
		if room == nil || player == nil {
			return
		}
		if c.hub.stats != nil {
			c.hub.stats.Flush(player.Name, player.Score, player.Kills, player.Deaths)
		}
		room.BroadcastJSON(Envelope{
			Type:       MsgPlayerLeft,
			PlayerID:   player.ID,
			PlayerName: player.Name,
		}, player.ID)
		if _, ok := c.hub.registry.Room(room.ID); !ok {
			c.hub.chat.DropRoom(room.ID)
		}
		Log.Infow("player left", "player", player.ID, "room", room.ID)
	})
}

// snapshotToClient unicasts the current room state as a binary frame.
func snapshotToClient(room *Room, b Broadcaster) {
	data, err := msgpack.Marshal(room.Snapshot())
	if err != nil {
		Log.Warnw("snapshot encode failed", "room", room.ID, "err", err)
		return
	}
	b.SendBinary(data)
}
