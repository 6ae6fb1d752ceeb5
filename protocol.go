package main

import "encoding/json"

// MessageType is the closed set of wire message kinds. Incoming messages
// carrying any other type are dropped.
type MessageType string

// Client -> Server message types
const (
	MsgJoin       MessageType = "join"
	MsgMove       MessageType = "move"
	MsgShoot      MessageType = "shoot"
	MsgChat       MessageType = "chat"
	MsgDisconnect MessageType = "disconnect"
	MsgRespawn    MessageType = "respawn"
)

// Server -> Client message types
const (
	MsgPlayerID         MessageType = "playerId"
	MsgPlayerJoined     MessageType = "playerJoined"
	MsgPositionUpdate   MessageType = "positionUpdate"
	MsgBulletCreated    MessageType = "bulletCreated"
	MsgChatMessage      MessageType = "chatMessage"
	MsgPlayerLeft       MessageType = "playerLeft"
	MsgGameState        MessageType = "gameState"
	MsgRespawnConfirmed MessageType = "respawnConfirmed"
	MsgError            MessageType = "error"
)

// Envelope wraps all outgoing messages. PlayerID/PlayerName/Text ride at the
// top level next to Data so clients can read them without digging into the
// payload.
type Envelope struct {
	Type       MessageType `json:"type"`
	Data       interface{} `json:"data,omitempty"`
	PlayerID   string      `json:"playerId,omitempty"`
	PlayerName string      `json:"playerName,omitempty"`
	Text       string      `json:"text,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids
// double-unmarshal of the payload.
type InEnvelope struct {
	Type       MessageType     `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	PlayerID   string          `json:"playerId,omitempty"`
	PlayerName string          `json:"playerName,omitempty"`
	Text       string          `json:"text,omitempty"`
}

// JoinData carries the display name of a joining player and, optionally, a
// specific room to join instead of quick-matching.
type JoinData struct {
	PlayerName string `json:"playerName"`
	RoomID     string `json:"roomId,omitempty"`
}

// MoveData is a client movement intent. Direction is one of the four
// cardinal Direction values.
type MoveData struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction int     `json:"direction"`
}

// ShootData is a client fire intent reporting the muzzle position.
type ShootData struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Direction int     `json:"direction"`
}

// decodeJoin accepts both the object form {"playerName":"x","roomId":"y"}
// and a bare JSON string name, which older clients send.
func decodeJoin(raw json.RawMessage) (name, roomID string) {
	var obj JoinData
	if err := json.Unmarshal(raw, &obj); err == nil && (obj.PlayerName != "" || obj.RoomID != "") {
		return obj.PlayerName, obj.RoomID
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, ""
	}
	return "", ""
}

// PlayerState is the per-player slice of a snapshot.
type PlayerState struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Direction    int     `json:"direction"`
	Health       int     `json:"health"`
	MaxHealth    int     `json:"maxHealth"`
	Score        int     `json:"score"`
	Kills        int     `json:"kills"`
	Deaths       int     `json:"deaths"`
	Color        string  `json:"color"`
	Speed        float64 `json:"speed"`
	Alive        bool    `json:"alive"`
	PowerUpLevel int     `json:"powerUpLevel"`
	PowerUpType  string  `json:"powerUpType"`
}

// BulletState is the per-bullet slice of a snapshot.
type BulletState struct {
	ID       string  `json:"id"`
	PlayerID string  `json:"playerId"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	VX       float64 `json:"vx"`
	VY       float64 `json:"vy"`
	Damage   int     `json:"damage"`
	Active   bool    `json:"active"`
}

type ObstacleState struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Width        float64 `json:"width"`
	Height       float64 `json:"height"`
	Kind         string  `json:"type"`
	Health       int     `json:"health"`
	Destructible bool    `json:"destructible"`
}

type PowerUpState struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Kind   string  `json:"type"`
	Color  string  `json:"color"`
	Radius float64 `json:"radius"`
	Active bool    `json:"active"`
}

type BaseState struct {
	ID        string  `json:"id"`
	TeamID    string  `json:"teamId"`
	TeamName  string  `json:"teamName"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Health    int     `json:"health"`
	MaxHealth int     `json:"maxHealth"`
	Destroyed bool    `json:"destroyed"`
	Color     string  `json:"color"`
}

// GameState is the full room snapshot broadcast to clients. It is encoded
// with msgpack and sent as a binary WebSocket frame; everything else on the
// wire is JSON text.
type GameState struct {
	RoomID      string                 `json:"roomId"`
	Status      string                 `json:"status"`
	Players     map[string]PlayerState `json:"players"`
	Bullets     []BulletState          `json:"bullets"`
	Obstacles   []ObstacleState        `json:"obstacles"`
	PowerUps    []PowerUpState         `json:"powerUps"`
	Bases       []BaseState            `json:"bases"`
	GameRunning bool                   `json:"gameRunning"`
	MapWidth    float64                `json:"mapWidth"`
	MapHeight   float64                `json:"mapHeight"`
}

// RoomInfo is the REST projection of a room.
type RoomInfo struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	MaxPlayers     int    `json:"maxPlayers"`
	CurrentPlayers int    `json:"currentPlayers"`
	Status         string `json:"status"`
	CreatedAt      int64  `json:"createdAt"`
}
