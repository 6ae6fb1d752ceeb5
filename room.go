package main

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

const (
	DefaultMapWidth  = 800.0
	DefaultMapHeight = 600.0

	DefaultRoomSize = 8
	MinRoomSize     = 2
	MaxRoomSize     = 8

	// MoveMargin keeps tank centers away from the map edge.
	MoveMargin = 20.0
)

// RoomStatus is the room lifecycle state machine: waiting -> playing ->
// finished, with a reset back to waiting when the last player leaves.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusPlaying  RoomStatus = "playing"
	StatusFinished RoomStatus = "finished"
)

var (
	ErrRoomFull        = errors.New("room is full")
	ErrRoomNotJoinable = errors.New("room is not accepting players")
	ErrRoomNotFound    = errors.New("room not found")
)

// Broadcaster is the outbound half of a session, implemented by Client.
// All methods must be non-blocking.
type Broadcaster interface {
	SendJSON(msg Envelope)
	SendRaw(data []byte)
	SendBinary(data []byte)
}

// Room is an isolated match instance. It exclusively owns its entity
// collections; every mutation goes through its lock. The simulation loop,
// the broadcast loop and all session intent handlers share that lock, each
// mutation being a single-element operation.
type Room struct {
	ID         string
	Name       string
	MaxPlayers int
	MapWidth   float64
	MapHeight  float64
	CreatedAt  time.Time

	mu        sync.RWMutex
	status    RoomStatus
	closed    bool
	startedAt time.Time
	players   map[string]*Player
	bullets   []*Bullet
	obstacles []*Obstacle
	powerUps  []*PowerUp
	bases     []*Base
	clients   map[string]Broadcaster

	// now is the room's clock; tests replace it to drive expiry.
	now func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRoom creates an empty waiting room. Zero or negative capacity means the
// default; anything else is clamped to [MinRoomSize, MaxRoomSize].
func NewRoom(name string, maxPlayers int) *Room {
	if maxPlayers <= 0 {
		maxPlayers = DefaultRoomSize
	}
	if maxPlayers < MinRoomSize {
		maxPlayers = MinRoomSize
	}
	if maxPlayers > MaxRoomSize {
		maxPlayers = MaxRoomSize
	}
	return &Room{
		ID:         uuid.NewString(),
		Name:       name,
		MaxPlayers: maxPlayers,
		MapWidth:   DefaultMapWidth,
		MapHeight:  DefaultMapHeight,
		CreatedAt:  time.Now(),
		status:     StatusWaiting,
		players:    make(map[string]*Player),
		clients:    make(map[string]Broadcaster),
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// AddPlayer creates a player at a free spawn point and admits them. It fails
// with an explicit error if the room is full or no longer waiting. Reaching
// capacity starts the game.
func (r *Room) AddPlayer(name string) (*Player, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.status != StatusWaiting {
		return nil, ErrRoomNotJoinable
	}
	if len(r.players) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}

	x, y := SpawnPoint(r.MapWidth, r.MapHeight, r.playerList(), r.obstacles)
	player := NewPlayer(name, x, y)
	r.players[player.ID] = player

	if len(r.players) >= r.MaxPlayers {
		r.startGame()
	}
	return player, nil
}

// SeedStats overwrites a player's cumulative counters from the statistics
// store, so a returning player continues from their persisted totals.
func (r *Room) SeedStats(playerID string, score, kills, deaths int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[playerID]; ok {
		p.Score = score
		p.Kills = kills
		p.Deaths = deaths
	}
}

// RemovePlayer removes a player by id and returns it, or nil if unknown.
// When the last player leaves the room resets to waiting.
func (r *Room) RemovePlayer(playerID string) *Player {
	r.mu.Lock()
	defer r.mu.Unlock()

	player, ok := r.players[playerID]
	if !ok {
		return nil
	}
	delete(r.players, playerID)
	delete(r.clients, playerID)
	if len(r.players) == 0 {
		r.status = StatusWaiting
	}
	return player
}

// closeIfEmpty marks the room closed when it has no players, so a join
// racing the teardown cannot land in a room about to be dropped. A closed
// room never admits players again. Reports whether the room was closed.
func (r *Room) closeIfEmpty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) > 0 {
		return false
	}
	r.closed = true
	return true
}

// SetClient attaches an outbound session to a player.
func (r *Room) SetClient(playerID string, client Broadcaster) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[playerID] = client
}

// startGame transitions to playing and generates the map. Callers hold the
// lock.
func (r *Room) startGame() {
	r.status = StatusPlaying
	r.startedAt = r.now()
	r.obstacles = generateObstacles(r.MapWidth, r.MapHeight)
	r.powerUps = generatePowerUps(r.MapWidth, r.MapHeight, r.now())
	r.bases = generateBases(r.MapWidth, r.MapHeight)
	Log.Infow("game started", "room", r.ID, "players", len(r.players))
}

// EndGame is the external hook for ending a match (time limit and similar
// policies live outside the core).
func (r *Room) EndGame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = StatusFinished
}

// Tick advances the simulation by one step: bullet integration, power-up
// aging, collision resolution, then compaction, in that fixed order. Passes 1-3
// only mark entities inactive; pass 4 is the single point where collections
// shrink.
func (r *Room) Tick() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()

	// 1. Bullet integration and out-of-bounds deactivation.
	for _, b := range r.bullets {
		if !b.Active {
			continue
		}
		b.Update()
		if b.X < 0 || b.X > r.MapWidth || b.Y < 0 || b.Y > r.MapHeight {
			b.Active = false
		}
	}

	// 2. Power-up aging.
	for _, pu := range r.powerUps {
		if pu.Active && pu.Expired(now) {
			pu.Active = false
		}
	}

	// 3a. Bullet × player. A bullet hits at most one player and is dead
	// afterwards, so it must not be tested against anyone else this tick.
	for _, b := range r.bullets {
		if !b.Active {
			continue
		}
		for _, p := range r.players {
			if p.ID == b.PlayerID || !p.Alive {
				continue
			}
			if Overlaps(b.X, b.Y, BulletProbe, p.X, p.Y, TankProbe, TankProbe) {
				died := p.TakeDamage(b.Damage)
				b.Active = false
				if died {
					if shooter, ok := r.players[b.PlayerID]; ok {
						shooter.AddKill()
					}
				}
				break
			}
		}
	}

	// 3b. Bullet × obstacle. Damage is a no-op on indestructible material
	// but still consumes the bullet.
	for _, b := range r.bullets {
		if !b.Active {
			continue
		}
		for _, o := range r.obstacles {
			if Overlaps(b.X, b.Y, BulletProbe, o.X, o.Y, o.Width, o.Height) {
				o.TakeDamage(b.Damage)
				b.Active = false
				break
			}
		}
	}

	// 3c. Player × power-up.
	for _, p := range r.players {
		if !p.Alive {
			continue
		}
		for _, pu := range r.powerUps {
			if !pu.Active {
				continue
			}
			if Overlaps(p.X, p.Y, TankProbe, pu.X, pu.Y, pu.Radius*2, pu.Radius*2) {
				applyPowerUpEffect(p, pu.Kind)
				pu.Active = false
			}
		}
	}

	// 4. Compaction.
	r.bullets = compactBullets(r.bullets)
	r.powerUps = compactPowerUps(r.powerUps)
	r.obstacles = compactObstacles(r.obstacles)
}

func compactBullets(in []*Bullet) []*Bullet {
	out := in[:0]
	for _, b := range in {
		if b.Active {
			out = append(out, b)
		}
	}
	return out
}

func compactPowerUps(in []*PowerUp) []*PowerUp {
	out := in[:0]
	for _, pu := range in {
		if pu.Active {
			out = append(out, pu)
		}
	}
	return out
}

func compactObstacles(in []*Obstacle) []*Obstacle {
	out := in[:0]
	for _, o := range in {
		if !o.Destroyed() {
			out = append(out, o)
		}
	}
	return out
}

// UpdatePlayerPosition applies a movement intent. The candidate is clamped
// to the map margin and rejected wholesale (position and direction together)
// if it would collide with an obstacle or another player. The returned
// coordinates are the player's actual position afterwards, which on
// rejection is silently the old one. ok is false for an unknown or dead
// player.
func (r *Room) UpdatePlayerPosition(playerID string, x, y float64, dir Direction) (float64, float64, Direction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, found := r.players[playerID]
	if !found || !p.Alive || !dir.Valid() {
		return 0, 0, 0, false
	}

	x = Clamp(x, MoveMargin, r.MapWidth-MoveMargin)
	y = Clamp(y, MoveMargin, r.MapHeight-MoveMargin)

	if !r.moveBlocked(x, y, playerID) {
		p.MoveTo(x, y, dir)
	}
	return p.X, p.Y, p.Direction, true
}

// moveBlocked reports whether a tank probe at (x,y) collides with any
// obstacle or any other player. Callers hold the lock.
func (r *Room) moveBlocked(x, y float64, selfID string) bool {
	if collidesObstacles(x, y, TankProbe, r.obstacles) {
		return true
	}
	for _, other := range r.players {
		if other.ID == selfID {
			continue
		}
		if Overlaps(x, y, TankProbe, other.X, other.Y, TankProbe, TankProbe) {
			return true
		}
	}
	return false
}

// CreateBullet spawns a bullet for an alive, known player at the reported
// position, moving along the given facing. Returns nil otherwise.
func (r *Room) CreateBullet(playerID string, x, y float64, dir Direction) *Bullet {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.players[playerID]
	if !ok || !p.Alive || !dir.Valid() {
		return nil
	}
	b := NewBullet(playerID, x, y, dir, r.now())
	r.bullets = append(r.bullets, b)
	return b
}

// RespawnPlayer revives a player at a fresh spawn point. Score, kills and
// deaths carry over. The returned state is a copy safe to use outside the
// lock; ok is false for an unknown player.
func (r *Room) RespawnPlayer(playerID string) (PlayerState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, found := r.players[playerID]
	if !found {
		return PlayerState{}, false
	}
	x, y := SpawnPoint(r.MapWidth, r.MapHeight, r.playerList(), r.obstacles)
	p.Respawn(x, y)
	return p.ToState(), true
}

// playerList returns the players as a slice. Callers hold the lock.
func (r *Room) playerList() []*Player {
	list := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		list = append(list, p)
	}
	return list
}

// Snapshot builds the serializable projection of the room.
func (r *Room) Snapshot() GameState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state := GameState{
		RoomID:      r.ID,
		Status:      string(r.status),
		Players:     make(map[string]PlayerState, len(r.players)),
		Bullets:     make([]BulletState, 0, len(r.bullets)),
		Obstacles:   make([]ObstacleState, 0, len(r.obstacles)),
		PowerUps:    make([]PowerUpState, 0, len(r.powerUps)),
		Bases:       make([]BaseState, 0, len(r.bases)),
		GameRunning: r.status == StatusPlaying,
		MapWidth:    r.MapWidth,
		MapHeight:   r.MapHeight,
	}
	for id, p := range r.players {
		state.Players[id] = p.ToState()
	}
	for _, b := range r.bullets {
		state.Bullets = append(state.Bullets, b.ToState())
	}
	for _, o := range r.obstacles {
		state.Obstacles = append(state.Obstacles, o.ToState())
	}
	for _, pu := range r.powerUps {
		state.PowerUps = append(state.PowerUps, pu.ToState())
	}
	for _, b := range r.bases {
		state.Bases = append(state.Bases, b.ToState())
	}
	return state
}

// BroadcastSnapshot serializes the current snapshot once and fans it out to
// every attached session as a binary frame. Slow or closed sessions drop the
// frame instead of stalling the loop.
func (r *Room) BroadcastSnapshot() {
	data, err := msgpack.Marshal(r.Snapshot())
	if err != nil {
		Log.Warnw("snapshot encode failed", "room", r.ID, "err", err)
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.clients {
		c.SendBinary(data)
	}
}

// BroadcastJSON serializes msg once and sends it to every attached session
// except excludePlayerID (empty string excludes nobody).
func (r *Room) BroadcastJSON(msg Envelope, excludePlayerID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		Log.Warnw("message encode failed", "room", r.ID, "err", err)
		return
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, c := range r.clients {
		if id == excludePlayerID {
			continue
		}
		c.SendRaw(data)
	}
}

// PlayerCount returns the current membership.
func (r *Room) PlayerCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Status returns the lifecycle state.
func (r *Room) Status() RoomStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// CanJoin reports whether the room is waiting with spare capacity.
func (r *Room) CanJoin() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.closed && r.status == StatusWaiting && len(r.players) < r.MaxPlayers
}

// Info returns the REST projection of the room.
func (r *Room) Info() RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return RoomInfo{
		ID:             r.ID,
		Name:           r.Name,
		MaxPlayers:     r.MaxPlayers,
		CurrentPlayers: len(r.players),
		Status:         string(r.status),
		CreatedAt:      r.CreatedAt.UnixMilli(),
	}
}

// PlayerStates returns copies of all player projections.
func (r *Room) PlayerStates() []PlayerState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	states := make([]PlayerState, 0, len(r.players))
	for _, p := range r.players {
		states = append(states, p.ToState())
	}
	return states
}
