package main

import (
	"sort"
	"sync"
)

// Registry tracks every live room and the room each player belongs to. It
// deals only in identities; entity state stays inside the rooms.
type Registry struct {
	mu         sync.RWMutex
	rooms      map[string]*Room
	playerRoom map[string]string
}

func NewRegistry() *Registry {
	return &Registry{
		rooms:      make(map[string]*Room),
		playerRoom: make(map[string]string),
	}
}

// CreateRoom registers a new room and starts its loops.
func (g *Registry) CreateRoom(name string, maxPlayers int) *Room {
	room := NewRoom(name, maxPlayers)

	g.mu.Lock()
	g.rooms[room.ID] = room
	g.mu.Unlock()

	go room.Run()
	g.publishCounts()
	Log.Infow("room created", "room", room.ID, "name", name, "capacity", room.MaxPlayers)
	return room
}

// Room looks up a room by id.
func (g *Registry) Room(id string) (*Room, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	room, ok := g.rooms[id]
	return room, ok
}

// RoomForPlayer resolves the room a player currently belongs to.
func (g *Registry) RoomForPlayer(playerID string) (*Room, bool) {
	g.mu.RLock()
	roomID, ok := g.playerRoom[playerID]
	if !ok {
		g.mu.RUnlock()
		return nil, false
	}
	room, ok := g.rooms[roomID]
	g.mu.RUnlock()
	return room, ok
}

// JoinRoom admits a player into a specific room.
func (g *Registry) JoinRoom(roomID, name string) (*Room, *Player, error) {
	room, ok := g.Room(roomID)
	if !ok {
		return nil, nil, ErrRoomNotFound
	}
	player, err := room.AddPlayer(name)
	if err != nil {
		return nil, nil, err
	}
	g.mu.Lock()
	g.playerRoom[player.ID] = room.ID
	g.mu.Unlock()
	g.publishCounts()
	return room, player, nil
}

// QuickMatch places a player into the fullest joinable room so that matches
// fill up and start instead of players spreading thin across half-empty
// rooms. With no joinable room a fresh one is created.
func (g *Registry) QuickMatch(name string) (*Room, *Player, error) {
	for {
		room := g.fullestJoinable()
		if room == nil {
			room = g.CreateRoom("Quick Match Room", DefaultRoomSize)
		}
		player, err := room.AddPlayer(name)
		if err != nil {
			// Lost the race for the last slot; pick again.
			continue
		}
		g.mu.Lock()
		g.playerRoom[player.ID] = room.ID
		g.mu.Unlock()
		g.publishCounts()
		return room, player, nil
	}
}

func (g *Registry) fullestJoinable() *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var best *Room
	bestCount := -1
	for _, room := range g.rooms {
		if !room.CanJoin() {
			continue
		}
		if n := room.PlayerCount(); n > bestCount {
			best, bestCount = room, n
		}
	}
	return best
}

// RemovePlayer detaches a player from their room, tearing the room down when
// it becomes empty. Idempotent: a second call for the same player returns
// nils.
func (g *Registry) RemovePlayer(playerID string) (*Room, *Player) {
	g.mu.Lock()
	roomID, ok := g.playerRoom[playerID]
	if !ok {
		g.mu.Unlock()
		return nil, nil
	}
	delete(g.playerRoom, playerID)
	room := g.rooms[roomID]
	g.mu.Unlock()

	if room == nil {
		return nil, nil
	}
	player := room.RemovePlayer(playerID)

	// Closing under the room lock shuts out joins racing the teardown.
	if room.closeIfEmpty() {
		g.mu.Lock()
		delete(g.rooms, roomID)
		g.mu.Unlock()
		room.Stop()
		Log.Infow("room removed", "room", roomID)
	}
	g.publishCounts()
	return room, player
}

// ListRooms returns all room projections, newest first.
func (g *Registry) ListRooms() []RoomInfo {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	infos := make([]RoomInfo, 0, len(rooms))
	for _, room := range rooms {
		infos = append(infos, room.Info())
	}
	return infos
}

// RegistryStats is the aggregate lobby counters served over REST.
type RegistryStats struct {
	TotalRooms   int `json:"totalRooms"`
	TotalPlayers int `json:"totalPlayers"`
	WaitingRooms int `json:"waitingRooms"`
	PlayingRooms int `json:"playingRooms"`
}

// Stats counts rooms and players by lifecycle state.
func (g *Registry) Stats() RegistryStats {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	g.mu.RUnlock()

	var s RegistryStats
	s.TotalRooms = len(rooms)
	for _, room := range rooms {
		s.TotalPlayers += room.PlayerCount()
		switch room.Status() {
		case StatusWaiting:
			s.WaitingRooms++
		case StatusPlaying:
			s.PlayingRooms++
		}
	}
	return s
}

func (g *Registry) publishCounts() {
	s := g.Stats()
	SetRoomCount(s.TotalRooms)
	SetPlayerCount(s.TotalPlayers)
}
