package main

import "sync"

// Hub manages all connected clients and the shared services they use. Room
// membership lives in the Registry; the Hub only deals in connections.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client

	registry *Registry
	db       *DB
	stats    *StatsWriter
	chat     *ChatLog

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu        sync.Mutex
	ipConns       map[string]int
	totalConns    int
	maxConnsPerIP int
	maxTotalConns int

	msgRate  float64
	msgBurst int
}

// NewHub wires the session broker to the lobby, database and chat services
func NewHub(cfg Config, registry *Registry, db *DB, stats *StatsWriter, chat *ChatLog) *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		register:      make(chan *Client, 64),
		unregister:    make(chan *Client, 64),
		registry:      registry,
		db:            db,
		stats:         stats,
		chat:          chat,
		ipConns:       make(map[string]int),
		maxConnsPerIP: cfg.MaxConnsPerIP,
		maxTotalConns: cfg.MaxTotalConns,
		msgRate:       cfg.MsgRate,
		msgBurst:      cfg.MsgBurst,
	}
}

// CanAccept reports whether a new connection from ip fits within the
// per-IP and total connection limits.
func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= h.maxTotalConns {
		RecordConnectionRejected("conn_limit")
		return false
	}
	if h.ipConns[ip] >= h.maxConnsPerIP {
		RecordConnectionRejected("ip_limit")
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
	IncWSConnections()
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
	DecWSConnections()
}

// Run processes register/unregister events. Unregistering also runs the
// client's leave path, which is the second of the two disconnect routes
// (explicit disconnect message being the first); the client's leaveOnce
// guarantees the room sees exactly one departure.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			client.leave()
		}
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
