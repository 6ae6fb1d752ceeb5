package main

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// SetupRoutes configures the REST lobby surface, the WebSocket endpoint and
// static client serving.
func SetupRoutes(hub *Hub, clientDir string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/rooms", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, hub.registry.ListRooms())
		})

		r.Post("/rooms/create", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Name       string `json:"name"`
				MaxPlayers int    `json:"maxPlayers"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
				return
			}
			if body.Name == "" {
				body.Name = "Battle Room"
			}
			room := hub.registry.CreateRoom(body.Name, body.MaxPlayers)
			writeJSON(w, http.StatusCreated, room.Info())
		})

		r.Get("/rooms/stats", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, hub.registry.Stats())
		})

		r.Get("/rooms/{id}", func(w http.ResponseWriter, req *http.Request) {
			room, ok := hub.registry.Room(chi.URLParam(req, "id"))
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
				return
			}
			writeJSON(w, http.StatusOK, room.Info())
		})

		r.Get("/rooms/{id}/players", func(w http.ResponseWriter, req *http.Request) {
			room, ok := hub.registry.Room(chi.URLParam(req, "id"))
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
				return
			}
			writeJSON(w, http.StatusOK, room.PlayerStates())
		})

		r.Get("/rooms/{id}/qr", func(w http.ResponseWriter, req *http.Request) {
			room, ok := hub.registry.Room(chi.URLParam(req, "id"))
			if !ok {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "room not found"})
				return
			}
			joinURL := fmt.Sprintf("http://%s/?room=%s", req.Host, room.ID)
			png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "qr encode failed"})
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(png)
		})

		r.Get("/leaderboard", func(w http.ResponseWriter, req *http.Request) {
			limit := 10
			if v := req.URL.Query().Get("limit"); v != "" {
				if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
					limit = n
				}
			}
			entries, err := hub.db.Leaderboard(req.URL.Query().Get("by"), limit)
			if err != nil {
				Log.Errorw("leaderboard query failed", "err", err)
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "query failed"})
				return
			}
			if entries == nil {
				entries = []LeaderboardEntry{}
			}
			writeJSON(w, http.StatusOK, entries)
		})

		r.Get("/chat/history", func(w http.ResponseWriter, req *http.Request) {
			if roomID := req.URL.Query().Get("roomId"); roomID != "" {
				writeJSON(w, http.StatusOK, hub.chat.History(roomID))
				return
			}
			writeJSON(w, http.StatusOK, hub.chat.GlobalHistory())
		})
	})

	// WebSocket endpoint
	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		ip := extractIP(req)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			Log.Warnw("upgrade error", "addr", ip, "err", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Serve static files with no-cache so browsers always revalidate
	fs := http.FileServer(http.Dir(clientDir))
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		if req.URL.Path == "/" {
			http.ServeFile(w, req, filepath.Join(clientDir, "index.html"))
			return
		}
		fs.ServeHTTP(w, req)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		Log.Warnw("response encode failed", "err", err)
	}
}
