package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	cfg := LoadConfig()

	addr := flag.String("addr", cfg.Addr, "HTTP listen address")
	dbPath := flag.String("db", cfg.DBPath, "Path to SQLite database file")
	logPath := flag.String("log", cfg.LogPath, "Path to log file")
	clientDir := flag.String("client", cfg.ClientDir, "Path to client directory")
	flag.Parse()
	cfg.Addr, cfg.DBPath, cfg.LogPath, cfg.ClientDir = *addr, *dbPath, *logPath, *clientDir

	if err := InitLogger(cfg.LogPath); err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer SyncLogger()

	db, err := OpenDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("database open: %v", err)
	}
	defer db.Close()

	stats := NewStatsWriter(db)
	defer stats.Close()

	registry := NewRegistry()
	chat := NewChatLog()

	hub := NewHub(cfg, registry, db, stats, chat)
	go hub.Run()

	router := SetupRoutes(hub, cfg.ClientDir)

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: router}

	go func() {
		Log.Infow("server starting", "addr", cfg.Addr, "client", cfg.ClientDir, "db", cfg.DBPath)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			Log.Fatalw("listen failed", "err", err)
		}
	}()

	<-stop
	Log.Infow("shutting down")
	server.Close()
}
