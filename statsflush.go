package main

import (
	"sync"
	"time"
)

// StatsUpdate is a snapshot of a player's counters queued for persistence
type StatsUpdate struct {
	Name   string
	Score  int
	Kills  int
	Deaths int
	At     time.Time
}

// StatsWriter persists player statistics with batched background writes so
// the game loops never block on the database
type StatsWriter struct {
	db      *DB
	updates chan StatsUpdate
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewStatsWriter creates and starts the background writer
func NewStatsWriter(db *DB) *StatsWriter {
	w := &StatsWriter{
		db:      db,
		updates: make(chan StatsUpdate, 1024),
		stop:    make(chan struct{}),
	}
	w.wg.Add(1)
	go w.writer()
	return w
}

// Flush enqueues a player's current totals for async persistence
// (non-blocking)
func (w *StatsWriter) Flush(name string, score, kills, deaths int) {
	select {
	case w.updates <- StatsUpdate{
		Name:   name,
		Score:  score,
		Kills:  kills,
		Deaths: deaths,
		At:     time.Now().UTC(),
	}:
	default:
		// Channel full — drop rather than blocking game loop
		Log.Warnw("stats queue full, dropping update", "player", name)
	}
}

// Close gracefully shuts down the writer, draining pending updates
func (w *StatsWriter) Close() {
	close(w.stop)
	w.wg.Wait()
}

// writer is the background goroutine that batches and writes updates
func (w *StatsWriter) writer() {
	defer w.wg.Done()

	batch := make([]StatsUpdate, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case u := <-w.updates:
			batch = append(batch, u)
			if len(batch) >= 50 {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				w.flush(batch)
				batch = batch[:0]
			}
		case <-w.stop:
			// Drain remaining updates
			close(w.updates)
			for u := range w.updates {
				batch = append(batch, u)
			}
			if len(batch) > 0 {
				w.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of updates to the database. Multiple updates for the
// same player collapse to the latest one, since each carries full totals.
func (w *StatsWriter) flush(batch []StatsUpdate) {
	if w.db == nil || len(batch) == 0 {
		return
	}
	latest := make(map[string]StatsUpdate, len(batch))
	order := make([]string, 0, len(batch))
	for _, u := range batch {
		if _, seen := latest[u.Name]; !seen {
			order = append(order, u.Name)
		}
		latest[u.Name] = u
	}
	for _, name := range order {
		u := latest[name]
		if err := w.db.SaveStats(u.Name, u.Score, u.Kills, u.Deaths); err != nil {
			Log.Errorw("stats write failed", "player", u.Name, "err", err)
		}
	}
}
