package main

import "time"

const (
	// TickInterval is the fixed simulation step.
	TickInterval = 50 * time.Millisecond
	// BroadcastInterval is the state fan-out period, decoupled from the
	// simulation step.
	BroadcastInterval = 100 * time.Millisecond
)

// Run drives the room's simulation and broadcast loops until Stop. Each room
// gets its own goroutine; ticks that overrun simply delay the next one, they
// are never run concurrently.
func (r *Room) Run() {
	simTicker := time.NewTicker(TickInterval)
	defer simTicker.Stop()
	broadcastTicker := time.NewTicker(BroadcastInterval)
	defer broadcastTicker.Stop()

	for {
		select {
		case <-simTicker.C:
			start := time.Now()
			r.Tick()
			RecordTick(time.Since(start))
		case <-broadcastTicker.C:
			start := time.Now()
			r.BroadcastSnapshot()
			RecordBroadcast(time.Since(start))
		case <-r.stop:
			return
		}
	}
}

// Stop terminates the room's loops. Safe to call more than once.
func (r *Room) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})
}
