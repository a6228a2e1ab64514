/*
scheduler.go - Automated roll-off scheduler

PURPOSE:
  Periodically runs the roll-off engine so elapsed due dates are
  processed without anyone pressing a button. The engine itself is
  idempotent (due dates advance past the run date), and a per-day
  completed-run check keeps repeat ticks within one day from even
  starting a second run.

DESIGN:
  - Background goroutine with a configurable check interval
  - Runs once immediately on start
  - Skips the day once a completed run is recorded for it
  - Records every run for audit and the run-history view

USAGE:
  scheduler := points.NewRolloffScheduler(store, engine)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - engine.go: The work each tick performs
*/
package points

import (
	"context"
	"log"
	"sync"
	"time"
)

// RolloffScheduler drives the engine on a timer.
type RolloffScheduler struct {
	Store         Store
	Engine        *RolloffEngine
	CheckInterval time.Duration
	Enabled       bool

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRolloffScheduler returns a scheduler with the stock one-hour check
// interval.
func NewRolloffScheduler(store Store, engine *RolloffEngine) *RolloffScheduler {
	return &RolloffScheduler{
		Store:         store,
		Engine:        engine,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		stop:          make(chan bool),
	}
}

// Start begins the background loop. The first check runs immediately.
func (rs *RolloffScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		log.Println("[Rolloff] Scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	log.Printf("[Rolloff] Scheduler started with check interval: %v", rs.CheckInterval)
}

// Stop halts the loop and waits for an in-flight check to finish.
func (rs *RolloffScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.ticker = nil
		log.Println("[Rolloff] Scheduler stopped")
	}
}

func (rs *RolloffScheduler) run() {
	defer rs.wg.Done()

	rs.checkAndProcess()

	for {
		select {
		case <-rs.ticker.C:
			rs.checkAndProcess()
		case <-rs.stop:
			return
		}
	}
}

func (rs *RolloffScheduler) checkAndProcess() {
	ctx := context.Background()
	today := Today()

	done, err := rs.Store.CompletedRunExistsForDay(ctx, today)
	if err != nil {
		log.Printf("[Rolloff] Error checking run history: %v", err)
		return
	}
	if done {
		return
	}

	run, err := rs.Engine.Run(ctx, today)
	if err != nil {
		log.Printf("[Rolloff] Scheduled run failed: %v", err)
		return
	}
	if run.EmployeesAffected > 0 {
		log.Printf("[Rolloff] Scheduled run complete: %d employee(s), %s point(s) removed",
			run.EmployeesAffected, run.PointsRemoved)
	}
}

// RunNow triggers an immediate check, honoring the per-day guard.
func (rs *RolloffScheduler) RunNow() {
	rs.checkAndProcess()
}
