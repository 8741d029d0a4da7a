package engine

import "sync"

// CycleDetector remembers the state hashes each run has passed through.
//
// A run cycles when a step brings it back to a state it was already in, for
// example move(A, C) followed by move(A, B). With cycle detection enabled the
// executor refuses such a step.
//
// Only the current process's history is kept. A resumed run starts with the
// hashes replayed from its log.
type CycleDetector struct {
	mu      sync.Mutex
	history map[string]map[string]bool // map[run_id]map[state_hash]bool
}

// NewCycleDetector creates a new cycle detector.
func NewCycleDetector() *CycleDetector {
	return &CycleDetector{
		history: make(map[string]map[string]bool),
	}
}

// WouldCycle reports whether stateHash has already been visited in the run.
//
// Thread-safe: Can be called concurrently.
func (c *CycleDetector) WouldCycle(runID, stateHash string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.history[runID][stateHash]
}

// Record marks stateHash as visited in the run.
//
// Thread-safe: Can be called concurrently.
func (c *CycleDetector) Record(runID, stateHash string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.history[runID] == nil {
		c.history[runID] = make(map[string]bool)
	}
	c.history[runID][stateHash] = true
}

// Clear removes all history for a run.
//
// Thread-safe: Can be called concurrently.
func (c *CycleDetector) Clear(runID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.history, runID)
}

// HistorySize returns the number of runs with tracked history.
func (c *CycleDetector) HistorySize() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.history)
}

// RunHistorySize returns the number of distinct states recorded for a run.
func (c *CycleDetector) RunHistorySize(runID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.history[runID])
}
