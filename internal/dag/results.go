package dag

import (
	"maps"
	"sync"
)

// aggregator collects the outcome of one Run. Results are recorded for every
// successful task; only the first failure is kept.
type aggregator struct {
	mu      sync.Mutex
	results Results
	err     error
	failed  string
}

func newAggregator() *aggregator {
	return &aggregator{results: make(Results)}
}

func (a *aggregator) record(id string, result any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.results[id] = result
}

// fail stores err if no error has been stored yet. It reports whether err
// became the run's error.
func (a *aggregator) fail(id string, err error) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return false
	}
	a.err = err
	a.failed = id
	return true
}

// snapshot returns a copy of the results recorded so far.
func (a *aggregator) snapshot() Results {
	a.mu.Lock()
	defer a.mu.Unlock()
	return maps.Clone(a.results)
}
