package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for the workflow core. Exposed
// operationally through the stats endpoint; there is no external metrics
// backend by design.
type Metrics struct {
	mu                  sync.Mutex
	requestCount        map[string]int64
	errorCount          map[string]int64
	transitionsApplied  map[string]int64
	transitionsRejected map[string]int64
	eventsProcessed     int64
	eventsFailed        int64
	breachesOpened      map[string]int64
	breachesEscalated   map[string]int64
	breachesResolved    map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:        make(map[string]int64),
		errorCount:          make(map[string]int64),
		transitionsApplied:  make(map[string]int64),
		transitionsRejected: make(map[string]int64),
		breachesOpened:      make(map[string]int64),
		breachesEscalated:   make(map[string]int64),
		breachesResolved:    make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// TransitionApplied counts an accepted state change per entity type.
func (m *Metrics) TransitionApplied(entityType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionsApplied[entityType]++
}

// TransitionRejected counts a rejected state change per entity type.
func (m *Metrics) TransitionRejected(entityType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitionsRejected[entityType]++
}

// EventProcessed counts one drained outbox event.
func (m *Metrics) EventProcessed(failed bool) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.eventsProcessed++
	if failed {
		m.eventsFailed++
	}
}

// BreachOpened counts a newly opened breach by severity.
func (m *Metrics) BreachOpened(severity string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breachesOpened[severity]++
}

// BreachEscalated counts an escalation by severity.
func (m *Metrics) BreachEscalated(severity string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breachesEscalated[severity]++
}

// BreachResolved counts a resolution by severity.
func (m *Metrics) BreachResolved(severity string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breachesResolved[severity]++
}

// WorkflowSnapshot is a point-in-time copy of the workflow counters.
type WorkflowSnapshot struct {
	TransitionsApplied  map[string]int64 `json:"transitions_applied"`
	TransitionsRejected map[string]int64 `json:"transitions_rejected"`
	EventsProcessed     int64            `json:"events_processed"`
	EventsFailed        int64            `json:"events_failed"`
	BreachesOpened      map[string]int64 `json:"breaches_opened"`
	BreachesEscalated   map[string]int64 `json:"breaches_escalated"`
	BreachesResolved    map[string]int64 `json:"breaches_resolved"`
}

// Snapshot returns a copy of the workflow counters for the stats endpoint.
func (m *Metrics) Snapshot() WorkflowSnapshot {
	if m == nil {
		return WorkflowSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return WorkflowSnapshot{
		TransitionsApplied:  copyCounts(m.transitionsApplied),
		TransitionsRejected: copyCounts(m.transitionsRejected),
		EventsProcessed:     m.eventsProcessed,
		EventsFailed:        m.eventsFailed,
		BreachesOpened:      copyCounts(m.breachesOpened),
		BreachesEscalated:   copyCounts(m.breachesEscalated),
		BreachesResolved:    copyCounts(m.breachesResolved),
	}
}

func copyCounts(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
