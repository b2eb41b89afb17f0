package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters surfaced on the ready endpoint.
type Metrics struct {
	mu                sync.Mutex
	requestCount      map[string]int64
	errorCount        map[string]int64
	ticketsCreated    int64
	ticketsResolved   int64
	duplicatesBlocked int64
	dispatchAttempts  int64
	dispatchFailures  int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount: make(map[string]int64),
		errorCount:   make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
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

// RecordTicketCreated counts a new ticket submission.
func (m *Metrics) RecordTicketCreated() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsCreated++
}

// RecordTicketResolved counts a resolved ticket.
func (m *Metrics) RecordTicketResolved() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticketsResolved++
}

// RecordDuplicateBlocked counts a submission rejected by the dedup guard.
func (m *Metrics) RecordDuplicateBlocked() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.duplicatesBlocked++
}

// RecordDispatchAttempt counts an outbound message attempt.
func (m *Metrics) RecordDispatchAttempt() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchAttempts++
}

// RecordDispatchFailure counts a failed outbound message attempt.
func (m *Metrics) RecordDispatchFailure() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatchFailures++
}

// Snapshot returns current domain counter values.
func (m *Metrics) Snapshot() map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]int64{
		"tickets_created":    m.ticketsCreated,
		"tickets_resolved":   m.ticketsResolved,
		"duplicates_blocked": m.duplicatesBlocked,
		"dispatch_attempts":  m.dispatchAttempts,
		"dispatch_failures":  m.dispatchFailures,
	}
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}
