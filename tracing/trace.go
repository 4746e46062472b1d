// Package tracing keeps a bounded in-memory record of recent steps for
// inspection via the /traces endpoint.
package tracing

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StepTrace records one processed client message end to end.
type StepTrace struct {
	TraceID     string    `json:"trace_id"`
	ClientID    string    `json:"client_id"`
	Step        int       `json:"step"`
	MessageType string    `json:"message_type"` // "init" or "step"
	Action      string    `json:"action"`       // parsed call name, or "finish"
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	DurationMs  float64   `json:"duration_ms"`
	Error       string    `json:"error,omitempty"`
}

// NewStepTrace starts a trace for one client message.
func NewStepTrace(clientID, messageType string) *StepTrace {
	return &StepTrace{
		TraceID:     uuid.NewString(),
		ClientID:    clientID,
		MessageType: messageType,
		StartTime:   time.Now(),
	}
}

// Finish finalizes the trace with an optional error.
func (t *StepTrace) Finish(err error) {
	t.EndTime = time.Now()
	t.DurationMs = float64(t.EndTime.Sub(t.StartTime)) / float64(time.Millisecond)
	if err != nil {
		t.Error = err.Error()
	}
}

// Store holds recent step traces in memory with bounded capacity.
type Store struct {
	mu     sync.RWMutex
	traces map[string]*StepTrace
	order  []string // FIFO order for eviction
	max    int
}

// NewStore creates a store that retains up to maxSize traces.
func NewStore(maxSize int) *Store {
	return &Store{
		traces: make(map[string]*StepTrace),
		order:  make([]string, 0, maxSize),
		max:    maxSize,
	}
}

// Put stores a trace, evicting the oldest if at capacity.
func (s *Store) Put(t *StepTrace) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) >= s.max {
		oldest := s.order[0]
		delete(s.traces, oldest)
		s.order = s.order[1:]
	}
	s.traces[t.TraceID] = t
	s.order = append(s.order, t.TraceID)
}

// Get returns a trace by ID, or nil if not found.
func (s *Store) Get(traceID string) *StepTrace {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.traces[traceID]
}

// List returns the most recent traces, newest first, up to limit.
func (s *Store) List(limit int) []*StepTrace {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > n {
		limit = n
	}
	result := make([]*StepTrace, limit)
	for i := 0; i < limit; i++ {
		result[i] = s.traces[s.order[n-1-i]]
	}
	return result
}

// Len returns the number of retained traces.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
