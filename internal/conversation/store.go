package conversation

import (
	"log/slog"
	"sync"
)

// Record is the conversation state for one target. Access it through
// Store.Update so the per-target lock is held.
type Record struct {
	mu         sync.Mutex
	history    []Turn
	phase      Phase
	maxHistory int
}

// History returns a copy of the stored turns, oldest first.
func (r *Record) History() []Turn {
	out := make([]Turn, len(r.history))
	copy(out, r.history)
	return out
}

// HistoryLen returns the number of stored turns.
func (r *Record) HistoryLen() int {
	return len(r.history)
}

// Phase returns the current counseling phase.
func (r *Record) Phase() Phase {
	return r.phase
}

// SetPhase advances the phase. Regressions are ignored so the phase stays
// monotonic even if callers race or pass stale values.
func (r *Record) SetPhase(p Phase) {
	if p.rank() > r.phase.rank() {
		r.phase = p
	}
}

// Append adds a turn and trims the history to the most recent 2*maxHistory
// entries, dropping the oldest first.
func (r *Record) Append(role Role, content string) {
	r.history = append(r.history, Turn{Role: role, Content: content})
	if limit := 2 * r.maxHistory; len(r.history) > limit {
		r.history = append(r.history[:0:0], r.history[len(r.history)-limit:]...)
	}
}

// Store maps target identifiers to conversation records. Records are created
// lazily and never deleted; each record carries its own lock so pipelines for
// different targets run concurrently while same-target updates serialize.
type Store struct {
	mu         sync.Mutex
	records    map[string]*Record
	maxHistory int
	logger     *slog.Logger
}

// NewStore creates a store retaining at most 2*maxHistory turns per target.
func NewStore(log *slog.Logger, maxHistory int) *Store {
	if log == nil {
		log = slog.Default()
	}
	if maxHistory <= 0 {
		maxHistory = 10
	}
	return &Store{
		records:    make(map[string]*Record),
		maxHistory: maxHistory,
		logger:     log.With(slog.String("service", "conversation")),
	}
}

func (s *Store) getOrCreate(targetID string) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[targetID]
	if !ok {
		rec = &Record{phase: PhaseEmpathy, maxHistory: s.maxHistory}
		s.records[targetID] = rec
		s.logger.Debug("conversation created", slog.String("target_id", targetID))
	}
	return rec
}

// Update runs fn with the target's record locked. The whole reply pipeline for
// a target runs inside one Update call so concurrent events for the same
// target cannot lose turns.
func (s *Store) Update(targetID string, fn func(r *Record)) {
	rec := s.getOrCreate(targetID)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	fn(rec)
}

// Snapshot returns a copy of the target's history and its phase.
func (s *Store) Snapshot(targetID string) ([]Turn, Phase) {
	var (
		turns []Turn
		phase Phase
	)
	s.Update(targetID, func(r *Record) {
		turns = r.History()
		phase = r.Phase()
	})
	return turns, phase
}

// AppendTurn appends a single turn under the target's lock.
func (s *Store) AppendTurn(targetID string, role Role, content string) {
	s.Update(targetID, func(r *Record) {
		r.Append(role, content)
	})
}

// SetPhase sets the target's phase under its lock (monotonic).
func (s *Store) SetPhase(targetID string, phase Phase) {
	s.Update(targetID, func(r *Record) {
		r.SetPhase(phase)
	})
}
