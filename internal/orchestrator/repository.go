package orchestrator

import (
	"sync"
	"time"

	"ad-orchestrator/internal/adsession"
)

// defaultEventLogCap bounds the per-session event log; older events fall off
// the front once the cap is reached.
const defaultEventLogCap = 512

// SessionRecord holds one ad session together with its collaborators and its
// ordered event log.
type SessionRecord struct {
	ID      SessionID
	Session *adsession.Session
	Gateway *DeliveryRecorder
	Player  *TrackedPlayer

	mu        sync.Mutex
	seq       uint64
	events    []EventRecord
	eventCap  int
	destroyed bool
}

// AppendEvent records a session event in arrival order.
func (r *SessionRecord) AppendEvent(ev adsession.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	r.events = append(r.events, EventRecord{
		Seq:        r.seq,
		ReceivedAt: time.Now().UTC(),
		Event:      ev,
	})
	if max := r.eventCap; max > 0 && len(r.events) > max {
		r.events = r.events[len(r.events)-max:]
	}
}

// Events returns a copy of the event log in order.
func (r *SessionRecord) Events() []EventRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventRecord, len(r.events))
	copy(out, r.events)
	return out
}

// markDestroyed flags the record; returns false if it already was.
func (r *SessionRecord) markDestroyed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.destroyed {
		return false
	}
	r.destroyed = true
	return true
}

// Repository defines the concurrency-safe contract for accessing and
// mutating session records.
type Repository interface {
	// Create registers a new session record. An existing record under the
	// same ID is replaced.
	Create(rec *SessionRecord)

	// Get returns the record for id. The ok return is false if the session
	// does not exist.
	Get(id SessionID) (*SessionRecord, bool)

	// Destroy tears down the session for id and removes its record.
	// Destroying a non-existent session is a no-op for idempotency.
	Destroy(id SessionID)

	// ActiveSessionCount returns the number of live sessions. Used for
	// metrics.
	ActiveSessionCount() int
}

// InMemoryRepository is a concurrency-safe in-memory implementation of
// Repository. It uses a Store for persistence; by default an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
}

// NewInMemoryRepository constructs a repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given
// Store. Useful for testing or for plugging in a different backend.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store}
}

// Create implements Repository.Create.
func (r *InMemoryRepository) Create(rec *SessionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec.eventCap == 0 {
		rec.eventCap = defaultEventLogCap
	}
	r.store.SetSession(rec)
}

// Get implements Repository.Get.
func (r *InMemoryRepository) Get(id SessionID) (*SessionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.store.GetSession(id)
}

// Destroy implements Repository.Destroy.
func (r *InMemoryRepository) Destroy(id SessionID) {
	r.mu.Lock()
	rec, ok := r.store.GetSession(id)
	if ok {
		r.store.DeleteSession(id)
	}
	r.mu.Unlock()

	// The session's own Destroy is idempotent; call it outside the
	// repository lock since it may publish nothing but still takes the
	// session's serial region.
	if ok && rec.markDestroyed() {
		rec.Session.Destroy()
	}
}

// ActiveSessionCount implements Repository.ActiveSessionCount.
func (r *InMemoryRepository) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.store.ListSessionIDs())
}
