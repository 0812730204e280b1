package orchestrator

// Store is the persistence abstraction for session records.
// The Repository uses Store for all reads and writes; callers of Repository
// do not need to know which Store is used.
type Store interface {
	GetSession(id SessionID) (*SessionRecord, bool)
	SetSession(rec *SessionRecord)
	DeleteSession(id SessionID)
	ListSessionIDs() []SessionID
}

// InMemoryStore is an in-memory implementation of Store.
type InMemoryStore struct {
	sessions map[SessionID]*SessionRecord
}

// NewInMemoryStore returns a new empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[SessionID]*SessionRecord),
	}
}

// GetSession implements Store.GetSession.
func (s *InMemoryStore) GetSession(id SessionID) (*SessionRecord, bool) {
	rec, ok := s.sessions[id]
	return rec, ok
}

// SetSession implements Store.SetSession.
func (s *InMemoryStore) SetSession(rec *SessionRecord) {
	s.sessions[rec.ID] = rec
}

// DeleteSession implements Store.DeleteSession.
func (s *InMemoryStore) DeleteSession(id SessionID) {
	delete(s.sessions, id)
}

// ListSessionIDs implements Store.ListSessionIDs.
func (s *InMemoryStore) ListSessionIDs() []SessionID {
	ids := make([]SessionID, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}
