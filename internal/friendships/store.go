// Package friendships owns the live set of relationship records and the
// request/accept/decline/remove state machine over it.
package friendships

import (
	"strings"
	"sync"
	"time"

	"github.com/coursemates/backend/internal/models"
)

// Config controls how the store stamps new records.
type Config struct {
	// IDs must yield identifiers unique within the store. Defaults to UUIDs.
	IDs IDGenerator
	// Now defaults to time.Now in UTC.
	Now func() time.Time
}

// Stats summarises the live collection.
type Stats struct {
	Pending  int
	Accepted int
}

// Store is an in-memory, insertion-ordered collection of friendships.
type Store struct {
	ids IDGenerator
	now func() time.Time

	mu      sync.RWMutex
	seed    []models.Friendship
	records []models.Friendship
}

// NewStore returns a store whose live collection starts as a copy of seed.
// Later changes to seed are not observed.
func NewStore(seed []models.Friendship, cfg Config) *Store {
	if cfg.IDs == nil {
		cfg.IDs = UUIDs()
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	s := &Store{
		ids:  cfg.IDs,
		now:  cfg.Now,
		seed: cloneAll(seed),
	}
	s.records = cloneAll(s.seed)
	return s
}

// Reset discards every mutation and restores the seed collection.
func (s *Store) Reset() {
	s.mu.Lock()
	s.records = cloneAll(s.seed)
	s.mu.Unlock()
}

// All returns a snapshot of the live collection in insertion order.
func (s *Store) All() []models.Friendship {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.records)
}

// Get returns the friendship with the given id.
func (s *Store) Get(id string) (models.Friendship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Friendship{}, ErrNotFound
	}
	return s.records[i].Clone(), nil
}

// SendRequest records a pending request from one user to another.
func (s *Store) SendRequest(fromUserID, toUserID string) (models.Friendship, error) {
	fromUserID = strings.TrimSpace(fromUserID)
	toUserID = strings.TrimSpace(toUserID)

	if fromUserID == "" || toUserID == "" {
		return models.Friendship{}, ErrInvalidInput
	}
	if fromUserID == toUserID {
		return models.Friendship{}, ErrSelfRequest
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := newPairKey(fromUserID, toUserID)
	if s.pairHas(key, models.FriendshipAccepted) {
		return models.Friendship{}, ErrAlreadyFriends
	}
	if s.pairHas(key, models.FriendshipPending) {
		return models.Friendship{}, ErrRequestAlreadyPending
	}

	record := models.Friendship{
		ID:        s.ids(),
		UserID:    fromUserID,
		FriendID:  toUserID,
		Status:    models.FriendshipPending,
		CreatedAt: s.now(),
	}
	s.records = append(s.records, record)

	return record.Clone(), nil
}

// AcceptRequest marks a pending request as accepted.
func (s *Store) AcceptRequest(id string) (models.Friendship, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Friendship{}, ErrNotFound
	}
	if s.records[i].Status != models.FriendshipPending {
		return models.Friendship{}, ErrNotPending
	}

	acceptedAt := s.now()
	s.records[i].Status = models.FriendshipAccepted
	s.records[i].AcceptedAt = &acceptedAt

	return s.records[i].Clone(), nil
}

// DeclineRequest deletes a pending request.
func (s *Store) DeclineRequest(id string) error {
	return s.deleteIf(id, models.FriendshipPending, ErrNotPending)
}

// RemoveFriend deletes an accepted friendship.
func (s *Store) RemoveFriend(id string) error {
	return s.deleteIf(id, models.FriendshipAccepted, ErrNotAccepted)
}

// FriendsOf returns the accepted friendships userID takes part in.
func (s *Store) FriendsOf(userID string) []models.Friendship {
	return s.filter(func(f models.Friendship) bool {
		return f.Status == models.FriendshipAccepted && f.Involves(userID)
	})
}

// IncomingRequests returns pending requests addressed to userID.
func (s *Store) IncomingRequests(userID string) []models.Friendship {
	return s.filter(func(f models.Friendship) bool {
		return f.Status == models.FriendshipPending && f.FriendID == userID
	})
}

// OutgoingRequests returns pending requests sent by userID.
func (s *Store) OutgoingRequests(userID string) []models.Friendship {
	return s.filter(func(f models.Friendship) bool {
		return f.Status == models.FriendshipPending && f.UserID == userID
	})
}

// Stats counts live records by status.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	for _, f := range s.records {
		switch f.Status {
		case models.FriendshipPending:
			st.Pending++
		case models.FriendshipAccepted:
			st.Accepted++
		}
	}
	return st
}

func (s *Store) deleteIf(id string, want models.FriendshipStatus, wrongState error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrNotFound
	}
	if s.records[i].Status != want {
		return wrongState
	}

	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

func (s *Store) filter(keep func(models.Friendship) bool) []models.Friendship {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []models.Friendship{}
	for _, f := range s.records {
		if keep(f) {
			out = append(out, f.Clone())
		}
	}
	return out
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.records {
		if s.records[i].ID == id {
			return i
		}
	}
	return -1
}

// pairHas must be called with mu held.
func (s *Store) pairHas(key pairKey, status models.FriendshipStatus) bool {
	for _, f := range s.records {
		if f.Status == status && newPairKey(f.UserID, f.FriendID) == key {
			return true
		}
	}
	return false
}

// pairKey identifies an unordered pair of users.
type pairKey struct {
	lo, hi string
}

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{lo: a, hi: b}
}

func cloneAll(in []models.Friendship) []models.Friendship {
	out := make([]models.Friendship, len(in))
	for i, f := range in {
		out[i] = f.Clone()
	}
	return out
}
