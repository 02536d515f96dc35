package session

import (
	"strconv"
	"sync"

	"github.com/patrickmn/go-cache"
)

// Store maps user ids to sessions. Sessions never expire.
type Store struct {
	cache *cache.Cache

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

func NewStore() *Store {
	return &Store{
		cache: cache.New(cache.NoExpiration, 0),
		locks: make(map[int64]*sync.Mutex),
	}
}

// Get returns a copy of the user's session.
func (s *Store) Get(userID int64) (Session, bool) {
	if x, found := s.cache.Get(key(userID)); found {
		return x.(Session), true
	}
	return Session{}, false
}

func (s *Store) Set(userID int64, sess Session) {
	s.cache.Set(key(userID), sess, cache.NoExpiration)
}

func (s *Store) Delete(userID int64) {
	s.cache.Delete(key(userID))
}

func (s *Store) Len() int {
	return s.cache.ItemCount()
}

// Lock serializes work on a single user's session. The returned func releases it.
func (s *Store) Lock(userID int64) func() {
	s.mu.Lock()
	l, ok := s.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[userID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
