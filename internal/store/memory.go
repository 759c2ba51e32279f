package store

import (
	"sync"
	"time"
)

// MemoryStore is an in-process Store used by tests and as the degraded
// fallback when Redis is unreachable at startup. State does not survive the
// process, so history and presence durability are lost in that mode.
type MemoryStore struct {
	mu      sync.Mutex
	strings map[string][]byte
	sets    map[string]map[string]struct{}
	lists   map[string][][]byte
	hashes  map[string]map[string][]byte
	expiry  map[string]time.Time

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string][]byte),
		sets:    make(map[string]map[string]struct{}),
		lists:   make(map[string][][]byte),
		hashes:  make(map[string]map[string][]byte),
		expiry:  make(map[string]time.Time),
		now:     time.Now,
	}
}

// SetClock overrides the expiry clock. Test hook.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// purgeExpired must be called with the lock held.
func (s *MemoryStore) purgeExpired(key string) {
	deadline, ok := s.expiry[key]
	if !ok || s.now().Before(deadline) {
		return
	}
	delete(s.expiry, key)
	delete(s.strings, key)
	delete(s.sets, key)
	delete(s.lists, key)
	delete(s.hashes, key)
}

func (s *MemoryStore) Get(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	val, ok := s.strings[key]
	if !ok {
		return nil, nil
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (s *MemoryStore) Set(key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]byte, len(value))
	copy(stored, value)
	s.strings[key] = stored
	if ttl > 0 {
		s.expiry[key] = s.now().Add(ttl)
	} else {
		delete(s.expiry, key)
	}
	return nil
}

func (s *MemoryStore) Delete(keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.strings, key)
		delete(s.sets, key)
		delete(s.lists, key)
		delete(s.hashes, key)
		delete(s.expiry, key)
	}
	return nil
}

func (s *MemoryStore) Exists(key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	if _, ok := s.strings[key]; ok {
		return true, nil
	}
	if set, ok := s.sets[key]; ok && len(set) > 0 {
		return true, nil
	}
	if list, ok := s.lists[key]; ok && len(list) > 0 {
		return true, nil
	}
	if hash, ok := s.hashes[key]; ok && len(hash) > 0 {
		return true, nil
	}
	return false, nil
}

func (s *MemoryStore) Expire(key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	s.expiry[key] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) SetAdd(key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	set, ok := s.sets[key]
	if !ok {
		set = make(map[string]struct{})
		s.sets[key] = set
	}
	for _, m := range members {
		set[m] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) SetRemove(key string, members ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	set, ok := s.sets[key]
	if !ok {
		return nil
	}
	for _, m := range members {
		delete(set, m)
	}
	if len(set) == 0 {
		delete(s.sets, key)
	}
	return nil
}

func (s *MemoryStore) SetMembers(key string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	set := s.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	return members, nil
}

func (s *MemoryStore) SetIsMember(key string, member string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	_, ok := s.sets[key][member]
	return ok, nil
}

func (s *MemoryStore) SetCard(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	return int64(len(s.sets[key])), nil
}

func (s *MemoryStore) ListPush(key string, values ...[]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	for _, v := range values {
		stored := make([]byte, len(v))
		copy(stored, v)
		s.lists[key] = append(s.lists[key], stored)
	}
	return nil
}

func (s *MemoryStore) ListLen(key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	return int64(len(s.lists[key])), nil
}

func (s *MemoryStore) ListRange(key string, start, stop int64) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	list := s.lists[key]
	n := int64(len(list))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop || start >= n {
		return nil, nil
	}
	out := make([][]byte, 0, stop-start+1)
	for _, v := range list[start : stop+1] {
		item := make([]byte, len(v))
		copy(item, v)
		out = append(out, item)
	}
	return out, nil
}

func (s *MemoryStore) ListIndex(key string, index int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	list := s.lists[key]
	n := int64(len(list))
	if index < 0 {
		index += n
	}
	if index < 0 || index >= n {
		return nil, nil
	}
	out := make([]byte, len(list[index]))
	copy(out, list[index])
	return out, nil
}

func (s *MemoryStore) HashSet(key, field string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	hash, ok := s.hashes[key]
	if !ok {
		hash = make(map[string][]byte)
		s.hashes[key] = hash
	}
	stored := make([]byte, len(value))
	copy(stored, value)
	hash[field] = stored
	return nil
}

func (s *MemoryStore) HashGetAll(key string) (map[string][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeExpired(key)
	hash := s.hashes[key]
	out := make(map[string][]byte, len(hash))
	for k, v := range hash {
		item := make([]byte, len(v))
		copy(item, v)
		out[k] = item
	}
	return out, nil
}

func (s *MemoryStore) Ping() error { return nil }

func (s *MemoryStore) Close() error { return nil }
