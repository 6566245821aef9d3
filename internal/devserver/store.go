package devserver

import (
	"sync"
	"time"

	"github.com/shandysiswandi/goknock/internal/pkg/clock"
)

type otpEntry struct {
	code      string
	fullName  string
	expiresAt time.Time
}

// otpStore keeps issued codes by phone until they expire or get consumed.
// Everything lives in memory; this server exists for development only.
type otpStore struct {
	mu    sync.RWMutex
	m     map[string]otpEntry
	clock clock.Clocker
}

func newOTPStore(c clock.Clocker) *otpStore {
	return &otpStore{
		m:     make(map[string]otpEntry),
		clock: c,
	}
}

// Put stores the code for phone, replacing any earlier one.
func (s *otpStore) Put(phone, code, fullName string, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.m[phone] = otpEntry{code: code, fullName: fullName, expiresAt: expiresAt}
}

// Get returns the live entry for phone. Expired entries are dropped and
// reported as missing.
func (s *otpStore) Get(phone string) (otpEntry, bool) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()

	if !ok {
		return otpEntry{}, false
	}

	if !e.expiresAt.After(s.clock.Now()) {
		s.mu.Lock()
		delete(s.m, phone)
		s.mu.Unlock()
		return otpEntry{}, false
	}

	return e, true
}

// Snapshot returns a copy of all live entries, dropping expired ones.
func (s *otpStore) Snapshot() map[string]otpEntry {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]otpEntry, len(s.m))
	for phone, e := range s.m {
		if !e.expiresAt.After(now) {
			delete(s.m, phone)
			continue
		}
		out[phone] = e
	}

	return out
}

// Delete consumes the entry for phone.
func (s *otpStore) Delete(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.m, phone)
}
