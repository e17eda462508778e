package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryStore is an in-memory storage.Store.
type MemoryStore struct {
	mu    sync.Mutex
	Files map[string][]byte
	seq   int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Files: make(map[string][]byte)}
}

func (s *MemoryStore) Put(ctx context.Context, dir, ext string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	path := fmt.Sprintf("%s/file_%d.%s", dir, s.seq, ext)
	s.Files[path] = data
	return path, nil
}

func (s *MemoryStore) Get(ctx context.Context, path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.Files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return data, nil
}

func (s *MemoryStore) PublicURL(path string) string {
	return "http://test.local/media/" + path
}

// RecordingSender captures SMS messages instead of delivering them.
type RecordingSender struct {
	mu       sync.Mutex
	Messages []SentSMS
	Err      error
}

type SentSMS struct {
	Phone   string
	Message string
}

func (s *RecordingSender) Send(ctx context.Context, phone, message string) error {
	if s.Err != nil {
		return s.Err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, SentSMS{Phone: phone, Message: message})
	return nil
}

// FakeCooldown mimics the Redis SetNX cooldown with an in-memory map.
type FakeCooldown struct {
	mu      sync.Mutex
	expires map[string]time.Time
	Now     func() time.Time
}

func NewFakeCooldown() *FakeCooldown {
	return &FakeCooldown{expires: make(map[string]time.Time), Now: time.Now}
}

func (c *FakeCooldown) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.Now()
	if until, ok := c.expires[key]; ok && until.After(now) {
		return false, nil
	}
	c.expires[key] = now.Add(ttl)
	return true, nil
}
