package storage

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound - 없거나 만료된 에셋 ID
var ErrNotFound = errors.New("asset not found")

// Object - 저장된 바이너리와 MIME 타입
type Object struct {
	ID       string
	MIMEType string
	Data     []byte
}

// Store - 해제될 때까지 ID로 바이너리 보관
type Store interface {
	Put(ctx context.Context, data []byte, mimeType string) (string, error)
	Get(ctx context.Context, id string) (*Object, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	object    Object
	expiresAt time.Time
}

// MemoryStore - 프로세스 메모리 저장소 (ttl 0이면 Delete까지 유지)
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Put(ctx context.Context, data []byte, mimeType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()

	entry := memoryEntry{object: Object{ID: id, MIMEType: mimeType, Data: data}}
	if s.ttl > 0 {
		entry.expiresAt = s.now().Add(s.ttl)
	}

	s.mu.Lock()
	s.sweepLocked()
	s.objects[id] = entry
	count := len(s.objects)
	s.mu.Unlock()

	log.Printf("📦 Stored asset %s (%d bytes, %s, %d in memory)", id, len(data), mimeType, count)
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entry, ok := s.objects[id]
	s.mu.RUnlock()

	if !ok || s.expired(entry) {
		return nil, ErrNotFound
	}
	obj := entry.object
	return &obj, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.objects, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt)
}

func (s *MemoryStore) sweepLocked() {
	for id, entry := range s.objects {
		if s.expired(entry) {
			delete(s.objects, id)
			log.Printf("🧹 Released expired asset: %s", id)
		}
	}
}
