package credential

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
)

// ErrEmptyKey - 키 없이 선택 요청
var ErrEmptyKey = errors.New("gemini api key is required")

// Store - API 키 보관 (선택 여부 확인, 선택, API 거부 시 폐기)
type Store struct {
	mu  sync.RWMutex
	key string
}

// NewStore - 초기 키로 생성 (보통 GEMINI_API_KEY)
func NewStore(initialKey string) *Store {
	return &Store{key: strings.TrimSpace(initialKey)}
}

func (s *Store) HasSelectedKey(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key != "", nil
}

// SelectKey - 사용자가 입력한 키 저장
func (s *Store) SelectKey(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()

	log.Printf("🔑 API key selected (%s)", mask(key))
	return nil
}

// Invalidate - 현재 키 폐기
func (s *Store) Invalidate() {
	s.mu.Lock()
	had := s.key != ""
	s.key = ""
	s.mu.Unlock()

	if had {
		log.Println("🔑 API key invalidated, a new key must be selected")
	}
}

func (s *Store) APIKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key
}

func mask(key string) string {
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}
