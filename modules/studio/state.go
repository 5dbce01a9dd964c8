package studio

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"anime-studio-server/modules/common/model"
)

const invalidKeyMessage = "API Key not found or invalid. Please select a valid key."

// KeyChecker - 키 선택 여부 확인
type KeyChecker interface {
	HasSelectedKey(ctx context.Context) (bool, error)
}

// Snapshot - 페이지 렌더링에 필요한 현재 상태
type Snapshot struct {
	Status         model.Status       `json:"status"`
	Mode           model.Mode         `json:"mode"`
	AttemptID      string             `json:"attemptId,omitempty"`
	LoadingMessage string             `json:"loadingMessage,omitempty"`
	Progress       string             `json:"progress,omitempty"`
	Result         *model.ResultAsset `json:"result,omitempty"`
	Error          string             `json:"error,omitempty"`
	UpdatedAt      time.Time          `json:"updatedAt"`
}

// State - 현재 생성 시도 상태 보관
// 모든 전이는 mu 안에서 처리. mu를 풀기 전에 notifyMu를 잡아서
// 리스너는 커밋 순서대로 스냅샷을 받음. 리스너에서 State 호출 금지
type State struct {
	mu       sync.Mutex
	notifyMu sync.Mutex

	status    model.Status
	mode      model.Mode
	attemptID string
	progress  string
	result    *model.ResultAsset
	errMsg    string
	updatedAt time.Time

	advisor          *Advisor
	loadingMessage   string
	stopAdvisory     chan struct{}
	advisoryInterval time.Duration
	activeAdvisories int32

	listeners map[int]func(Snapshot)
	nextID    int

	release func(model.ResultAsset)
}

type Option func(*State)

// WithAdvisoryInterval - 로딩 메시지 교체 주기
func WithAdvisoryInterval(d time.Duration) Option {
	return func(s *State) {
		if d > 0 {
			s.advisoryInterval = d
		}
	}
}

// WithRelease - 이전 결과 해제 훅 등록
func WithRelease(fn func(model.ResultAsset)) Option {
	return func(s *State) {
		s.release = fn
	}
}

func NewState(opts ...Option) *State {
	s := &State{
		status:           model.StatusInitial,
		mode:             model.ModeImage,
		advisoryInterval: 3 * time.Second,
		listeners:        make(map[int]func(Snapshot)),
		updatedAt:        time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *State) Status() model.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Subscribe - 이후 모든 스냅샷 수신 등록
func (s *State) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Init - INITIAL을 READY 또는 API_KEY_MISSING으로 전환 (확인 실패는 키 없음으로 처리)
func (s *State) Init(ctx context.Context, checker KeyChecker) model.Status {
	hasKey, err := checker.HasSelectedKey(ctx)
	if err != nil {
		log.Printf("⚠️  API key check failed, asking for a key: %v", err)
		hasKey = false
	}

	s.mu.Lock()
	if s.status != model.StatusInitial {
		status := s.status
		s.mu.Unlock()
		return status
	}
	if hasKey {
		s.status = model.StatusReady
	} else {
		s.status = model.StatusAPIKeyMissing
	}
	status := s.status
	s.commit()
	return status
}

// SetMode - 이미지/비디오 폼 전환
func (s *State) SetMode(mode model.Mode) error {
	if !mode.Valid() {
		return &model.ValidationError{Field: "mode", Reason: "must be Image or Video"}
	}
	s.mu.Lock()
	if s.status != model.StatusReady {
		s.mu.Unlock()
		return model.ErrNotReady
	}
	s.mode = mode
	s.commit()
	return nil
}

// Begin - READY -> LOADING 전환 후 로딩 메시지 교체 시작
// 결과 보고에 쓸 attempt id 반환
func (s *State) Begin(mode model.Mode) (string, error) {
	s.mu.Lock()
	if s.status != model.StatusReady {
		s.mu.Unlock()
		return "", model.ErrNotReady
	}
	s.status = model.StatusLoading
	s.mode = mode
	s.attemptID = uuid.NewString()
	s.progress = ""
	s.result = nil
	s.errMsg = ""
	s.startAdvisoryLocked()
	id := s.attemptID
	s.commit()

	log.Printf("🚀 Attempt %s started (%s)", id, mode)
	return id, nil
}

// SetProgress - 로딩 중인 시도의 진행 메시지 기록
func (s *State) SetProgress(attemptID, note string) {
	s.mu.Lock()
	if !s.isCurrentLocked(attemptID) {
		s.mu.Unlock()
		return
	}
	s.progress = note
	s.commit()
}

// Succeed - LOADING -> DONE
func (s *State) Succeed(attemptID string, asset model.ResultAsset) error {
	s.mu.Lock()
	if !s.isCurrentLocked(attemptID) {
		s.mu.Unlock()
		return model.ErrNotReady
	}
	s.stopAdvisoryLocked()
	s.status = model.StatusDone
	s.result = &asset
	s.commit()

	log.Printf("✅ Attempt %s done", attemptID)
	return nil
}

// Fail - LOADING -> ERROR (키 에러면 API_KEY_MISSING)
// 이미 키 폐기 콜백으로 API_KEY_MISSING이면 그대로 둠
func (s *State) Fail(attemptID string, err error) {
	s.mu.Lock()
	if s.attemptID != attemptID {
		s.mu.Unlock()
		return
	}
	if s.status != model.StatusLoading {
		s.mu.Unlock()
		log.Printf("⚠️  Attempt %s failed after leaving LOADING (%s): %v", attemptID, s.Status(), err)
		return
	}
	s.stopAdvisoryLocked()

	var keyErr *model.APIKeyError
	if errors.As(err, &keyErr) {
		s.status = model.StatusAPIKeyMissing
		s.errMsg = invalidKeyMessage
	} else {
		s.status = model.StatusError
		s.errMsg = err.Error()
	}
	s.commit()

	log.Printf("❌ Attempt %s failed: %v", attemptID, err)
}

// InvalidateKey - 키 폐기 콜백 (어떤 상태든 새 키 선택 필요)
func (s *State) InvalidateKey() {
	s.mu.Lock()
	s.stopAdvisoryLocked()
	s.status = model.StatusAPIKeyMissing
	s.errMsg = invalidKeyMessage
	s.commit()
}

// SelectKey - 진행 중인 시도가 없을 때만 store 실행 후 API_KEY_MISSING -> READY
// store 실패 시 상태 유지
func (s *State) SelectKey(store func() error) error {
	s.mu.Lock()
	switch s.status {
	case model.StatusAPIKeyMissing, model.StatusInitial, model.StatusReady:
	default:
		s.mu.Unlock()
		return model.ErrNotReady
	}

	if err := store(); err != nil {
		s.mu.Unlock()
		return err
	}
	if s.status == model.StatusReady {
		s.mu.Unlock()
		return nil
	}
	s.status = model.StatusReady
	s.errMsg = ""
	s.commit()
	return nil
}

// Reset - DONE/ERROR -> READY, 이전 결과 삭제 (READY에서는 아무것도 안 함)
func (s *State) Reset() error {
	s.mu.Lock()
	switch s.status {
	case model.StatusDone, model.StatusError:
	case model.StatusReady:
		s.mu.Unlock()
		return nil
	default:
		s.mu.Unlock()
		return model.ErrNotReady
	}

	previous := s.result
	s.status = model.StatusReady
	s.result = nil
	s.errMsg = ""
	s.progress = ""
	s.attemptID = ""
	release := s.release
	s.commit()

	if previous != nil && release != nil {
		release(*previous)
	}
	return nil
}

func (s *State) isCurrentLocked(attemptID string) bool {
	return s.status == model.StatusLoading && s.attemptID == attemptID
}

func (s *State) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:         s.status,
		Mode:           s.mode,
		AttemptID:      s.attemptID,
		LoadingMessage: s.loadingMessage,
		Progress:       s.progress,
		Error:          s.errMsg,
		UpdatedAt:      s.updatedAt,
	}
	if s.result != nil {
		result := *s.result
		snap.Result = &result
	}
	return snap
}

// commit - 변경 시각 기록, mu 해제, 리스너 알림
func (s *State) commit() {
	s.updatedAt = time.Now()
	snap := s.snapshotLocked()
	listeners := make([]func(Snapshot), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.notifyMu.Lock()
	s.mu.Unlock()
	defer s.notifyMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (s *State) startAdvisoryLocked() {
	s.stopAdvisoryLocked()

	s.advisor = NewAdvisor(MessagesFor(s.mode))
	s.loadingMessage = s.advisor.Current()
	stop := make(chan struct{})
	s.stopAdvisory = stop
	interval := s.advisoryInterval

	atomic.AddInt32(&s.activeAdvisories, 1)
	go func() {
		defer atomic.AddInt32(&s.activeAdvisories, -1)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.advance(stop)
			}
		}
	}()
}

func (s *State) advance(stop chan struct{}) {
	s.mu.Lock()
	if s.stopAdvisory != stop || s.status != model.StatusLoading {
		s.mu.Unlock()
		return
	}
	s.loadingMessage = s.advisor.Tick()
	s.commit()
}

func (s *State) stopAdvisoryLocked() {
	if s.stopAdvisory != nil {
		close(s.stopAdvisory)
		s.stopAdvisory = nil
	}
	s.loadingMessage = ""
}

// advisoryRunning - 실행 중인 메시지 교체 고루틴 수
func (s *State) advisoryRunning() int {
	return int(atomic.LoadInt32(&s.activeAdvisories))
}
