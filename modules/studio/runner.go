package studio

import (
	"context"
	"log"
	"sync"
	"time"

	"anime-studio-server/modules/common/model"
	"anime-studio-server/modules/veo3"
)

// ImageGenerator - 단일 단계 이미지 생성
type ImageGenerator interface {
	GenerateImage(ctx context.Context, cfg model.ImageConfig) (model.ResultAsset, error)
}

// VideoGenerator - 다단계 비디오 생성
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, cfg model.VideoConfig, onProgress veo3.ProgressFunc, onAPIKeyError func()) (model.ResultAsset, error)
}

// KeyInvalidator - API가 거부한 키 폐기
type KeyInvalidator interface {
	Invalidate()
}

// Runner - 요청을 받아 한 번에 하나씩 생성 실행, 결과를 State에 보고
type Runner struct {
	ctx     context.Context
	state   *State
	images  ImageGenerator
	videos  VideoGenerator
	keys    KeyInvalidator
	metrics *Metrics
	wg      sync.WaitGroup
}

// NewRunner - ctx 취소 시 진행 중인 작업 중단
func NewRunner(ctx context.Context, state *State, images ImageGenerator, videos VideoGenerator, keys KeyInvalidator, metrics *Metrics) *Runner {
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Runner{
		ctx:     ctx,
		state:   state,
		images:  images,
		videos:  videos,
		keys:    keys,
		metrics: metrics,
	}
}

// SubmitImage - 이미지 생성 시작
// READY -> LOADING 전환은 동기, 생성은 백그라운드
func (r *Runner) SubmitImage(_ context.Context, cfg model.ImageConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	attemptID, err := r.state.Begin(model.ModeImage)
	if err != nil {
		return err
	}
	r.metrics.started(model.ModeImage)
	startedAt := time.Now()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		asset, err := r.images.GenerateImage(r.ctx, cfg)
		r.finish(model.ModeImage, attemptID, startedAt, asset, err)
	}()
	return nil
}

// SubmitVideo - 비디오 생성 시작
func (r *Runner) SubmitVideo(_ context.Context, cfg model.VideoConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	attemptID, err := r.state.Begin(model.ModeVideo)
	if err != nil {
		return err
	}
	r.metrics.started(model.ModeVideo)
	startedAt := time.Now()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		onProgress := func(p veo3.Progress) {
			r.state.SetProgress(attemptID, p.Message)
		}
		onAPIKeyError := func() {
			log.Printf("🔑 API key rejected, asking for a new one")
			r.keys.Invalidate()
			r.state.InvalidateKey()
		}
		asset, err := r.videos.GenerateVideo(r.ctx, cfg, onProgress, onAPIKeyError)
		r.finish(model.ModeVideo, attemptID, startedAt, asset, err)
	}()
	return nil
}

// Wait - 시작된 모든 시도가 끝날 때까지 대기
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) Metrics() *Metrics {
	return r.metrics
}

func (r *Runner) finish(mode model.Mode, attemptID string, startedAt time.Time, asset model.ResultAsset, err error) {
	elapsed := time.Since(startedAt)
	if err != nil {
		r.metrics.failed(mode, model.IsAPIKeyError(err), elapsed)
		r.state.Fail(attemptID, err)
		return
	}
	r.metrics.succeeded(mode, elapsed)
	if err := r.state.Succeed(attemptID, asset); err != nil {
		log.Printf("⚠️  Result of attempt %s dropped: %v", attemptID, err)
	}
}
