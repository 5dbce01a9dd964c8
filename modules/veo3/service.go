package veo3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/genai"

	"anime-studio-server/modules/common/gemini"
	"anime-studio-server/modules/common/model"
	"anime-studio-server/modules/common/storage"
)

const (
	stylePrefix         = "cinematic, high quality, anime style, "
	defaultPollInterval = 10 * time.Second
	defaultVideoMIME    = "video/mp4"
)

// VideoClient - 비디오 생성에 쓰는 genai 호출
type VideoClient interface {
	GenerateVideos(ctx context.Context, model string, prompt string, config *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error)
	GetVideosOperation(ctx context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error)
}

// Connector - apiKey로 클라이언트 생성
type Connector func(ctx context.Context, apiKey string) (VideoClient, error)

// KeySource - 현재 선택된 API 키 제공
type KeySource interface {
	APIKey() string
}

type Options struct {
	Model        string
	PollInterval time.Duration
	HTTPClient   *http.Client
}

type Service struct {
	keys         KeySource
	connect      Connector
	store        storage.Store
	httpClient   *http.Client
	model        string
	pollInterval time.Duration
	sleep        func(context.Context, time.Duration) error
}

func NewService(keys KeySource, connect Connector, store storage.Store, opts Options) *Service {
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Minute}
	}
	return &Service{
		keys:         keys,
		connect:      connect,
		store:        store,
		httpClient:   httpClient,
		model:        opts.Model,
		pollInterval: pollInterval,
		sleep:        sleepContext,
	}
}

// GenerateVideo - SUBMIT -> POLL* -> FETCH -> DONE 실행
// 어느 단계든 키 거부 시 onAPIKeyError 1회 호출 후 *model.APIKeyError 반환
// 그 외 실패는 *model.GenerationFailedError
func (s *Service) GenerateVideo(
	ctx context.Context,
	cfg model.VideoConfig,
	onProgress ProgressFunc,
	onAPIKeyError func(),
) (model.ResultAsset, error) {
	report := func(p Progress) {
		log.Printf("🎬 [Veo] %s", p.Message)
		if onProgress != nil {
			onProgress(p)
		}
	}

	asset, err := s.run(ctx, cfg, report)
	if err == nil {
		return asset, nil
	}

	log.Printf("❌ Gemini API Error: %v", err)
	if gemini.IsEntityNotFound(err) {
		if onAPIKeyError != nil {
			onAPIKeyError()
		}
		return model.ResultAsset{}, &model.APIKeyError{Err: err}
	}

	var failed *model.GenerationFailedError
	if errors.As(err, &failed) {
		return model.ResultAsset{}, failed
	}
	return model.ResultAsset{}, model.GenerationFailed(gemini.Message(err), err)
}

func (s *Service) run(ctx context.Context, cfg model.VideoConfig, report ProgressFunc) (model.ResultAsset, error) {
	apiKey := s.keys.APIKey()

	client, err := s.connect(ctx, apiKey)
	if err != nil {
		return model.ResultAsset{}, err
	}

	log.Printf("🚀 Starting video generation (model: %s, %s, %s)", s.model, cfg.Resolution, cfg.AspectRatio)
	op, err := client.GenerateVideos(ctx, s.model, stylePrefix+cfg.Prompt, &genai.GenerateVideosConfig{
		NumberOfVideos: 1,
		Resolution:     cfg.Resolution,
		AspectRatio:    cfg.AspectRatio,
	})
	if err != nil {
		return model.ResultAsset{}, err
	}
	if op == nil {
		return model.ResultAsset{}, model.GenerationFailed("video generation did not return an operation", nil)
	}
	report(submittedProgress())

	op, err = s.pollUntilDone(ctx, client, op, report)
	if err != nil {
		return model.ResultAsset{}, err
	}

	video, err := generatedVideo(op)
	if err != nil {
		return model.ResultAsset{}, err
	}

	report(fetchingProgress())
	data, mimeType, err := s.download(ctx, video.URI, apiKey)
	if err != nil {
		return model.ResultAsset{}, err
	}

	id, err := s.store.Put(ctx, data, mimeType)
	if err != nil {
		return model.ResultAsset{}, model.GenerationFailed("failed to keep the downloaded video", err)
	}

	log.Printf("✅ Video ready: %s (%d bytes)", id, len(data))
	return model.ResultAsset{
		Kind:     model.AssetVideo,
		URI:      "/assets/" + id,
		MIMEType: mimeType,
		AssetID:  id,
		FileName: model.VideoFileName,
	}, nil
}

// generatedVideo - 완료된 operation의 결과 비디오 선택
func generatedVideo(op *genai.GenerateVideosOperation) (*genai.Video, error) {
	if err := gemini.OperationError(op.Error); err != nil {
		return nil, err
	}
	if op.Response == nil || len(op.Response.GeneratedVideos) == 0 {
		return nil, model.GenerationFailed("no download link", nil)
	}
	generated := op.Response.GeneratedVideos[0]
	if generated == nil || generated.Video == nil {
		return nil, model.GenerationFailed("no download link", nil)
	}
	if generated.Video.URI == "" {
		return nil, model.GenerationFailed("no download link", nil)
	}
	return generated.Video, nil
}

// download - 생성된 파일 다운로드 (key 쿼리 파라미터로 인증)
func (s *Service) download(ctx context.Context, downloadURI, apiKey string) ([]byte, string, error) {
	u, err := url.Parse(downloadURI)
	if err != nil {
		return nil, "", model.GenerationFailed("invalid download link", err)
	}
	query := u.Query()
	query.Set("key", apiKey)
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", model.GenerationFailed("invalid download link", err)
	}

	log.Printf("📥 Downloading video from: %s://%s%s", u.Scheme, u.Host, u.Path)
	resp, err := s.httpClient.Do(req)
	if err != nil {
		// url.Error에는 키가 포함된 전체 URL이 들어있음
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, "", model.GenerationFailed(fmt.Sprintf("Failed to download video: %v", err), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Printf("❌ Download failed - Status: %d", resp.StatusCode)
		return nil, "", &gemini.DownloadError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", model.GenerationFailed("Failed to download video: incomplete body", err)
	}
	if len(data) == 0 {
		return nil, "", model.GenerationFailed("Failed to download video: empty body", nil)
	}
	mimeType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "video/") {
		mimeType = defaultVideoMIME
	}
	return data, mimeType, nil
}
