package veo3

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"anime-studio-server/modules/common/model"
	"anime-studio-server/modules/common/storage"
)

type pollResult struct {
	op  *genai.GenerateVideosOperation
	err error
}

// scriptedClient answers the submit call, then the scripted polls in order.
// Once the script runs out it keeps answering with an unfinished operation.
type scriptedClient struct {
	mu sync.Mutex

	submitOp  *genai.GenerateVideosOperation
	submitErr error
	polls     []pollResult

	pollCount int
	gotPrompt string
	gotConfig *genai.GenerateVideosConfig
}

func (c *scriptedClient) GenerateVideos(_ context.Context, _ string, prompt string, cfg *genai.GenerateVideosConfig) (*genai.GenerateVideosOperation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gotPrompt = prompt
	c.gotConfig = cfg
	return c.submitOp, c.submitErr
}

func (c *scriptedClient) GetVideosOperation(_ context.Context, op *genai.GenerateVideosOperation) (*genai.GenerateVideosOperation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pollCount++
	if len(c.polls) == 0 {
		return &genai.GenerateVideosOperation{Name: op.Name}, nil
	}
	next := c.polls[0]
	c.polls = c.polls[1:]
	return next.op, next.err
}

func (c *scriptedClient) polled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollCount
}

type staticKey string

func (k staticKey) APIKey() string { return string(k) }

func pending() *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{Name: "operations/anime-1"}
}

func finished(uri string) *genai.GenerateVideosOperation {
	return &genai.GenerateVideosOperation{
		Name: "operations/anime-1",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{{Video: &genai.Video{URI: uri}}},
		},
	}
}

type harness struct {
	svc       *Service
	store     *storage.MemoryStore
	progress  []Progress
	keyErrors int32
	sleeps    []time.Duration
}

func newHarness(t *testing.T, client *scriptedClient) *harness {
	t.Helper()
	h := &harness{store: storage.NewMemoryStore(0)}
	h.svc = NewService(staticKey("test-key"), func(_ context.Context, apiKey string) (VideoClient, error) {
		require.Equal(t, "test-key", apiKey)
		return client, nil
	}, h.store, Options{Model: "veo-test", PollInterval: 10 * time.Second})
	h.svc.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps = append(h.sleeps, d)
		return ctx.Err()
	}
	return h
}

func (h *harness) generate(ctx context.Context) (model.ResultAsset, error) {
	return h.svc.GenerateVideo(ctx, model.VideoConfig{
		Prompt:      "dragon flight",
		AspectRatio: "16:9",
		Resolution:  "720p",
	}, func(p Progress) {
		h.progress = append(h.progress, p)
	}, func() {
		atomic.AddInt32(&h.keyErrors, 1)
	})
}

func videoServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "media", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "video/mp4")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestGenerateVideo_PollsThenFetches(t *testing.T) {
	srv := videoServer(t, http.StatusOK, "fake-mp4")
	client := &scriptedClient{
		submitOp: pending(),
		polls: []pollResult{
			{op: pending()},
			{op: finished(srv.URL + "/files/abc:download?alt=media")},
		},
	}
	h := newHarness(t, client)

	asset, err := h.generate(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "cinematic, high quality, anime style, dragon flight", client.gotPrompt)
	assert.EqualValues(t, 1, client.gotConfig.NumberOfVideos)
	assert.Equal(t, "720p", client.gotConfig.Resolution)
	assert.Equal(t, "16:9", client.gotConfig.AspectRatio)
	assert.Equal(t, 2, client.polled())
	assert.Equal(t, []time.Duration{10 * time.Second, 10 * time.Second}, h.sleeps)

	require.GreaterOrEqual(t, len(h.progress), 4)
	stages := make([]Stage, 0, len(h.progress))
	for _, p := range h.progress {
		stages = append(stages, p.Stage)
	}
	assert.Equal(t, []Stage{StageSubmitted, StagePolling, StagePolling, StageFetching}, stages)
	assert.Equal(t, 1, h.progress[1].Attempt)
	assert.Equal(t, 2, h.progress[2].Attempt)

	assert.Equal(t, model.AssetVideo, asset.Kind)
	assert.Equal(t, "/assets/"+asset.AssetID, asset.URI)
	assert.Equal(t, "video/mp4", asset.MIMEType)
	assert.Equal(t, model.VideoFileName, asset.FileName)

	obj, err := h.store.Get(context.Background(), asset.AssetID)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-mp4"), obj.Data)
	assert.Zero(t, atomic.LoadInt32(&h.keyErrors))
}

func TestGenerateVideo_EntityNotFoundAtEveryStage(t *testing.T) {
	notFound := errors.New("Requested entity was not found.")

	t.Run("submit", func(t *testing.T) {
		h := newHarness(t, &scriptedClient{submitErr: genai.APIError{Code: 404, Message: "Requested entity was not found."}})
		_, err := h.generate(context.Background())
		assertAPIKeyError(t, h, err)
	})

	t.Run("poll", func(t *testing.T) {
		h := newHarness(t, &scriptedClient{
			submitOp: pending(),
			polls:    []pollResult{{op: pending()}, {err: notFound}},
		})
		_, err := h.generate(context.Background())
		assertAPIKeyError(t, h, err)
	})

	t.Run("fetch", func(t *testing.T) {
		srv := videoServer(t, http.StatusNotFound, "")
		h := newHarness(t, &scriptedClient{
			submitOp: pending(),
			polls:    []pollResult{{op: finished(srv.URL + "/v?alt=media")}},
		})
		_, err := h.generate(context.Background())
		assertAPIKeyError(t, h, err)
	})
}

func assertAPIKeyError(t *testing.T, h *harness, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, model.IsAPIKeyError(err))
	var failed *model.GenerationFailedError
	assert.False(t, errors.As(err, &failed))
	assert.EqualValues(t, 1, atomic.LoadInt32(&h.keyErrors))
}

func TestGenerateVideo_GenerationFailures(t *testing.T) {
	failing := videoServer(t, http.StatusInternalServerError, "oops")

	tests := []struct {
		name    string
		client  *scriptedClient
		wantMsg string
	}{
		{
			name:    "submit error",
			client:  &scriptedClient{submitErr: genai.APIError{Code: 429, Message: "Resource has been exhausted"}},
			wantMsg: "Resource has been exhausted",
		},
		{
			name:    "poll network error",
			client:  &scriptedClient{submitOp: pending(), polls: []pollResult{{err: errors.New("connection reset by peer")}}},
			wantMsg: "connection reset by peer",
		},
		{
			name: "no download link",
			client: &scriptedClient{submitOp: pending(), polls: []pollResult{{op: &genai.GenerateVideosOperation{
				Done:     true,
				Response: &genai.GenerateVideosResponse{},
			}}}},
			wantMsg: "no download link",
		},
		{
			name: "operation error payload",
			client: &scriptedClient{submitOp: pending(), polls: []pollResult{{op: &genai.GenerateVideosOperation{
				Done:  true,
				Error: map[string]any{"code": float64(3), "message": "prompt violates usage guidelines"},
			}}}},
			wantMsg: "prompt violates usage guidelines",
		},
		{
			name:    "fetch non-OK",
			client:  &scriptedClient{submitOp: pending(), polls: []pollResult{{op: finished(failing.URL + "/v?alt=media")}}},
			wantMsg: "Failed to download video: 500 Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, tt.client)

			asset, err := h.generate(context.Background())

			var failed *model.GenerationFailedError
			require.ErrorAs(t, err, &failed)
			assert.Equal(t, tt.wantMsg, failed.Message)
			assert.False(t, model.IsAPIKeyError(err))
			assert.Zero(t, atomic.LoadInt32(&h.keyErrors))
			assert.Empty(t, asset.URI)
		})
	}
}

func TestGenerateVideo_NeverDoneKeepsPolling(t *testing.T) {
	client := &scriptedClient{submitOp: pending()}
	h := newHarness(t, client)
	h.svc.sleep = func(ctx context.Context, _ time.Duration) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.svc.GenerateVideo(ctx, model.VideoConfig{Prompt: "endless", AspectRatio: "16:9", Resolution: "720p"}, nil, nil)
		done <- err
	}()

	require.Eventually(t, func() bool { return client.polled() >= 25 }, 5*time.Second, time.Millisecond)
	select {
	case err := <-done:
		t.Fatalf("workflow ended on its own: %v", err)
	default:
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, model.IsAPIKeyError(err))
	case <-time.After(5 * time.Second):
		t.Fatal("workflow did not stop after cancellation")
	}
}

func TestGenerateVideo_RequiresDownloadLink(t *testing.T) {
	client := &scriptedClient{submitOp: &genai.GenerateVideosOperation{
		Done: true,
		Response: &genai.GenerateVideosResponse{GeneratedVideos: []*genai.GeneratedVideo{{
			Video: &genai.Video{VideoBytes: []byte("inline"), MIMEType: "video/webm"},
		}}},
	}}
	h := newHarness(t, client)

	_, err := h.generate(context.Background())

	var failed *model.GenerationFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "no download link", failed.Message)
	assert.Zero(t, client.polled())
	for _, p := range h.progress {
		assert.NotEqual(t, StageFetching, p.Stage)
	}
	assert.Zero(t, atomic.LoadInt32(&h.keyErrors))
}

func TestGenerateVideo_NetworkErrorHidesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	uri := srv.URL + "/v?alt=media"
	srv.Close()

	h := newHarness(t, &scriptedClient{submitOp: pending(), polls: []pollResult{{op: finished(uri)}}})

	_, err := h.generate(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "test-key")
	assert.Contains(t, err.Error(), "Failed to download video")
}
