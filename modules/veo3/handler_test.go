package veo3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anime-studio-server/modules/common/model"
)

type recordingSubmitter struct {
	calls []model.VideoConfig
	err   error
}

func (s *recordingSubmitter) SubmitVideo(_ context.Context, cfg model.VideoConfig) error {
	s.calls = append(s.calls, cfg)
	return s.err
}

func postVideo(submitter Submitter, body string) *httptest.ResponseRecorder {
	r := mux.NewRouter()
	NewVeo3Handler(submitter).RegisterRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/generate/video", strings.NewReader(body)))
	return rec
}

func TestVeo3Handler_AcceptsWithDefaults(t *testing.T) {
	submitter := &recordingSubmitter{}

	rec := postVideo(submitter, `{"prompt":"dragon flight"}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, submitter.calls, 1)
	assert.Equal(t, "16:9", submitter.calls[0].AspectRatio)
	assert.Equal(t, "720p", submitter.calls[0].Resolution)
}

func TestVeo3Handler_Rejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{name: "empty prompt", body: `{"prompt":"","aspectRatio":"16:9"}`, want: http.StatusBadRequest},
		{name: "square video", body: `{"prompt":"dragon","aspectRatio":"1:1"}`, want: http.StatusBadRequest},
		{name: "malformed", body: `{"prompt":`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			submitter := &recordingSubmitter{}
			rec := postVideo(submitter, tt.body)
			assert.Equal(t, tt.want, rec.Code)
			assert.Empty(t, submitter.calls)
		})
	}
}

func TestVeo3Handler_Busy(t *testing.T) {
	rec := postVideo(&recordingSubmitter{err: model.ErrNotReady}, `{"prompt":"dragon"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
