package veo3

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"anime-studio-server/modules/common/model"
	"anime-studio-server/modules/common/response"
)

// Submitter - 비디오 생성 시도 시작 (studio runner가 구현)
type Submitter interface {
	SubmitVideo(ctx context.Context, cfg model.VideoConfig) error
}

type Veo3Handler struct {
	submitter Submitter
}

func NewVeo3Handler(submitter Submitter) *Veo3Handler {
	return &Veo3Handler{
		submitter: submitter,
	}
}

func (h *Veo3Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/generate/video", h.GenerateVideo).Methods("POST")
}

// GenerateVideo - 폼 검증 후 장시간 작업 시작
// 진행 상황은 응답이 아니라 웹소켓으로 전달
func (h *Veo3Handler) GenerateVideo(w http.ResponseWriter, r *http.Request) {
	var cfg model.VideoConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := cfg.Validate(); err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.submitter.SubmitVideo(r.Context(), cfg); err != nil {
		log.Printf("⚠️  Video submission rejected: %v", err)
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, map[string]string{
		"status": string(model.StatusLoading),
	})
}
