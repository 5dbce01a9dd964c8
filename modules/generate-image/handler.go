package generateimage

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"anime-studio-server/modules/common/model"
	"anime-studio-server/modules/common/response"
)

// Submitter - 이미지 생성 시도 시작 (studio runner가 구현)
type Submitter interface {
	SubmitImage(ctx context.Context, cfg model.ImageConfig) error
}

type GenerateImageHandler struct {
	submitter Submitter
}

func NewGenerateImageHandler(submitter Submitter) *GenerateImageHandler {
	return &GenerateImageHandler{
		submitter: submitter,
	}
}

func (h *GenerateImageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/generate/image", h.GenerateImage).Methods("POST")
}

// GenerateImage - 폼 검증 후 studio로 전달
// 빈 프롬프트는 여기서 거부되어 생성기까지 가지 않음
func (h *GenerateImageHandler) GenerateImage(w http.ResponseWriter, r *http.Request) {
	var cfg model.ImageConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := cfg.Validate(); err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.submitter.SubmitImage(r.Context(), cfg); err != nil {
		log.Printf("⚠️  Image submission rejected: %v", err)
		response.FromError(w, err)
		return
	}

	response.JSON(w, http.StatusAccepted, map[string]string{
		"status": string(model.StatusLoading),
	})
}
