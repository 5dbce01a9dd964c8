package web

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"anime-studio-server/modules/common/model"
)

//go:embed index.html
var indexHTML string

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

type pageData struct {
	ImageAspectRatios []string
	VideoAspectRatios []string
	VideoResolutions  []string
	DefaultRatio      string
	DefaultResolution string
}

// PageHandler - 스튜디오 단일 페이지 제공
type PageHandler struct {
	page []byte
}

func NewPageHandler() (*PageHandler, error) {
	var buf bytes.Buffer
	err := indexTemplate.Execute(&buf, pageData{
		ImageAspectRatios: model.ImageAspectRatios,
		VideoAspectRatios: model.VideoAspectRatios,
		VideoResolutions:  model.VideoResolutions,
		DefaultRatio:      model.DefaultAspectRatio,
		DefaultResolution: model.DefaultResolution,
	})
	if err != nil {
		return nil, err
	}
	return &PageHandler{page: buf.Bytes()}, nil
}

func (h *PageHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.handleIndex).Methods("GET")
}

func (h *PageHandler) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(h.page); err != nil {
		log.Printf("❌ Failed to write page: %v", err)
	}
}
