package studio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"anime-studio-server/modules/common/model"
	"anime-studio-server/modules/common/response"
	"anime-studio-server/modules/common/storage"
)

// KeySelector - 사용자가 선택한 키 저장
type KeySelector interface {
	SelectKey(ctx context.Context, key string) error
}

type StudioHandler struct {
	state   *State
	keys    KeySelector
	assets  storage.Store
	metrics *Metrics
}

func NewStudioHandler(state *State, keys KeySelector, assets storage.Store, metrics *Metrics) *StudioHandler {
	return &StudioHandler{
		state:   state,
		keys:    keys,
		assets:  assets,
		metrics: metrics,
	}
}

func (h *StudioHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/state", h.GetState).Methods("GET")
	r.HandleFunc("/api/mode", h.SetMode).Methods("POST")
	r.HandleFunc("/api/reset", h.Reset).Methods("POST")
	r.HandleFunc("/api/key", h.SelectKey).Methods("POST")
	r.HandleFunc("/assets/{id}", h.GetAsset).Methods("GET")
	r.HandleFunc("/metrics", h.GetMetrics).Methods("GET")
	r.Handle("/metrics/prometheus", h.metrics.PrometheusHandler()).Methods("GET")
}

func (h *StudioHandler) GetState(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.state.Snapshot())
}

type modeRequest struct {
	Mode model.Mode `json:"mode"`
}

func (h *StudioHandler) SetMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.state.SetMode(req.Mode); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.state.Snapshot())
}

// Reset - 끝난 시도 초기화 (READY에서는 아무것도 안 함)
func (h *StudioHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.state.Reset(); err != nil {
		response.FromError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, h.state.Snapshot())
}

type keyRequest struct {
	APIKey string `json:"apiKey"`
}

// SelectKey - 키 선택 다이얼로그 대체
// 에러 없이 끝나면 사용 가능한 키로 간주
func (h *StudioHandler) SelectKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	err := h.state.SelectKey(func() error {
		return h.keys.SelectKey(r.Context(), req.APIKey)
	})
	if err != nil {
		log.Printf("⚠️  Key selection failed: %v", err)
		if errors.Is(err, model.ErrNotReady) {
			response.FromError(w, err)
			return
		}
		response.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	response.JSON(w, http.StatusOK, h.state.Snapshot())
}

// GetAsset - 저장된 비디오 전송 (?download=1이면 다운로드)
func (h *StudioHandler) GetAsset(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	obj, err := h.assets.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "Asset not found")
			return
		}
		log.Printf("❌ Failed to load asset %s: %v", id, err)
		response.Error(w, http.StatusInternalServerError, "Failed to load asset")
		return
	}

	w.Header().Set("Content-Type", obj.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.Data)))
	w.Header().Set("Cache-Control", "no-store")
	if r.URL.Query().Get("download") == "1" {
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", model.VideoFileName))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(obj.Data); err != nil {
		log.Printf("❌ Failed to stream asset %s: %v", id, err)
	}
}

func (h *StudioHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	snap := h.state.Snapshot()
	body := map[string]interface{}{
		"server": map[string]interface{}{
			"uptime": h.metrics.Uptime().String(),
		},
		"status":   snap.Status,
		"attempts": h.metrics.Snapshot(),
	}
	if clients, total, ok := h.metrics.Connections(); ok {
		body["connections"] = map[string]int{
			"clients": clients,
			"total":   total,
		}
	}
	response.JSON(w, http.StatusOK, body)
}
