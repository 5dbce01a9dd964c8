package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"anime-studio-server/modules/common/config"
	"anime-studio-server/modules/common/gemini"
	"anime-studio-server/modules/common/model"
	"anime-studio-server/modules/common/redis"
	"anime-studio-server/modules/common/storage"
	"anime-studio-server/modules/credential"
	generateimage "anime-studio-server/modules/generate-image"
	"anime-studio-server/modules/realtime"
	"anime-studio-server/modules/studio"
	"anime-studio-server/modules/veo3"
	"anime-studio-server/modules/web"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "anime-studio",
	})
}

// newAssetStore - 설정된 에셋 저장소 선택 (Redis 연결 실패 시 메모리로 대체)
func newAssetStore(cfg *config.Config) storage.Store {
	if cfg.AssetStore == config.AssetStoreRedis {
		if rdb := redis.Connect(cfg); rdb != nil {
			log.Println("📦 Using Redis asset store")
			return storage.NewRedisStore(rdb, cfg.AssetTTL)
		}
		log.Println("⚠️  Redis unavailable, falling back to in-memory asset store")
	}
	log.Println("📦 Using in-memory asset store")
	return storage.NewMemoryStore(cfg.AssetTTL)
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	keys := credential.NewStore(cfg.GeminiAPIKey)
	assets := newAssetStore(cfg)

	// 시도마다 새 클라이언트 생성 - 새로 선택한 키가 바로 적용됨
	connectImages := func(ctx context.Context, apiKey string) (generateimage.ImageClient, error) {
		backend, err := gemini.Connect(ctx, apiKey, cfg.GeminiBaseURL)
		if err != nil {
			return nil, err
		}
		return backend, nil
	}
	connectVideos := func(ctx context.Context, apiKey string) (veo3.VideoClient, error) {
		backend, err := gemini.Connect(ctx, apiKey, cfg.GeminiBaseURL)
		if err != nil {
			return nil, err
		}
		return backend, nil
	}

	imageService := generateimage.NewService(keys, connectImages, cfg.ImageModel)
	videoService := veo3.NewService(keys, connectVideos, assets, veo3.Options{
		Model:        cfg.VideoModel,
		PollInterval: cfg.VideoPollInterval,
		HTTPClient:   &http.Client{Timeout: cfg.FetchTimeout},
	})

	state := studio.NewState(
		studio.WithAdvisoryInterval(cfg.AdvisoryInterval),
		studio.WithRelease(func(asset model.ResultAsset) {
			if asset.AssetID == "" {
				return
			}
			if err := assets.Delete(context.Background(), asset.AssetID); err != nil {
				log.Printf("⚠️  Failed to release asset %s: %v", asset.AssetID, err)
				return
			}
			log.Printf("🧹 Released asset %s", asset.AssetID)
		}),
	)
	hub := realtime.NewHub(state)
	state.Subscribe(hub.Broadcast)

	initial := state.Init(ctx, keys)
	log.Printf("🔑 Initial state: %s", initial)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := studio.NewMetrics(registry)
	metrics.TrackConnections(hub)
	runner := studio.NewRunner(ctx, state, imageService, videoService, keys, metrics)

	page, err := web.NewPageHandler()
	if err != nil {
		log.Fatalf("❌ Failed to render page: %v", err)
	}

	r := mux.NewRouter()
	r.HandleFunc("/health", healthCheck).Methods("GET")
	page.RegisterRoutes(r)
	hub.RegisterRoutes(r)
	studio.NewStudioHandler(state, keys, assets, metrics).RegisterRoutes(r)
	generateimage.NewGenerateImageHandler(runner).RegisterRoutes(r)
	veo3.NewVeo3Handler(runner).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           enableCORS(r),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Anime studio listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Shutdown error: %v", err)
	}
	runner.Wait()
	log.Println("✅ Server stopped")
}
