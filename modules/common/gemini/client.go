package gemini

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

// Backend - 생성기가 쓰는 genai 호출 모음
// 시도마다 새로 만들어서 새로 선택한 키가 바로 적용됨
type Backend struct {
	client *genai.Client
}

// Connect - 주어진 키로 Gemini API 클라이언트 생성
func Connect(ctx context.Context, apiKey, baseURL string) (*Backend, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key selected")
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: baseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		log.Printf("❌ Failed to create Genai client: %v", err)
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Backend{client: client}, nil
}

func (b *Backend) GenerateImages(
	ctx context.Context,
	model string,
	prompt string,
	config *genai.GenerateImagesConfig,
) (*genai.GenerateImagesResponse, error) {
	return b.client.Models.GenerateImages(ctx, model, prompt, config)
}

func (b *Backend) GenerateVideos(
	ctx context.Context,
	model string,
	prompt string,
	config *genai.GenerateVideosConfig,
) (*genai.GenerateVideosOperation, error) {
	return b.client.Models.GenerateVideos(ctx, model, prompt, nil, config)
}

func (b *Backend) GetVideosOperation(
	ctx context.Context,
	op *genai.GenerateVideosOperation,
) (*genai.GenerateVideosOperation, error) {
	return b.client.Operations.GetVideosOperation(ctx, op, nil)
}
