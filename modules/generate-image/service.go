package generateimage

import (
	"context"
	"encoding/base64"
	"log"

	"google.golang.org/genai"

	"anime-studio-server/modules/common/gemini"
	"anime-studio-server/modules/common/model"
)

const (
	stylePrefix    = "cinematic anime style, "
	outputMIMEType = "image/jpeg"
)

// ImageClient - 이미지 생성에 쓰는 genai 호출
type ImageClient interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Connector - apiKey로 클라이언트 생성
type Connector func(ctx context.Context, apiKey string) (ImageClient, error)

// KeySource - 현재 선택된 API 키 제공
type KeySource interface {
	APIKey() string
}

type Service struct {
	keys    KeySource
	connect Connector
	model   string
}

func NewService(keys KeySource, connect Connector, imageModel string) *Service {
	return &Service{
		keys:    keys,
		connect: connect,
		model:   imageModel,
	}
}

// GenerateImage - Imagen 동기 요청 1회, JPEG data URI 반환 (재시도 없음)
func (s *Service) GenerateImage(ctx context.Context, cfg model.ImageConfig) (model.ResultAsset, error) {
	log.Printf("🎨 Generating image (model: %s, aspect: %s)", s.model, cfg.AspectRatio)

	client, err := s.connect(ctx, s.keys.APIKey())
	if err != nil {
		log.Printf("❌ Gemini API Error: %v", err)
		return model.ResultAsset{}, model.GenerationFailed(gemini.Message(err), err)
	}

	resp, err := client.GenerateImages(ctx, s.model, stylePrefix+cfg.Prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    cfg.AspectRatio,
		OutputMIMEType: outputMIMEType,
	})
	if err != nil {
		log.Printf("❌ Gemini API Error: %v", err)
		return model.ResultAsset{}, model.GenerationFailed(gemini.Message(err), err)
	}

	imageBytes := firstImage(resp)
	if len(imageBytes) == 0 {
		log.Printf("❌ Image generation completed, but no image data was found")
		return model.ResultAsset{}, model.GenerationFailed("no image data returned", nil)
	}

	log.Printf("✅ Image generated: %d bytes", len(imageBytes))
	return model.ResultAsset{
		Kind:     model.AssetImage,
		URI:      "data:" + outputMIMEType + ";base64," + base64.StdEncoding.EncodeToString(imageBytes),
		MIMEType: outputMIMEType,
		FileName: model.ImageFileName,
	}, nil
}

func firstImage(resp *genai.GenerateImagesResponse) []byte {
	if resp == nil || len(resp.GeneratedImages) == 0 {
		return nil
	}
	generated := resp.GeneratedImages[0]
	if generated == nil || generated.Image == nil {
		return nil
	}
	return generated.Image.ImageBytes
}
