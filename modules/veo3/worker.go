package veo3

import (
	"context"
	"log"
	"time"

	"google.golang.org/genai"

	"anime-studio-server/modules/common/model"
)

// pollUntilDone - 완료될 때까지 pollInterval마다 operation 갱신
// 횟수 제한 없음. 완료, 폴링 에러, ctx 취소로만 종료. 갱신 시 핸들 교체
func (s *Service) pollUntilDone(
	ctx context.Context,
	client VideoClient,
	op *genai.GenerateVideosOperation,
	report ProgressFunc,
) (*genai.GenerateVideosOperation, error) {
	attempt := 0
	for !op.Done {
		attempt++
		report(pollingProgress(attempt))

		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return nil, err
		}

		next, err := client.GetVideosOperation(ctx, op)
		if err != nil {
			log.Printf("❌ Poll #%d for %s failed: %v", attempt, op.Name, err)
			return nil, err
		}
		if next == nil {
			return nil, model.GenerationFailed("video operation disappeared while polling", nil)
		}
		op = next
		log.Printf("⏳ Poll #%d for %s: done=%v", attempt, op.Name, op.Done)
	}
	return op, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
