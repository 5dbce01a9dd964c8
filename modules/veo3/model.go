package veo3

import "fmt"

// Stage - 진행 콜백으로 보고되는 비디오 작업 단계
type Stage string

const (
	StageSubmitted Stage = "submitted"
	StagePolling   Stage = "polling"
	StageFetching  Stage = "fetching"
)

// Progress - 진행 중인 비디오 시도의 진행 보고
type Progress struct {
	Stage   Stage  `json:"stage"`
	Attempt int    `json:"attempt,omitempty"` // 폴링 횟수 (폴링 중에만)
	Message string `json:"message"`
}

// ProgressFunc - 진행 보고를 순서대로 수신
type ProgressFunc func(Progress)

func submittedProgress() Progress {
	return Progress{Stage: StageSubmitted, Message: "generation started"}
}

func pollingProgress(attempt int) Progress {
	return Progress{
		Stage:   StagePolling,
		Attempt: attempt,
		Message: fmt.Sprintf("still rendering (check #%d)", attempt),
	}
}

func fetchingProgress() Progress {
	return Progress{Stage: StageFetching, Message: "fetching video"}
}
