package studio

import "anime-studio-server/modules/common/model"

// ImageLoadingMessages - 이미지 생성 중 로딩 메시지
var ImageLoadingMessages = []string{
	"Summoning digital artists...",
	"Sketching with AI magic...",
	"Applying anime color palettes...",
	"Rendering the final image...",
	"The AI is painting your masterpiece...",
	"Almost there, adding the final touches!",
}

// VideoLoadingMessages - 비디오 생성 중 로딩 메시지
var VideoLoadingMessages = []string{
	"Directing the opening scene...",
	"Animating keyframes with AI...",
	"This can take a few minutes, please be patient.",
	"Compositing layers of animation...",
	"Rendering the video sequence...",
	"Adding sound effects and music...",
	"Finalizing the anime masterpiece!",
}

func MessagesFor(mode model.Mode) []string {
	if mode == model.ModeVideo {
		return VideoLoadingMessages
	}
	return ImageLoadingMessages
}

// Advisor - 메시지 목록 순환 (k번 tick 후 messages[k mod len])
type Advisor struct {
	messages []string
	index    int
}

func NewAdvisor(messages []string) *Advisor {
	return &Advisor{messages: messages}
}

func (a *Advisor) Current() string {
	if len(a.messages) == 0 {
		return ""
	}
	return a.messages[a.index]
}

func (a *Advisor) Tick() string {
	if len(a.messages) == 0 {
		return ""
	}
	a.index = (a.index + 1) % len(a.messages)
	return a.messages[a.index]
}
