package studio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"anime-studio-server/modules/common/model"
)

func TestAdvisor_CyclesByModulo(t *testing.T) {
	a := NewAdvisor(VideoLoadingMessages)
	assert.Equal(t, VideoLoadingMessages[0], a.Current())

	for k := 1; k <= 3*len(VideoLoadingMessages)+2; k++ {
		assert.Equal(t, VideoLoadingMessages[k%len(VideoLoadingMessages)], a.Tick(), "tick %d", k)
	}
}

func TestMessagesFor(t *testing.T) {
	assert.Len(t, MessagesFor(model.ModeImage), 6)
	assert.Len(t, MessagesFor(model.ModeVideo), 7)
}

func TestAdvisor_Empty(t *testing.T) {
	a := NewAdvisor(nil)
	assert.Equal(t, "", a.Current())
	assert.Equal(t, "", a.Tick())
}
