package dummy

import (
	"context"
	"sync"

	"github.com/veedubyou/instant-karaoke-be/src/server/internal/separation"
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

var _ separation.Separator = &Separator{}

func NewDummySeparator(stemNames ...string) *Separator {
	return &Separator{
		StemNames:   stemNames,
		FailOnCall:  -1,
		BeforeReply: nil,
	}
}

// Separator pretends to split audio by returning the input window unchanged
// under every configured stem name. FailOnCall >= 0 makes that call (0-based)
// return NetworkFailure. BeforeReply, when set, runs before each successful
// reply so tests can interleave registry operations mid-separation.
type Separator struct {
	StemNames   []string
	FailOnCall  int
	BeforeReply func(callIndex int)

	mutex     sync.Mutex
	callCount int
}

func (s *Separator) Separate(ctx context.Context, window audio.Buffer, sampleRate int) (separation.StemBuffers, error) {
	s.mutex.Lock()
	callIndex := s.callCount
	s.callCount++
	s.mutex.Unlock()

	if callIndex == s.FailOnCall {
		return nil, NetworkFailure
	}

	if s.BeforeReply != nil {
		s.BeforeReply(callIndex)
	}

	stems := separation.StemBuffers{}
	for _, stemName := range s.StemNames {
		stemPCM := make(audio.Buffer, len(window))
		copy(stemPCM, window)
		stems[stemName] = stemPCM
	}

	return stems, nil
}

func (s *Separator) CallCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.callCount
}
