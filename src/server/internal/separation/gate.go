package separation

import (
	"context"

	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

var _ Separator = GatedSeparator{}

// NewGatedSeparator bounds how many separation calls run at once across all
// sessions. The model binary is a heavyweight shared resource; without a
// gate, every active session would hit it concurrently. maxConcurrent <= 0
// means unbounded.
func NewGatedSeparator(separator Separator, maxConcurrent int) Separator {
	if maxConcurrent <= 0 {
		return separator
	}

	return GatedSeparator{
		separator: separator,
		slots:     make(chan struct{}, maxConcurrent),
	}
}

type GatedSeparator struct {
	separator Separator
	slots     chan struct{}
}

func (g GatedSeparator) Separate(ctx context.Context, window audio.Buffer, sampleRate int) (StemBuffers, error) {
	select {
	case g.slots <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-g.slots }()

	return g.separator.Separate(ctx, window, sampleRate)
}
