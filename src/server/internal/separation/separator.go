package separation

import (
	"context"

	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

// StemBuffers maps a stem name to its separated PCM. The set of names is
// whatever the model produces - callers must not assume a fixed set.
type StemBuffers = map[string]audio.Buffer

// Separator turns one PCM window into per-stem PCM windows of equal length.
type Separator interface {
	Separate(ctx context.Context, window audio.Buffer, sampleRate int) (StemBuffers, error)
}
