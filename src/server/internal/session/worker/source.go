package worker

import (
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

// ChunkSource yields ordered, fixed-duration PCM windows until exhausted.
// Returning false ends the session's input - for local audio that is the
// chunker running out of complete windows, for remote audio it is the
// fetch sentinel.
type ChunkSource interface {
	Next() (audio.Buffer, bool)
}

var _ ChunkSource = &BufferSource{}

// BufferSource adapts a chunker over fully-loaded local audio.
type BufferSource struct {
	chunker *audio.Chunker
}

func NewBufferSource(chunker *audio.Chunker) *BufferSource {
	return &BufferSource{chunker: chunker}
}

func (b *BufferSource) Next() (audio.Buffer, bool) {
	return b.chunker.Next()
}

// WindowFetcher is the remote seek-and-decode collaborator.
type WindowFetcher interface {
	FetchWindow(url string, startSeconds float64, durationSeconds float64, targetSampleRate int) (audio.Buffer, bool)
}

var _ ChunkSource = &RemoteSource{}

// RemoteSource pulls consecutive windows out of a remote stream, one
// stateless fetch per window. The first empty or failed window ends the
// sequence and thereby fixes the session's total chunk count.
type RemoteSource struct {
	fetcher       WindowFetcher
	streamURL     string
	chunkDuration float64
	sampleRate    int
	nextIndex     int
}

func NewRemoteSource(fetcher WindowFetcher, streamURL string, chunkDuration float64, sampleRate int) *RemoteSource {
	return &RemoteSource{
		fetcher:       fetcher,
		streamURL:     streamURL,
		chunkDuration: chunkDuration,
		sampleRate:    sampleRate,
	}
}

func (r *RemoteSource) Next() (audio.Buffer, bool) {
	startSeconds := float64(r.nextIndex) * r.chunkDuration

	window, ok := r.fetcher.FetchWindow(r.streamURL, startSeconds, r.chunkDuration, r.sampleRate)
	if !ok || window.Frames() == 0 {
		return nil, false
	}

	r.nextIndex++
	return window, true
}
