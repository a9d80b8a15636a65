package dummy

import (
	"sync"

	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

// WindowFetcher replays a fixed sequence of windows, one per fetch, and then
// reports end of stream. It assumes callers ask for consecutive windows.
type WindowFetcher struct {
	Windows []audio.Buffer

	mutex     sync.Mutex
	nextIndex int
}

func NewDummyWindowFetcher(windows ...audio.Buffer) *WindowFetcher {
	return &WindowFetcher{
		Windows: windows,
	}
}

func (w *WindowFetcher) FetchWindow(url string, startSeconds float64, durationSeconds float64, targetSampleRate int) (audio.Buffer, bool) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.nextIndex >= len(w.Windows) {
		return nil, false
	}

	window := w.Windows[w.nextIndex]
	w.nextIndex++
	return window, true
}

// Decoder hands back a canned PCM buffer for any file path.
type Decoder struct {
	Decoded     audio.Buffer
	Unavailable bool
}

func (d *Decoder) DecodeFile(path string, targetSampleRate int) (audio.Buffer, error) {
	if d.Unavailable {
		return nil, NetworkFailure
	}

	return d.Decoded, nil
}

// PitchShifter returns a canned result and records what it was asked for.
type PitchShifter struct {
	Shifted     audio.Buffer
	Unavailable bool

	LastSemitones float64
	CallCount     int
}

func (p *PitchShifter) PitchShift(pcm audio.Buffer, sampleRate int, semitones float64) (audio.Buffer, error) {
	p.CallCount++
	p.LastSemitones = semitones

	if p.Unavailable {
		return nil, NetworkFailure
	}

	return p.Shifted, nil
}

// StreamURLResolver maps page URLs to canned stream URLs.
type StreamURLResolver struct {
	Resolved    map[string]string
	Unavailable bool
}

func (s *StreamURLResolver) ResolveStreamURL(pageURL string) (string, error) {
	if s.Unavailable {
		return "", NetworkFailure
	}

	streamURL, ok := s.Resolved[pageURL]
	if !ok {
		return "", NetworkFailure
	}

	return streamURL, nil
}
