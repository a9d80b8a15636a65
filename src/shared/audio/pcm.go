package audio

import "math"

// All PCM in this codebase is interleaved stereo 16-bit, the format the
// ffmpeg and model collaborators are asked to produce. Buffer holds the
// interleaved samples; one frame is Channels consecutive samples.
type Buffer []int16

const (
	Channels      = 2
	BitsPerSample = 16
)

func (b Buffer) Frames() int {
	return len(b) / Channels
}

// FrameRange returns the samples of frames [start, end). Bounds must already
// be clamped by the caller.
func (b Buffer) FrameRange(start int, end int) Buffer {
	return b[start*Channels : end*Channels]
}

func toFloat(sample int16) float64 {
	return float64(sample) / 32768.0
}

// toInt16 inverts toFloat exactly for in-range samples, so audio that never
// passes through a fade comes back bit-identical.
func toInt16(sample float64) int16 {
	scaled := math.Round(sample * 32768.0)

	if scaled > 32767 {
		return 32767
	}
	if scaled < -32768 {
		return -32768
	}

	return int16(scaled)
}
