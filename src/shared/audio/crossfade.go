package audio

import "math"

// CrossfadeConcat stitches consecutive windows into one continuous buffer
// with an equal-power crossfade at each seam. Each seam overlaps the tail of
// the accumulated output with the head of the next window, so the result is
// fadeFrames shorter than plain concatenation per seam. Windows too short to
// overlap are concatenated directly.
func CrossfadeConcat(windows []Buffer, sampleRate int, fadeMS float64) Buffer {
	if len(windows) == 0 {
		return Buffer{}
	}

	out := make([]float64, len(windows[0]))
	for i, sample := range windows[0] {
		out[i] = toFloat(sample)
	}

	fadeFrames := int(math.Round(float64(sampleRate) * fadeMS / 1000.0))

	for _, window := range windows[1:] {
		if fadeFrames <= 0 || fadeFrames >= window.Frames() || fadeFrames*Channels >= len(out) {
			for _, sample := range window {
				out = append(out, toFloat(sample))
			}
			continue
		}

		overlapStart := len(out) - fadeFrames*Channels

		for frame := 0; frame < fadeFrames; frame++ {
			t := 0.0
			if fadeFrames > 1 {
				t = float64(frame) / float64(fadeFrames-1)
			}

			fadeOut := math.Pow(math.Cos(t*math.Pi/2), 2)
			fadeIn := math.Pow(math.Sin(t*math.Pi/2), 2)

			for channel := 0; channel < Channels; channel++ {
				outIndex := overlapStart + frame*Channels + channel
				windowIndex := frame*Channels + channel

				out[outIndex] = out[outIndex]*fadeOut + toFloat(window[windowIndex])*fadeIn
			}
		}

		for i := fadeFrames * Channels; i < len(window); i++ {
			out = append(out, toFloat(window[i]))
		}
	}

	result := make(Buffer, len(out))
	for i, sample := range out {
		result[i] = toInt16(sample)
	}

	return result
}
