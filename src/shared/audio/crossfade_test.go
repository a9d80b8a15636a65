package audio_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

func constantBuffer(frames int, value int16) audio.Buffer {
	buffer := make(audio.Buffer, frames*audio.Channels)
	for i := range buffer {
		buffer[i] = value
	}

	return buffer
}

var _ = Describe("CrossfadeConcat", func() {
	Describe("Degenerate inputs", func() {
		It("returns an empty buffer for no windows", func() {
			out := audio.CrossfadeConcat(nil, 44100, 10)
			Expect(out).To(BeEmpty())
		})

		It("returns a single window unchanged", func() {
			window := rampBuffer(100)
			out := audio.CrossfadeConcat([]audio.Buffer{window}, 100, 10)
			Expect(out).To(Equal(window))
		})
	})

	Describe("Two windows with an overlapping seam", func() {
		var out audio.Buffer
		var first, second audio.Buffer

		BeforeEach(func() {
			first = rampBuffer(100)
			second = rampBuffer(100)

			// 10ms at 100Hz rounds to a 1 frame overlap
			out = audio.CrossfadeConcat([]audio.Buffer{first, second}, 100, 10)
		})

		It("is one overlap shorter than plain concatenation", func() {
			Expect(out.Frames()).To(Equal(199))
		})

		It("keeps the lead-in of the first window intact", func() {
			Expect(out.FrameRange(0, 99)).To(Equal(first.FrameRange(0, 99)))
		})

		It("keeps the tail of the second window intact", func() {
			Expect(out.FrameRange(100, 199)).To(Equal(second.FrameRange(1, 100)))
		})
	})

	Describe("Longer fades", func() {
		It("shortens the output by the fade length per seam", func() {
			windows := []audio.Buffer{
				constantBuffer(100, 1000),
				constantBuffer(100, 1000),
				constantBuffer(100, 1000),
			}

			// 10ms at 1000Hz is a 10 frame overlap, twice
			out := audio.CrossfadeConcat(windows, 1000, 10)
			Expect(out.Frames()).To(Equal(280))
		})

		It("preserves a constant signal across the seam", func() {
			windows := []audio.Buffer{
				constantBuffer(100, 16000),
				constantBuffer(100, 16000),
			}

			// equal power: cos^2 + sin^2 sums the seam back to unity
			out := audio.CrossfadeConcat(windows, 1000, 10)
			for _, sample := range out {
				Expect(sample).To(Equal(int16(16000)))
			}
		})
	})

	Describe("Windows too short to overlap", func() {
		It("falls back to plain concatenation", func() {
			windows := []audio.Buffer{
				rampBuffer(3),
				rampBuffer(3),
			}

			// 10ms at 44.1kHz wants a 441 frame overlap, far more than
			// the windows have
			out := audio.CrossfadeConcat(windows, 44100, 10)
			Expect(out.Frames()).To(Equal(6))
		})

		It("concatenates plainly when the fade is zero", func() {
			windows := []audio.Buffer{
				rampBuffer(10),
				rampBuffer(10),
			}

			out := audio.CrossfadeConcat(windows, 44100, 0)
			Expect(out.Frames()).To(Equal(20))
		})
	})
})
