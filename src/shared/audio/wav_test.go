package audio_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

var _ = Describe("WAV codec", func() {
	Describe("EncodeWAV", func() {
		It("produces a RIFF header followed by the sample data", func() {
			pcm := rampBuffer(50)
			data := audio.EncodeWAV(pcm, 44100)

			Expect(len(data)).To(Equal(44 + len(pcm)*2))
			Expect(string(data[0:4])).To(Equal("RIFF"))
			Expect(string(data[8:12])).To(Equal("WAVE"))
			Expect(binary.LittleEndian.Uint32(data[24:28])).To(Equal(uint32(44100)))
			Expect(binary.LittleEndian.Uint32(data[40:44])).To(Equal(uint32(len(pcm) * 2)))
		})
	})

	Describe("Round trip", func() {
		It("decodes back to the original samples and rate", func() {
			pcm := rampBuffer(123)
			decoded, sampleRate, err := audio.DecodeWAV(audio.EncodeWAV(pcm, 22050))

			Expect(err).NotTo(HaveOccurred())
			Expect(sampleRate).To(Equal(22050))
			Expect(decoded).To(Equal(pcm))
		})

		It("handles an empty buffer", func() {
			decoded, sampleRate, err := audio.DecodeWAV(audio.EncodeWAV(audio.Buffer{}, 44100))

			Expect(err).NotTo(HaveOccurred())
			Expect(sampleRate).To(Equal(44100))
			Expect(decoded).To(BeEmpty())
		})
	})

	Describe("Decoding other writers' files", func() {
		It("upmixes mono to stereo", func() {
			data := makeMonoWAV([]int16{100, 200, 300}, 8000)

			decoded, sampleRate, err := audio.DecodeWAV(data)
			Expect(err).NotTo(HaveOccurred())
			Expect(sampleRate).To(Equal(8000))
			Expect(decoded).To(Equal(audio.Buffer{100, 100, 200, 200, 300, 300}))
		})

		It("skips unknown metadata chunks", func() {
			pcm := rampBuffer(10)
			data := audio.EncodeWAV(pcm, 44100)

			// splice a LIST chunk in between fmt and data
			listChunk := append([]byte("LIST"), 4, 0, 0, 0, 'I', 'N', 'F', 'O')
			spliced := append([]byte{}, data[:36]...)
			spliced = append(spliced, listChunk...)
			spliced = append(spliced, data[36:]...)

			decoded, _, err := audio.DecodeWAV(spliced)
			Expect(err).NotTo(HaveOccurred())
			Expect(decoded).To(Equal(pcm))
		})

		It("rejects non WAV data", func() {
			_, _, err := audio.DecodeWAV([]byte("this is not audio at all"))
			Expect(err).To(HaveOccurred())
		})

		It("rejects truncated files", func() {
			data := audio.EncodeWAV(rampBuffer(10), 44100)
			_, _, err := audio.DecodeWAV(data[:30])
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Raw s16le", func() {
		It("round trips", func() {
			pcm := audio.Buffer{-32768, -1, 0, 1, 32767}
			Expect(audio.DecodeS16LE(audio.EncodeS16LE(pcm))).To(Equal(pcm))
		})
	})
})

func makeMonoWAV(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2

	out := []byte("RIFF")
	out = appendLE32(out, uint32(36+dataSize))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = appendLE32(out, 16)
	out = appendLE16(out, 1)
	out = appendLE16(out, 1)
	out = appendLE32(out, uint32(sampleRate))
	out = appendLE32(out, uint32(sampleRate*2))
	out = appendLE16(out, 2)
	out = appendLE16(out, 16)

	out = append(out, "data"...)
	out = appendLE32(out, uint32(dataSize))
	for _, sample := range samples {
		out = appendLE16(out, uint16(sample))
	}

	return out
}

func appendLE32(out []byte, val uint32) []byte {
	return append(out, byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
}

func appendLE16(out []byte, val uint16) []byte {
	return append(out, byte(val), byte(val>>8))
}
