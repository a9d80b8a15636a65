package audio

import (
	"encoding/binary"

	"github.com/cockroachdb/errors"
)

const wavHeaderSize = 44

// EncodeWAV wraps the PCM in a standard 44-byte RIFF header. All artifacts
// are persisted in this format so any audio player can consume them.
func EncodeWAV(pcm Buffer, sampleRate int) []byte {
	dataSize := len(pcm) * 2
	byteRate := sampleRate * Channels * BitsPerSample / 8
	blockAlign := Channels * BitsPerSample / 8

	out := make([]byte, 0, wavHeaderSize+dataSize)

	out = append(out, "RIFF"...)
	out = appendUint32(out, uint32(36+dataSize))
	out = append(out, "WAVE"...)

	out = append(out, "fmt "...)
	out = appendUint32(out, 16)
	out = appendUint16(out, 1) // PCM
	out = appendUint16(out, Channels)
	out = appendUint32(out, uint32(sampleRate))
	out = appendUint32(out, uint32(byteRate))
	out = appendUint16(out, uint16(blockAlign))
	out = appendUint16(out, BitsPerSample)

	out = append(out, "data"...)
	out = appendUint32(out, uint32(dataSize))

	for _, sample := range pcm {
		out = append(out, byte(uint16(sample)), byte(uint16(sample)>>8))
	}

	return out
}

// DecodeWAV parses a PCM16 WAV file into an interleaved stereo buffer,
// upmixing mono input. It walks the chunk list so files with extra metadata
// chunks (LIST etc) still decode.
func DecodeWAV(data []byte) (Buffer, int, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, errors.New("Data is not a RIFF WAVE file")
	}

	var channels, sampleRate, bitsPerSample int
	var pcmData []byte
	foundFormat := false

	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		chunkStart := offset + 8

		if chunkStart+chunkSize > len(data) {
			return nil, 0, errors.Newf("Chunk %s overruns the file", chunkID)
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, errors.New("fmt chunk is too small")
			}

			audioFormat := int(binary.LittleEndian.Uint16(data[chunkStart : chunkStart+2]))
			if audioFormat != 1 {
				return nil, 0, errors.Newf("Unsupported WAV audio format: %d", audioFormat)
			}

			channels = int(binary.LittleEndian.Uint16(data[chunkStart+2 : chunkStart+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[chunkStart+4 : chunkStart+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[chunkStart+14 : chunkStart+16]))
			foundFormat = true

		case "data":
			pcmData = data[chunkStart : chunkStart+chunkSize]
		}

		// chunks are word aligned
		offset = chunkStart + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !foundFormat {
		return nil, 0, errors.New("No fmt chunk found")
	}
	if pcmData == nil {
		return nil, 0, errors.New("No data chunk found")
	}
	if bitsPerSample != BitsPerSample {
		return nil, 0, errors.Newf("Unsupported bit depth: %d", bitsPerSample)
	}
	if channels != 1 && channels != Channels {
		return nil, 0, errors.Newf("Unsupported channel count: %d", channels)
	}

	samples := DecodeS16LE(pcmData)

	if channels == 1 {
		stereo := make(Buffer, 0, len(samples)*2)
		for _, sample := range samples {
			stereo = append(stereo, sample, sample)
		}
		samples = stereo
	}

	return samples, sampleRate, nil
}

// EncodeS16LE serializes the buffer as headerless little-endian PCM, the
// format piped to and from ffmpeg.
func EncodeS16LE(pcm Buffer) []byte {
	out := make([]byte, len(pcm)*2)
	for i, sample := range pcm {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(sample))
	}

	return out
}

func DecodeS16LE(data []byte) Buffer {
	sampleCount := len(data) / 2

	pcm := make(Buffer, sampleCount)
	for i := 0; i < sampleCount; i++ {
		pcm[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	return pcm
}

func appendUint32(out []byte, val uint32) []byte {
	return append(out, byte(val), byte(val>>8), byte(val>>16), byte(val>>24))
}

func appendUint16(out []byte, val uint16) []byte {
	return append(out, byte(val), byte(val>>8))
}
