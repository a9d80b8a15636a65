package ffmpeg

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/executor"
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
)

func NewClient(binPath string, executor executor.Executor) Client {
	return Client{
		binPath:  binPath,
		executor: executor,
	}
}

// Client shells out to ffmpeg for everything PCM-adjacent that isn't
// separation itself: decoding uploads, pulling time windows out of remote
// streams, and pitch shifting previews. Every call is a fresh process, so
// failed calls can simply be retried or treated as end of stream.
type Client struct {
	binPath  string
	executor executor.Executor
}

// DecodeFile decodes a local audio file of any common format into stereo
// PCM at the target sample rate.
func (c Client) DecodeFile(path string, targetSampleRate int) (audio.Buffer, error) {
	args := []string{
		"-i", path,
		"-vn",
		"-ac", strconv.Itoa(audio.Channels),
		"-ar", strconv.Itoa(targetSampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-loglevel", "error",
		"pipe:1",
	}

	cmd := c.executor.Command(c.binPath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to decode audio file %s", path)
	}

	if len(output) == 0 {
		return nil, errors.Newf("No audio data decoded from %s", path)
	}

	return audio.DecodeS16LE(output), nil
}

// FetchWindow seeks into a remote stream and decodes exactly one time
// window, resampled to the target rate. The second return is false when no
// data came back - end of stream or a failed seek - which callers treat as
// the end-of-input sentinel rather than an error.
func (c Client) FetchWindow(url string, startSeconds float64, durationSeconds float64, targetSampleRate int) (audio.Buffer, bool) {
	if startSeconds < 0 {
		startSeconds = 0
	}

	args := []string{
		"-ss", formatSeconds(startSeconds),
		"-t", formatSeconds(durationSeconds),
		"-i", url,
		"-vn",
		"-ac", strconv.Itoa(audio.Channels),
		"-ar", strconv.Itoa(targetSampleRate),
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-loglevel", "error",
		"pipe:1",
	}

	cmd := c.executor.Command(c.binPath, args...)
	output, err := cmd.Output()
	if err != nil {
		log.WithError(err).
			WithField("start_seconds", startSeconds).
			Debug("Remote window fetch returned no data")
		return nil, false
	}

	if len(output) == 0 {
		return nil, false
	}

	return audio.DecodeS16LE(output), true
}

// PitchShift resamples the buffer by 2^(semitones/12) and time-corrects by
// the inverse so the output stays at the same tempo. The output length may
// differ slightly from the input; callers normalize it.
func (c Client) PitchShift(pcm audio.Buffer, sampleRate int, semitones float64) (audio.Buffer, error) {
	ratio := math.Pow(2, semitones/12.0)

	// atempo only accepts 0.5..2.0, which covers +/-12 semitones
	tempo := 1.0 / ratio
	filter := fmt.Sprintf("asetrate=%d,aresample=%d,atempo=%f",
		int(float64(sampleRate)*ratio), sampleRate, tempo)

	args := []string{
		"-f", "s16le",
		"-ac", strconv.Itoa(audio.Channels),
		"-ar", strconv.Itoa(sampleRate),
		"-i", "pipe:0",
		"-af", filter,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-loglevel", "error",
		"pipe:1",
	}

	cmd := c.executor.Command(c.binPath, args...)
	cmd.SetStdin(bytes.NewReader(audio.EncodeS16LE(pcm)))

	output, err := cmd.Output()
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to pitch shift by %f semitones", semitones)
	}

	return audio.DecodeS16LE(output), nil
}

func formatSeconds(seconds float64) string {
	return strconv.FormatFloat(seconds, 'f', -1, 64)
}
