package audio

// Chunker walks a fully loaded buffer in fixed-duration windows. Only
// complete windows are yielded; a short tail is dropped so every chunk the
// separation model sees has the same length.
type Chunker struct {
	buffer      Buffer
	chunkFrames int
	nextFrame   int
}

func NewChunker(buffer Buffer, sampleRate int, chunkDurationSeconds float64) *Chunker {
	return &Chunker{
		buffer:      buffer,
		chunkFrames: int(float64(sampleRate) * chunkDurationSeconds),
	}
}

func (c *Chunker) TotalChunks() int {
	if c.chunkFrames <= 0 {
		return 0
	}

	return c.buffer.Frames() / c.chunkFrames
}

func (c *Chunker) Next() (Buffer, bool) {
	if c.chunkFrames <= 0 {
		return nil, false
	}

	endFrame := c.nextFrame + c.chunkFrames
	if endFrame > c.buffer.Frames() {
		return nil, false
	}

	window := c.buffer.FrameRange(c.nextFrame, endFrame)
	c.nextFrame = endFrame
	return window, true
}
