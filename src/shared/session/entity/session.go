package sessionentity

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type State string

const (
	ProcessingState State = "processing"
	DoneState       State = "done"
	ErrorState      State = "error"
)

type SourceType string

const (
	LocalSourceType  SourceType = "local"
	RemoteSourceType SourceType = "remote"
)

// Source describes where a session's audio comes from: an uploaded file on
// disk, or a direct remote stream URL fetched window by window.
type Source struct {
	Type       SourceType
	UploadPath string
	StreamURL  string
}

// Session is the unit of separation work. One background worker owns all
// writes to it; readers and the cleanup sweeper only ever see copies handed
// out by the registry.
type Session struct {
	ID            string
	State         State
	SampleRate    int
	ChunkDuration float64

	// TotalChunks is fixed at creation for local sessions. For remote
	// sessions it stays 0 until the fetch loop hits end of stream, and is
	// only meaningful once State is DoneState.
	TotalChunks int

	// Ready maps stem name -> set of chunk indices whose artifact has been
	// persisted. Sets only ever grow.
	Ready map[string]map[int]bool

	ErrorMessage string
	CreatedAt    time.Time

	// StorageDir is the session-owned prefix in the file store. Everything
	// under it belongs to this session and is removed as a unit.
	StorageDir string
	Source     Source
}

func NewSession(source Source, sampleRate int, chunkDuration float64, totalChunks int) *Session {
	id := uuid.New().String()

	return &Session{
		ID:            id,
		State:         ProcessingState,
		SampleRate:    sampleRate,
		ChunkDuration: chunkDuration,
		TotalChunks:   totalChunks,
		Ready:         map[string]map[int]bool{},
		CreatedAt:     time.Now(),
		StorageDir:    id,
		Source:        source,
	}
}

func (s *Session) MarkStemChunkReady(stem string, chunkIndex int) {
	indices, ok := s.Ready[stem]
	if !ok {
		indices = map[int]bool{}
		s.Ready[stem] = indices
	}

	indices[chunkIndex] = true
}

func (s *Session) Fail(message string) {
	s.State = ErrorState
	s.ErrorMessage = message
}

// Clone deep-copies the session so registry readers can't share mutable
// state with the worker.
func (s *Session) Clone() Session {
	clone := *s
	clone.Ready = make(map[string]map[int]bool, len(s.Ready))
	for stem, indices := range s.Ready {
		indicesCopy := make(map[int]bool, len(indices))
		for index := range indices {
			indicesCopy[index] = true
		}
		clone.Ready[stem] = indicesCopy
	}

	return clone
}

// Progress is the status poll payload.
type Progress struct {
	Ready         map[string][]int `json:"ready"`
	Stems         []string         `json:"stems"`
	TotalChunks   int              `json:"total_chunks"`
	SampleRate    int              `json:"sample_rate"`
	ChunkDuration float64          `json:"chunk_duration"`
	Done          bool             `json:"done"`
	Error         string           `json:"error,omitempty"`
}

func (s *Session) Progress() Progress {
	ready := make(map[string][]int, len(s.Ready))
	stems := make([]string, 0, len(s.Ready))

	for stem, indices := range s.Ready {
		stems = append(stems, stem)

		sortedIndices := make([]int, 0, len(indices))
		for index := range indices {
			sortedIndices = append(sortedIndices, index)
		}
		sort.Ints(sortedIndices)
		ready[stem] = sortedIndices
	}

	sort.Strings(stems)

	return Progress{
		Ready:         ready,
		Stems:         stems,
		TotalChunks:   s.TotalChunks,
		SampleRate:    s.SampleRate,
		ChunkDuration: s.ChunkDuration,
		Done:          s.State == DoneState,
		Error:         s.ErrorMessage,
	}
}

// ChunkArtifactName is the persisted file name for one (chunk, stem) pair.
func ChunkArtifactName(chunkIndex int, stem string) string {
	return fmt.Sprintf("chunk_%03d_%s.wav", chunkIndex, stem)
}

// ContinuousArtifactName is the persisted file name for a stitched stem.
func ContinuousArtifactName(stem string) string {
	return fmt.Sprintf("%s.wav", stem)
}
