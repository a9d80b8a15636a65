package sessionusecase

import (
	"context"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apex/log"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/errors/markers"
	"github.com/google/uuid"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/errors/api"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/separation"
	sessionerrors "github.com/veedubyou/instant-karaoke-be/src/server/internal/session/errors"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/session/worker"
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
	"github.com/veedubyou/instant-karaoke-be/src/shared/filestore"
	sessionentity "github.com/veedubyou/instant-karaoke-be/src/shared/session/entity"
	"github.com/veedubyou/instant-karaoke-be/src/shared/session/registry"
)

var allowedUploadExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".flac": true,
	".m4a":  true,
	".ogg":  true,
}

// AudioDecoder loads a local audio file into PCM at the target rate.
type AudioDecoder interface {
	DecodeFile(path string, targetSampleRate int) (audio.Buffer, error)
}

// PitchShifter renders a pitch-shifted copy of the buffer at the same tempo.
type PitchShifter interface {
	PitchShift(pcm audio.Buffer, sampleRate int, semitones float64) (audio.Buffer, error)
}

// StreamURLResolver turns a page URL into a directly fetchable audio stream URL.
type StreamURLResolver interface {
	ResolveStreamURL(pageURL string) (string, error)
}

type Config struct {
	UploadDirPath    string
	ChunkDuration    float64
	TargetSampleRate int
}

func NewUsecase(
	registry *registry.Registry,
	fileStore filestore.FileStore,
	separator separation.Separator,
	decoder AudioDecoder,
	fetcher worker.WindowFetcher,
	shifter PitchShifter,
	resolver StreamURLResolver,
	config Config,
) Usecase {
	return Usecase{
		registry:      registry,
		fileStore:     fileStore,
		sessionWorker: worker.NewSessionWorker(registry, fileStore, separator),
		decoder:       decoder,
		fetcher:       fetcher,
		shifter:       shifter,
		resolver:      resolver,
		config:        config,
	}
}

type Usecase struct {
	registry      *registry.Registry
	fileStore     filestore.FileStore
	sessionWorker worker.SessionWorker
	decoder       AudioDecoder
	fetcher       worker.WindowFetcher
	shifter       PitchShifter
	resolver      StreamURLResolver
	config        Config
}

// CreatedSession is the response payload for both session creation routes.
type CreatedSession struct {
	SessionID     string  `json:"session_id"`
	SampleRate    int     `json:"sample_rate"`
	ChunkDuration float64 `json:"chunk_duration"`
	TotalChunks   int     `json:"total_chunks"`
}

// CreateLocalSession saves the upload, decodes and chunks it, registers the
// session, and kicks off its background worker. The chunk count is known up
// front because the whole file is available.
func (u Usecase) CreateLocalSession(ctx context.Context, fileName string, contents io.Reader) (CreatedSession, *api.Error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !allowedUploadExtensions[ext] {
		err := errors.Newf("Upload has a disallowed extension: %s", ext)
		return CreatedSession{}, api.CommitError(err,
			sessionerrors.InvalidFileTypeCode,
			"This audio format isn't supported. Please upload wav, mp3, flac, m4a, or ogg")
	}

	uploadPath, err := u.saveUpload(fileName, contents)
	if err != nil {
		err = errors.Wrap(err, "Failed to save uploaded file")
		return CreatedSession{}, api.CommitError(err,
			sessionerrors.BadUploadDataCode,
			"The uploaded file could not be saved. Please try again")
	}

	pcm, err := u.decoder.DecodeFile(uploadPath, u.config.TargetSampleRate)
	if err != nil {
		_ = os.Remove(uploadPath)
		err = errors.Wrap(err, "Failed to decode uploaded file")
		return CreatedSession{}, api.CommitError(err,
			sessionerrors.BadUploadDataCode,
			"The uploaded file could not be read as audio")
	}

	chunker := audio.NewChunker(pcm, u.config.TargetSampleRate, u.config.ChunkDuration)

	session := sessionentity.NewSession(
		sessionentity.Source{
			Type:       sessionentity.LocalSourceType,
			UploadPath: uploadPath,
		},
		u.config.TargetSampleRate,
		u.config.ChunkDuration,
		chunker.TotalChunks(),
	)

	if err := u.registry.Add(session); err != nil {
		_ = os.Remove(uploadPath)
		err = errors.Wrap(err, "Failed to register new session")
		return CreatedSession{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to create the session. Please contact the developer")
	}

	go u.sessionWorker.Run(context.Background(), session.Clone(), worker.NewBufferSource(chunker))

	return CreatedSession{
		SessionID:     session.ID,
		SampleRate:    session.SampleRate,
		ChunkDuration: session.ChunkDuration,
		TotalChunks:   session.TotalChunks,
	}, nil
}

// CreateRemoteSession resolves the direct stream URL synchronously - bad
// URLs fail the request - then processes windows in the background. The
// chunk count is unknown until the stream runs out.
func (u Usecase) CreateRemoteSession(ctx context.Context, pageURL string) (CreatedSession, *api.Error) {
	if strings.TrimSpace(pageURL) == "" {
		err := errors.New("No URL provided for remote session")
		return CreatedSession{}, api.CommitError(err,
			sessionerrors.BadStreamURLCode,
			"A stream URL is required")
	}

	streamURL, err := u.resolver.ResolveStreamURL(pageURL)
	if err != nil {
		err = errors.Wrap(err, "Failed to resolve audio stream URL")
		return CreatedSession{}, api.CommitError(err,
			sessionerrors.BadStreamURLCode,
			"Couldn't find an audio stream at that URL")
	}

	session := sessionentity.NewSession(
		sessionentity.Source{
			Type:      sessionentity.RemoteSourceType,
			StreamURL: streamURL,
		},
		u.config.TargetSampleRate,
		u.config.ChunkDuration,
		0,
	)

	if err := u.registry.Add(session); err != nil {
		err = errors.Wrap(err, "Failed to register new session")
		return CreatedSession{}, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to create the session. Please contact the developer")
	}

	source := worker.NewRemoteSource(u.fetcher, streamURL, u.config.ChunkDuration, u.config.TargetSampleRate)
	go u.sessionWorker.Run(context.Background(), session.Clone(), source)

	return CreatedSession{
		SessionID:     session.ID,
		SampleRate:    session.SampleRate,
		ChunkDuration: session.ChunkDuration,
		TotalChunks:   0,
	}, nil
}

// Status is a non-blocking snapshot of the session's progress.
func (u Usecase) Status(sessionID string) (sessionentity.Progress, *api.Error) {
	session, err := u.registry.View(sessionID)
	if err != nil {
		return sessionentity.Progress{}, u.classifyRegistryError(err, "Failed to view session")
	}

	return session.Progress(), nil
}

// Artifact returns the raw bytes of a persisted chunk or continuous stem file.
func (u Usecase) Artifact(ctx context.Context, sessionID string, fileName string) ([]byte, *api.Error) {
	if fileName != path.Base(fileName) || strings.Contains(fileName, "..") {
		err := errors.Newf("Suspicious artifact file name: %s", fileName)
		return nil, api.CommitError(err,
			sessionerrors.BadParameterCode,
			"The artifact name is not valid")
	}

	session, err := u.registry.View(sessionID)
	if err != nil {
		return nil, u.classifyRegistryError(err, "Failed to view session")
	}

	contents, err := u.fileStore.ReadFile(ctx, path.Join(session.StorageDir, fileName))
	if err != nil {
		err = errors.Wrap(err, "Failed to read artifact file")
		if markers.Is(err, filestore.FileNotFound) {
			return nil, api.CommitError(err,
				sessionerrors.ArtifactNotFoundCode,
				"No such audio file exists for this session")
		}

		return nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to fetch the audio file. Please contact the developer")
	}

	return contents, nil
}

// previewStemPreference orders stems by how well a lone stem carries a key
// change preview. Backing tracks first, rhythm-only stems last.
var previewStemPreference = []string{"instrumental", "accompaniment", "other", "drums", "bass"}

// PitchPreview renders a short pitch-shifted excerpt from whatever separated
// audio is available right now. It prefers the stitched continuous stem, falls
// back to the ready chunk nearest the requested start, and reports not found
// only when nothing has been separated yet.
func (u Usecase) PitchPreview(ctx context.Context, sessionID string, semitones float64, startSeconds float64, durationSeconds float64) ([]byte, *api.Error) {
	if startSeconds < 0 || durationSeconds <= 0 {
		err := errors.Newf("Invalid preview range: start=%f, duration=%f", startSeconds, durationSeconds)
		return nil, api.CommitError(err,
			sessionerrors.BadParameterCode,
			"The preview start and duration must be positive")
	}

	session, err := u.registry.View(sessionID)
	if err != nil {
		return nil, u.classifyRegistryError(err, "Failed to view session")
	}

	artifactName, localStart, found := selectPreviewArtifact(session, startSeconds)
	if !found {
		err := errors.Newf("No separated audio is ready yet for session %s", sessionID)
		return nil, api.CommitError(err,
			sessionerrors.NoPreviewContentCode,
			"No separated audio is available yet. Try again in a moment")
	}

	contents, err := u.fileStore.ReadFile(ctx, path.Join(session.StorageDir, artifactName))
	if err != nil {
		err = errors.Wrap(err, "Failed to read preview source artifact")
		return nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to render the preview. Please contact the developer")
	}

	pcm, sampleRate, err := audio.DecodeWAV(contents)
	if err != nil {
		err = errors.Wrap(err, "Failed to decode preview source artifact")
		return nil, api.CommitError(err,
			api.DefaultErrorCode,
			"Unknown error: failed to render the preview. Please contact the developer")
	}

	clip := excerpt(pcm, sampleRate, localStart, durationSeconds)

	if nearlyZero(semitones) {
		return audio.EncodeWAV(clip, sampleRate), nil
	}

	shifted, err := u.shifter.PitchShift(clip, sampleRate, semitones)
	if err != nil {
		// an unshifted preview still beats a failed request
		log.WithField("session_id", sessionID).
			WithError(err).
			Warn("Pitch shift failed, returning unshifted preview")
		return audio.EncodeWAV(clip, sampleRate), nil
	}

	return audio.EncodeWAV(matchLength(shifted, clip.Frames()), sampleRate), nil
}

// selectPreviewArtifact decides which persisted file the preview should come
// from, and where in that file the requested start lands.
func selectPreviewArtifact(session sessionentity.Session, startSeconds float64) (string, float64, bool) {
	if session.State == sessionentity.DoneState {
		if stems := stemsInPreferenceOrder(session); len(stems) > 0 {
			return sessionentity.ContinuousArtifactName(stems[0]), startSeconds, true
		}
	}

	desiredChunk := int(startSeconds / session.ChunkDuration)

	for _, stemName := range stemsInPreferenceOrder(session) {
		chunkIndex, ok := nearestReadyChunk(session.Ready[stemName], desiredChunk)
		if !ok {
			continue
		}

		localStart := startSeconds - float64(chunkIndex)*session.ChunkDuration
		if localStart < 0 || localStart >= session.ChunkDuration {
			localStart = 0
		}

		return sessionentity.ChunkArtifactName(chunkIndex, stemName), localStart, true
	}

	return "", 0, false
}

// stemsInPreferenceOrder lists the session's known stems, preferred ones
// first, the rest alphabetically so selection is deterministic.
func stemsInPreferenceOrder(session sessionentity.Session) []string {
	ordered := []string{}
	seen := map[string]bool{}

	for _, stemName := range previewStemPreference {
		if _, ok := session.Ready[stemName]; ok {
			ordered = append(ordered, stemName)
			seen[stemName] = true
		}
	}

	remaining := []string{}
	for stemName := range session.Ready {
		if !seen[stemName] {
			remaining = append(remaining, stemName)
		}
	}
	sort.Strings(remaining)

	return append(ordered, remaining...)
}

func nearestReadyChunk(readyChunks map[int]bool, desiredChunk int) (int, bool) {
	best := 0
	bestDistance := math.MaxInt32
	found := false

	for chunkIndex := range readyChunks {
		distance := chunkIndex - desiredChunk
		if distance < 0 {
			distance = -distance
		}

		if distance < bestDistance || (distance == bestDistance && chunkIndex < best) {
			best = chunkIndex
			bestDistance = distance
			found = true
		}
	}

	return best, found
}

// excerpt slices out [start, start+duration) seconds, clamped to the
// buffer's bounds. Asking past the end yields an empty clip.
func excerpt(pcm audio.Buffer, sampleRate int, startSeconds float64, durationSeconds float64) audio.Buffer {
	startFrame := int(math.Round(startSeconds * float64(sampleRate)))
	endFrame := startFrame + int(math.Round(durationSeconds*float64(sampleRate)))

	if startFrame > pcm.Frames() {
		startFrame = pcm.Frames()
	}
	if endFrame > pcm.Frames() {
		endFrame = pcm.Frames()
	}

	return pcm.FrameRange(startFrame, endFrame)
}

// matchLength pads with silence or truncates so the shifted clip lines up
// exactly with the original excerpt.
func matchLength(pcm audio.Buffer, frames int) audio.Buffer {
	if pcm.Frames() == frames {
		return pcm
	}

	if pcm.Frames() > frames {
		return pcm.FrameRange(0, frames)
	}

	padded := make(audio.Buffer, frames*audio.Channels)
	copy(padded, pcm)
	return padded
}

// Delete tears down a session: the registry entry goes first so any running
// worker halts, then the artifact subtree. Deleting an unknown session is
// not an error.
func (u Usecase) Delete(ctx context.Context, sessionID string) *api.Error {
	session, existed := u.registry.Delete(sessionID)
	if !existed {
		return nil
	}

	if err := u.fileStore.DeleteAll(ctx, session.StorageDir); err != nil {
		// best effort - the cleanup sweep will retry the orphaned files
		log.WithField("session_id", sessionID).
			WithError(err).
			Warn("Failed to delete session artifacts")
	}

	if session.Source.UploadPath != "" {
		if err := os.Remove(session.Source.UploadPath); err != nil && !os.IsNotExist(err) {
			log.WithField("upload_path", session.Source.UploadPath).
				WithError(err).
				Warn("Failed to delete transient upload file")
		}
	}

	return nil
}

func (u Usecase) saveUpload(fileName string, contents io.Reader) (string, error) {
	if err := os.MkdirAll(u.config.UploadDirPath, os.ModePerm); err != nil {
		return "", errors.Wrap(err, "Failed to create upload dir")
	}

	// prefix with a fresh ID so concurrent uploads of the same file name
	// can't collide
	uniqueName := uuid.New().String() + "_" + filepath.Base(fileName)
	uploadPath := filepath.Join(u.config.UploadDirPath, uniqueName)

	destination, err := os.Create(uploadPath)
	if err != nil {
		return "", errors.Wrap(err, "Failed to create upload file")
	}
	defer destination.Close()

	if _, err := io.Copy(destination, contents); err != nil {
		_ = os.Remove(uploadPath)
		return "", errors.Wrap(err, "Failed to write upload contents")
	}

	return uploadPath, nil
}

func (u Usecase) classifyRegistryError(err error, msg string) *api.Error {
	err = errors.Wrap(err, msg)

	if markers.Is(err, registry.SessionNotFound) {
		return api.CommitError(err,
			sessionerrors.SessionNotFoundCode,
			"No session exists for this ID. It may have expired")
	}

	return api.CommitError(err,
		api.DefaultErrorCode,
		"Unknown error: failed to look up the session. Please contact the developer")
}

func nearlyZero(value float64) bool {
	return math.Abs(value) < 1e-6
}
