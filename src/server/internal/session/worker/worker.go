package worker

import (
	"context"
	"os"
	"path"

	"github.com/apex/log"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/separation"
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
	"github.com/veedubyou/instant-karaoke-be/src/shared/filestore"
	sessionentity "github.com/veedubyou/instant-karaoke-be/src/shared/session/entity"
	"github.com/veedubyou/instant-karaoke-be/src/shared/session/registry"
)

const crossfadeMS = 10.0

func NewSessionWorker(registry *registry.Registry, fileStore filestore.FileStore, separator separation.Separator) SessionWorker {
	return SessionWorker{
		registry:  registry,
		fileStore: fileStore,
		separator: separator,
	}
}

// SessionWorker drives one session's pipeline from start to finish: pull
// windows in index order, separate each one, persist the per-chunk stem
// artifacts, and stitch the continuous stems once the input runs out.
//
// Chunks are processed strictly one at a time per session - stitching needs
// them in order and the separation model doesn't benefit from intra-session
// parallelism.
type SessionWorker struct {
	registry  *registry.Registry
	fileStore filestore.FileStore
	separator separation.Separator
}

// Run blocks until the session reaches done or error, so callers start it
// on its own goroutine. The transient upload file (if any) is removed
// exactly once, regardless of outcome.
func (w SessionWorker) Run(ctx context.Context, session sessionentity.Session, source ChunkSource) {
	logger := log.WithField("session_id", session.ID)

	defer w.releaseUpload(session)

	stemAccumulation := map[string][]audio.Buffer{}

	chunkIndex := 0
	for {
		// cleanup may have deleted the session while we were separating;
		// stop producing output rather than recreating its files
		if !w.registry.Has(session.ID) {
			logger.Info("Session no longer exists, abandoning work")
			return
		}

		window, ok := source.Next()
		if !ok {
			break
		}

		logger.WithField("chunk_index", chunkIndex).Info("Separating chunk")

		stems, err := w.separator.Separate(ctx, window, session.SampleRate)
		if err != nil {
			w.failSession(session.ID, err)
			return
		}

		// separation takes a while; the session may have been deleted in
		// the meantime, in which case none of this output should land
		if !w.registry.Has(session.ID) {
			logger.Info("Session was deleted during separation, abandoning work")
			return
		}

		for stemName, stemPCM := range stems {
			if err := w.persistChunkArtifact(ctx, session, chunkIndex, stemName, stemPCM); err != nil {
				w.failSession(session.ID, err)
				return
			}

			updateErr := w.registry.Update(session.ID, func(s *sessionentity.Session) {
				s.MarkStemChunkReady(stemName, chunkIndex)
			})
			if updateErr != nil {
				logger.Info("Session was deleted mid-chunk, abandoning work")
				return
			}

			stemAccumulation[stemName] = append(stemAccumulation[stemName], stemPCM)
		}

		chunkIndex++
	}

	for stemName, windows := range stemAccumulation {
		continuous := audio.CrossfadeConcat(windows, session.SampleRate, crossfadeMS)

		artifactPath := path.Join(session.StorageDir, sessionentity.ContinuousArtifactName(stemName))
		data := audio.EncodeWAV(continuous, session.SampleRate)
		if err := w.fileStore.WriteFile(ctx, artifactPath, data); err != nil {
			w.failSession(session.ID, err)
			return
		}
	}

	finishErr := w.registry.Update(session.ID, func(s *sessionentity.Session) {
		s.TotalChunks = chunkIndex
		s.State = sessionentity.DoneState
	})
	if finishErr != nil {
		logger.Info("Session was deleted before completion could be recorded")
		return
	}

	logger.WithField("total_chunks", chunkIndex).Info("Session separation complete")
}

func (w SessionWorker) persistChunkArtifact(ctx context.Context, session sessionentity.Session, chunkIndex int, stemName string, stemPCM audio.Buffer) error {
	artifactPath := path.Join(session.StorageDir, sessionentity.ChunkArtifactName(chunkIndex, stemName))
	data := audio.EncodeWAV(stemPCM, session.SampleRate)

	return w.fileStore.WriteFile(ctx, artifactPath, data)
}

// failSession records the first error and halts the session. Chunks that
// already became ready stay servable.
func (w SessionWorker) failSession(sessionID string, err error) {
	log.WithField("session_id", sessionID).
		WithError(err).
		Error("Session processing failed")

	updateErr := w.registry.Update(sessionID, func(s *sessionentity.Session) {
		s.Fail(err.Error())
	})
	if updateErr != nil {
		log.WithField("session_id", sessionID).
			Info("Session was deleted before its error could be recorded")
	}
}

func (w SessionWorker) releaseUpload(session sessionentity.Session) {
	if session.Source.UploadPath == "" {
		return
	}

	if err := os.Remove(session.Source.UploadPath); err != nil && !os.IsNotExist(err) {
		log.WithField("upload_path", session.Source.UploadPath).
			WithError(err).
			Warn("Failed to remove transient upload file")
	}
}
