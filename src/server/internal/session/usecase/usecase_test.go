package sessionusecase_test

import (
	"bytes"
	"context"
	"os"
	"path"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/errors/api"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/session/dummy"
	sessionerrors "github.com/veedubyou/instant-karaoke-be/src/server/internal/session/errors"
	sessionusecase "github.com/veedubyou/instant-karaoke-be/src/server/internal/session/usecase"
	"github.com/veedubyou/instant-karaoke-be/src/shared/audio"
	sessionentity "github.com/veedubyou/instant-karaoke-be/src/shared/session/entity"
	"github.com/veedubyou/instant-karaoke-be/src/shared/session/registry"
)

const (
	testSampleRate    = 100
	testChunkDuration = 1.0
)

func rampBuffer(frames int) audio.Buffer {
	buffer := make(audio.Buffer, frames*audio.Channels)
	for i := range buffer {
		buffer[i] = int16(i % 30000)
	}

	return buffer
}

func expectErrorCode(apiErr *api.Error, code api.ErrorCode) {
	ExpectWithOffset(1, apiErr).NotTo(BeNil())
	ExpectWithOffset(1, apiErr.ErrorCode).To(Equal(code))
}

var _ = Describe("Session usecase", func() {
	var (
		sessionRegistry *registry.Registry
		fileStore       *dummy.FileStore
		separator       *dummy.Separator
		decoder         *dummy.Decoder
		fetcher         *dummy.WindowFetcher
		shifter         *dummy.PitchShifter
		resolver        *dummy.StreamURLResolver

		uploadDir string
		usecase   sessionusecase.Usecase
	)

	BeforeEach(func() {
		sessionRegistry = registry.NewRegistry()
		fileStore = dummy.NewDummyFileStore()
		separator = dummy.NewDummySeparator("vocals", "accompaniment")
		decoder = &dummy.Decoder{Decoded: rampBuffer(250)}
		fetcher = dummy.NewDummyWindowFetcher(rampBuffer(100))
		shifter = &dummy.PitchShifter{}
		resolver = &dummy.StreamURLResolver{
			Resolved: map[string]string{
				"https://videos.example/watch?v=123": "https://cdn.example/audio/123",
			},
		}

		var err error
		uploadDir, err = os.MkdirTemp("", "uploads-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(os.RemoveAll(uploadDir)).To(Succeed())
	})

	JustBeforeEach(func() {
		usecase = sessionusecase.NewUsecase(
			sessionRegistry,
			fileStore,
			separator,
			decoder,
			fetcher,
			shifter,
			resolver,
			sessionusecase.Config{
				UploadDirPath:    uploadDir,
				ChunkDuration:    testChunkDuration,
				TargetSampleRate: testSampleRate,
			},
		)
	})

	waitForDone := func(sessionID string) {
		EventuallyWithOffset(1, func() bool {
			progress, apiErr := usecase.Status(sessionID)
			if apiErr != nil {
				return false
			}
			return progress.Done
		}, time.Second).Should(BeTrue())
	}

	Describe("CreateLocalSession", func() {
		It("creates a session with the chunk count known up front", func() {
			created, apiErr := usecase.CreateLocalSession(context.Background(), "song.mp3", bytes.NewReader([]byte("some audio")))
			Expect(apiErr).To(BeNil())

			Expect(created.SessionID).NotTo(BeEmpty())
			Expect(created.SampleRate).To(Equal(testSampleRate))
			Expect(created.ChunkDuration).To(Equal(testChunkDuration))
			Expect(created.TotalChunks).To(Equal(2))
		})

		It("drives the session to done in the background", func() {
			created, apiErr := usecase.CreateLocalSession(context.Background(), "song.wav", bytes.NewReader([]byte("some audio")))
			Expect(apiErr).To(BeNil())

			waitForDone(created.SessionID)

			progress, apiErr := usecase.Status(created.SessionID)
			Expect(apiErr).To(BeNil())
			Expect(progress.Ready["vocals"]).To(Equal([]int{0, 1}))
		})

		It("rejects disallowed file extensions", func() {
			_, apiErr := usecase.CreateLocalSession(context.Background(), "notes.txt", bytes.NewReader([]byte("hi")))
			expectErrorCode(apiErr, sessionerrors.InvalidFileTypeCode)
		})

		Describe("Undecodable upload", func() {
			BeforeEach(func() {
				decoder.Unavailable = true
			})

			It("rejects the upload and removes the saved file", func() {
				_, apiErr := usecase.CreateLocalSession(context.Background(), "song.ogg", bytes.NewReader([]byte("junk")))
				expectErrorCode(apiErr, sessionerrors.BadUploadDataCode)

				dirEntries, err := os.ReadDir(uploadDir)
				Expect(err).NotTo(HaveOccurred())
				Expect(dirEntries).To(BeEmpty())
			})
		})
	})

	Describe("CreateRemoteSession", func() {
		It("resolves the stream URL and starts with an unknown chunk count", func() {
			created, apiErr := usecase.CreateRemoteSession(context.Background(), "https://videos.example/watch?v=123")
			Expect(apiErr).To(BeNil())
			Expect(created.TotalChunks).To(Equal(0))

			waitForDone(created.SessionID)

			progress, apiErr := usecase.Status(created.SessionID)
			Expect(apiErr).To(BeNil())
			Expect(progress.TotalChunks).To(Equal(1))
		})

		It("rejects an empty URL", func() {
			_, apiErr := usecase.CreateRemoteSession(context.Background(), "  ")
			expectErrorCode(apiErr, sessionerrors.BadStreamURLCode)
		})

		It("rejects URLs that don't resolve to a stream", func() {
			_, apiErr := usecase.CreateRemoteSession(context.Background(), "https://videos.example/watch?v=nope")
			expectErrorCode(apiErr, sessionerrors.BadStreamURLCode)
		})
	})

	Describe("Status", func() {
		It("reports unknown sessions as not found", func() {
			_, apiErr := usecase.Status("nonexistent")
			expectErrorCode(apiErr, sessionerrors.SessionNotFoundCode)
		})
	})

	Describe("Artifact", func() {
		var sessionID string

		JustBeforeEach(func() {
			created, apiErr := usecase.CreateLocalSession(context.Background(), "song.flac", bytes.NewReader([]byte("some audio")))
			Expect(apiErr).To(BeNil())
			sessionID = created.SessionID
			waitForDone(sessionID)
		})

		It("returns persisted artifact bytes", func() {
			contents, apiErr := usecase.Artifact(context.Background(), sessionID, "vocals.wav")
			Expect(apiErr).To(BeNil())

			_, sampleRate, err := audio.DecodeWAV(contents)
			Expect(err).NotTo(HaveOccurred())
			Expect(sampleRate).To(Equal(testSampleRate))
		})

		It("reports missing artifacts as not found", func() {
			_, apiErr := usecase.Artifact(context.Background(), sessionID, "kazoo.wav")
			expectErrorCode(apiErr, sessionerrors.ArtifactNotFoundCode)
		})

		It("rejects path traversal in artifact names", func() {
			_, apiErr := usecase.Artifact(context.Background(), sessionID, "../other-session/vocals.wav")
			expectErrorCode(apiErr, sessionerrors.BadParameterCode)
		})

		It("reports unknown sessions as not found", func() {
			_, apiErr := usecase.Artifact(context.Background(), "nonexistent", "vocals.wav")
			expectErrorCode(apiErr, sessionerrors.SessionNotFoundCode)
		})
	})

	Describe("Delete", func() {
		It("removes the session and its artifacts", func() {
			created, apiErr := usecase.CreateLocalSession(context.Background(), "song.m4a", bytes.NewReader([]byte("some audio")))
			Expect(apiErr).To(BeNil())
			waitForDone(created.SessionID)

			Expect(usecase.Delete(context.Background(), created.SessionID)).To(BeNil())

			_, apiErr = usecase.Status(created.SessionID)
			expectErrorCode(apiErr, sessionerrors.SessionNotFoundCode)
			Expect(fileStore.State).To(BeEmpty())
		})

		It("succeeds for a session that doesn't exist", func() {
			Expect(usecase.Delete(context.Background(), "nonexistent")).To(BeNil())
		})
	})

	Describe("PitchPreview", func() {
		var (
			session  *sessionentity.Session
			chunkPCM audio.Buffer
		)

		writeChunkArtifact := func(chunkIndex int, stem string, pcm audio.Buffer) {
			artifactPath := path.Join(session.StorageDir, sessionentity.ChunkArtifactName(chunkIndex, stem))
			err := fileStore.WriteFile(context.Background(), artifactPath, audio.EncodeWAV(pcm, testSampleRate))
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
		}

		markReady := func(stem string, chunkIndex int) {
			err := sessionRegistry.Update(session.ID, func(s *sessionentity.Session) {
				s.MarkStemChunkReady(stem, chunkIndex)
			})
			ExpectWithOffset(1, err).NotTo(HaveOccurred())
		}

		BeforeEach(func() {
			session = sessionentity.NewSession(
				sessionentity.Source{Type: sessionentity.LocalSourceType},
				testSampleRate,
				testChunkDuration,
				3,
			)
			Expect(sessionRegistry.Add(session)).To(Succeed())

			chunkPCM = rampBuffer(100)
		})

		Describe("Nothing separated yet", func() {
			It("reports no preview content", func() {
				_, apiErr := usecase.PitchPreview(context.Background(), session.ID, 2, 0, 0.5)
				expectErrorCode(apiErr, sessionerrors.NoPreviewContentCode)
			})
		})

		Describe("A chunk is ready", func() {
			BeforeEach(func() {
				writeChunkArtifact(0, "vocals", chunkPCM)
				markReady("vocals", 0)
			})

			It("returns the clip untouched for a near-zero shift", func() {
				contents, apiErr := usecase.PitchPreview(context.Background(), session.ID, 0, 0, 0.5)
				Expect(apiErr).To(BeNil())

				expected := audio.EncodeWAV(chunkPCM.FrameRange(0, 50), testSampleRate)
				Expect(contents).To(Equal(expected))
				Expect(shifter.CallCount).To(Equal(0))
			})

			It("pitch shifts the clip and keeps its length", func() {
				shifter.Shifted = rampBuffer(47)

				contents, apiErr := usecase.PitchPreview(context.Background(), session.ID, 2, 0, 0.5)
				Expect(apiErr).To(BeNil())
				Expect(shifter.LastSemitones).To(Equal(2.0))

				pcm, _, err := audio.DecodeWAV(contents)
				Expect(err).NotTo(HaveOccurred())
				Expect(pcm.Frames()).To(Equal(50))
				Expect(pcm.FrameRange(0, 47)).To(Equal(shifter.Shifted))
			})

			It("falls back to the unshifted clip when the shift fails", func() {
				shifter.Unavailable = true

				contents, apiErr := usecase.PitchPreview(context.Background(), session.ID, 2, 0, 0.5)
				Expect(apiErr).To(BeNil())

				expected := audio.EncodeWAV(chunkPCM.FrameRange(0, 50), testSampleRate)
				Expect(contents).To(Equal(expected))
			})

			It("serves from the nearest ready chunk when the start isn't covered", func() {
				contents, apiErr := usecase.PitchPreview(context.Background(), session.ID, 0, 2.5, 0.5)
				Expect(apiErr).To(BeNil())

				// chunk 2 isn't ready, so the preview comes from the top
				// of chunk 0
				expected := audio.EncodeWAV(chunkPCM.FrameRange(0, 50), testSampleRate)
				Expect(contents).To(Equal(expected))
			})

			It("clamps a clip that runs past the end of the audio", func() {
				contents, apiErr := usecase.PitchPreview(context.Background(), session.ID, 0, 0.8, 0.5)
				Expect(apiErr).To(BeNil())

				pcm, _, err := audio.DecodeWAV(contents)
				Expect(err).NotTo(HaveOccurred())
				Expect(pcm).To(Equal(chunkPCM.FrameRange(80, 100)))
			})

			It("rejects a non-positive duration", func() {
				_, apiErr := usecase.PitchPreview(context.Background(), session.ID, 0, 0, 0)
				expectErrorCode(apiErr, sessionerrors.BadParameterCode)
			})
		})

		Describe("Stem preference among ready chunks", func() {
			BeforeEach(func() {
				writeChunkArtifact(0, "drums", rampBuffer(100))
				markReady("drums", 0)

				writeChunkArtifact(0, "accompaniment", chunkPCM)
				markReady("accompaniment", 0)
			})

			It("prefers backing stems over rhythm stems", func() {
				contents, apiErr := usecase.PitchPreview(context.Background(), session.ID, 0, 0, 0.5)
				Expect(apiErr).To(BeNil())

				expected := audio.EncodeWAV(chunkPCM.FrameRange(0, 50), testSampleRate)
				Expect(contents).To(Equal(expected))
			})
		})

		Describe("Session is done", func() {
			var continuousPCM audio.Buffer

			BeforeEach(func() {
				continuousPCM = rampBuffer(298)

				artifactPath := path.Join(session.StorageDir, sessionentity.ContinuousArtifactName("vocals"))
				err := fileStore.WriteFile(context.Background(), artifactPath, audio.EncodeWAV(continuousPCM, testSampleRate))
				Expect(err).NotTo(HaveOccurred())

				markReady("vocals", 0)
				Expect(sessionRegistry.Update(session.ID, func(s *sessionentity.Session) {
					s.State = sessionentity.DoneState
				})).To(Succeed())
			})

			It("serves from the continuous stem at the requested offset", func() {
				contents, apiErr := usecase.PitchPreview(context.Background(), session.ID, 0, 1.0, 0.5)
				Expect(apiErr).To(BeNil())

				expected := audio.EncodeWAV(continuousPCM.FrameRange(100, 150), testSampleRate)
				Expect(contents).To(Equal(expected))
			})
		})

		Describe("Unknown session", func() {
			It("reports not found", func() {
				_, apiErr := usecase.PitchPreview(context.Background(), "nonexistent", 0, 0, 0.5)
				expectErrorCode(apiErr, sessionerrors.SessionNotFoundCode)
			})
		})
	})
})
