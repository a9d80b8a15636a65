package application

import (
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/executor"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/ffmpeg"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/separation"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/session/cleanup"
	sessiongateway "github.com/veedubyou/instant-karaoke-be/src/server/internal/session/gateway"
	sessionusecase "github.com/veedubyou/instant-karaoke-be/src/server/internal/session/usecase"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/streamlink"
	"github.com/veedubyou/instant-karaoke-be/src/shared/config"
	"github.com/veedubyou/instant-karaoke-be/src/shared/filestore"
	"github.com/veedubyou/instant-karaoke-be/src/shared/session/registry"
)

type HTTPMethod string

const (
	GET    HTTPMethod = "GET"
	POST   HTTPMethod = "POST"
	DELETE HTTPMethod = "DELETE"
)

type App struct {
	echo      *echo.Echo
	port      string
	scheduler *cleanup.Scheduler
}

type Config struct {
	StorageConfig           config.Storage
	UploadDirPath           string
	SeparatorBinPath        string
	SeparatorWorkingDirPath string
	FFmpegBinPath           string
	YoutubeDLBinPath        string
	ChunkDuration           float64
	TargetSampleRate        int
	SessionTTL              time.Duration
	CleanupInterval         time.Duration
	SeparationMaxConcurrent int
	CORSAllowedOrigins      []string
	Port                    string
	Log                     bool
}

func NewApp(config Config) App {
	e := echo.New()

	if config.Log {
		e.Use(middleware.Logger())
	}

	corsMiddleware := makeCorsMiddleware(config)

	handleRoute := func(method HTTPMethod, path string, handlerFunc echo.HandlerFunc) {
		params := func() (string, echo.HandlerFunc, echo.MiddlewareFunc) {
			return path, handlerFunc, corsMiddleware
		}

		e.OPTIONS(params())

		switch method {
		case GET:
			e.GET(params())
		case POST:
			e.POST(params())
		case DELETE:
			e.DELETE(params())
		default:
			panic("unhandled http method!")
		}
	}

	sessionRegistry := registry.NewRegistry()
	sessionUsecase := makeSessionUsecase(config, sessionRegistry)
	sessionGateway := sessiongateway.NewGateway(sessionUsecase)
	scheduler := cleanup.NewScheduler(sessionRegistry, sessionUsecase, config.SessionTTL, config.CleanupInterval)

	// health check
	handleRoute(GET, "/health-check", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// session routes
	handleRoute(POST, "/sessions", sessionGateway.CreateSession)
	handleRoute(POST, "/sessions/stream", sessionGateway.CreateStreamSession)
	handleRoute(GET, "/sessions/:id/status", func(c echo.Context) error {
		sessionID := c.Param("id")
		return sessionGateway.GetStatus(c, sessionID)
	})
	handleRoute(GET, "/sessions/:id/audio/:filename", func(c echo.Context) error {
		sessionID := c.Param("id")
		fileName := c.Param("filename")
		return sessionGateway.GetArtifact(c, sessionID, fileName)
	})
	handleRoute(GET, "/sessions/:id/pitch-preview", func(c echo.Context) error {
		sessionID := c.Param("id")
		return sessionGateway.GetPitchPreview(c, sessionID)
	})
	handleRoute(DELETE, "/sessions/:id", func(c echo.Context) error {
		sessionID := c.Param("id")
		return sessionGateway.DeleteSession(c, sessionID)
	})

	return App{
		echo:      e,
		port:      config.Port,
		scheduler: scheduler,
	}
}

func (a *App) Start() error {
	a.scheduler.Start()

	err := a.echo.Start(a.port)
	if err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "Couldn't start echo server")
	}

	return nil
}

func (a *App) Stop() error {
	a.scheduler.Stop()

	err := a.echo.Close()
	if err != nil {
		return errors.Wrap(err, "Failed to stop echo server")
	}

	return nil
}

func makeSessionUsecase(config Config, sessionRegistry *registry.Registry) sessionusecase.Usecase {
	binaryExecutor := executor.BinaryFileExecutor{}

	fileStore := makeFileStore(config.StorageConfig)
	ffmpegClient := ffmpeg.NewClient(config.FFmpegBinPath, binaryExecutor)
	separator := makeSeparator(config, binaryExecutor)
	youtubeDLer := streamlink.NewYoutubeDLer(config.YoutubeDLBinPath, binaryExecutor)

	return sessionusecase.NewUsecase(
		sessionRegistry,
		fileStore,
		separator,
		ffmpegClient,
		ffmpegClient,
		ffmpegClient,
		youtubeDLer,
		sessionusecase.Config{
			UploadDirPath:    config.UploadDirPath,
			ChunkDuration:    config.ChunkDuration,
			TargetSampleRate: config.TargetSampleRate,
		},
	)
}

func makeFileStore(storageConfig config.Storage) filestore.FileStore {
	switch t := storageConfig.(type) {
	case config.LocalStorage:
		fileStore, err := filestore.NewLocalFileStore(t.RootPath)
		if err != nil {
			panic(errors.Wrap(err, "Failed to create local file store"))
		}
		return fileStore

	case config.GoogleCloudStorage:
		fileStore, err := filestore.NewGoogleFileStore(t.SecretKey, t.BucketName)
		if err != nil {
			panic(errors.Wrap(err, "Failed to create Google cloud file store"))
		}
		return fileStore

	default:
		panic("Unexpected storage config type")
	}
}

func makeSeparator(config Config, binaryExecutor executor.Executor) separation.Separator {
	binarySeparator, err := separation.NewBinarySeparator(
		config.SeparatorWorkingDirPath,
		config.SeparatorBinPath,
		binaryExecutor,
	)
	if err != nil {
		panic(errors.Wrap(err, "Failed to create separator"))
	}

	return separation.NewGatedSeparator(binarySeparator, config.SeparationMaxConcurrent)
}

func makeCorsMiddleware(config Config) echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.CORSAllowedOrigins,
		AllowHeaders: []string{echo.HeaderContentType, echo.HeaderAuthorization},
	})
}
