package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/veedubyou/instant-karaoke-be/src/server/application"
	"github.com/veedubyou/instant-karaoke-be/src/shared/config"
	"github.com/veedubyou/instant-karaoke-be/src/shared/config/local"
	"github.com/veedubyou/instant-karaoke-be/src/shared/lib/env"
	"github.com/veedubyou/instant-karaoke-be/src/shared/values/envvar"
)

const (
	defaultChunkDurationSeconds   = 5.0
	defaultTargetSampleRate       = 44100
	defaultSessionTTLMinutes      = 60
	defaultCleanupIntervalMinutes = 60
)

func main() {
	var appConfig application.Config

	switch env.Get() {
	case env.Production:
		commaSeparatedOrigins := envvar.MustGet(envvar.ALLOWED_FE_ORIGINS)
		allowedOrigins := strings.Split(commaSeparatedOrigins, ",")

		appConfig = application.Config{
			StorageConfig: config.GoogleCloudStorage{
				SecretKey:  envvar.MustGet(envvar.GOOGLE_CLOUD_KEY),
				BucketName: envvar.MustGet(envvar.GOOGLE_CLOUD_STORAGE_BUCKET_NAME),
			},
			UploadDirPath:           envvar.MustGet(envvar.UPLOAD_DIR_PATH),
			SeparatorBinPath:        envvar.MustGet(envvar.SEPARATOR_BIN_PATH),
			SeparatorWorkingDirPath: envvar.MustGet(envvar.SEPARATOR_WORKING_DIR_PATH),
			FFmpegBinPath:           envvar.MustGet(envvar.FFMPEG_BIN_PATH),
			YoutubeDLBinPath:        envvar.MustGet(envvar.YTDLP_BIN_PATH),
			ChunkDuration:           envvar.GetFloatOrDefault(envvar.CHUNK_DURATION_SECONDS, defaultChunkDurationSeconds),
			TargetSampleRate:        envvar.GetIntOrDefault(envvar.TARGET_SAMPLE_RATE, defaultTargetSampleRate),
			SessionTTL:              ttlFromEnv(envvar.SESSION_TTL_MINUTES, defaultSessionTTLMinutes),
			CleanupInterval:         ttlFromEnv(envvar.CLEANUP_INTERVAL_MINUTES, defaultCleanupIntervalMinutes),
			SeparationMaxConcurrent: envvar.GetIntOrDefault(envvar.SEPARATION_MAX_CONCURRENT, 0),
			CORSAllowedOrigins:      allowedOrigins,
			Port:                    ":" + envvar.GetOrDefault(envvar.PORT, "5000"),
			Log:                     true,
		}

	case env.Development:
		projectRoot := local.ProjectRoot()

		appConfig = application.Config{
			StorageConfig: config.LocalStorage{
				RootPath: envvar.GetOrDefault(envvar.STORAGE_ROOT_PATH, filepath.Join(projectRoot, "wd", "sessions")),
			},
			UploadDirPath:           envvar.GetOrDefault(envvar.UPLOAD_DIR_PATH, filepath.Join(projectRoot, "wd", "uploads")),
			SeparatorBinPath:        config.DemucsPath(),
			SeparatorWorkingDirPath: filepath.Join(projectRoot, "wd", "separator"),
			FFmpegBinPath:           config.FFmpegPath(),
			YoutubeDLBinPath:        config.YoutubeDLPath(),
			ChunkDuration:           defaultChunkDurationSeconds,
			TargetSampleRate:        defaultTargetSampleRate,
			SessionTTL:              defaultSessionTTLMinutes * time.Minute,
			CleanupInterval:         defaultCleanupIntervalMinutes * time.Minute,
			SeparationMaxConcurrent: 0,
			CORSAllowedOrigins:      []string{"*"},
			Port:                    ":5000",
			Log:                     true,
		}

	default:
		panic("Unexpected environment")
	}

	app := application.NewApp(appConfig)
	if err := app.Start(); err != nil {
		panic(err)
	}
}

func ttlFromEnv(key string, defaultMinutes int) time.Duration {
	return time.Duration(envvar.GetIntOrDefault(key, defaultMinutes)) * time.Minute
}
