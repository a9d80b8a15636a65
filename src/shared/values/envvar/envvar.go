package envvar

import (
	"fmt"
	"os"
	"strconv"
)

const (
	ENVIRONMENT                      = "ENVIRONMENT"
	PORT                             = "PORT"
	ALLOWED_FE_ORIGINS               = "ALLOWED_FE_ORIGINS"
	GOOGLE_CLOUD_KEY                 = "GOOGLE_CLOUD_KEY"
	GOOGLE_CLOUD_STORAGE_BUCKET_NAME = "GOOGLE_CLOUD_STORAGE_BUCKET_NAME"
	STORAGE_ROOT_PATH                = "STORAGE_ROOT_PATH"
	UPLOAD_DIR_PATH                  = "UPLOAD_DIR_PATH"
	SEPARATOR_BIN_PATH               = "SEPARATOR_BIN_PATH"
	SEPARATOR_WORKING_DIR_PATH       = "SEPARATOR_WORKING_DIR_PATH"
	FFMPEG_BIN_PATH                  = "FFMPEG_BIN_PATH"
	YTDLP_BIN_PATH                   = "YTDLP_BIN_PATH"
	SEPARATION_MAX_CONCURRENT        = "SEPARATION_MAX_CONCURRENT"
	CHUNK_DURATION_SECONDS           = "CHUNK_DURATION_SECONDS"
	TARGET_SAMPLE_RATE               = "TARGET_SAMPLE_RATE"
	SESSION_TTL_MINUTES              = "SESSION_TTL_MINUTES"
	CLEANUP_INTERVAL_MINUTES         = "CLEANUP_INTERVAL_MINUTES"
)

func GetFloatOrDefault(key string, defaultVal float64) float64 {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return defaultVal
	}

	floatVal, err := strconv.ParseFloat(val, 64)
	if err != nil {
		panic(fmt.Sprintf("Env variable for key %s is not a number: %s", key, val))
	}

	return floatVal
}

func MustGet(key string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet {
		panic(fmt.Sprintf("No env variable found for key %s", key))
	}

	if val == "" {
		panic(fmt.Sprintf("Env variable is empty for key %s", key))
	}

	return val
}

func GetOrDefault(key string, defaultVal string) string {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return defaultVal
	}

	return val
}

func GetIntOrDefault(key string, defaultVal int) int {
	val, isSet := os.LookupEnv(key)
	if !isSet || val == "" {
		return defaultVal
	}

	intVal, err := strconv.Atoi(val)
	if err != nil {
		panic(fmt.Sprintf("Env variable for key %s is not an integer: %s", key, val))
	}

	return intVal
}
