package sessionerrors

import (
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/errors/api"
)

const (
	SessionNotFoundCode  = api.ErrorCode("session_not_found")
	ArtifactNotFoundCode = api.ErrorCode("artifact_not_found")
	NoPreviewContentCode = api.ErrorCode("no_preview_content")
	BadUploadDataCode    = api.ErrorCode("bad_upload_data")
	InvalidFileTypeCode  = api.ErrorCode("invalid_file_type")
	BadStreamURLCode     = api.ErrorCode("bad_stream_url")
	BadParameterCode     = api.ErrorCode("bad_parameter")
)
