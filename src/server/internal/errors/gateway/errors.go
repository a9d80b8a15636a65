package gateway

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/veedubyou/instant-karaoke-be/src/server/api_error"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/errors/api"
	sessionerrors "github.com/veedubyou/instant-karaoke-be/src/server/internal/session/errors"
)

var httpStatusCodeMap = map[api.ErrorCode]int{
	api.DefaultErrorCode:               http.StatusInternalServerError,
	sessionerrors.SessionNotFoundCode:  http.StatusNotFound,
	sessionerrors.ArtifactNotFoundCode: http.StatusNotFound,
	sessionerrors.NoPreviewContentCode: http.StatusNotFound,
	sessionerrors.BadUploadDataCode:    http.StatusBadRequest,
	sessionerrors.InvalidFileTypeCode:  http.StatusBadRequest,
	sessionerrors.BadStreamURLCode:     http.StatusBadRequest,
	sessionerrors.BadParameterCode:     http.StatusBadRequest,
}

func ErrorResponse(c echo.Context, err *api.Error) error {
	statusCode, ok := httpStatusCodeMap[err.ErrorCode]
	if !ok {
		msg := fmt.Sprintf("Error code %s has no HTTP status code mapping", err.ErrorCode)
		panic(msg)
	}

	return c.JSON(statusCode, api_error.JSONAPIError{
		Code:         string(err.ErrorCode),
		Msg:          err.UserMessage,
		ErrorDetails: err.Error(),
	})
}
