package sessiongateway

import (
	"net/http"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/labstack/echo/v4"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/errors/api"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/errors/gateway"
	"github.com/veedubyou/instant-karaoke-be/src/server/internal/lib/request"
	sessionerrors "github.com/veedubyou/instant-karaoke-be/src/server/internal/session/errors"
	sessionusecase "github.com/veedubyou/instant-karaoke-be/src/server/internal/session/usecase"
)

const (
	defaultPreviewDurationSeconds = 3.0
	wavContentType                = "audio/wav"
)

type Gateway struct {
	usecase sessionusecase.Usecase
}

func NewGateway(usecase sessionusecase.Usecase) Gateway {
	return Gateway{
		usecase: usecase,
	}
}

func (g Gateway) CreateSession(c echo.Context) error {
	ctx := request.Context(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		err = errors.Wrap(err, "Failed to read file field from multipart form")
		apiErr := api.CommitError(err,
			sessionerrors.BadUploadDataCode,
			"No audio file was attached to the request")
		return gateway.ErrorResponse(c, apiErr)
	}

	file, err := fileHeader.Open()
	if err != nil {
		err = errors.Wrap(err, "Failed to open uploaded file")
		apiErr := api.CommitError(err,
			sessionerrors.BadUploadDataCode,
			"The uploaded file could not be read")
		return gateway.ErrorResponse(c, apiErr)
	}
	defer file.Close()

	created, apiErr := g.usecase.CreateLocalSession(ctx, fileHeader.Filename, file)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to create session from upload")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, created)
}

type createStreamSessionRequest struct {
	URL string `json:"url"`
}

func (g Gateway) CreateStreamSession(c echo.Context) error {
	ctx := request.Context(c)

	requestBody := createStreamSessionRequest{}
	if err := c.Bind(&requestBody); err != nil {
		err = errors.Wrap(err, "Failed to bind request body to stream session object")
		apiErr := api.CommitError(err,
			sessionerrors.BadStreamURLCode,
			"The request body was malformed. A JSON body with a url field is expected")
		return gateway.ErrorResponse(c, apiErr)
	}

	created, apiErr := g.usecase.CreateRemoteSession(ctx, requestBody.URL)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to create session from stream URL")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, created)
}

func (g Gateway) GetStatus(c echo.Context, sessionID string) error {
	progress, apiErr := g.usecase.Status(sessionID)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to get session status")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, progress)
}

func (g Gateway) GetArtifact(c echo.Context, sessionID string, fileName string) error {
	ctx := request.Context(c)

	contents, apiErr := g.usecase.Artifact(ctx, sessionID, fileName)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to get session audio artifact")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.Blob(http.StatusOK, wavContentType, contents)
}

func (g Gateway) GetPitchPreview(c echo.Context, sessionID string) error {
	ctx := request.Context(c)

	semitones, apiErr := floatQueryParam(c, "semitones", 0)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	startSeconds, apiErr := floatQueryParam(c, "start", 0)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	durationSeconds, apiErr := floatQueryParam(c, "dur", defaultPreviewDurationSeconds)
	if apiErr != nil {
		return gateway.ErrorResponse(c, apiErr)
	}

	contents, apiErr := g.usecase.PitchPreview(ctx, sessionID, semitones, startSeconds, durationSeconds)
	if apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to render pitch preview")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.Blob(http.StatusOK, wavContentType, contents)
}

func (g Gateway) DeleteSession(c echo.Context, sessionID string) error {
	ctx := request.Context(c)

	if apiErr := g.usecase.Delete(ctx, sessionID); apiErr != nil {
		apiErr = api.WrapError(apiErr, "Failed to delete session")
		return gateway.ErrorResponse(c, apiErr)
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Session deleted",
	})
}

func floatQueryParam(c echo.Context, name string, defaultVal float64) (float64, *api.Error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return defaultVal, nil
	}

	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		err = errors.Wrapf(err, "Failed to parse query param %s", name)
		return 0, api.CommitError(err,
			sessionerrors.BadParameterCode,
			"The "+name+" parameter must be a number")
	}

	return val, nil
}
