package routes

import (
	"net/http"
	"path"
	"slices"

	"github.com/OFFIS-RIT/pokegraph/internal/server/middleware"
	sutil "github.com/OFFIS-RIT/pokegraph/internal/server/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/export"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

type messageResponse struct {
	Message string `json:"message"`
}

// GetGraphHandler returns the last exported graph document.
func GetGraphHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	raw, err := app.Pipeline.Graph(c.Request().Context())
	if err != nil {
		status := sutil.StatusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("[API] Failed to read graph", "err", err)
		}
		return c.JSON(status, messageResponse{Message: err.Error()})
	}
	return c.JSONBlob(http.StatusOK, raw)
}

// GetGraphSchemaHandler returns the JSON Schema of the graph document.
func GetGraphSchemaHandler(c echo.Context) error {
	raw, err := export.Schema()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: err.Error()})
	}
	return c.JSONBlob(http.StatusOK, raw)
}

var downloadableFiles = []string{
	export.GraphFile,
	export.SchemaFile,
	"nodes/pokemon_nodes.csv",
	"nodes/type_nodes.csv",
	"edges/pokemon_type_edges.csv",
	"edges/evolution_edges.csv",
	"edges/mentions_edges.csv",
}

// GetGraphDownloadHandler returns a presigned link to an uploaded export file.
func GetGraphDownloadHandler(c echo.Context) error {
	type downloadParams struct {
		BuildID string `query:"build_id" validate:"required,max=64,excludesall=/."`
		File    string `query:"file"`
	}
	type downloadResponse struct {
		Message string `json:"message"`
		URL     string `json:"url,omitempty"`
	}

	app := c.(*middleware.AppContext).App
	if app.Files == nil {
		return c.JSON(http.StatusServiceUnavailable, downloadResponse{
			Message: "Object storage is not configured",
		})
	}

	params := new(downloadParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, downloadResponse{Message: "Invalid request"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, downloadResponse{Message: "Invalid build id"})
	}
	if params.File == "" {
		params.File = export.GraphFile
	}
	if !slices.Contains(downloadableFiles, params.File) {
		return c.JSON(http.StatusBadRequest, downloadResponse{Message: "Unknown export file"})
	}

	key := path.Join("graph", params.BuildID, params.File)
	url, err := app.Files.GenerateDownloadLink(c.Request().Context(), key, app.PublicEndpoint)
	if err != nil {
		logger.Error("[API] Failed to sign download link", "key", key, "err", err)
		return c.JSON(http.StatusInternalServerError, downloadResponse{Message: "Internal server error"})
	}
	return c.JSON(http.StatusOK, downloadResponse{Message: "ok", URL: url})
}
