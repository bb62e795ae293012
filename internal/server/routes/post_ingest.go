package routes

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/pokegraph/internal/server/middleware"
	sutil "github.com/OFFIS-RIT/pokegraph/internal/server/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/ingest"
	"github.com/OFFIS-RIT/pokegraph/pkg/leaselock"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// IngestHandler runs a full ingestion over the raw media directories.
// ?reset=true truncates the record streams first.
func IngestHandler(c echo.Context) error {
	type ingestResponse struct {
		Message string                  `json:"message"`
		Counts  map[common.Modality]int `json:"counts,omitempty"`
		Skipped []string                `json:"skipped,omitempty"`
	}

	var reset bool
	if err := echo.QueryParamsBinder(c).Bool("reset", &reset).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ingestResponse{
			Message: "Invalid reset parameter",
		})
	}

	app := c.(*middleware.AppContext).App
	logger.Info("[API] Starting full ingestion", "reset", reset)

	res, err := app.Pipeline.Ingest(c.Request().Context(), ingest.Options{Reset: reset})
	if err != nil {
		logger.Error("[API] Ingestion failed", "err", err)
		return c.JSON(jobErrorStatus(err), ingestResponse{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, ingestResponse{
		Message: "Ingestion process completed.",
		Counts:  res.Counts,
		Skipped: res.Skipped,
	})
}

// IngestFileHandler stores one uploaded file of the modality given in the
// path and appends its record.
func IngestFileHandler(c echo.Context) error {
	type ingestFileResponse struct {
		Message string         `json:"message"`
		Record  *common.Record `json:"record,omitempty"`
	}

	m, err := sutil.ParseModality(c.Param("modality"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, ingestFileResponse{Message: err.Error()})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ingestFileResponse{
			Message: "Missing file",
		})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ingestFileResponse{
			Message: "Could not read file",
		})
	}
	defer f.Close()

	app := c.(*middleware.AppContext).App
	rec, err := app.Pipeline.IngestFile(c.Request().Context(), m, fh.Filename, f)
	if err != nil {
		status := sutil.StatusForError(err)
		if status == http.StatusInternalServerError {
			logger.Error("[API] File ingestion failed", "file", fh.Filename, "err", err)
		}
		return c.JSON(status, ingestFileResponse{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, ingestFileResponse{
		Message: "File ingested.",
		Record:  &rec,
	})
}

// jobErrorStatus is 409 while another build holds the lease and 500
// otherwise.
func jobErrorStatus(err error) int {
	if errors.Is(err, leaselock.ErrBusy) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
