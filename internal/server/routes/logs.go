package routes

import (
	"net/http"

	"github.com/OFFIS-RIT/pokegraph/internal/evallog"
	"github.com/OFFIS-RIT/pokegraph/internal/server/middleware"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"

	"github.com/labstack/echo/v4"
)

// GetLogsHandler returns every evaluation record.
func GetLogsHandler(c echo.Context) error {
	app := c.(*middleware.AppContext).App

	recs, err := app.EvalLog.Read()
	if err != nil {
		logger.Error("[API] Failed to read eval log", "err", err)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, recs)
}

// AppendLogHandler appends one evaluation record.
func AppendLogHandler(c echo.Context) error {
	data := new(evallog.Record)
	if err := c.Bind(data); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
	}
	if err := c.Validate(data); err != nil {
		return c.JSON(http.StatusBadRequest, messageResponse{Message: "Invalid request body"})
	}

	app := c.(*middleware.AppContext).App
	rec, err := app.EvalLog.Append(*data)
	if err != nil {
		logger.Error("[API] Failed to append eval log", "err", err)
		return c.JSON(http.StatusInternalServerError, messageResponse{Message: "Internal server error"})
	}
	return c.JSON(http.StatusCreated, rec)
}
