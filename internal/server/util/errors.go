package util

import (
	"errors"
	"net/http"

	"github.com/OFFIS-RIT/pokegraph/internal/pipeline"
	"github.com/OFFIS-RIT/pokegraph/pkg/catalog"
	"github.com/OFFIS-RIT/pokegraph/pkg/ingest"
	"github.com/OFFIS-RIT/pokegraph/pkg/leaselock"
)

// StatusForError maps request level pipeline errors to HTTP status codes.
// Everything else, including every build failure, is a 500.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFile), errors.Is(err, catalog.ErrUnresolved):
		return http.StatusUnprocessableEntity
	case errors.Is(err, leaselock.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, pipeline.ErrNoGraph):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
