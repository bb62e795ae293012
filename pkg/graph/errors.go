package graph

import (
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/pokegraph/pkg/schema"
)

// ExtractionError is returned when the extractor fails for a record or
// returns content that cannot be parsed.
type ExtractionError struct {
	MediaID string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.MediaID, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// RecordError ties a schema violation to the record whose fragment failed.
type RecordError struct {
	MediaID string
	Err     error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("invalid fragment for %s: %v", e.MediaID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// isRecordFailure reports whether err only concerns a single record and may
// be skipped under SkipInvalid.
func isRecordFailure(err error) bool {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return true
	}
	var sv *schema.SchemaViolation
	return errors.As(err, &sv)
}
