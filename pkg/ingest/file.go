package ingest

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"
)

// IngestFile stores one uploaded file as raw media of modality m and appends
// its record to the matching stream.
func (i *Ingestor) IngestFile(ctx context.Context, m common.Modality, name string, r io.Reader) (common.Record, error) {
	if _, ok := i.writers[m]; !ok {
		return common.Record{}, fmt.Errorf("unknown modality %q", m)
	}

	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || strings.HasPrefix(name, ".") {
		return common.Record{}, fmt.Errorf("%w: invalid file name %q", ErrUnsupportedFile, name)
	}

	// validate before anything is stored
	if _, err := checkType(m, name); err != nil {
		return common.Record{}, err
	}
	if _, err := i.catalog.Resolve(stem(name)); err != nil {
		return common.Record{}, err
	}

	content, err := io.ReadAll(r)
	if err != nil {
		return common.Record{}, err
	}

	p, err := i.source.SaveRaw(ctx, m, name, content)
	if err != nil {
		return common.Record{}, fmt.Errorf("failed to store %s: %w", name, err)
	}

	f, err := i.newLoaders().newFile(m, p)
	if err != nil {
		return common.Record{}, err
	}
	rec, err := i.buildRecord(ctx, m, f)
	if err != nil {
		return common.Record{}, err
	}
	if err := i.writers[m].Append(rec); err != nil {
		return common.Record{}, err
	}

	logger.Info("[Ingest] Ingested file", "record_id", rec.ID, "stream", m)
	return rec, nil
}
