package ingest

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader"
	lio "github.com/OFFIS-RIT/pokegraph/pkg/loader/io"
)

// Source lists raw media files per modality and provides the loader that
// reads their bytes. Loader returns a new loader on every call so cached
// content never outlives a run. SaveRaw stores an uploaded file and returns
// its path.
type Source interface {
	// List returns the file paths (or object keys) of one modality, sorted.
	List(ctx context.Context, modality common.Modality) ([]string, error)
	Loader() loader.GraphFileLoader
	SaveRaw(ctx context.Context, modality common.Modality, name string, content []byte) (string, error)
}

// RawDirName is the directory below the raw root that holds a modality.
func RawDirName(m common.Modality) string {
	switch m {
	case common.ModalityImage:
		return "images"
	default:
		return string(m)
	}
}

// FSSource reads raw media from <root>/text, <root>/images and <root>/audio.
type FSSource struct {
	root string
}

func NewFSSource(root string) *FSSource {
	return &FSSource{root: root}
}

func (s *FSSource) Root() string { return s.root }

// Dir returns the raw directory of a modality.
func (s *FSSource) Dir(m common.Modality) string {
	return filepath.Join(s.root, RawDirName(m))
}

// List returns the regular files of the modality directory. A missing
// directory has no files.
func (s *FSSource) List(ctx context.Context, m common.Modality) ([]string, error) {
	entries, err := os.ReadDir(s.Dir(m))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		paths = append(paths, filepath.Join(s.Dir(m), e.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

func (s *FSSource) Loader() loader.GraphFileLoader { return lio.NewIOGraphFileLoader() }

// SaveRaw writes an ingested file into the modality directory.
func (s *FSSource) SaveRaw(ctx context.Context, m common.Modality, name string, content []byte) (string, error) {
	if err := os.MkdirAll(s.Dir(m), 0o755); err != nil {
		return "", err
	}
	p := filepath.Join(s.Dir(m), name)
	if err := os.WriteFile(p, content, 0o644); err != nil {
		return "", err
	}
	return p, nil
}

// ObjectStore is the part of an object store client the S3 source needs.
type ObjectStore interface {
	ListFilesWithPrefix(ctx context.Context, prefix string) ([]string, error)
	PutFile(ctx context.Context, key string, body io.ReadSeeker) error
}

// S3Source reads raw media from keys below <prefix>/<modality dir>/.
type S3Source struct {
	store     ObjectStore
	prefix    string
	newLoader func() loader.GraphFileLoader
}

// NewS3Source creates a source whose files are read by loaders from newLoader.
func NewS3Source(store ObjectStore, prefix string, newLoader func() loader.GraphFileLoader) *S3Source {
	return &S3Source{store: store, prefix: strings.Trim(prefix, "/"), newLoader: newLoader}
}

func (s *S3Source) dir(m common.Modality) string {
	return path.Join(s.prefix, RawDirName(m)) + "/"
}

func (s *S3Source) List(ctx context.Context, m common.Modality) ([]string, error) {
	dir := s.dir(m)
	keys, err := s.store.ListFilesWithPrefix(ctx, dir)
	if err != nil {
		return nil, err
	}

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		// only direct children, folder markers end with a slash
		rest := strings.TrimPrefix(k, dir)
		if rest == "" || strings.Contains(rest, "/") {
			continue
		}
		out = append(out, k)
	}
	slices.Sort(out)
	return out, nil
}

func (s *S3Source) Loader() loader.GraphFileLoader { return s.newLoader() }

// SaveRaw uploads an ingested file below the modality prefix.
func (s *S3Source) SaveRaw(ctx context.Context, m common.Modality, name string, content []byte) (string, error) {
	key := s.dir(m) + name
	if err := s.store.PutFile(ctx, key, bytes.NewReader(content)); err != nil {
		return "", err
	}
	return key, nil
}
