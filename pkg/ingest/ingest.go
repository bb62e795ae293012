// Package ingest turns raw media files into intermediate records and
// appends them to the per-modality record streams.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/OFFIS-RIT/pokegraph/internal/util"
	"github.com/OFFIS-RIT/pokegraph/pkg/ai"
	"github.com/OFFIS-RIT/pokegraph/pkg/catalog"
	"github.com/OFFIS-RIT/pokegraph/pkg/common"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader/audio"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader/doc"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader/image"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader/pdf"
	"github.com/OFFIS-RIT/pokegraph/pkg/loader/web"
	"github.com/OFFIS-RIT/pokegraph/pkg/logger"
	"github.com/OFFIS-RIT/pokegraph/pkg/records"

	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFile is returned for files whose extension does not belong
// to the modality they were given for.
var ErrUnsupportedFile = errors.New("unsupported file")

// Characters of record text that are embedded for the document store.
const embedTextLimit = 3000

// DocumentStore persists records with their embedding.
type DocumentStore interface {
	UpsertDocument(ctx context.Context, rec common.Record, embedding []float32) error
}

// Ingestor reads raw media, resolves catalog metadata and writes records.
type Ingestor struct {
	source         Source
	catalog        *catalog.Catalog
	streams        records.Streams
	aiClient       ai.GraphAIClient
	store          DocumentStore
	parallel       int
	skipUnresolved bool
	language       string

	writers map[common.Modality]*records.Writer
}

// NewIngestorParams configures an Ingestor. AIClient is needed for images,
// audio and the document store embeddings; Store is optional.
type NewIngestorParams struct {
	Source         Source
	Catalog        *catalog.Catalog
	Streams        records.Streams
	AIClient       ai.GraphAIClient
	Store          DocumentStore
	Parallel       int
	SkipUnresolved bool
	Language       string
}

func NewIngestor(params NewIngestorParams) *Ingestor {
	cat := params.Catalog
	if cat == nil {
		cat = catalog.Default()
	}
	parallel := params.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	writers := map[common.Modality]*records.Writer{}
	for _, s := range params.Streams.Ordered() {
		writers[s.Modality] = records.NewWriter(s.Path)
	}

	return &Ingestor{
		source:         params.Source,
		catalog:        cat,
		streams:        params.Streams,
		aiClient:       params.AIClient,
		store:          params.Store,
		parallel:       parallel,
		skipUnresolved: params.SkipUnresolved,
		language:       params.Language,
		writers:        writers,
	}
}

// Options controls a full ingestion run.
type Options struct {
	// Reset truncates all streams before writing.
	Reset bool
}

// Result summarizes an ingestion run.
type Result struct {
	Counts  map[common.Modality]int
	Skipped []string
}

// allowedTypes lists the file types each modality directory accepts. Plain
// text in the image and audio dirs is taken as a ready description or
// transcript.
var allowedTypes = map[common.Modality][]loader.GraphFileType{
	common.ModalityText:  {loader.GraphFileTypeText, loader.GraphFileTypePDF, loader.GraphFileTypeDoc, loader.GraphFileTypeWeb},
	common.ModalityImage: {loader.GraphFileTypeImage, loader.GraphFileTypeText},
	common.ModalityAudio: {loader.GraphFileTypeAudio, loader.GraphFileTypeText},
}

// loaders maps file types to loaders for one run. Loaders cache file
// content, so every run starts with fresh ones and picks up changed files.
type loaders map[loader.GraphFileType]loader.GraphFileLoader

func (i *Ingestor) newLoaders() loaders {
	base := i.source.Loader()
	ls := loaders{
		loader.GraphFileTypeText: base,
		loader.GraphFileTypePDF:  pdf.NewPDFGraphLoader(base),
		loader.GraphFileTypeDoc:  doc.NewDocGraphLoader(base),
		loader.GraphFileTypeWeb:  web.NewWebGraphLoader(base, nil),
	}
	if i.aiClient != nil {
		ls[loader.GraphFileTypeImage] = image.NewImageGraphLoader(image.NewImageGraphLoaderParams{
			AIClient: i.aiClient,
			Loader:   base,
		})
		ls[loader.GraphFileTypeAudio] = audio.NewAudioGraphLoader(audio.NewAudioGraphLoaderParams{
			AIClient: i.aiClient,
			Loader:   base,
			Language: i.language,
		})
	}
	return ls
}

func checkType(m common.Modality, p string) (loader.GraphFileType, error) {
	ft, ok := loader.FileTypeForPath(p)
	if !ok || !slices.Contains(allowedTypes[m], ft) {
		return "", fmt.Errorf("%w for %s: %s", ErrUnsupportedFile, m, p)
	}
	return ft, nil
}

func (ls loaders) newFile(m common.Modality, p string) (loader.GraphFile, error) {
	ft, err := checkType(m, p)
	if err != nil {
		return loader.GraphFile{}, err
	}
	l, ok := ls[ft]
	if !ok {
		return loader.GraphFile{}, fmt.Errorf("no loader configured for %s files", ft)
	}
	return loader.GraphFile{
		ID:       stem(p),
		FilePath: p,
		FileType: ft,
		Loader:   l,
	}, nil
}

func stem(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// Ingest processes every raw file of every modality. Files of one modality
// are loaded in parallel, records are written in sorted file order.
func (i *Ingestor) Ingest(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()
	logger.Info("[Ingest] Starting ingestion", "reset", opts.Reset)

	if opts.Reset {
		for _, s := range i.streams.Ordered() {
			if err := i.writers[s.Modality].Truncate(); err != nil {
				return nil, fmt.Errorf("failed to reset %s stream: %w", s.Modality, err)
			}
		}
	}

	ls := i.newLoaders()
	res := &Result{Counts: map[common.Modality]int{}}
	for _, s := range i.streams.Ordered() {
		n, skipped, err := i.ingestModality(ctx, ls, s)
		if err != nil {
			return nil, err
		}
		res.Counts[s.Modality] = n
		res.Skipped = append(res.Skipped, skipped...)
	}

	logger.Info("[Ingest] Ingestion completed",
		"text", res.Counts[common.ModalityText],
		"image", res.Counts[common.ModalityImage],
		"audio", res.Counts[common.ModalityAudio],
		"skipped", len(res.Skipped),
		"duration", time.Since(start),
	)
	return res, nil
}

func (i *Ingestor) ingestModality(ctx context.Context, ls loaders, s records.Stream) (int, []string, error) {
	paths, err := i.source.List(ctx, s.Modality)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list %s files: %w", s.Modality, err)
	}

	files := make([]loader.GraphFile, 0, len(paths))
	for _, p := range paths {
		f, err := ls.newFile(s.Modality, p)
		if errors.Is(err, ErrUnsupportedFile) {
			logger.Debug("[Ingest] Ignoring file", "path", p)
			continue
		}
		if err != nil {
			return 0, nil, err
		}
		files = append(files, f)
	}

	recs := make([]*common.Record, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.parallel)
	for idx, f := range files {
		g.Go(func() error {
			rec, err := i.buildRecord(gctx, s.Modality, f)
			if errors.Is(err, catalog.ErrUnresolved) && i.skipUnresolved {
				logger.Warn("[Ingest] Skipping file without catalog entry", "path", f.FilePath)
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %w", f.FilePath, err)
			}
			recs[idx] = &rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, nil, err
	}

	out := make([]common.Record, 0, len(recs))
	var skipped []string
	for idx, r := range recs {
		if r == nil {
			skipped = append(skipped, files[idx].FilePath)
			continue
		}
		out = append(out, *r)
	}

	if err := i.writers[s.Modality].Append(out...); err != nil {
		return 0, nil, err
	}
	for _, r := range out {
		logger.Debug("[Ingest] Wrote record", "record_id", r.ID, "stream", s.Modality)
	}
	return len(out), skipped, nil
}

// buildRecord loads the file text and attaches catalog metadata. The
// catalog is checked first so unresolvable files cost no model calls.
func (i *Ingestor) buildRecord(ctx context.Context, m common.Modality, f loader.GraphFile) (common.Record, error) {
	entry, err := i.catalog.Resolve(f.ID)
	if err != nil {
		return common.Record{}, err
	}

	text, err := f.GetText(ctx)
	if err != nil {
		return common.Record{}, err
	}

	rec := NewRecord(m, f.ID, f.FilePath, string(text), entry)

	if i.store != nil {
		if err := i.storeDocument(ctx, rec); err != nil {
			return common.Record{}, err
		}
	}
	return rec, nil
}

func (i *Ingestor) storeDocument(ctx context.Context, rec common.Record) error {
	if i.aiClient == nil {
		return errors.New("document store needs an AI client for embeddings")
	}
	input := util.TruncateRunes(rec.Text, embedTextLimit)
	embedding, err := i.aiClient.GenerateEmbedding(ctx, []byte(input))
	if err != nil {
		return fmt.Errorf("failed to embed %s: %w", rec.ID, err)
	}
	return i.store.UpsertDocument(ctx, rec, embedding)
}

// NewRecord builds the record for one media file of entry.
func NewRecord(m common.Modality, id, sourcePath, text string, entry catalog.Entry) common.Record {
	tags := make([]string, 0, len(entry.Tags)+2)
	tags = append(tags, entry.Tags...)
	tags = appendUnique(tags, strings.ToLower(entry.Name))
	if m != common.ModalityText {
		tags = appendUnique(tags, string(m))
	}

	return common.Record{
		ID:         id,
		Modality:   m,
		SourcePath: sourcePath,
		Text:       strings.TrimSpace(text),
		Pokemon:    common.Ptr(entry.Name),
		Generation: common.Ptr(entry.Generation),
		Types:      slices.Clone(entry.Types),
		Tags:       tags,
	}
}

func appendUnique(s []string, v string) []string {
	if slices.Contains(s, v) {
		return s
	}
	return append(s, v)
}
