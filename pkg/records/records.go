package records

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"path/filepath"
	"sync"

	"github.com/OFFIS-RIT/pokegraph/pkg/common"

	"github.com/go-playground/validator"
)

var validate = validator.New()

// StreamReadError is returned when a stream line is not a valid record.
type StreamReadError struct {
	Path string
	Line int
	Err  error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("failed to read %s line %d: %v", e.Path, e.Line, e.Err)
}

func (e *StreamReadError) Unwrap() error {
	return e.Err
}

// Stream is one line-delimited record file bound to a modality.
type Stream struct {
	Modality common.Modality
	Path     string
}

// Streams holds the location of the three modality streams.
type Streams struct {
	Text  string
	Image string
	Audio string
}

// DefaultStreams returns the stream locations below dataDir.
func DefaultStreams(dataDir string) Streams {
	processed := filepath.Join(dataDir, "processed")
	return Streams{
		Text:  filepath.Join(processed, "text.jsonl"),
		Image: filepath.Join(processed, "images.jsonl"),
		Audio: filepath.Join(processed, "audio.jsonl"),
	}
}

// Ordered returns the streams in build order: text, image, audio.
func (s Streams) Ordered() []Stream {
	return []Stream{
		{Modality: common.ModalityText, Path: s.Text},
		{Modality: common.ModalityImage, Path: s.Image},
		{Modality: common.ModalityAudio, Path: s.Audio},
	}
}

// Path returns the stream path for the given modality.
func (s Streams) Path(m common.Modality) (string, error) {
	switch m {
	case common.ModalityText:
		return s.Text, nil
	case common.ModalityImage:
		return s.Image, nil
	case common.ModalityAudio:
		return s.Audio, nil
	}
	return "", fmt.Errorf("unknown modality %q", m)
}

// Read lazily yields the records of a stream. A missing file yields nothing.
// Blank lines are skipped. A line that is not a JSON record yields a
// *StreamReadError and ends the sequence. Records without a modality get
// the modality of the stream.
func (s Stream) Read() iter.Seq2[common.Record, error] {
	return func(yield func(common.Record, error) bool) {
		f, err := os.Open(s.Path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return
			}
			yield(common.Record{}, &StreamReadError{Path: s.Path, Err: err})
			return
		}
		defer f.Close()

		r := bufio.NewReader(f)
		lineNo := 0
		for {
			line, readErr := r.ReadBytes('\n')
			if len(line) > 0 {
				lineNo++
				line = bytes.TrimSpace(line)
				if len(line) > 0 {
					rec, err := parseRecord(line, s.Modality)
					if err != nil {
						yield(common.Record{}, &StreamReadError{Path: s.Path, Line: lineNo, Err: err})
						return
					}
					if !yield(rec, nil) {
						return
					}
				}
			}
			if readErr != nil {
				if readErr != io.EOF {
					yield(common.Record{}, &StreamReadError{Path: s.Path, Line: lineNo, Err: readErr})
				}
				return
			}
		}
	}
}

func parseRecord(line []byte, modality common.Modality) (common.Record, error) {
	var rec common.Record
	if err := json.Unmarshal(line, &rec); err != nil {
		return common.Record{}, err
	}
	if err := validate.Struct(rec); err != nil {
		return common.Record{}, err
	}
	if rec.Modality == "" {
		rec.Modality = modality
	}
	return rec, nil
}

// ReadAll collects every record of a stream.
func (s Stream) ReadAll() ([]common.Record, error) {
	var out []common.Record
	for rec, err := range s.Read() {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Writer appends records to a stream file. It is safe for concurrent use.
type Writer struct {
	path string
	mu   sync.Mutex
}

// NewWriter returns a writer for the stream at path. Parent directories are
// created on first write.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Append writes records as one line each.
func (w *Writer) Append(recs ...common.Record) error {
	if len(recs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for _, rec := range recs {
		if err := validate.Struct(rec); err != nil {
			return fmt.Errorf("invalid record %q: %w", rec.ID, err)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode record %q: %w", rec.ID, err)
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Truncate empties the stream file if it exists.
func (w *Writer) Truncate() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := os.Truncate(w.path, 0)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
