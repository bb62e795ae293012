// Package evallog keeps question answering evaluations as line-delimited
// JSON in a single append-only file.
package evallog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Record is one evaluation of an answer.
type Record struct {
	Timestamp        time.Time      `json:"timestamp"`
	Query            string         `json:"query" validate:"required"`
	Answer           string         `json:"answer"`
	RetrievedContext map[string]any `json:"retrieved_context"`
	Evaluation       map[string]any `json:"evaluation"`
	FocusedPokemon   *string        `json:"focused_pokemon,omitempty"`
	Extra            map[string]any `json:"extra,omitempty"`
}

// Log appends to and reads from one eval file. It is safe for concurrent use
// within a process.
type Log struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func New(path string) *Log {
	if path == "" {
		path = filepath.Join("logs", "eval.jsonl")
	}
	return &Log{path: path, now: time.Now}
}

func (l *Log) Path() string { return l.path }

// Append writes rec as one line. A zero timestamp is set to the current UTC
// time; nil context and evaluation maps are written as empty objects.
func (l *Log) Append(rec Record) (Record, error) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}
	if rec.RetrievedContext == nil {
		rec.RetrievedContext = map[string]any{}
	}
	if rec.Evaluation == nil {
		rec.Evaluation = map[string]any{}
	}
	if len(rec.Extra) == 0 {
		rec.Extra = nil
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return Record{}, err
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return Record{}, err
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return Record{}, err
	}
	if _, err := f.Write(line); err != nil {
		f.Close()
		return Record{}, err
	}
	return rec, f.Close()
}

// Read returns every record in file order. A missing file yields an empty
// list; blank lines are ignored.
func (l *Log) Read() ([]Record, error) {
	l.mu.Lock()
	data, err := os.ReadFile(l.path)
	l.mu.Unlock()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Record{}, nil
		}
		return nil, err
	}

	out := []Record{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to read %s line %d: %w", l.path, lineNo, err)
		}
		out = append(out, rec)
	}
	return out, sc.Err()
}
