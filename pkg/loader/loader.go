package loader

import (
	"context"
	"path/filepath"
	"strings"
)

type GraphFileType string

const (
	GraphFileTypeText  GraphFileType = "text"
	GraphFileTypePDF   GraphFileType = "pdf"
	GraphFileTypeDoc   GraphFileType = "doc"
	GraphFileTypeWeb   GraphFileType = "web"
	GraphFileTypeImage GraphFileType = "image"
	GraphFileTypeAudio GraphFileType = "audio"
)

type GraphBase64 struct {
	Base64   string `json:"base64"`
	FileType string `json:"file_type"`
}

// GraphFile is one raw media file that is turned into record text. The
// actual content is retrieved via the associated GraphFileLoader.
type GraphFile struct {
	ID       string
	FilePath string
	FileType GraphFileType
	Loader   GraphFileLoader
}

// NewGraphFileParams defines the input parameters for creating a new GraphFile.
type NewGraphFileParams struct {
	ID       string
	FilePath string
	Loader   GraphFileLoader
}

// NewGraphFile creates a GraphFile whose type is derived from the file
// extension. It reports false for extensions no loader understands.
func NewGraphFile(params NewGraphFileParams) (GraphFile, bool) {
	ft, ok := FileTypeForPath(params.FilePath)
	if !ok {
		return GraphFile{}, false
	}
	return GraphFile{
		ID:       params.ID,
		FilePath: params.FilePath,
		FileType: ft,
		Loader:   params.Loader,
	}, true
}

// FileTypeForPath maps a file extension to the loader type that reads it.
func FileTypeForPath(path string) (GraphFileType, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return GraphFileTypeText, true
	case ".pdf":
		return GraphFileTypePDF, true
	case ".docx":
		return GraphFileTypeDoc, true
	case ".url":
		return GraphFileTypeWeb, true
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return GraphFileTypeImage, true
	case ".mp3", ".wav", ".m4a", ".ogg", ".flac", ".webm":
		return GraphFileTypeAudio, true
	default:
		return "", false
	}
}

// GetText retrieves the text content of the file using its Loader.
//
// Example:
//
//	text, err := file.GetText(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(string(text))
func (f *GraphFile) GetText(ctx context.Context) ([]byte, error) {
	return f.Loader.GetFileText(ctx, *f)
}

// GetBase64 retrieves the base64-encoded content of the file using its Loader.
func (f *GraphFile) GetBase64(ctx context.Context) (GraphBase64, error) {
	return f.Loader.GetBase64(ctx, *f)
}

// GraphFileLoader defines the interface for loading the contents of a GraphFile.
// Implementations may load files from disk, object storage, or the web.
type GraphFileLoader interface {
	GetFileText(ctx context.Context, file GraphFile) ([]byte, error)
	GetBase64(ctx context.Context, file GraphFile) (GraphBase64, error)
}
