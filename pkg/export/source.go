package export

import (
	"context"
	"fmt"
	"os"
)

// Source fetches raw conversations for the pipeline. Real retrieval
// services live behind this interface; the file source is the only
// implementation in this repository.
type Source interface {
	Fetch(ctx context.Context) ([]RawConversation, error)
}

// FileSource reads an export document from disk.
type FileSource struct {
	Path string
}

// NewFileSource creates a Source reading from the given export file.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Fetch(_ context.Context) ([]RawConversation, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("reading export file: %w", err)
	}

	return DecodeExport(data)
}
