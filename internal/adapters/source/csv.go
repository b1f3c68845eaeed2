package source

import (
	"context"
	"fmt"
	"os"

	"remindbot/internal/domain/registrant"
)

// FileSource reads registrants from a local CSV export.
type FileSource struct {
	path    string
	mapping Mapping
}

// NewFileSource creates a source backed by a CSV file.
// PRE: mapping has been validated
// POST: Returns a source; the file is opened on each Rows call, not here
func NewFileSource(path string, mapping Mapping) *FileSource {
	return &FileSource{path: path, mapping: mapping}
}

// Rows re-reads the whole file and returns the parseable registrants.
func (s *FileSource) Rows(_ context.Context) ([]registrant.Registrant, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open registrant sheet %s: %w", s.path, err)
	}
	defer f.Close()
	return decodeCSV(f, s.mapping)
}
