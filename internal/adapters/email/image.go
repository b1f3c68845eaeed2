package email

import (
	"errors"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
)

// WorkshopImageCID is the content ID the HTML bodies reference.
const WorkshopImageCID = "workshop_image"

// LoadInlineImage reads the promotional image for inline embedding. A
// missing file is not an error — emails simply go out without the image.
// PRE: none
// POST: Returns nil, nil when the file does not exist; an error only for
// unreadable files
func LoadInlineImage(path string) (*InlineImage, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return &InlineImage{
		CID:         WorkshopImageCID,
		Filename:    filepath.Base(path),
		ContentType: contentType,
		Content:     data,
	}, nil
}
