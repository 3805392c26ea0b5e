package processor

import (
	"bytes"
	"fmt"
	"image"
)

// ValidateImage checks that data is within maxSize and decodes as an image
// header. It returns the detected format.
func (p *ImageProcessor) ValidateImage(data []byte, maxSize int64) (string, error) {
	if int64(len(data)) > maxSize {
		return "", fmt.Errorf("file size %d exceeds maximum allowed size %d", len(data), maxSize)
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("invalid image format: %w", err)
	}
	return format, nil
}
