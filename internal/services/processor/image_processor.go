package processor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"
)

const (
	ThumbnailWidth   = 80
	ThumbnailHeight  = 48
	thumbnailQuality = 75
)

// ImageProcessor renders the small previews shown next to each batch item.
type ImageProcessor struct {
	width   int
	height  int
	quality int
	maxSize int64
	logger  *zap.Logger
}

// NewImageProcessor returns a processor that refuses to preview files larger
// than maxSize.
func NewImageProcessor(maxSize int64, logger *zap.Logger) *ImageProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImageProcessor{
		width:   ThumbnailWidth,
		height:  ThumbnailHeight,
		quality: thumbnailQuality,
		maxSize: maxSize,
		logger:  logger,
	}
}

// Thumbnail decodes data, fits it inside the preview box and returns the
// result as a JPEG data URI.
func (p *ImageProcessor) Thumbnail(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to decode image: %w", err)
	}

	thumb := p.fit(img)

	buffer := &bytes.Buffer{}
	if err := p.encodeJPEG(buffer, thumb); err != nil {
		return "", fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buffer.Bytes()), nil
}

// Preview is Thumbnail for callers that treat a missing preview as normal.
func (p *ImageProcessor) Preview(name string, data []byte) string {
	if _, err := p.ValidateImage(data, p.maxSize); err != nil {
		p.logger.Debug("No preview rendered", zap.String("file", name), zap.Error(err))
		return ""
	}
	uri, err := p.Thumbnail(data)
	if err != nil {
		p.logger.Debug("No preview rendered", zap.String("file", name), zap.Error(err))
		return ""
	}
	return uri
}
