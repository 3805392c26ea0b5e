package processor

import (
	"image"
	"image/jpeg"
	"io"
)

// encodeJPEG writes img at the processor's quality. Previews are always
// JPEG; transparency is flattened.
func (p *ImageProcessor) encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: p.quality})
}
