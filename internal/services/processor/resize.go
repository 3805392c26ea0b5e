package processor

import (
	"image"

	"github.com/disintegration/imaging"
)

// fit scales img down to the preview box, keeping its aspect ratio. Smaller
// images are left as they are.
func (p *ImageProcessor) fit(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() <= p.width && b.Dy() <= p.height {
		return img
	}
	return imaging.Fit(img, p.width, p.height, imaging.Lanczos)
}
