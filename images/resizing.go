package images

import (
	"image"

	"github.com/nfnt/resize"
)

// Downscale resizes a pixel buffer to exactly w x h using Lanczos3
// resampling. Callers are expected to pass dimensions computed by FitWithin;
// no aspect-ratio correction happens here.
//
// Arguments:
//   - img: The pixel buffer to resize.
//   - w: Target width in pixels.
//   - h: Target height in pixels.
//
// Returns:
//   - image.Image: The resized pixel buffer.
func Downscale(img image.Image, w, h int) image.Image {
	return resize.Resize(uint(w), uint(h), img, resize.Lanczos3)
}

// DownscaleToFit bounds a pixel buffer to maxW x maxH preserving aspect
// ratio. If the image already fits it is returned as-is.
//
// Arguments:
//   - img: The pixel buffer to bound.
//   - maxW: Maximum allowed width.
//   - maxH: Maximum allowed height.
//
// Returns:
//   - image.Image: The bounded pixel buffer.
//   - int: The resulting width.
//   - int: The resulting height.
func DownscaleToFit(img image.Image, maxW, maxH int) (image.Image, int, int) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	fw, fh := FitWithin(w, h, maxW, maxH)
	if fw == w && fh == h {
		return img, w, h
	}
	return Downscale(img, fw, fh), fw, fh
}
