package images

import (
	"github.com/chewxy/math32"
)

// FitWithin computes the largest dimensions that fit inside maxW x maxH while
// preserving the aspect ratio of w x h. Images already inside the bounds are
// returned unchanged; this never upscales.
//
// Arguments:
//   - w: Source width in pixels.
//   - h: Source height in pixels.
//   - maxW: Maximum allowed width.
//   - maxH: Maximum allowed height.
//
// Returns:
//   - int: The fitted width.
//   - int: The fitted height.
func FitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 || maxW <= 0 || maxH <= 0 {
		return w, h
	}
	if w <= maxW && h <= maxH {
		return w, h
	}

	scale := math32.Min(float32(maxW)/float32(w), float32(maxH)/float32(h))
	fw := int(math32.Round(float32(w) * scale))
	fh := int(math32.Round(float32(h) * scale))
	if fw < 1 {
		fw = 1
	}
	if fh < 1 {
		fh = 1
	}
	return fw, fh
}

// AspectRatio returns the width/height ratio as a float32. Zero height yields
// zero rather than an infinity.
func AspectRatio(w, h int) float32 {
	if h == 0 {
		return 0
	}
	return float32(w) / float32(h)
}
