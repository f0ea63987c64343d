package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
)

// Decode decodes JPEG, PNG, or WebP bytes into an image.Image.
//
// Arguments:
//   - data: The encoded image bytes.
//
// Returns:
//   - image.Image: The decoded pixel buffer.
//   - Format: The format the bytes were decoded as.
//   - error: An error if the bytes are empty, unrecognized, or corrupt.
func Decode(data []byte) (image.Image, Format, error) {
	if len(data) == 0 {
		return nil, "", errors.New("empty image data")
	}

	format, err := DetectFormat(data)
	if err != nil {
		return nil, "", err
	}

	var img image.Image
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(bytes.NewReader(data))
	case FormatPNG:
		img, err = png.Decode(bytes.NewReader(data))
	case FormatWebP:
		img, err = webp.Decode(bytes.NewReader(data))
	}
	if err != nil {
		return nil, "", errors.Wrapf(err, "failed to decode %s image", format)
	}
	return img, format, nil
}

// Encode encodes a pixel buffer into the given format. Quality is in (0,100]
// and applies to the lossy formats; PNG ignores it.
//
// Arguments:
//   - img: The pixel buffer to encode.
//   - format: The output format.
//   - quality: Lossy encoder quality in (0,100].
//
// Returns:
//   - []byte: The encoded image bytes.
//   - error: An error if the format is unsupported or encoding fails.
func Encode(img image.Image, format Format, quality int) ([]byte, error) {
	if img == nil {
		return nil, errors.New("image is nil")
	}
	if format.Lossy() && (quality <= 0 || quality > 100) {
		return nil, errors.Errorf("invalid quality %d: must be in (0,100]", quality)
	}

	var buf bytes.Buffer
	var err error
	switch format {
	case FormatJPEG:
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	case FormatPNG:
		err = png.Encode(&buf, img)
	case FormatWebP:
		err = webp.Encode(&buf, img, &webp.Options{Quality: float32(quality)})
	default:
		return nil, errors.Errorf("unsupported image format: %s", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to encode %s image", format)
	}
	if buf.Len() == 0 {
		return nil, errors.Errorf("%s encoder produced no output", format)
	}
	return buf.Bytes(), nil
}
