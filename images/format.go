package images

import (
	"bytes"

	"github.com/pkg/errors"
)

// Format represents supported image formats.
type Format string

const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG Format = "jpeg"
	// FormatPNG is the PNG image format.
	FormatPNG Format = "png"
	// FormatWebP is the WebP image format.
	FormatWebP Format = "webp"
)

// magic byte prefixes for format sniffing.
var (
	jpegMagic = []byte{0xff, 0xd8, 0xff}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
	riffMagic = []byte("RIFF")
	webpMagic = []byte("WEBP")
)

// DetectFormat sniffs the image format from the leading bytes of data.
//
// Arguments:
//   - data: The encoded image bytes.
//
// Returns:
//   - Format: The detected format.
//   - error: An error if the bytes match no supported format.
func DetectFormat(data []byte) (Format, error) {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return FormatJPEG, nil
	case bytes.HasPrefix(data, pngMagic):
		return FormatPNG, nil
	case bytes.HasPrefix(data, riffMagic) && len(data) >= 12 && bytes.Equal(data[8:12], webpMagic):
		return FormatWebP, nil
	}
	return "", errors.Errorf("unrecognized image format (%d bytes)", len(data))
}

// FormatForExtension maps a file extension (with or without the leading dot)
// to a Format. Returns false if the extension is not a supported image type.
func FormatForExtension(ext string) (Format, bool) {
	switch ext {
	case ".jpg", ".jpeg", "jpg", "jpeg":
		return FormatJPEG, true
	case ".png", "png":
		return FormatPNG, true
	case ".webp", "webp":
		return FormatWebP, true
	}
	return "", false
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	case FormatWebP:
		return "image/webp"
	}
	return "application/octet-stream"
}

// Ext returns the canonical file extension for the format, including the dot.
func (f Format) Ext() string {
	switch f {
	case FormatJPEG:
		return ".jpg"
	case FormatPNG:
		return ".png"
	case FormatWebP:
		return ".webp"
	}
	return ""
}

// Lossy reports whether the format has a quality-parameterized encoder.
func (f Format) Lossy() bool {
	return f == FormatJPEG || f == FormatWebP
}
