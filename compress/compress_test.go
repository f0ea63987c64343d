package compress

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartlab/go-media/images"
)

// gradientImage is cheap to encode and compresses well at any quality.
func gradientImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 90,
				A: 255,
			})
		}
	}
	return img
}

// noiseImage resists compression, keeping output sizes large at any quality.
func noiseImage(w, h int) image.Image {
	rng := rand.New(rand.NewSource(1))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(rng.Intn(256)),
				G: uint8(rng.Intn(256)),
				B: uint8(rng.Intn(256)),
				A: 255,
			})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, img image.Image, quality int) []byte {
	var buf bytes.Buffer
	err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReencodeLargeImageFitsCeiling(t *testing.T) {
	src := encodeJPEG(t, gradientImage(4000, 3000), 100)
	ceiling := 300 * 1024

	res, err := Reencode(src, Options{CeilingBytes: ceiling, MaxAttempts: 5})
	require.NoError(t, err, "Reencode should not error for a valid large image")

	limit := int(float64(ceiling) * 1.1)
	assert.True(t, res.WithinCeiling, "output should fit the ceiling within tolerance")
	assert.LessOrEqual(t, res.Output.Size(), limit, "output should be at most ceiling x 1.1")
	assert.LessOrEqual(t, res.Attempts, 5, "attempt budget must be respected")
	assert.LessOrEqual(t, res.Output.Width, 1920, "width should be bounded")
	assert.LessOrEqual(t, res.Output.Height, 1080, "height should be bounded")
	// 4000x3000 bounded by 1920x1080 lands on 1440x1080.
	assert.Equal(t, 1440, res.Output.Width, "aspect ratio should be preserved by the resize")
	assert.Equal(t, 1080, res.Output.Height, "height should hit the bound")
}

func TestReencodeSmallImageSingleAttempt(t *testing.T) {
	src := encodeJPEG(t, gradientImage(1500, 1200), 90)

	res, err := Reencode(src, Options{CeilingBytes: 500 * 1024})
	require.NoError(t, err, "Reencode should not error for a small image")

	assert.Equal(t, 1, res.Attempts, "an image under the ceiling needs exactly one attempt")
	assert.Equal(t, DefaultStartQuality, res.Quality, "first attempt uses the start quality")
	assert.True(t, res.WithinCeiling, "output should be within the ceiling")
	assert.Equal(t, 1500, res.Output.Width, "width must not change for an image inside the bounds")
	assert.Equal(t, 1200, res.Output.Height, "height must not change for an image inside the bounds")
}

func TestReencodeCorruptInput(t *testing.T) {
	res, err := Reencode([]byte("not an image at all"), Options{CeilingBytes: 1024})
	assert.Nil(t, res, "result should be nil on decode failure")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode, "corrupt input must surface as a decode failure")
	assert.NotErrorIs(t, err, ErrEncode, "decode failure must not be reported as an encode failure")

	// Valid magic bytes with a truncated body fail the same way.
	res, err = Reencode([]byte{0xff, 0xd8, 0xff, 0x00}, Options{CeilingBytes: 1024})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestReencodeCeilingUnreachable(t *testing.T) {
	src := encodeJPEG(t, noiseImage(400, 300), 95)

	res, err := Reencode(src, Options{CeilingBytes: 64, MaxAttempts: 4})
	require.NoError(t, err, "an unreachable ceiling is a best-effort result, not an error")

	assert.False(t, res.WithinCeiling, "output above the ceiling must be flagged")
	assert.Equal(t, 4, res.Attempts, "all attempts should be spent before giving up")
	assert.Greater(t, res.Output.Size(), 64, "noise cannot fit a 64-byte ceiling")
	assert.NotEmpty(t, res.Output.Data, "the best attempt is still returned")
}

func TestReencodeKeepsSmallestAttempt(t *testing.T) {
	src := encodeJPEG(t, noiseImage(300, 200), 95)

	res, err := Reencode(src, Options{CeilingBytes: 1, MaxAttempts: 5})
	require.NoError(t, err)

	// The returned quality must belong to the smallest output, which for a
	// decreasing quality schedule is one of the later attempts.
	assert.Less(t, res.Quality, DefaultStartQuality, "best attempt should not be the first at quality 0.9")
	assert.Equal(t, 5, res.Attempts)
}

func TestReencodeIdempotentWithinCeiling(t *testing.T) {
	src := encodeJPEG(t, gradientImage(2400, 1800), 95)
	opts := Options{CeilingBytes: 200 * 1024}

	first, err := Reencode(src, opts)
	require.NoError(t, err)
	require.True(t, first.WithinCeiling)

	second, err := Reencode(first.Output.Data, opts)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Attempts, "a result already within the ceiling re-encodes in one attempt")
	assert.True(t, second.WithinCeiling)
	assert.Equal(t, first.Output.Width, second.Output.Width, "dimensions are already inside the bounds")
	assert.Equal(t, first.Output.Height, second.Output.Height, "dimensions are already inside the bounds")
}

func TestReencodeWebPOutput(t *testing.T) {
	src := encodeJPEG(t, gradientImage(800, 600), 90)

	res, err := Reencode(src, Options{CeilingBytes: 500 * 1024, Format: images.FormatWebP})
	require.NoError(t, err)

	format, err := images.DetectFormat(res.Output.Data)
	require.NoError(t, err)
	assert.Equal(t, images.FormatWebP, format, "output should be WebP when requested")
	assert.Equal(t, images.FormatWebP, res.Output.Format)
}

func TestReencodeOptionValidation(t *testing.T) {
	src := encodeJPEG(t, gradientImage(100, 100), 90)

	tests := []struct {
		name string
		opts Options
	}{
		{name: "missing ceiling", opts: Options{}},
		{name: "negative ceiling", opts: Options{CeilingBytes: -1}},
		{name: "negative attempts", opts: Options{CeilingBytes: 1024, MaxAttempts: -2}},
		{name: "quality above one", opts: Options{CeilingBytes: 1024, StartQuality: 1.5}},
		{name: "decay of one", opts: Options{CeilingBytes: 1024, QualityDecay: 1.0}},
		{name: "lossless output format", opts: Options{CeilingBytes: 1024, Format: images.FormatPNG}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Reencode(src, tt.opts)
			assert.Error(t, err, "invalid options must be rejected")
			assert.Nil(t, res)
		})
	}
}

func TestToleranceDefaults(t *testing.T) {
	assert.Equal(t, DefaultTolerance, Options{}.withDefaults().Tolerance,
		"zero tolerance hydrates to the default")
	assert.Equal(t, 0.0, Options{Tolerance: -1}.withDefaults().Tolerance,
		"negative tolerance requests a strict ceiling")
	assert.Equal(t, 0.05, Options{Tolerance: 0.05}.withDefaults().Tolerance,
		"explicit tolerance is kept")
}

func TestReencodeStrictTolerance(t *testing.T) {
	src := encodeJPEG(t, noiseImage(200, 150), 95)

	res, err := Reencode(src, Options{CeilingBytes: 100, MaxAttempts: 2, Tolerance: -1})
	require.NoError(t, err, "a strict ceiling is still best-effort, not an error")
	assert.False(t, res.WithinCeiling, "noise cannot fit a 100-byte ceiling")
	assert.Greater(t, res.Output.Size(), 100, "the flag must reflect the exact ceiling, not ceiling x 1.1")
}

func TestEncoderQuality(t *testing.T) {
	assert.Equal(t, 90, encoderQuality(0.9))
	assert.Equal(t, 63, encoderQuality(0.63))
	assert.Equal(t, 1, encoderQuality(0.001), "quality floor is 1")
	assert.Equal(t, 100, encoderQuality(1.0))
}
