// Package compress implements adaptive image re-encoding against a byte-size
// ceiling. It retries the encode step at geometrically decreasing quality
// factors until the output fits the ceiling or an attempt budget runs out.
package compress

import (
	"math"

	"github.com/pkg/errors"

	"github.com/cartlab/go-media/images"
)

// Defaults applied by Options.withDefaults for zero-valued fields.
const (
	// DefaultStartQuality is the quality factor of the first encode attempt.
	DefaultStartQuality = 0.9
	// DefaultQualityDecay multiplies the quality factor between attempts.
	DefaultQualityDecay = 0.7
	// DefaultTolerance is the allowed overshoot fraction above the ceiling.
	DefaultTolerance = 0.10
	// DefaultMaxAttempts bounds the number of encode attempts.
	DefaultMaxAttempts = 5
	// DefaultMaxWidth bounds the output width in pixels.
	DefaultMaxWidth = 1920
	// DefaultMaxHeight bounds the output height in pixels.
	DefaultMaxHeight = 1080
)

var (
	// ErrDecode indicates the input bytes could not be decoded. Decoding is
	// never retried.
	ErrDecode = errors.New("image decode failed")
	// ErrEncode indicates no encode attempt produced output.
	ErrEncode = errors.New("image encode failed")
)

// Options configures a re-encode run. The zero value is usable: every field
// left at zero is replaced with the package default.
type Options struct {
	// CeilingBytes is the target maximum output size in bytes. Required.
	CeilingBytes int
	// MaxAttempts bounds the number of encode attempts.
	MaxAttempts int
	// StartQuality is the quality factor in (0,1] of the first attempt.
	StartQuality float64
	// QualityDecay is the per-attempt multiplier in (0,1) applied to the
	// quality factor.
	QualityDecay float64
	// Tolerance is the overshoot fraction above CeilingBytes still counted
	// as a success. Zero means "use the default"; pass a negative value for
	// a strict ceiling with no overshoot allowed.
	Tolerance float64
	// MaxWidth and MaxHeight bound the output dimensions. The image is
	// downscaled once, before the first attempt, and the dimensions stay
	// fixed for the rest of the run.
	MaxWidth  int
	MaxHeight int
	// Format is the output format. Defaults to JPEG.
	Format images.Format
}

// Result is the outcome of a re-encode run.
type Result struct {
	// Output is the best (smallest) encoded buffer produced.
	Output images.Image
	// OriginalBytes is the input size.
	OriginalBytes int
	// Quality is the quality factor of the returned attempt.
	Quality float64
	// Attempts is the number of encode attempts performed.
	Attempts int
	// WithinCeiling reports whether the output fit the ceiling within
	// tolerance. False means best-effort: the caller decides acceptability.
	WithinCeiling bool
}

func (o Options) withDefaults() Options {
	if o.MaxAttempts == 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.StartQuality == 0 {
		o.StartQuality = DefaultStartQuality
	}
	if o.QualityDecay == 0 {
		o.QualityDecay = DefaultQualityDecay
	}
	if o.Tolerance == 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Tolerance < 0 {
		// Strict ceiling requested.
		o.Tolerance = 0
	}
	if o.MaxWidth == 0 {
		o.MaxWidth = DefaultMaxWidth
	}
	if o.MaxHeight == 0 {
		o.MaxHeight = DefaultMaxHeight
	}
	if o.Format == "" {
		o.Format = images.FormatJPEG
	}
	return o
}

func (o Options) validate() error {
	if o.CeilingBytes <= 0 {
		return errors.Errorf("ceiling must be positive, got %d", o.CeilingBytes)
	}
	if o.MaxAttempts < 1 {
		return errors.Errorf("max attempts must be at least 1, got %d", o.MaxAttempts)
	}
	if o.StartQuality <= 0 || o.StartQuality > 1 {
		return errors.Errorf("start quality must be in (0,1], got %v", o.StartQuality)
	}
	if o.QualityDecay <= 0 || o.QualityDecay >= 1 {
		return errors.Errorf("quality decay must be in (0,1), got %v", o.QualityDecay)
	}
	if !o.Format.Lossy() {
		return errors.Errorf("output format %s has no quality parameter", o.Format)
	}
	return nil
}

// encoderQuality converts a quality factor in (0,1] to the 1-100 scale the
// encoders take.
func encoderQuality(q float64) int {
	n := int(math.Round(q * 100))
	if n < 1 {
		n = 1
	}
	if n > 100 {
		n = 100
	}
	return n
}

// Reencode decodes data, bounds its dimensions, and encodes it at decreasing
// quality factors until the output fits CeilingBytes within tolerance or
// MaxAttempts is exhausted. The smallest output seen is returned either way;
// Result.WithinCeiling distinguishes the two outcomes. A failed decode is
// fatal and never retried.
//
// Arguments:
//   - data: The encoded source image.
//   - opts: Run configuration; zero fields take package defaults.
//
// Returns:
//   - *Result: The best output produced.
//   - error: ErrDecode, ErrEncode, or an option validation error.
func Reencode(data []byte, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	img, _, err := images.Decode(data)
	if err != nil {
		return nil, errors.Wrap(ErrDecode, err.Error())
	}

	// Dimensions are fixed after this single downscale; only quality varies
	// across attempts.
	img, width, height := images.DownscaleToFit(img, opts.MaxWidth, opts.MaxHeight)

	limit := int(float64(opts.CeilingBytes) * (1 + opts.Tolerance))
	quality := opts.StartQuality

	var (
		best        []byte
		bestQuality float64
		attempts    int
		lastErr     error
	)
	for attempts < opts.MaxAttempts {
		attempts++

		out, encErr := images.Encode(img, opts.Format, encoderQuality(quality))
		if encErr != nil {
			lastErr = encErr
		} else if best == nil || len(out) < len(best) {
			// Keep the smallest output seen: encoders are not strictly
			// monotonic in quality, so a reduction step may not shrink the
			// result.
			best = out
			bestQuality = quality
		}
		if best != nil && len(best) <= limit {
			break
		}
		quality *= opts.QualityDecay
	}

	if best == nil {
		if lastErr != nil {
			return nil, errors.Wrap(ErrEncode, lastErr.Error())
		}
		return nil, ErrEncode
	}

	return &Result{
		Output: images.Image{
			Format: opts.Format,
			Data:   best,
			Width:  width,
			Height: height,
		},
		OriginalBytes: len(data),
		Quality:       bestQuality,
		Attempts:      attempts,
		WithinCeiling: len(best) <= limit,
	}, nil
}
