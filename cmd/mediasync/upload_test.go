package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cartlab/go-media/compress"
	"github.com/cartlab/go-media/config"
	"github.com/cartlab/go-media/images"
)

func TestMergeCompressConfig(t *testing.T) {
	base := compress.Options{
		CeilingBytes: 300 * 1024,
		MaxAttempts:  compress.DefaultMaxAttempts,
		MaxWidth:     compress.DefaultMaxWidth,
		MaxHeight:    compress.DefaultMaxHeight,
		Format:       images.FormatJPEG,
	}
	fileCfg := config.CompressConfig{
		CeilingKB:   150,
		MaxAttempts: 8,
		MaxWidth:    1280,
		MaxHeight:   720,
		Quality:     0.8,
		Format:      "WebP",
	}

	nothingChanged := func(string) bool { return false }

	t.Run("file values apply over flag defaults", func(t *testing.T) {
		opts := mergeCompressConfig(base, fileCfg, nothingChanged)
		assert.Equal(t, 150*1024, opts.CeilingBytes)
		assert.Equal(t, 8, opts.MaxAttempts)
		assert.Equal(t, 1280, opts.MaxWidth)
		assert.Equal(t, 720, opts.MaxHeight)
		assert.Equal(t, 0.8, opts.StartQuality)
		assert.Equal(t, images.FormatWebP, opts.Format, "the file format is lowercased")
	})

	t.Run("changed flags win over file values", func(t *testing.T) {
		changed := func(name string) bool { return name == "ceiling-kb" || name == "max-attempts" }
		opts := mergeCompressConfig(base, fileCfg, changed)
		assert.Equal(t, 300*1024, opts.CeilingBytes, "an explicit flag beats the file")
		assert.Equal(t, compress.DefaultMaxAttempts, opts.MaxAttempts)
		assert.Equal(t, 1280, opts.MaxWidth, "untouched flags still take the file value")
	})

	t.Run("empty file section leaves the flags alone", func(t *testing.T) {
		opts := mergeCompressConfig(base, config.CompressConfig{}, nothingChanged)
		assert.Equal(t, base, opts)
	})
}
