package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartlab/go-media/images"
)

func TestLoadDirectoryImageFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(name string, data []byte) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
	}
	write("b-mug.jpg", []byte("jpg-bytes"))
	write("a-hat.png", []byte("png-bytes"))
	write("c-scarf.webp", []byte("webp-bytes"))
	write("notes.txt", []byte("not an image"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	files, err := LoadDirectoryImageFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3, "only image files should be loaded")

	// Name-sorted order.
	assert.Equal(t, filepath.Join(dir, "a-hat.png"), files[0].Path)
	assert.Equal(t, images.FormatPNG, files[0].Format)
	assert.Equal(t, []byte("png-bytes"), files[0].Data)
	assert.Equal(t, images.FormatJPEG, files[1].Format)
	assert.Equal(t, images.FormatWebP, files[2].Format)
}

func TestLoadDirectoryImageFilesMissingDir(t *testing.T) {
	_, err := LoadDirectoryImageFiles(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestLoadDirectoryImageFilesEmpty(t *testing.T) {
	files, err := LoadDirectoryImageFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, files)
}
