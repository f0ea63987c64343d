package util

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/cartlab/go-media/images"
)

// ImageFile represents an image file staged for upload.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Format is the format implied by the file extension.
	Format images.Format
}

// LoadDirectoryImageFiles reads all image files from a directory, sorted by
// file name. Files with non-image extensions and subdirectories are ignored.
//
// Arguments:
//   - dir: Directory path containing image files.
//
// Returns:
//   - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
//   - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var loaded []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		format, ok := images.FormatForExtension(filepath.Ext(file.Name()))
		if !ok {
			continue
		}

		imgPath := filepath.Join(dir, file.Name())
		data, readErr := os.ReadFile(imgPath)
		if readErr != nil {
			return nil, readErr
		}
		loaded = append(loaded, ImageFile{
			Path:   imgPath,
			Data:   data,
			Format: format,
		})
	}

	sort.Slice(loaded, func(i, j int) bool {
		return loaded[i].Path < loaded[j].Path
	})

	return loaded, nil
}
