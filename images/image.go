// Package images provides the decode, encode, and resize primitives used by
// the catalog media pipeline.
package images

// Image is an encoded image buffer: the bytes of one encode pass together
// with the format and pixel dimensions they decode to.
type Image struct {
	Format Format `json:"format"`
	Data   []byte `json:"data"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Size returns the encoded length in bytes.
func (i Image) Size() int {
	return len(i.Data)
}
