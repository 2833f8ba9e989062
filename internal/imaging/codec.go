// Package imaging decodes tile images fetched from mirrors and writes them to
// the cache as PNG, the one on-disk format the renderer loads.
package imaging

import (
	"bytes"
	"fmt"
)

// Codec turns a fetched response body into a PNG file on disk. Decoding the
// bytes doubles as validation: a mirror error page or truncated download fails
// here instead of poisoning the cache.
type Codec interface {
	Transcode(data []byte, path string) error
}

// DetectFormat sniffs the image format from the leading magic bytes. Tile
// mirrors serve PNG, JPEG or WebP depending on the source.
func DetectFormat(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")):
		return "png", nil
	case bytes.HasPrefix(data, []byte("\xff\xd8\xff")):
		return "jpeg", nil
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp", nil
	default:
		return "", fmt.Errorf("unsupported image format (%d bytes)", len(data))
	}
}
