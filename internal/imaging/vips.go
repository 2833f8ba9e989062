package imaging

import (
	"fmt"

	"github.com/cshum/vipsgen/vips"
)

// VipsCodec implements Codec on top of libvips. The caller is responsible for
// vips.Startup/vips.Shutdown around the process lifetime.
type VipsCodec struct{}

func NewVipsCodec() *VipsCodec {
	return &VipsCodec{}
}

func (c *VipsCodec) Transcode(data []byte, path string) error {
	image, err := c.loadBuffer(data)
	if err != nil {
		return fmt.Errorf("failed to decode tile: %w", err)
	}
	defer image.Close()

	if err := image.Pngsave(path, vips.DefaultPngsaveOptions()); err != nil {
		return fmt.Errorf("failed to save tile: %w", err)
	}
	return nil
}

// loadBuffer picks the loader matching the sniffed format.
func (c *VipsCodec) loadBuffer(data []byte) (*vips.Image, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return nil, err
	}

	switch format {
	case "png":
		return vips.NewPngloadBuffer(data, vips.DefaultPngloadBufferOptions())
	case "jpeg":
		return vips.NewJpegloadBuffer(data, vips.DefaultJpegloadBufferOptions())
	case "webp":
		return vips.NewWebploadBuffer(data, vips.DefaultWebploadBufferOptions())
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}
}
