// Package imageproc resizes uploaded photos before they are stored.
package imageproc

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp"
)

// DefaultFormat is used when the format of a resized image cannot be detected.
const DefaultFormat = "jpg"

// Resized is the output of a resize.
type Resized struct {
	Data   []byte
	Format string
	Width  int
	Height int
}

// Resizer fits images inside a bounding box without upscaling.
type Resizer struct {
	MaxWidth  int
	MaxHeight int
}

func NewResizer(maxWidth, maxHeight int) *Resizer {
	return &Resizer{MaxWidth: maxWidth, MaxHeight: maxHeight}
}

// encodeFormat picks the output encoding for a decoded source format.
// Sources that imaging cannot encode (webp) are written as jpeg.
func encodeFormat(source string) imaging.Format {
	if f, err := imaging.FormatFromExtension(source); err == nil {
		return f
	}
	return imaging.JPEG
}

// Resize decodes data, shrinks it to fit MaxWidth x MaxHeight keeping the
// aspect ratio, and re-encodes it. Images already inside the box keep
// their dimensions.
func (r *Resizer) Resize(data []byte) (*Resized, error) {
	_, source, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "unsupported image")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode image")
	}

	b := img.Bounds()
	if b.Dx() > r.MaxWidth || b.Dy() > r.MaxHeight {
		img = imaging.Fit(img, r.MaxWidth, r.MaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, encodeFormat(source), imaging.JPEGQuality(85)); err != nil {
		return nil, errors.Wrap(err, "failed to encode image")
	}

	out := img.Bounds()
	return &Resized{
		Data:   buf.Bytes(),
		Format: DetectFormat(buf.Bytes()),
		Width:  out.Dx(),
		Height: out.Dy(),
	}, nil
}

// DetectFormat returns the file extension of an encoded image, or DefaultFormat.
func DetectFormat(data []byte) string {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil || format == "" {
		return DefaultFormat
	}
	if format == "jpeg" {
		return DefaultFormat
	}
	return format
}
