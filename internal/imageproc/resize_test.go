package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestResizeShrinksToFitBox(t *testing.T) {
	r := NewResizer(1600, 900)
	out, err := r.Resize(pngOf(t, 3200, 900))
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if out.Width != 1600 || out.Height != 450 {
		t.Fatalf("expected 1600x450, got %dx%d", out.Width, out.Height)
	}
	if out.Format != "png" {
		t.Fatalf("expected png, got %s", out.Format)
	}
}

func TestResizeNeverUpscales(t *testing.T) {
	r := NewResizer(1600, 900)
	out, err := r.Resize(pngOf(t, 40, 30))
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if out.Width != 40 || out.Height != 30 {
		t.Fatalf("expected 40x30, got %dx%d", out.Width, out.Height)
	}
}

func TestResizeTallImage(t *testing.T) {
	r := NewResizer(1600, 900)
	out, err := r.Resize(pngOf(t, 900, 1800))
	if err != nil {
		t.Fatalf("resize: %v", err)
	}
	if out.Height != 900 || out.Width != 450 {
		t.Fatalf("expected 450x900, got %dx%d", out.Width, out.Height)
	}
}

func TestResizeRejectsGarbage(t *testing.T) {
	if _, err := NewResizer(10, 10).Resize([]byte("not an image")); err == nil {
		t.Fatal("expected error for non-image data")
	}
}

func TestDetectFormatFallback(t *testing.T) {
	if got := DetectFormat([]byte{0x00, 0x01}); got != DefaultFormat {
		t.Fatalf("expected %s, got %s", DefaultFormat, got)
	}
}
