package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/erazemk/eventify/internal/model"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func testJPEG(w, h int) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, solid(w, h, color.RGBA{255, 0, 0, 255}), &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func testPNG(w, h int) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, solid(w, h, color.RGBA{0, 0, 255, 255}))
	return buf.Bytes()
}

func TestNormalizePhoto(t *testing.T) {
	tests := []struct {
		name  string
		data  []byte
		wantW int
		wantH int
	}{
		{"jpeg", testJPEG(100, 80), 100, 80},
		{"png becomes jpeg", testPNG(60, 60), 60, 60},
		{"wide photo", testJPEG(2048, 1024), 1024, 512},
		{"tall photo", testPNG(500, 2000), 256, 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NormalizePhoto(bytes.NewReader(tt.data))
			if err != nil {
				t.Fatalf("NormalizePhoto: %v", err)
			}
			if p.MIME != "image/jpeg" {
				t.Errorf("expected image/jpeg, got %s", p.MIME)
			}
			if p.Width != tt.wantW || p.Height != tt.wantH {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantW, tt.wantH, p.Width, p.Height)
			}

			img, _, err := image.Decode(bytes.NewReader(p.Data))
			if err != nil {
				t.Fatalf("decoding result: %v", err)
			}
			if b := img.Bounds(); b.Dx() != tt.wantW || b.Dy() != tt.wantH {
				t.Errorf("stored image is %dx%d", b.Dx(), b.Dy())
			}
		})
	}
}

func TestNormalizePhotoRejects(t *testing.T) {
	tests := map[string][]byte{
		"text":      []byte("not an image"),
		"gif":       []byte("GIF89a..."),
		"truncated": testPNG(10, 10)[:20],
	}

	for name, data := range tests {
		_, err := NormalizePhoto(bytes.NewReader(data))
		var verr *model.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("%s: expected ValidationError, got %v", name, err)
		}
	}
}

func TestNormalizePhotoTooLarge(t *testing.T) {
	data := make([]byte, MaxUpload+10)
	copy(data, testJPEG(10, 10))

	_, err := NormalizePhoto(bytes.NewReader(data))
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}
