package snap2print

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(w, h)); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func encodeGIF(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := gif.Encode(&buf, testImage(w, h), nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDetectMIME(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		want    string
		wantErr error
	}{
		{"png", encodePNG(t, 4, 4), "image/png", nil},
		{"jpeg", encodeJPEG(t, 4, 4), "image/jpeg", nil},
		{"gif", encodeGIF(t, 4, 4), "image/gif", nil},
		{"text", []byte("hello, world"), "", ErrUnsupportedImage},
		{"pdf", []byte("%PDF-1.7\n"), "", ErrUnsupportedImage},
		{"empty", nil, "", ErrEmptyImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := DetectMIME(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("DetectMIME() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("DetectMIME() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrepareImage(t *testing.T) {
	t.Parallel()

	t.Run("large png is resized and converted to jpeg", func(t *testing.T) {
		t.Parallel()

		got, err := PrepareImage(encodePNG(t, 400, 200), 100, 80)
		if err != nil {
			t.Fatalf("PrepareImage() error = %v", err)
		}
		if got.MIMEType != "image/jpeg" || got.Width != 100 || got.Height != 50 {
			t.Errorf("PrepareImage() = %s %dx%d, want image/jpeg 100x50", got.MIMEType, got.Width, got.Height)
		}
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(got.Data))
		if err != nil {
			t.Fatalf("output is not JPEG: %v", err)
		}
		if cfg.Width != 100 || cfg.Height != 50 {
			t.Errorf("encoded size = %dx%d", cfg.Width, cfg.Height)
		}
	})

	t.Run("small jpeg passes through unchanged", func(t *testing.T) {
		t.Parallel()

		data := encodeJPEG(t, 50, 60)
		got, err := PrepareImage(data, 100, 0)
		if err != nil {
			t.Fatalf("PrepareImage() error = %v", err)
		}
		if !bytes.Equal(got.Data, data) {
			t.Error("in-bounds JPEG was re-encoded")
		}
	})

	t.Run("small png is re-encoded without resizing", func(t *testing.T) {
		t.Parallel()

		got, err := PrepareImage(encodePNG(t, 30, 40), 0, 0)
		if err != nil {
			t.Fatalf("PrepareImage() error = %v", err)
		}
		if got.MIMEType != "image/jpeg" || got.Width != 30 || got.Height != 40 {
			t.Errorf("PrepareImage() = %s %dx%d", got.MIMEType, got.Width, got.Height)
		}
	})

	t.Run("unsupported data", func(t *testing.T) {
		t.Parallel()

		if _, err := PrepareImage([]byte("not an image"), 0, 0); !errors.Is(err, ErrUnsupportedImage) {
			t.Errorf("PrepareImage() error = %v, want ErrUnsupportedImage", err)
		}
	})

	t.Run("truncated png", func(t *testing.T) {
		t.Parallel()

		data := encodePNG(t, 20, 20)
		if _, err := PrepareImage(data[:40], 0, 0); !errors.Is(err, ErrImageDecode) {
			t.Errorf("PrepareImage() error = %v, want ErrImageDecode", err)
		}
	})
}

// pngHeader returns a PNG signature and IHDR chunk declaring w x h pixels,
// with no image data behind it.
func pngHeader(w, h uint32) []byte {
	var ihdr [13]byte
	binary.BigEndian.PutUint32(ihdr[0:4], w)
	binary.BigEndian.PutUint32(ihdr[4:8], h)
	ihdr[8] = 8 // bit depth
	ihdr[9] = 2 // truecolor

	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	chunk := append([]byte("IHDR"), ihdr[:]...)
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func TestDecodeBounded_RejectsOversizedImages(t *testing.T) {
	t.Parallel()

	huge := pngHeader(100000, 100000)

	if _, err := PrepareImage(huge, 0, 0); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("PrepareImage() error = %v, want ErrImageTooLarge", err)
	}
	if _, err := Crop(huge, Rect{Width: 10, Height: 10}); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Crop() error = %v, want ErrImageTooLarge", err)
	}
	if _, err := PrepareImage(encodePNG(t, 40, 30), 0, 0); err != nil {
		t.Errorf("PrepareImage() small image error = %v", err)
	}
}

func TestFitWithin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		w, h, max    int
		wantW, wantH int
	}{
		{100, 50, 200, 100, 50},
		{400, 200, 100, 100, 50},
		{200, 400, 100, 50, 100},
		{300, 300, 100, 100, 100},
		{10000, 1, 100, 100, 1},
	}
	for _, tt := range tests {
		w, h := fitWithin(tt.w, tt.h, tt.max)
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("fitWithin(%d, %d, %d) = %d, %d; want %d, %d", tt.w, tt.h, tt.max, w, h, tt.wantW, tt.wantH)
		}
	}
}

func TestParseRect(t *testing.T) {
	t.Parallel()

	got, err := ParseRect("10, 20,300,400")
	if err != nil {
		t.Fatalf("ParseRect() error = %v", err)
	}
	if got != (Rect{X: 10, Y: 20, Width: 300, Height: 400}) {
		t.Errorf("ParseRect() = %+v", got)
	}

	for _, bad := range []string{"", "1,2,3", "1,2,3,4,5", "a,b,c,d"} {
		if _, err := ParseRect(bad); !errors.Is(err, ErrInvalidCrop) {
			t.Errorf("ParseRect(%q) error = %v, want ErrInvalidCrop", bad, err)
		}
	}
}

func TestCrop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     []byte
		rect     Rect
		wantMIME string
		wantW    int
		wantH    int
		wantErr  error
	}{
		{"png inside", encodePNG(t, 100, 80), Rect{10, 10, 30, 20}, "image/png", 30, 20, nil},
		{"png clamped", encodePNG(t, 100, 80), Rect{90, 70, 50, 50}, "image/png", 10, 10, nil},
		{"jpeg stays jpeg", encodeJPEG(t, 100, 80), Rect{0, 0, 50, 40}, "image/jpeg", 50, 40, nil},
		{"gif stays gif", encodeGIF(t, 40, 40), Rect{0, 0, 20, 20}, "image/gif", 20, 20, nil},
		{"outside", encodePNG(t, 100, 80), Rect{200, 200, 10, 10}, "", 0, 0, ErrInvalidCrop},
		{"zero size", encodePNG(t, 100, 80), Rect{0, 0, 0, 10}, "", 0, 0, ErrInvalidCrop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Crop(tt.data, tt.rect)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Crop() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got.MIMEType != tt.wantMIME || got.Width != tt.wantW || got.Height != tt.wantH {
				t.Errorf("Crop() = %s %dx%d, want %s %dx%d", got.MIMEType, got.Width, got.Height, tt.wantMIME, tt.wantW, tt.wantH)
			}
			cfg, _, err := image.DecodeConfig(bytes.NewReader(got.Data))
			if err != nil {
				t.Fatalf("cropped data does not decode: %v", err)
			}
			if cfg.Width != tt.wantW || cfg.Height != tt.wantH {
				t.Errorf("decoded size = %dx%d", cfg.Width, cfg.Height)
			}
		})
	}
}
