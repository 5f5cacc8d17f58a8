package snap2print

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"net/http"
	"strings"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder
)

// Image preparation defaults.
const (
	DefaultMaxDimension = 2048
	DefaultJPEGQuality  = 85

	// MaxPixels bounds the decoded size of an input image (about 256MB RGBA).
	MaxPixels = 64 << 20
)

// supportedMIMETypes lists the image types accepted as input.
var supportedMIMETypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// DetectMIME sniffs the content type of image data.
// Returns ErrUnsupportedImage for anything that is not a supported image.
func DetectMIME(data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyImage
	}
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !supportedMIMETypes[mime] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, mime)
	}
	return mime, nil
}

// PreparedImage is an image ready to send to the model.
type PreparedImage struct {
	Data          []byte
	MIMEType      string
	Width, Height int
}

// PrepareImage bounds the longest side of an image to maxDim and re-encodes
// it as JPEG. JPEG input that already fits is returned unchanged.
// maxDim <= 0 uses DefaultMaxDimension, quality <= 0 uses DefaultJPEGQuality.
func PrepareImage(data []byte, maxDim, quality int) (*PreparedImage, error) {
	mime, err := DetectMIME(data)
	if err != nil {
		return nil, err
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultJPEGQuality
	}

	src, err := decodeBounded(data)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), maxDim)
	if mime == "image/jpeg" && w == b.Dx() && h == b.Dy() {
		return &PreparedImage{Data: data, MIMEType: mime, Width: w, Height: h}, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG has no alpha: paint white first so transparent areas don't turn black.
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageEncode, err)
	}
	return &PreparedImage{Data: buf.Bytes(), MIMEType: "image/jpeg", Width: w, Height: h}, nil
}

// decodeBounded decodes data after checking from its header that the pixel
// count stays within MaxPixels.
func decodeBounded(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	return src, nil
}

// fitWithin scales w x h down so neither side exceeds maxDim, keeping the
// aspect ratio. Sizes already within bounds are returned unchanged.
func fitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		nh := h * maxDim / w
		return maxDim, max(nh, 1)
	}
	nw := w * maxDim / h
	return max(nw, 1), maxDim
}

// Rect is a crop rectangle in source pixels.
type Rect struct {
	X, Y, Width, Height int
}

// ParseRect parses "x,y,w,h".
func ParseRect(s string) (Rect, error) {
	var r Rect
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return r, fmt.Errorf("%w: %q (want x,y,width,height)", ErrInvalidCrop, s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		if _, err := fmt.Sscanf(strings.TrimSpace(p), "%d", &vals[i]); err != nil {
			return r, fmt.Errorf("%w: %q: %v", ErrInvalidCrop, s, err)
		}
	}
	return Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// Crop cuts r out of the image, clamped to its bounds. PNG stays PNG, GIF
// stays GIF, everything else is encoded as JPEG.
func Crop(data []byte, r Rect) (*PreparedImage, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("%w: width and height must be positive", ErrInvalidCrop)
	}
	mime, err := DetectMIME(data)
	if err != nil {
		return nil, err
	}

	src, err := decodeBounded(data)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	want := image.Rect(b.Min.X+r.X, b.Min.Y+r.Y, b.Min.X+r.X+r.Width, b.Min.Y+r.Y+r.Height)
	area := want.Intersect(b)
	if area.Empty() {
		return nil, fmt.Errorf("%w: %v lies outside the %dx%d image", ErrInvalidCrop, r, b.Dx(), b.Dy())
	}

	dst := image.NewRGBA(image.Rect(0, 0, area.Dx(), area.Dy()))
	draw.Draw(dst, dst.Bounds(), src, area.Min, draw.Src)

	var buf bytes.Buffer
	switch mime {
	case "image/png":
		err = png.Encode(&buf, dst)
	case "image/gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		mime = "image/jpeg"
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: DefaultJPEGQuality})
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImageEncode, err)
	}
	return &PreparedImage{Data: buf.Bytes(), MIMEType: mime, Width: area.Dx(), Height: area.Dy()}, nil
}
