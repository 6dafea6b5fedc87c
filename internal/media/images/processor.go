package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log/slog"
	"net/http"
	"slices"

	"golang.org/x/image/draw"
)

// Defaults for flavor photos.
const (
	DefaultMaxDimension = 1200
	DefaultQuality      = 85
)

// ErrNotAnImage is returned for uploads that are not a JPEG, PNG, GIF or WebP image.
var ErrNotAnImage = errors.New("not a JPEG, PNG, GIF or WebP image")

// imageContentTypes are the sniffed types accepted as photos.
var imageContentTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// ContentType returns the sniffed image type of data, or ErrNotAnImage when
// it is not one of the accepted formats.
func ContentType(data []byte) (string, error) {
	ct := http.DetectContentType(data)
	if !slices.Contains(imageContentTypes, ct) {
		return "", ErrNotAnImage
	}
	return ct, nil
}

// Result is a processed photo ready to be stored.
type Result struct {
	Data     []byte
	BlurHash string
	Width    int
	Height   int
	// Processed is false when a recognised image is passed through
	// because it could not be decoded or re-encoded.
	Processed bool
}

// Processor normalizes uploaded flavor photos: it fits them within a square
// bounding box, flattens transparency onto white and re-encodes as JPEG.
type Processor struct {
	logger       *slog.Logger
	maxDimension int
	quality      int
}

// NewProcessor creates a Processor. Non-positive settings fall back to the defaults.
func NewProcessor(maxDimension, quality int, logger *slog.Logger) *Processor {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{logger: logger, maxDimension: maxDimension, quality: quality}
}

// Process converts raw upload bytes. Empty input and anything whose header
// is not a JPEG, PNG, GIF or WebP image fail with ErrNotAnImage. A recognised
// image that then fails to decode or encode is logged and the original bytes
// come back with Processed=false.
func (p *Processor) Process(data []byte, filename string) (*Result, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("image data cannot be empty: %w", ErrNotAnImage)
	}
	if _, err := ContentType(data); err != nil {
		return nil, err
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnImage, err)
	}

	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		p.logger.Warn("photo could not be decoded, storing original",
			"filename", filename,
			"size", len(data),
			"error", err,
		)
		return &Result{Data: data}, nil
	}

	fitted := p.fit(src)
	flat := flatten(fitted)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flat, &jpeg.Options{Quality: p.quality}); err != nil {
		p.logger.Warn("photo could not be encoded, storing original",
			"filename", filename,
			"format", format,
			"error", err,
		)
		return &Result{Data: data}, nil
	}

	hash, err := BlurHash(flat)
	if err != nil {
		p.logger.Warn("blurhash failed", "filename", filename, "error", err)
	}

	b := flat.Bounds()
	p.logger.Debug("photo processed",
		"filename", filename,
		"format", format,
		"original_size", len(data),
		"size", buf.Len(),
		"width", b.Dx(),
		"height", b.Dy(),
	)

	return &Result{
		Data:      buf.Bytes(),
		BlurHash:  hash,
		Width:     b.Dx(),
		Height:    b.Dy(),
		Processed: true,
	}, nil
}

// fit scales img down (never up) to fit within maxDimension on both axes.
func (p *Processor) fit(img image.Image) image.Image {
	b := img.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), p.maxDimension)
	if w == b.Dx() && h == b.Dy() {
		return img
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// fitWithin returns w×h scaled to fit a max×max box, keeping the aspect ratio.
func fitWithin(w, h, maxDim int) (int, int) {
	if w <= maxDim && h <= maxDim {
		return w, h
	}
	if w >= h {
		return maxDim, max(1, h*maxDim/w)
	}
	return max(1, w*maxDim/h), maxDim
}

// flatten draws img over an opaque white background; JPEG has no alpha.
func flatten(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
