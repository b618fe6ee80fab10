package raster

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/rs/xid"
)

var (
	ErrInvalidBufferLength = errors.New("invalid buffer length")
	ErrInvalidScale        = errors.New("invalid scale")
	ErrInvalidDimensions   = errors.New("invalid canvas dimensions")
)

type Dimensions struct {
	Width  uint `yaml:"width" json:"width"`
	Height uint `yaml:"height" json:"height"`
}

// BufferLen is the exact byte count of a raw canvas of these dimensions.
func (d Dimensions) BufferLen() int {
	return int(d.Width) * int(d.Height) * 3
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Image is an encoded PNG ready to be uploaded as an attachment.
type Image struct {
	Name   string
	Data   []byte
	Width  int
	Height int
}

func NewName() string {
	return fmt.Sprintf("pixels_mirror_%s.png", xid.New().String())
}

// Decode wraps buf as an unscaled raster without copying it.
func Decode(buf []byte, dims Dimensions) (*RGB, error) {
	if dims.Width == 0 || dims.Height == 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDimensions, dims)
	}
	if len(buf) != dims.BufferLen() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d for %s", ErrInvalidBufferLength, len(buf), dims.BufferLen(), dims)
	}

	r := image.Rect(0, 0, int(dims.Width), int(dims.Height))
	return &RGB{pixels: buf, stride: 3 * r.Dx(), bounds: r}, nil
}

// Rasterize decodes buf, upscales it by scale with nearest-neighbor sampling
// and encodes the result as PNG.
func Rasterize(buf []byte, dims Dimensions, scale int) (*Image, error) {
	if scale < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidScale, scale)
	}

	src, err := Decode(buf, dims)
	if err != nil {
		return nil, err
	}

	return encode(src, scale)
}

func encode(src image.Image, scale int) (*Image, error) {
	w := src.Bounds().Dx() * scale
	h := src.Bounds().Dy() * scale
	scaled := imaging.Resize(src, w, h, imaging.NearestNeighbor)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, scaled, imaging.PNG); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}

	return &Image{
		Name:   NewName(),
		Data:   buf.Bytes(),
		Width:  w,
		Height: h,
	}, nil
}
