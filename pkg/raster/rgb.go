package raster

import (
	"image"
	"image/color"
)

func NewRGB(r image.Rectangle) *RGB {
	return &RGB{
		pixels: make([]byte, 3*r.Dx()*r.Dy()),
		stride: 3 * r.Dx(),
		bounds: r,
	}
}

// RGB is a packed 24 bit raster: row-major, 3 bytes per pixel, no padding
// between rows. It implements the draw.Image interface.
type RGB struct {
	pixels []byte
	stride int
	bounds image.Rectangle
}

func (d *RGB) Bounds() image.Rectangle {
	return d.bounds
}

func (d *RGB) ColorModel() color.Model {
	return color.RGBAModel
}

func (d *RGB) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(d.bounds)) {
		return color.RGBA{}
	}
	i := d.offset(x, y)
	return color.RGBA{R: d.pixels[i], G: d.pixels[i+1], B: d.pixels[i+2], A: 0xFF}
}

// Set drops alpha, the canvas has none.
func (d *RGB) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(d.bounds)) {
		return
	}
	r, g, b, _ := c.RGBA()
	i := d.offset(x, y)
	d.pixels[i] = uint8(r >> 8)
	d.pixels[i+1] = uint8(g >> 8)
	d.pixels[i+2] = uint8(b >> 8)
}

// Pix returns the backing buffer, not a copy.
func (d *RGB) Pix() []byte {
	return d.pixels
}

func (d *RGB) offset(x, y int) int {
	return (y-d.bounds.Min.Y)*d.stride + 3*(x-d.bounds.Min.X)
}
