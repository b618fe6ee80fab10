// Package textimg maps text onto pixels: every 3 bytes of its UTF-8 encoding
// become one RGB pixel of a single row image.
package textimg

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"pixelmirror/pkg/raster"
)

var ErrEmptyText = errors.New("empty text")

// Pad returns the UTF-8 bytes of text, padded with spaces to a multiple of 3.
func Pad(text string) []byte {
	bs := []byte(text)
	if n := len(bs) % 3; n != 0 {
		bs = append(bs, bytes.Repeat([]byte{' '}, 3-n)...)
	}
	return bs
}

// Colours lists the hex colour of every pixel of padded.
func Colours(padded []byte) []string {
	cs := make([]string, 0, len(padded)/3)
	for i := 0; i+3 <= len(padded); i += 3 {
		cs = append(cs, Hex(padded[i:i+3]))
	}
	return cs
}

func Hex(rgb []byte) string {
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}

// Render encodes text as a PNG, upscaled by scale.
func Render(text string, scale int) (*raster.Image, error) {
	padded := Pad(text)
	if len(padded) == 0 {
		return nil, ErrEmptyText
	}

	img, err := raster.Rasterize(padded, raster.Dimensions{Width: uint(len(padded) / 3), Height: 1}, scale)
	if err != nil {
		return nil, err
	}

	img.Name = FileName(text, scale)
	return img, nil
}

// Sanitize drops everything but letters and digits.
func Sanitize(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return -1
	}, text)
}

func FileName(text string, scale int) string {
	return fmt.Sprintf("%s-utf-8,%dx,(,).png", Sanitize(text), scale)
}
