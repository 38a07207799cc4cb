package refterm

import "image/color"

// DefaultPalette is a 256-entry xterm-style palette. Nothing in this
// package indexes into it: the reference display turns a cell's packed
// RGB into pixels with RGBAFromPacked, and §6's SGR subset only carries
// direct 24-bit RGB.
var DefaultPalette = [256]color.RGBA{
	{0, 0, 0, 255}, {205, 49, 49, 255}, {13, 188, 121, 255}, {229, 229, 16, 255},
	{36, 114, 200, 255}, {188, 63, 188, 255}, {17, 168, 205, 255}, {229, 229, 229, 255},
	{102, 102, 102, 255}, {241, 76, 76, 255}, {35, 209, 139, 255}, {245, 245, 67, 255},
	{59, 142, 234, 255}, {214, 112, 214, 255}, {41, 184, 219, 255}, {255, 255, 255, 255},
}

func init() {
	i := 16
	for r := 0; r < 6; r++ {
		for g := 0; g < 6; g++ {
			for b := 0; b < 6; b++ {
				DefaultPalette[i] = color.RGBA{R: uint8(r * 51), G: uint8(g * 51), B: uint8(b * 51), A: 255}
				i++
			}
		}
	}
	for j := 0; j < 24; j++ {
		gray := uint8(8 + j*10)
		DefaultPalette[232+j] = color.RGBA{R: gray, G: gray, B: gray, A: 255}
	}
}

// RGBAFromPacked unpacks a §3-style 24-bit RGB value (R in the low byte,
// matching PackRGB) into a color.RGBA.
func RGBAFromPacked(rgb uint32) color.RGBA {
	return color.RGBA{
		R: uint8(rgb),
		G: uint8(rgb >> 8),
		B: uint8(rgb >> 16),
		A: 255,
	}
}

// ApplyDim scales a color's intensity to 0.66 of its value, matching the
// original's dim-color rendering.
func ApplyDim(c color.RGBA) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * 0.66),
		G: uint8(float64(c.G) * 0.66),
		B: uint8(float64(c.B) * 0.66),
		A: c.A,
	}
}
