package refterm

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ReferenceDisplay is a CPU-side Renderer + Rasterizer pair built on
// golang.org/x/image/font, adapted from the teacher's screenshot.go. It
// exists so tests and the cmd/refterm demo binary can exercise the full
// Renderer/Rasterizer contract (§4.G) without a GPU: it paints glyphs
// into a transfer surface, copies them into an atlas image, and composes
// a final RGBA frame from a cell grid.
//
// It is the one real implementation of the otherwise-contract-only
// external interfaces; no original engineering lives in it.
type ReferenceDisplay struct {
	face           font.Face
	tileW, tileH   int
	atlasCols      int
	atlas          *image.RGBA
	transfer       *image.RGBA
	transferUnitW  int
	lastFrame      *image.RGBA
	lastFirstLineY uint32
}

// NewReferenceDisplay returns a display using face for glyph rendering
// (basicfont.Face7x13 if face is nil) and tileW x tileH pixel tiles.
func NewReferenceDisplay(face font.Face, tileW, tileH int) *ReferenceDisplay {
	if face == nil {
		face = basicfont.Face7x13
	}
	return &ReferenceDisplay{face: face, tileW: tileW, tileH: tileH}
}

// ResizeAtlas allocates the atlas image and pre-paints the reserved
// direct-codepoint table (§3), matching the original's up-front
// rasterization of the ASCII fast path.
func (d *ReferenceDisplay) ResizeAtlas(width, height int) error {
	d.atlasCols = width / d.tileW
	if d.atlasCols == 0 {
		return ErrAtlasTooSmall
	}
	d.atlas = image.NewRGBA(image.Rect(0, 0, width, height))
	for r := rune(DirectCodepointMin); r <= DirectCodepointMax; r++ {
		d.paintGlyphInto(d.atlas, d.tileRect(ReservedTileIndex(r)), r)
	}
	return nil
}

// StageTransferSurface allocates the CPU-side surface the rasterizer
// paints glyphs into before they're transferred to the atlas.
func (d *ReferenceDisplay) StageTransferSurface(width, height int) error {
	d.transfer = image.NewRGBA(image.Rect(0, 0, width, height))
	return nil
}

// AssignTile returns a stable tile index for arena slot id. The glyph
// cache already assigns permanent GPU indices at construction, so this is
// an identity mapping; a real GPU-backed renderer would allocate atlas
// regions here instead.
func (d *ReferenceDisplay) AssignTile(id int) (TileIndex, error) {
	return TileIndex(id), nil
}

// Prepare paints up to tileCount codepoints into consecutive slots of the
// transfer surface.
func (d *ReferenceDisplay) Prepare(codepoints []rune, tileCount int, unitDim Dim) error {
	unitW, unitH := unitDim.W, unitDim.H
	if unitW == 0 {
		unitW = d.tileW
	}
	if unitH == 0 {
		unitH = d.tileH
	}
	d.transferUnitW = unitW
	if d.transfer == nil || d.transfer.Bounds().Dx() < tileCount*unitW {
		d.transfer = image.NewRGBA(image.Rect(0, 0, tileCount*unitW, unitH))
	}
	draw.Draw(d.transfer, d.transfer.Bounds(), image.Transparent, image.Point{}, draw.Src)
	for i := 0; i < tileCount && i < len(codepoints); i++ {
		rect := image.Rect(i*unitW, 0, (i+1)*unitW, unitH)
		d.paintGlyphInto(d.transfer, rect, codepoints[i])
	}
	return nil
}

// Transfer copies the tileIndex'th prepared tile from the transfer
// surface into the atlas slot gpuIndex.
func (d *ReferenceDisplay) Transfer(tileIndex int, gpuIndex TileIndex) error {
	if d.transfer == nil {
		return nil
	}
	unitW := d.transferUnitW
	if unitW == 0 {
		unitW = d.tileW
	}
	src := image.Rect(tileIndex*unitW, 0, (tileIndex+1)*unitW, d.transfer.Bounds().Dy())
	draw.Draw(d.atlas, d.tileRect(gpuIndex), d.transfer, src.Min, draw.Src)
	return nil
}

// DrawFrame composes the final RGBA image for one frame: a background
// fill per cell and the atlas tile used as an alpha mask tinted by the
// cell's foreground color. cursorBlink is not used: blinking cells, the
// cursor included, are drawn like any other cell.
func (d *ReferenceDisplay) DrawFrame(cells []RendererCell, dimX, dimY int, firstLineY uint32, cursorBlink color.Color) error {
	img := image.NewRGBA(image.Rect(0, 0, dimX*d.tileW, dimY*d.tileH))
	for y := 0; y < dimY; y++ {
		for x := 0; x < dimX; x++ {
			cell := cells[y*dimX+x]
			rect := image.Rect(x*d.tileW, y*d.tileH, (x+1)*d.tileW, (y+1)*d.tileH)
			bg := RGBAFromPacked(cell.Bg)
			draw.Draw(img, rect, image.NewUniform(bg), image.Point{}, draw.Src)
			if cell.GlyphIndex == emptyTile {
				continue
			}
			fg := RGBAFromPacked(cell.Fg)
			if CellFlags(cell.Fg>>24)&CellFlagDim != 0 {
				fg = ApplyDim(fg)
			}
			draw.DrawMask(img, rect, image.NewUniform(fg), image.Point{}, d.atlas, d.tileRect(cell.GlyphIndex).Min, draw.Over)
		}
	}
	d.lastFrame = img
	d.lastFirstLineY = firstLineY
	return nil
}

// LastFrame returns the most recently drawn frame, or nil if DrawFrame
// has not been called yet.
func (d *ReferenceDisplay) LastFrame() *image.RGBA { return d.lastFrame }

// WritePNG encodes the most recent frame as a PNG to w.
func (d *ReferenceDisplay) WritePNG(w io.Writer) error {
	if d.lastFrame == nil {
		return nil
	}
	return png.Encode(w, d.lastFrame)
}

func (d *ReferenceDisplay) tileRect(idx TileIndex) image.Rectangle {
	col := int(idx) % d.atlasCols
	row := int(idx) / d.atlasCols
	x0, y0 := col*d.tileW, row*d.tileH
	return image.Rect(x0, y0, x0+d.tileW, y0+d.tileH)
}

func (d *ReferenceDisplay) paintGlyphInto(dst draw.Image, rect image.Rectangle, r rune) {
	metrics := d.face.Metrics()
	baseline := rect.Min.Y + metrics.Ascent.Ceil()
	drawer := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.White),
		Face: d.face,
		Dot:  fixed.P(rect.Min.X, baseline),
	}
	drawer.DrawString(string(r))
}

var (
	_ Renderer   = (*ReferenceDisplay)(nil)
	_ Rasterizer = (*ReferenceDisplay)(nil)
)
