package refterm

// CellFlags is an 8-bit mask of SGR attributes, matching the `m` SGR
// parameter table in §6 (params 1-9, param 6 unused).
type CellFlags uint8

const (
	CellFlagBold CellFlags = 1 << iota
	CellFlagDim
	CellFlagItalic
	CellFlagUnderline
	CellFlagBlink
	CellFlagReverse
	CellFlagInvisible
	CellFlagStrike
)

// GlyphProps is the running style applied to a cell: packed 24-bit RGB
// foreground/background plus an 8-bit flag mask.
//
// Invisible causes the rendered tile index to be the reserved empty tile.
// Reverse swaps fg/bg at cell-write time only; it never mutates GlyphProps
// itself.
type GlyphProps struct {
	FgRGB uint32 // low 24 bits significant
	BgRGB uint32
	Flags CellFlags
}

// DefaultFgRGB and DefaultBgRGB are the colors SGR 0 resets to.
const (
	DefaultFgRGB uint32 = 0xE5E5E5
	DefaultBgRGB uint32 = 0x000000
)

// DefaultGlyphProps returns the reset style: default colors, no flags.
func DefaultGlyphProps() GlyphProps {
	return GlyphProps{FgRGB: DefaultFgRGB, BgRGB: DefaultBgRGB}
}

// HasFlag reports whether the given flag bit is set.
func (p GlyphProps) HasFlag(f CellFlags) bool { return p.Flags&f != 0 }

// PackRGB clamps r, g, b to [0,255] and packs them as 0x00BBGGRR-style
// low-24-bit RGB, matching the original's PackRGB (R in the low byte).
func PackRGB(r, g, b int32) uint32 {
	clamp := func(v int32) uint32 {
		if v < 0 {
			v = 0
		}
		if v > 255 {
			v = 255
		}
		return uint32(v)
	}
	return clamp(r) | clamp(g)<<8 | clamp(b)<<16
}

// RendererCell is the unit the layout pass emits: a glyph tile plus packed
// colors. The top 8 bits of Fg carry the cell's flags so the renderer can
// apply blink/underline at draw time without a second lookup.
type RendererCell struct {
	GlyphIndex TileIndex
	Fg         uint32
	Bg         uint32
}

// TileIndex is an opaque index into the renderer's glyph atlas. Tile 0 is
// reserved as "empty".
type TileIndex uint32

const emptyTile TileIndex = 0

// NewRendererCell packs props and a tile index into a RendererCell,
// applying the Reverse and Invisible invariants from §3.
func NewRendererCell(tile TileIndex, props GlyphProps) RendererCell {
	fg, bg := props.FgRGB, props.BgRGB
	if props.HasFlag(CellFlagReverse) {
		fg, bg = bg, fg
	}
	if props.HasFlag(CellFlagInvisible) {
		tile = emptyTile
	}
	return RendererCell{
		GlyphIndex: tile,
		Fg:         fg | uint32(props.Flags)<<24,
		Bg:         bg,
	}
}
