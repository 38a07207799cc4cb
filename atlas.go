package refterm

import "fmt"

// DefaultAtlasWidth and DefaultAtlasHeight are the tunables from §6.
const (
	DefaultAtlasWidth  = 2048
	DefaultAtlasHeight = 2048
)

// DirectCodepointMin and DirectCodepointMax bound the reserved tile table:
// every codepoint in this inclusive range gets a pre-rasterized tile whose
// index never changes for the lifetime of the font.
const (
	DirectCodepointMin = 32
	DirectCodepointMax = 126
)

// ReservedTileCount is the size of the reserved tile table.
const ReservedTileCount = DirectCodepointMax - DirectCodepointMin + 1

// IsDirectCodepoint reports whether r falls in the reserved ASCII range.
func IsDirectCodepoint(r rune) bool {
	return r >= DirectCodepointMin && r <= DirectCodepointMax
}

// ReservedTileIndex returns the fixed tile for a direct codepoint. Tile 0
// is reserved as "empty" (for Invisible cells), so the direct table
// starts at tile 1.
func ReservedTileIndex(r rune) TileIndex {
	return TileIndex(1 + int(r) - DirectCodepointMin)
}

// Atlas tracks how much of the renderer's glyph atlas is committed, in
// tile units, against a configurable budget. It owns no pixels itself —
// those live behind the Renderer contract — it only accounts for how many
// tiles are spoken for, the way the original's ImageManager-equivalent
// tracked image memory against a budget.
//
// Ownership is exclusive per frame: the core writes tiles, then hands the
// atlas to the renderer to draw; enforcement is ordering; Atlas holds no
// lock.
type Atlas struct {
	widthPx, heightPx int
	tileWidthPx       int
	tileHeightPx      int
	maxTiles          int
	usedTiles         int
}

// NewAtlas sizes an atlas of widthPx x heightPx pixels, carved into tiles
// of tileWidthPx x tileHeightPx. ReservedTileCount tiles are pre-claimed
// for the direct-codepoint table plus the empty tile.
func NewAtlas(widthPx, heightPx, tileWidthPx, tileHeightPx int) (*Atlas, error) {
	if tileWidthPx <= 0 || tileHeightPx <= 0 {
		return nil, fmt.Errorf("refterm: invalid tile size %dx%d", tileWidthPx, tileHeightPx)
	}
	cols := widthPx / tileWidthPx
	rows := heightPx / tileHeightPx
	maxTiles := cols * rows
	if maxTiles <= ReservedTileCount+1 {
		return nil, ErrAtlasTooSmall
	}
	return &Atlas{
		widthPx:      widthPx,
		heightPx:     heightPx,
		tileWidthPx:  tileWidthPx,
		tileHeightPx: tileHeightPx,
		maxTiles:     maxTiles,
		usedTiles:    ReservedTileCount + 1, // + empty tile
	}, nil
}

// EntryCount is how many glyph-cache arena entries fit once the reserved
// and empty tiles are subtracted — exactly enough for the glyph cache to
// cover the remaining atlas tiles once each (§4.E).
func (a *Atlas) EntryCount() int { return a.maxTiles - a.usedTiles }

// FirstHashedTileIndex is the first GPU tile index available to the
// glyph cache's arena, one past the reserved table and the empty tile.
func (a *Atlas) FirstHashedTileIndex() TileIndex { return TileIndex(a.usedTiles) }

// UsedTiles and MaxTiles report current accounting.
func (a *Atlas) UsedTiles() int { return a.usedTiles }
func (a *Atlas) MaxTiles() int  { return a.maxTiles }

// TileDim returns the pixel dimensions of one tile.
func (a *Atlas) TileDim() (w, h int) { return a.tileWidthPx, a.tileHeightPx }
