package refterm

import "unicode/utf8"

// Layout replays a tail window of indexed lines into a screen grid of
// cells (§4.F): each line is fast-pathed byte-for-byte if it is plain
// ASCII, or handed to the shaper and glyph cache if it contains bytes
// that require shaping.
type Layout struct {
	scrollback *Scrollback
	lines      *LineIndex
	shaper     *Shaper
	cache      *GlyphCache
	atlas      *Atlas
	rasterizer Rasterizer

	DimX, DimY        int
	ViewingOffset     int
	DebugHighlighting bool
	Wrap              bool

	grid       []RendererCell
	firstLineY uint32
}

// blockGlyph is the blinking cursor's codepoint, U+2588 FULL BLOCK,
// matching the original's literal `\x1b[5m█`.
const blockGlyph = '█'

// NewLayout builds a layout pass of dimX x dimY cells over the given
// scrollback, line index, shaper, glyph cache, atlas, and rasterizer.
func NewLayout(sb *Scrollback, lines *LineIndex, shaper *Shaper, cache *GlyphCache, atlas *Atlas, rasterizer Rasterizer, dimX, dimY int) *Layout {
	l := &Layout{
		scrollback: sb,
		lines:      lines,
		shaper:     shaper,
		cache:      cache,
		atlas:      atlas,
		rasterizer: rasterizer,
		Wrap:       true,
	}
	l.Resize(dimX, dimY)
	return l
}

// Resize changes the grid dimensions, reallocating the cell buffer.
func (l *Layout) Resize(dimX, dimY int) {
	l.DimX, l.DimY = dimX, dimY
	l.grid = make([]RendererCell, dimX*dimY)
}

// Grid returns the current frame's cell grid, row-major, DimX*DimY long.
func (l *Layout) Grid() []RendererCell { return l.grid }

// FirstLineY is the row the renderer should scroll to in order to show
// the prompt line.
func (l *Layout) FirstLineY() uint32 { return l.firstLineY }

func (l *Layout) cellIndex(x, y int) (int, bool) {
	if x < 0 || x >= l.DimX || y < 0 || y >= l.DimY {
		return 0, false
	}
	return y*l.DimX+x, true
}

func (l *Layout) setCell(x, y int, tile TileIndex, props GlyphProps) {
	if i, ok := l.cellIndex(x, y); ok {
		l.grid[i] = NewRendererCell(tile, props)
	}
}

func (l *Layout) clearRow(y int) {
	for x := 0; x < l.DimX; x++ {
		l.setCell(x, y, emptyTile, DefaultGlyphProps())
	}
}

func (l *Layout) clearGrid() {
	for y := 0; y < l.DimY; y++ {
		l.clearRow(y)
	}
}

// advanceColumn moves the cursor right by one; with wrap enabled, reaching
// DimX advances the row instead (clearing the newly exposed row, matching
// the original's AdvanceRow).
func (l *Layout) advanceColumn(cursor *Point, wrap bool) {
	cursor.X++
	if wrap && int(cursor.X) >= l.DimX {
		l.advanceRow(cursor)
	}
}

func (l *Layout) advanceRow(cursor *Point) {
	cursor.X = 0
	cursor.Y++
	if int(cursor.Y) >= l.DimY {
		cursor.Y = 0
	}
	l.clearRow(int(cursor.Y))
}

// isAtEscape reports whether data[i] begins a CSI sequence (`ESC [`).
func isAtEscape(data []byte, i int) bool {
	return i+1 < len(data) && data[i] == 0x1B && data[i+1] == '['
}

// scanCSISeq scans one CSI sequence starting at data[i] (which must
// satisfy isAtEscape), returning the index just past it and its
// parameters. A sequence that runs out of data before a terminator, or
// hits a non-digit/non-`;` byte, stops there with final == 0.
func scanCSISeq(data []byte, i int) (next int, final byte, params [8]int, count int) {
	i += 2
	for i < len(data) {
		b := data[i]
		switch {
		case b >= '0' && b <= '9':
			if count == 0 {
				count = 1
			}
			if idx := count - 1; idx < len(params) {
				params[idx] = params[idx]*10 + int(b-'0')
			}
			i++
		case b == ';':
			if count < len(params) {
				count++
			}
			i++
		case b >= 0x40 && b <= 0x7E:
			final = b
			i++
			return i, final, params, count
		default:
			return i, 0, params, count
		}
	}
	return i, 0, params, count
}

// applyCSIMove handles the CSI finals layout replay acts on directly: 'm'
// updates the running props the same way the parser does, and 'H' moves
// cursor to the addressed row/col (the position the parser's own applyCSI
// already split the line at, so Y's destination cell lands at the spot the
// ingest-time cursor move chose).
func applyCSIMove(cursor *Point, props *GlyphProps, final byte, params [8]int, count int) {
	switch final {
	case 'm':
		applySGRTo(props, params, count)
	case 'H':
		*cursor = cursorPointFromCSIH(params, count)
	}
}

func isAllDirectASCII(data []byte) bool {
	for _, b := range data {
		if !IsDirectCodepoint(rune(b)) {
			return false
		}
	}
	return true
}

// Render replays the tail window of lines into the grid, then appends the
// prompt, the command-line buffer, and a blinking block cursor (§4.F
// steps 3-4).
func (l *Layout) Render(commandLine string) {
	l.clearGrid()

	cursor := Point{}
	ringSize := l.lines.MaxLines()
	window := 2 * l.DimY
	if count := l.lines.Count(); window > count {
		window = count
	}

	end := mod(l.lines.CurrentIndex()+l.ViewingOffset, ringSize)
	start := mod(end-(window-1), ringSize)

	idx := start
	for i := 0; i < window; i++ {
		l.renderLine(&cursor, l.lines.At(idx))
		l.advanceRow(&cursor)
		idx++
		if idx == ringSize {
			idx = 0
		}
	}

	props := DefaultGlyphProps()
	l.renderPlainRun(&cursor, []rune("> "), props)
	l.renderPlainRun(&cursor, []rune(commandLine), props)

	cursorProps := props
	cursorProps.Flags |= CellFlagBlink
	l.renderRun(&cursor, []byte(string(blockGlyph)), cursorProps)

	// The grid is a ring of rows: the row after the prompt holds the oldest
	// surviving line, so starting there puts the prompt on the last row.
	l.firstLineY = uint32(mod(int(cursor.Y)+1, l.DimY))
}

func mod(v, m int) int {
	if m == 0 {
		return 0
	}
	v %= m
	if v < 0 {
		v += m
	}
	return v
}

func (l *Layout) renderLine(cursor *Point, line *LineRecord) {
	props := line.StartingProps
	data := l.scrollback.ReadAt(line.First, int(line.Len()))
	if line.ContainsComplex {
		l.renderComplexLine(cursor, &props, data)
	} else {
		l.renderSimpleLine(cursor, &props, data)
	}
}

// renderSimpleLine is the fast path (§4.F step 2, !contains_complex): one
// cell per byte via the reserved direct-codepoint table, with inline CSI
// handled as it's encountered.
func (l *Layout) renderSimpleLine(cursor *Point, props *GlyphProps, data []byte) {
	i := 0
	for i < len(data) {
		b := data[i]
		switch {
		case isAtEscape(data, i):
			next, final, params, count := scanCSISeq(data, i)
			applyCSIMove(cursor, props, final, params, count)
			i = next
		case b == '\r':
			cursor.X = 0
			i++
		case b == '\n':
			l.advanceRow(cursor)
			i++
		case IsDirectCodepoint(rune(b)):
			l.setCell(int(cursor.X), int(cursor.Y), ReservedTileIndex(rune(b)), *props)
			l.advanceColumn(cursor, l.Wrap)
			i++
		default:
			// Not a direct codepoint, CR, LF, or CSI start: skip without
			// rendering (the original asserts here in debug builds).
			i++
		}
	}
}

// renderComplexLine is the slow path (§4.F step 2, contains_complex):
// scan to the next ESC/CR/LF and hand the intervening slice to the
// shaper + glyph cache, then resume byte-level processing. This
// interleaving lets one line mix CSI, plain ASCII, and shaped runs.
func (l *Layout) renderComplexLine(cursor *Point, props *GlyphProps, data []byte) {
	i := 0
	for i < len(data) {
		b := data[i]
		switch {
		case isAtEscape(data, i):
			next, final, params, count := scanCSISeq(data, i)
			applyCSIMove(cursor, props, final, params, count)
			i = next
		case b == 0x1B:
			// An ESC that does not open a CSI sequence is skipped, as in
			// renderSimpleLine.
			i++
		case b == '\r':
			cursor.X = 0
			i++
		case b == '\n':
			l.advanceRow(cursor)
			i++
		default:
			start := i
			for i < len(data) && data[i] != 0x1B && data[i] != '\r' && data[i] != '\n' {
				i++
			}
			l.renderRun(cursor, data[start:i], *props)
		}
	}
}

// renderPlainRun renders literal runes (the prompt / command-line text)
// through the direct-codepoint path where possible.
func (l *Layout) renderPlainRun(cursor *Point, runes []rune, props GlyphProps) {
	buf := make([]byte, 0, len(runes)*4)
	for _, r := range runes {
		buf = utf8.AppendRune(buf, r)
	}
	l.renderRun(cursor, buf, props)
}

// renderRun renders one shaping-eligible byte slice: straight through the
// reserved table if every byte is a direct codepoint, otherwise via the
// shaper and glyph cache.
func (l *Layout) renderRun(cursor *Point, data []byte, props GlyphProps) {
	if isAllDirectASCII(data) {
		for _, b := range data {
			l.setCell(int(cursor.X), int(cursor.Y), ReservedTileIndex(rune(b)), props)
			l.advanceColumn(cursor, l.Wrap)
		}
		return
	}

	result, err := l.shaper.Shape(data)
	if err != nil && len(result.Codepoints) == 0 {
		return
	}
	for _, seg := range result.Segments {
		cps := result.Codepoints[seg.Start:seg.End]
		if len(cps) == 1 && IsDirectCodepoint(cps[0]) {
			l.setCell(int(cursor.X), int(cursor.Y), ReservedTileIndex(cps[0]), props)
			l.advanceColumn(cursor, l.Wrap)
			continue
		}
		l.renderCachedRun(cursor, cps, props)
	}
}

// renderCachedRun resolves a shaping run through the glyph cache,
// rasterizing it once per distinct hash (§4.E's rasterization
// discipline), then emits one cell per tile it occupies.
func (l *Layout) renderCachedRun(cursor *Point, cps []rune, props GlyphProps) {
	hash := l.cache.HashRun(cps)
	id, state, hit := l.cache.Find(hash)
	if id == noEntry {
		return
	}

	tileCount := 1
	for _, r := range cps {
		if w := runeWidth(r); w > tileCount {
			tileCount = w
		}
	}

	if !hit || state != GlyphStateRasterized {
		tw, th := l.atlas.TileDim()
		_ = l.rasterizer.Prepare(cps, tileCount, Dim{W: tw, H: th})
		gpu := l.cache.GPUIndex(id)
		for t := 0; t < tileCount; t++ {
			_ = l.rasterizer.Transfer(t, gpu+TileIndex(t))
		}
		l.cache.UpdateDims(id, GlyphStateRasterized, uint16(tileCount), 1)
	}

	gpu := l.cache.GPUIndex(id)
	for t := 0; t < tileCount; t++ {
		l.setCell(int(cursor.X), int(cursor.Y), gpu+TileIndex(t), props)
		l.advanceColumn(cursor, l.Wrap)
	}
}
