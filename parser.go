package refterm

import "math/bits"

// Point is a zero-based (x, y) grid coordinate.
type Point struct {
	X, Y int32
}

// RunningCursor is the style/position state threaded through parsing (and,
// separately, through layout — each keeps its own instance per §3).
type RunningCursor struct {
	Point Point
	Props GlyphProps
}

// NewRunningCursor returns a cursor at the origin with default props.
func NewRunningCursor() RunningCursor {
	return RunningCursor{Props: DefaultGlyphProps()}
}

// DefaultSplitLineAt is the tunable from §6.
const DefaultSplitLineAt = 4096

type parserPhase int

const (
	phaseGround parserPhase = iota
	phaseEscape
	phaseCSI
)

// csiState is the tagged accumulator for one CSI sequence: up to 8
// semicolon-separated decimal parameters terminated by a final byte in
// [0x40, 0x7E]. Storing this on the Parser (rather than re-deriving it
// each call) is what lets a chunk boundary fall mid-sequence without
// misinterpreting the remainder on the next commit.
type csiState struct {
	params     [8]int
	paramCount int
	final      byte
}

// feed consumes one byte of a CSI sequence. It returns true once the
// sequence is complete: either a valid terminator was reached (final is
// set to it) or a malformed byte was seen (final is left 0, and the byte
// itself was NOT part of the sequence — the caller must reprocess it).
func (c *csiState) feed(b byte) bool {
	switch {
	case b >= '0' && b <= '9':
		if c.paramCount == 0 {
			c.paramCount = 1
		}
		idx := c.paramCount - 1
		if idx < len(c.params) {
			c.params[idx] = c.params[idx]*10 + int(b-'0')
		}
		return false
	case b == ';':
		if c.paramCount < len(c.params) {
			c.paramCount++
		}
		return false
	case b >= 0x40 && b <= 0x7E:
		c.final = b
		return true
	default:
		c.final = 0
		return true
	}
}

// Parser is the streaming ingest for one scrollback + line index pair. It
// scans newly committed byte ranges in 16-byte lanes, splits lines, flags
// complex (non-ASCII/escape-bearing) lines, and interprets the CSI subset
// in §6, mutating the running cursor's style.
type Parser struct {
	lines       *LineIndex
	cursor      RunningCursor
	splitLineAt int
	mw          *Middleware

	phase    parserPhase
	csi      csiState
	escStart uint64
}

// NewParser returns a Parser writing into the given line index. splitLineAt
// of 0 uses DefaultSplitLineAt.
func NewParser(lines *LineIndex, splitLineAt int) *Parser {
	if splitLineAt <= 0 {
		splitLineAt = DefaultSplitLineAt
	}
	return &Parser{
		lines:       lines,
		cursor:      NewRunningCursor(),
		splitLineAt: splitLineAt,
	}
}

// Cursor returns the parser's running cursor (read-only use expected).
func (p *Parser) Cursor() RunningCursor { return p.cursor }

// SetMiddleware installs m to intercept line-feed, cursor-move, SGR, and
// forced-split events; pass nil to remove interception.
func (p *Parser) SetMiddleware(m *Middleware) { p.mw = m }

const laneSize = 16

// scanLane classifies up to 16 bytes, returning a bitmask per predicate
// with bit i corresponding to data[i]. This is the portable lane-wise
// stand-in for the original's 128-bit SIMD compare+movemask sequence;
// a build with real SIMD support would replace only this function.
func scanLane(data []byte) (newlineMask, escMask, highMask uint16) {
	for i, b := range data {
		switch {
		case b == '\n':
			newlineMask |= 1 << uint(i)
		case b == 0x1B:
			escMask |= 1 << uint(i)
		}
		if b&0x80 != 0 {
			highMask |= 1 << uint(i)
		}
	}
	return
}

// Ingest scans a freshly committed byte range starting at absolute
// position startAbs, splitting lines, flagging complex lines, and
// interpreting CSI sequences.
func (p *Parser) Ingest(startAbs uint64, data []byte) {
	pos := 0
	abs := startAbs

	for pos < len(data) {
		if p.phase != phaseGround {
			consumed := p.stepEscape(data[pos:], abs)
			pos += consumed
			abs += uint64(consumed)
			continue
		}

		end := pos + laneSize
		if end > len(data) {
			end = len(data)
		}
		lane := data[pos:end]
		newlineMask, escMask, highMask := scanLane(lane)
		stopMask := newlineMask | escMask

		if stopMask != 0 {
			stop := bits.TrailingZeros16(stopMask)
			// Overhang mask: only bits strictly before the stop byte
			// belong to this line; bits at/after it are attributed to
			// whatever follows the stop byte.
			overhang := uint16(1)<<uint(stop) - 1
			if highMask&overhang != 0 {
				p.lines.MarkComplex()
			}

			pos += stop
			abs += uint64(stop)
			p.lines.AppendToCurrent(abs)

			if data[pos] == '\n' {
				pos++
				abs++
				lineEnd, lineStart := abs-1, abs
				p.mw.fireLineFeed(func() {
					p.lines.LineFeed(lineEnd, lineStart, p.cursor.Props)
				})
				p.lines.AppendToCurrent(abs)
			} else {
				consumed := p.stepEscape(data[pos:], abs)
				pos += consumed
				abs += uint64(consumed)
			}
		} else {
			if highMask != 0 {
				p.lines.MarkComplex()
			}
			pos += len(lane)
			abs += uint64(len(lane))
			p.lines.AppendToCurrent(abs)
		}

		p.enforceSplit(abs)
	}
}

// enforceSplit injects a synthetic line feed once the open line exceeds
// splitLineAt bytes, bounding the cost of a later shaping pass over it.
func (p *Parser) enforceSplit(abs uint64) {
	cur := p.lines.Current()
	if abs-cur.First > uint64(p.splitLineAt) {
		p.mw.fireForcedSplit(func() {
			p.lines.LineFeed(abs, abs, p.cursor.Props)
		})
	}
}

// stepEscape drives the {Ground, Escape, Csi} state machine one byte at a
// time over the available data, stopping as soon as a sequence completes
// (applying it) or the data runs out (leaving state on the Parser for the
// next Ingest call to resume).
func (p *Parser) stepEscape(data []byte, absAtStart uint64) int {
	consumed := 0
	for consumed < len(data) {
		b := data[consumed]
		switch p.phase {
		case phaseGround:
			if b == 0x1B {
				p.escStart = absAtStart + uint64(consumed)
				p.phase = phaseEscape
			}
			consumed++
		case phaseEscape:
			consumed++
			if b == '[' {
				p.phase = phaseCSI
				p.csi = csiState{}
			} else {
				p.phase = phaseGround
			}
		case phaseCSI:
			if !p.csi.feed(b) {
				consumed++
				continue
			}
			if p.csi.final == 0 {
				// Malformed: the offending byte was not part of the
				// sequence, so don't consume it here.
				p.phase = phaseGround
				return consumed
			}
			consumed++
			p.applyCSI(p.escStart)
			p.phase = phaseGround
			return consumed
		}
	}
	return consumed
}

func paramOrDefault1(params [8]int, count, i int) int {
	if i >= count || params[i] == 0 {
		return 1
	}
	return params[i]
}

// cursorPointFromCSIH reads the row/col a CSI 'H' sequence addresses,
// 1-based params defaulting to 1 when absent (§6). It is shared by the
// parser (advancing the running ingest cursor) and the layout pass
// (replaying the same sequence against a line-local cursor).
func cursorPointFromCSIH(params [8]int, n int) Point {
	y := paramOrDefault1(params, n, 0)
	x := paramOrDefault1(params, n, 1)
	return Point{X: int32(x - 1), Y: int32(y - 1)}
}

// applyCSI interprets a completed CSI sequence against the running cursor,
// honoring only the subset in §6; every other final byte is consumed and
// ignored. The 'H' line feed splits at escStart, the position of the `\x1b`
// that opened the sequence, not the position after it — the new line keeps
// the whole sequence (and whatever follows it) as its own content, so layout
// replay can re-parse and honor the cursor move (matching
// original_source/refterm_example_terminal.c's FeedAt capture).
func (p *Parser) applyCSI(escStart uint64) {
	switch p.csi.final {
	case 'H':
		pt := cursorPointFromCSIH(p.csi.params, p.csi.paramCount)
		p.mw.fireCursorMove(int(pt.Y), int(pt.X), func() {
			p.cursor.Point = pt
			p.lines.LineFeed(escStart, escStart, p.cursor.Props)
		})
	case 'm':
		p.applySGR()
	}
}

func (p *Parser) applySGR() {
	p.mw.fireSGR(p.cursor.Props, func() {
		applySGRTo(&p.cursor.Props, p.csi.params, p.csi.paramCount)
	})
}

// applySGRTo interprets up to 8 SGR parameters against props, honoring
// the subset in §6: reset, the single-bit attributes 1-9 (6 unused), and
// 24-bit extended foreground/background (38;2;R;G;B / 48;2;R;G;B). It is
// shared by the parser (mutating the running ingest cursor) and the
// layout pass (mutating a line-local cursor while replaying bytes that
// carry inline SGR but no line feed).
func applySGRTo(props *GlyphProps, params [8]int, n int) {
	if n == 0 {
		*props = DefaultGlyphProps()
		return
	}
	for i := 0; i < n; i++ {
		param := params[i]
		if (param == 38 || param == 48) && i+4 < n && params[i+1] == 2 {
			rgb := PackRGB(int32(params[i+2]), int32(params[i+3]), int32(params[i+4]))
			if param == 38 {
				props.FgRGB = rgb
			} else {
				props.BgRGB = rgb
			}
			i += 4
			continue
		}
		applySGRParamTo(props, param)
	}
}

func applySGRParamTo(props *GlyphProps, param int) {
	switch param {
	case 0:
		*props = DefaultGlyphProps()
	case 1:
		props.Flags |= CellFlagBold
	case 2:
		props.Flags |= CellFlagDim
	case 3:
		props.Flags |= CellFlagItalic
	case 4:
		props.Flags |= CellFlagUnderline
	case 5:
		props.Flags |= CellFlagBlink
	case 7:
		props.Flags |= CellFlagReverse
	case 8:
		props.Flags |= CellFlagInvisible
	case 9:
		props.Flags |= CellFlagStrike
	}
}
