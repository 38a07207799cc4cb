package refterm

import "testing"

func TestParserPlainLineFeed(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	p.Ingest(0, []byte("abc\n"))

	if lines.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", lines.Count())
	}
	closed := lines.At(0)
	if closed.First != 0 || closed.OnePastLast != 3 {
		t.Fatalf("closed line = %+v, want First=0 OnePastLast=3", closed)
	}
	current := lines.Current()
	if current.First != 4 || current.OnePastLast != 4 {
		t.Fatalf("new line = %+v, want First=OnePastLast=4", current)
	}
}

func TestParserMarksComplexOnHighBit(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	// 0xC3 0xA9 is the UTF-8 encoding of 'é'; no newline follows.
	p.Ingest(0, []byte{'a', 0xC3, 0xA9})

	if !lines.Current().ContainsComplex {
		t.Fatal("a line containing a high-bit byte must be marked complex")
	}
}

func TestParserPlainASCIIStaysSimple(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	p.Ingest(0, []byte("hello"))

	if lines.Current().ContainsComplex {
		t.Fatal("plain ASCII must not be marked complex")
	}
}

func TestParserCSICursorHomeMovesCursor(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	p.Ingest(0, []byte("\x1b[2;3H"))

	cur := p.Cursor()
	if cur.Point.X != 2 || cur.Point.Y != 1 {
		t.Fatalf("cursor point = %+v, want X=2 Y=1", cur.Point)
	}
}

func TestParserSGRSetsExtendedColor(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	p.Ingest(0, []byte("\x1b[38;2;10;20;30m"))

	want := PackRGB(10, 20, 30)
	if got := p.Cursor().Props.FgRGB; got != want {
		t.Fatalf("FgRGB = %#x, want %#x", got, want)
	}
}

func TestParserSGRBoldFlag(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	p.Ingest(0, []byte("\x1b[1m"))

	if !p.Cursor().Props.HasFlag(CellFlagBold) {
		t.Fatal("SGR 1 must set CellFlagBold")
	}
}

func TestParserSGRResetClearsFlags(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	p.Ingest(0, []byte("\x1b[1m\x1b[0m"))

	if p.Cursor().Props.HasFlag(CellFlagBold) {
		t.Fatal("SGR 0 must clear previously set flags")
	}
}

func TestParserEnforcesSplitOnLongLine(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 4)
	data := make([]byte, 20)
	for i := range data {
		data[i] = 'a'
	}
	p.Ingest(0, data)

	if lines.Count() < 2 {
		t.Fatalf("Count() = %d, want at least 2 (forced split)", lines.Count())
	}
}

func TestParserResumesEscapeAcrossChunkBoundary(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	part1 := []byte("\x1b")
	part2 := []byte("[1H")
	p.Ingest(0, part1)
	p.Ingest(uint64(len(part1)), part2)

	cur := p.Cursor()
	if cur.Point.X != 0 || cur.Point.Y != 0 {
		t.Fatalf("cursor point = %+v, want X=0 Y=0 (CSI 1H)", cur.Point)
	}
}

func TestParserResumesCSIParamsAcrossChunkBoundary(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	part1 := []byte("\x1b[2;")
	part2 := []byte("5H")
	p.Ingest(0, part1)
	p.Ingest(uint64(len(part1)), part2)

	cur := p.Cursor()
	if cur.Point.X != 4 || cur.Point.Y != 1 {
		t.Fatalf("cursor point = %+v, want X=4 Y=1 (CSI 2;5H)", cur.Point)
	}
}

func TestParserMiddlewareCanObserveLineFeed(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 0)
	fired := false
	p.SetMiddleware(&Middleware{
		LineFeed: func(next func()) {
			fired = true
			next()
		},
	})
	p.Ingest(0, []byte("x\n"))

	if !fired {
		t.Fatal("middleware LineFeed hook did not fire")
	}
	if lines.Count() != 2 {
		t.Fatal("middleware must still call through to the default action")
	}
}

func TestParserMiddlewareCanSuppressForcedSplit(t *testing.T) {
	lines := NewLineIndex(8)
	p := NewParser(lines, 4)
	p.SetMiddleware(&Middleware{
		ForcedSplit: func(next func()) {
			// suppress: never call next
		},
	})
	data := make([]byte, 20)
	for i := range data {
		data[i] = 'a'
	}
	p.Ingest(0, data)

	if lines.Count() != 1 {
		t.Fatalf("Count() = %d, want 1 (forced split suppressed)", lines.Count())
	}
}
