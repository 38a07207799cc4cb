package refterm

import "testing"

func newTestTerminal(t *testing.T, opts ...Option) *Terminal {
	t.Helper()
	base := []Option{
		WithDimensions(20, 4),
		WithSplitLineAt(4096),
	}
	term, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return term
}

func TestScenario_PlainASCII(t *testing.T) {
	term := newTestTerminal(t)
	defer term.Close()

	if _, err := term.Write([]byte("hi\n")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cells, err := term.Render(nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	cols, rows := term.Dimensions()
	window := 2 * rows
	if n := term.LineCount(); window > n {
		window = n
	}
	row := window - 2 // the closed "hi" line, one before the trailing empty current line
	if row < 0 {
		row = 0
	}
	wantH := ReservedTileIndex('h')
	wantI := ReservedTileIndex('i')
	gotH := cells[row*cols+0].GlyphIndex
	gotI := cells[row*cols+1].GlyphIndex
	if gotH != wantH || gotI != wantI {
		t.Fatalf("row %d = [%d, %d], want [%d, %d] ('h','i')", row, gotH, gotI, wantH, wantI)
	}
}

func TestScenario_SGR(t *testing.T) {
	term := newTestTerminal(t)
	defer term.Close()

	term.Write([]byte("\x1b[38;2;200;10;10mX\n"))
	cells, err := term.Render(nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	cols, rows := term.Dimensions()
	window := 2 * rows
	if n := term.LineCount(); window > n {
		window = n
	}
	row := window - 2 // the closed SGR line, one before the trailing empty current line
	if row < 0 {
		row = 0
	}
	want := PackRGB(200, 10, 10)
	if got := cells[row*cols+0].Fg; got != want {
		t.Fatalf("Fg = %#x, want %#x", got, want)
	}
}

func TestScenario_CSIHome(t *testing.T) {
	term := newTestTerminal(t)
	defer term.Close()

	// "X" closes the first line at the ESC byte; "\x1b[3;5H" then moves the
	// cursor to (row 3, col 5) before "Y" is written there.
	if _, err := term.Write([]byte("X\x1b[3;5HY")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	cells, err := term.Render(nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if got := term.LineCount(); got < 2 {
		t.Fatalf("LineCount() = %d, want at least 2 (CSI H splits the line at the ESC byte)", got)
	}

	cols, _ := term.Dimensions()
	want := ReservedTileIndex('Y')
	if got := cells[2*cols+4].GlyphIndex; got != want {
		t.Fatalf("cell(4,2) glyph = %d, want %d ('Y')", got, want)
	}
}

func TestScenario_LongLineSplit(t *testing.T) {
	term := newTestTerminal(t, WithSplitLineAt(32))
	defer term.Close()

	data := make([]byte, 200)
	for i := range data {
		data[i] = 'a'
	}
	term.Write(data)

	if got := term.LineCount(); got < 2 {
		t.Fatalf("LineCount() = %d, want at least 2 (forced split at 32 bytes)", got)
	}
}

func TestScenario_ComplexRunCaching(t *testing.T) {
	term := newTestTerminal(t)
	defer term.Close()

	term.Write([]byte("日本語\n"))
	if _, err := term.Render(nil); err != nil {
		t.Fatalf("Render (first): %v", err)
	}
	term.Write([]byte("日本語\n"))
	if _, err := term.Render(nil); err != nil {
		t.Fatalf("Render (second): %v", err)
	}

	stats := term.Stats()
	if stats.Hits == 0 {
		t.Fatalf("stats = %+v, want at least one glyph-cache hit from repeating the run", stats)
	}
}

func TestTerminalResizeReallocatesGrid(t *testing.T) {
	term := newTestTerminal(t)
	defer term.Close()

	term.Resize(10, 2)
	cols, rows := term.Dimensions()
	if cols != 10 || rows != 2 {
		t.Fatalf("Dimensions() = (%d,%d), want (10,2)", cols, rows)
	}
	cells, err := term.Render(nil)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(cells) != 10*2 {
		t.Fatalf("grid len = %d, want %d", len(cells), 10*2)
	}
}

func TestTerminalWriteWrapsAroundScrollback(t *testing.T) {
	term := newTestTerminal(t, WithScrollbackCapacity(64))
	defer term.Close()

	data := make([]byte, 300)
	for i := range data {
		data[i] = byte('a' + i%26)
	}
	n, err := term.Write(data)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != len(data) {
		t.Fatalf("Write returned %d, want %d", n, len(data))
	}
	if _, err := term.Render(nil); err != nil {
		t.Fatalf("Render after wraparound: %v", err)
	}
}

func TestTerminalClose(t *testing.T) {
	term := newTestTerminal(t)
	if err := term.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := term.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
