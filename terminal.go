package refterm

import (
	"image/color"
	"sync"
	"time"
)

// Terminal is the process-wide root object (§9): it owns the scrollback,
// line index, parser, shaper, glyph cache, atlas, and layout pass, and
// coordinates them against the external Renderer/Rasterizer/ChildIO/
// CommandProvider contracts. Resource lifecycle is scoped acquisition
// with guaranteed release — construct with New, release with Close.
type Terminal struct {
	mu sync.RWMutex

	scrollback *Scrollback
	lines      *LineIndex
	parser     *Parser
	shaper     *Shaper
	cache      *GlyphCache
	atlas      *Atlas
	layout     *Layout

	renderer   Renderer
	rasterizer Rasterizer
	childIO    ChildIO
	commands   CommandProvider

	commandLine string
	dimX, dimY  int

	fastPipe  bool
	lineWrap  bool
	throttle  time.Duration
	fontName  string
	fontSize  int
	history   []CommandRecord
}

// Option configures a Terminal at construction time.
type Option func(*options)

type options struct {
	scrollbackCap uint64
	maxLines      int
	splitLineAt   int
	hashCount     int
	atlasW, atlasH int
	tileW, tileH   int
	dimX, dimY     int
	renderer       Renderer
	rasterizer     Rasterizer
	childIO        ChildIO
	commands       CommandProvider
}

// WithScrollbackCapacity sets the ring buffer's byte capacity (rounded up
// to a power of two). Default DefaultScrollbackCapacity.
func WithScrollbackCapacity(n uint64) Option {
	return func(o *options) { o.scrollbackCap = n }
}

// WithMaxLines sets the line index's ring capacity. Default DefaultMaxLines.
func WithMaxLines(n int) Option {
	return func(o *options) { o.maxLines = n }
}

// WithSplitLineAt sets the forced-split threshold. Default DefaultSplitLineAt.
func WithSplitLineAt(n int) Option {
	return func(o *options) { o.splitLineAt = n }
}

// WithHashCount sets the glyph cache's hash table size. Default DefaultHashCount.
func WithHashCount(n int) Option {
	return func(o *options) { o.hashCount = n }
}

// WithAtlasSize sets the renderer atlas's pixel dimensions. Default 2048x2048.
func WithAtlasSize(w, h int) Option {
	return func(o *options) { o.atlasW, o.atlasH = w, h }
}

// WithTileSize sets one glyph tile's pixel dimensions.
func WithTileSize(w, h int) Option {
	return func(o *options) { o.tileW, o.tileH = w, h }
}

// WithDimensions sets the screen grid's cell dimensions.
func WithDimensions(cols, rows int) Option {
	return func(o *options) { o.dimX, o.dimY = cols, rows }
}

// WithRenderer supplies the Renderer contract implementation. Default NoopRenderer.
func WithRenderer(r Renderer) Option { return func(o *options) { o.renderer = r } }

// WithRasterizer supplies the Rasterizer contract implementation. Default NoopRasterizer.
func WithRasterizer(r Rasterizer) Option { return func(o *options) { o.rasterizer = r } }

// WithChildIO supplies the ChildIO contract implementation.
func WithChildIO(c ChildIO) Option { return func(o *options) { o.childIO = c } }

// WithCommandProvider supplies the CommandProvider contract implementation.
// Default NoopCommandProvider.
func WithCommandProvider(c CommandProvider) Option { return func(o *options) { o.commands = c } }

// New constructs a Terminal from the given options, applying defaults for
// anything unset.
func New(opts ...Option) (*Terminal, error) {
	o := &options{
		scrollbackCap: DefaultScrollbackCapacity,
		maxLines:      DefaultMaxLines,
		splitLineAt:   DefaultSplitLineAt,
		hashCount:     DefaultHashCount,
		atlasW:        DefaultAtlasWidth,
		atlasH:        DefaultAtlasHeight,
		tileW:         16,
		tileH:         32,
		dimX:          80,
		dimY:          24,
		renderer:      NoopRenderer{},
		rasterizer:    NoopRasterizer{},
		commands:      NoopCommandProvider{},
	}
	for _, opt := range opts {
		opt(o)
	}

	atlas, err := NewAtlas(o.atlasW, o.atlasH, o.tileW, o.tileH)
	if err != nil {
		return nil, err
	}

	sb := NewScrollback(o.scrollbackCap)
	lines := NewLineIndex(o.maxLines)
	parser := NewParser(lines, o.splitLineAt)
	shaper := NewShaper()
	cache := NewGlyphCache(o.hashCount, atlas.EntryCount(), atlas.FirstHashedTileIndex())
	layout := NewLayout(sb, lines, shaper, cache, atlas, o.rasterizer, o.dimX, o.dimY)

	if err := o.renderer.ResizeAtlas(o.atlasW, o.atlasH); err != nil {
		return nil, err
	}

	return &Terminal{
		scrollback: sb,
		lines:      lines,
		parser:     parser,
		shaper:     shaper,
		cache:      cache,
		atlas:      atlas,
		layout:     layout,
		renderer:   o.renderer,
		rasterizer: o.rasterizer,
		childIO:    o.childIO,
		commands:   o.commands,
		dimX:       o.dimX,
		dimY:       o.dimY,
		lineWrap:   true,
		fontSize:   o.tileH,
	}, nil
}

// Write appends p to the scrollback and parses it, splitting and
// classifying lines and updating the running cursor style. Writes never
// block; the buffer is overwritten cyclically once full.
func (t *Terminal) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.writeInternal(p)
}

func (t *Terminal) writeInternal(p []byte) (int, error) {
	written := 0
	for written < len(p) {
		absPos, buf := t.scrollback.Reserve(len(p) - written)
		if len(buf) == 0 {
			break
		}
		n := copy(buf, p[written:])
		t.scrollback.Commit(n)
		t.parser.Ingest(absPos, buf[:n])
		written += n
	}
	return written, nil
}

// PumpChildIO drains any pending bytes from the ChildIO and writes them
// into the terminal, returning ErrStreamGone once the stream has closed.
func (t *Terminal) PumpChildIO() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.childIO == nil {
		return nil
	}
	pending, err := t.childIO.PeekPending()
	if err != nil {
		return err
	}
	if pending == 0 {
		if t.childIO.Closed() {
			return ErrStreamGone
		}
		return nil
	}
	buf := make([]byte, pending)
	n, err := t.childIO.Read(buf)
	if n > 0 {
		_, _ = t.writeInternal(buf[:n])
	}
	return err
}

// Resize changes the screen grid's cell dimensions.
func (t *Terminal) Resize(cols, rows int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dimX, t.dimY = cols, rows
	t.layout.Resize(cols, rows)
}

// SetViewingOffset scrolls the layout's tail window by offset lines
// relative to the current line (0 means "live tail").
func (t *Terminal) SetViewingOffset(offset int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.layout.ViewingOffset = offset
}

// SetCommandLine sets the text shown after the prompt in the next Render.
func (t *Terminal) SetCommandLine(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.commandLine = s
}

// SetDebugHighlighting sets the layout's DebugHighlighting flag, carried
// over from the original's Terminal->DebugHighlighting. The layout pass
// does not read the flag: cells are drawn the same whether it is on or off.
func (t *Terminal) SetDebugHighlighting(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.layout.DebugHighlighting = on
}

// Render replays the current tail window into the grid and asks the
// renderer to draw it, returning the cell grid used.
func (t *Terminal) Render(cursorBlink color.Color) ([]RendererCell, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.layout.Render(t.commandLine)
	grid := t.layout.Grid()
	if err := t.renderer.DrawFrame(grid, t.dimX, t.dimY, t.layout.FirstLineY(), cursorBlink); err != nil {
		return grid, err
	}
	return grid, nil
}

// Stats returns the glyph cache's lifetime hit/miss/recycle counters.
func (t *Terminal) Stats() GlyphCacheStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cache.Stats()
}

// LineCount returns the number of occupied records in the line index.
func (t *Terminal) LineCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lines.Count()
}

// Dimensions returns the current screen grid's cell dimensions.
func (t *Terminal) Dimensions() (cols, rows int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.dimX, t.dimY
}

// Throttle returns the frame pacing interval set by the shell surface's
// "throttle" command (zero means unthrottled).
func (t *Terminal) Throttle() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.throttle
}

// Close closes the child I/O stream when the supplied ChildIO has a
// Close() error method, and returns that method's error; otherwise it does
// nothing and returns nil. Each call to Close calls that method again.
func (t *Terminal) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if closer, ok := t.childIO.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
