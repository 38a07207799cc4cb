package refterm

import (
	"image/color"
	"os"
	"os/exec"
)

// Renderer is the D3D-style consumer of a finished frame: a cell grid and
// a glyph atlas (§4.G). The core asks it to size the atlas, stage a
// transfer surface for the rasterizer, assign stable tile indices to a
// region, and finally draw. No original engineering lives behind this
// interface — it is specified only by the contract below.
type Renderer interface {
	// ResizeAtlas (re)allocates the atlas to the given pixel dimensions.
	ResizeAtlas(width, height int) error
	// StageTransferSurface (re)allocates the CPU-side surface the
	// rasterizer paints into before tiles are transferred to the atlas.
	StageTransferSurface(width, height int) error
	// AssignTile reserves a stable GPU tile for the glyph cache entry at
	// id; the returned index never changes for that entry's lifetime.
	AssignTile(id int) (TileIndex, error)
	// DrawFrame presents one frame: the cell grid, its dimensions, the
	// y-offset the renderer should scroll to, and the cursor's blink
	// color (nil when the cursor is in its "off" blink phase).
	DrawFrame(cells []RendererCell, dimX, dimY int, firstLineY uint32, cursorBlink color.Color) error
}

// Rasterizer paints one shaping run's glyphs into the transfer surface
// and copies individual tiles into the atlas (§4.G).
type Rasterizer interface {
	// Prepare measures and paints tileCount tiles for codepoints into the
	// transfer surface, each unitDim pixels.
	Prepare(codepoints []rune, tileCount int, unitDim Dim) error
	// Transfer copies the tileIndex'th prepared tile into the atlas slot
	// named by gpuIndex.
	Transfer(tileIndex int, gpuIndex TileIndex) error
}

// Dim is a pixel width/height pair.
type Dim struct{ W, H int }

// ChildIO is the non-blocking byte-stream contract the parser's producer
// side needs from the child process's pipes (§4.G, §5).
type ChildIO interface {
	// PeekPending returns how many bytes are available to Read without
	// blocking.
	PeekPending() (int, error)
	// Read behaves like io.Reader; a broken pipe is reported as
	// ErrStreamGone rather than the underlying OS error.
	Read(p []byte) (int, error)
	// Closed reports whether the stream has been marked gone.
	Closed() bool
}

// CommandProvider executes a command-line word that isn't one of the
// shell surface's built-ins (§6).
type CommandProvider interface {
	Execute(name string, args []string) error
}

// NoopRenderer discards all renderer calls; useful for headless parsing
// benchmarks that never draw a frame.
type NoopRenderer struct{}

func (NoopRenderer) ResizeAtlas(width, height int) error           { return nil }
func (NoopRenderer) StageTransferSurface(width, height int) error  { return nil }
func (NoopRenderer) AssignTile(id int) (TileIndex, error)          { return TileIndex(id), nil }
func (NoopRenderer) DrawFrame(cells []RendererCell, dimX, dimY int, firstLineY uint32, cursorBlink color.Color) error {
	return nil
}

// NoopRasterizer discards all rasterizer calls.
type NoopRasterizer struct{}

func (NoopRasterizer) Prepare(codepoints []rune, tileCount int, unitDim Dim) error { return nil }
func (NoopRasterizer) Transfer(tileIndex int, gpuIndex TileIndex) error            { return nil }

// NoopCommandProvider ignores every command.
type NoopCommandProvider struct{}

func (NoopCommandProvider) Execute(name string, args []string) error { return nil }

// NoopChildIO is a ChildIO with no pipes attached: nothing is ever
// pending and the stream reports itself gone from the start. Useful for
// running the engine with no child process (e.g. `cmd/refterm` with an
// empty `--child`, or feeding it only from Terminal.Write in tests).
type NoopChildIO struct{}

func (NoopChildIO) PeekPending() (int, error)  { return 0, ErrStreamGone }
func (NoopChildIO) Read(p []byte) (int, error) { return 0, ErrStreamGone }
func (NoopChildIO) Closed() bool               { return true }

// ExecCommandProvider spawns external programs via os/exec, inheriting
// the current process's stdio. This is the reference CommandProvider the
// shell surface's "otherwise spawn external program" fallback (spec.md
// §6) uses when not given anything more specialized; no corpus library
// wraps process spawning more idiomatically than the standard library
// for a reference demo.
type ExecCommandProvider struct {
	Dir string
}

func (e ExecCommandProvider) Execute(name string, args []string) error {
	cmd := exec.Command(name, args...)
	cmd.Dir = e.Dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

var (
	_ Renderer        = NoopRenderer{}
	_ Rasterizer      = NoopRasterizer{}
	_ CommandProvider = NoopCommandProvider{}
	_ CommandProvider = ExecCommandProvider{}
	_ ChildIO         = NoopChildIO{}
)
