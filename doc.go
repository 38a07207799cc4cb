// Package refterm is a high-throughput reference terminal display engine:
// it ingests raw PTY bytes, indexes them into lines without copying the
// underlying scrollback, shapes the ones that need it, caches glyphs by
// content, and replays a bounded tail window into a cell grid a renderer
// can draw.
//
// # Quick Start
//
//	term, err := refterm.New(
//	    refterm.WithDimensions(80, 24),
//	    refterm.WithRenderer(refterm.NewReferenceDisplay(nil, 16, 32)),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer term.Close()
//
//	term.Write([]byte("\x1b[31mHello \x1b[32mWorld\x1b[0m!\n"))
//	cells, err := term.Render(nil)
//
// # Architecture
//
// Terminal owns six components wired together in a fixed pipeline:
//
//   - [Scrollback]: an append-only power-of-two ring buffer holding raw
//     bytes at absolute positions; nothing is ever copied out of it except
//     on render.
//   - [LineIndex]: an out-of-band ring of [LineRecord]s marking where each
//     line starts, how long it is, and whether it contains bytes the fast
//     path can't handle.
//   - [Parser]: a tagged escape/CSI state machine that can resume
//     correctly across chunk boundaries, unlike a stateless byte scanner.
//   - [Shaper]: breaks a byte run into ordered [Segment]s by grapheme,
//     script, and direction, reversing right-to-left runs in place.
//   - [GlyphCache]: a direct-mapped hash table over an index-based LRU
//     arena, handing out permanent GPU tile indices per distinct run.
//   - [Layout]: replays the line index's tail window into a cell grid,
//     fast-pathing plain-ASCII lines byte for byte.
//
// # External contracts
//
// Four interfaces separate the engine from anything that draws pixels or
// spawns processes: [Renderer] and [Rasterizer] (frame presentation),
// [ChildIO] (non-blocking PTY reads), and [CommandProvider] (the command
// line's spawn fallback). [ReferenceDisplay] is the one concrete
// Renderer/Rasterizer pair, built on golang.org/x/image, used by the demo
// binary in the absence of a real GPU.
//
// # Middleware
//
// [Middleware] intercepts the parser's handful of observable events —
// line feeds, cursor moves, SGR changes, forced splits — letting a
// caller log or override them without forking the parser itself:
//
//	mw := &refterm.Middleware{
//	    LineFeed: func(next func()) {
//	        log.Println("line closed")
//	        next()
//	    },
//	}
//
// # Command-line surface
//
// [Terminal.ExecuteShellLine] dispatches the interactive prompt's fixed
// verb list (status, fastpipe, linewrap, debug, throttle, font,
// fontsize, kill/break, clear/cls, exit/quit, echo/print) and forwards
// anything else to the configured CommandProvider.
//
// # Thread safety
//
// All Terminal methods are safe for concurrent use; it holds an internal
// RWMutex guarding the shared component state.
package refterm
