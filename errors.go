package refterm

import "errors"

// Recoverable, per-line/per-frame conditions. Callers absorb these locally;
// none of them propagate past the frame or line that produced them.
var (
	// ErrStreamGone marks a child I/O stream closed (broken pipe, invalid handle).
	ErrStreamGone = errors.New("refterm: stream gone")

	// ErrInvalidUTF8 is returned by the shaper's decode step when a byte
	// sequence does not decode to a valid codepoint. The offending byte is
	// skipped for codepoint counting but remains part of the line's byte
	// extent.
	ErrInvalidUTF8 = errors.New("refterm: invalid utf-8 in shaping path")

	// ErrInvalidBreakState names a break-state machine that has observed an
	// inconsistent sequence of breaks. No function in this package returns
	// it: the Shaper classifies codepoints directly and keeps no break state.
	ErrInvalidBreakState = errors.New("refterm: invalid break state")
)

// Fatal conditions. These are surfaced to the event loop rather than
// absorbed; the loop may retry once (atlas/font) before giving up.
var (
	// ErrAtlasTooSmall means the renderer could not size an atlas large
	// enough for the requested font. The caller should retry once with the
	// default font; a second failure is fatal at startup.
	ErrAtlasTooSmall = errors.New("refterm: atlas too small for font")

	// ErrNoRendererDevice means the renderer contract could not be
	// satisfied at all (no GPU device, no software fallback).
	ErrNoRendererDevice = errors.New("refterm: no renderer device")
)

// ErrShellExit is returned by Terminal.ExecuteShellLine for the exit/quit
// builtin; the event loop treats it as a clean shutdown request rather
// than a failure.
var ErrShellExit = errors.New("refterm: shell exit requested")
