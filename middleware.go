package refterm

// Middleware intercepts parser events, letting a caller observe or
// override behavior around the narrow CSI subset this engine honors.
// Each field wraps one event: receive the original parameters and a next
// function that performs the default action. A nil field means "no
// interception" — the parser calls its default behavior directly.
//
// This mirrors the teacher's handler-wrapping middleware, narrowed from
// a 60-odd-method VT220 dispatch table down to the handful of events the
// streaming parser actually produces (§4.C, §6).
type Middleware struct {
	// LineFeed wraps a '\n'-triggered line close.
	LineFeed func(next func())

	// CursorMove wraps a CSI 'H' cursor-move line feed.
	CursorMove func(row, col int, next func())

	// SGR wraps an applied SGR parameter set.
	SGR func(props GlyphProps, next func())

	// ForcedSplit wraps a synthetic line feed triggered by exceeding
	// SplitLineAt.
	ForcedSplit func(next func())
}

// fireLineFeed and the other fire* methods are the parser's event points:
// each hands the default action to the matching non-nil middleware field;
// a nil Middleware (or nil field) runs the default action immediately.
func (m *Middleware) fireLineFeed(next func()) {
	if m != nil && m.LineFeed != nil {
		m.LineFeed(next)
		return
	}
	next()
}

func (m *Middleware) fireCursorMove(row, col int, next func()) {
	if m != nil && m.CursorMove != nil {
		m.CursorMove(row, col, next)
		return
	}
	next()
}

func (m *Middleware) fireSGR(props GlyphProps, next func()) {
	if m != nil && m.SGR != nil {
		m.SGR(props, next)
		return
	}
	next()
}

func (m *Middleware) fireForcedSplit(next func()) {
	if m != nil && m.ForcedSplit != nil {
		m.ForcedSplit(next)
		return
	}
	next()
}
