package refterm

// LineRecord describes one logical line in the scrollback: its byte
// extent as absolute positions, whether it contains bytes needing
// shaping, and the style in effect when the line began.
type LineRecord struct {
	First          uint64
	OnePastLast    uint64
	ContainsComplex bool
	StartingProps  GlyphProps
}

// Len returns the number of bytes in the line's extent.
func (l LineRecord) Len() uint64 { return l.OnePastLast - l.First }

// DefaultMaxLines is the tunable from §6.
const DefaultMaxLines = 8192

// LineIndex is a ring of LineRecords maintained by the parser.
// CurrentIndex always names the record being appended to.
type LineIndex struct {
	lines            []LineRecord
	currentLineIndex int
	lineCount        int // occupied records, saturates at len(lines)
}

// NewLineIndex allocates a ring of maxLines records (DefaultMaxLines if 0)
// with a single open line starting at position 0.
func NewLineIndex(maxLines int) *LineIndex {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	li := &LineIndex{lines: make([]LineRecord, maxLines)}
	li.lines[0] = LineRecord{StartingProps: DefaultGlyphProps()}
	li.lineCount = 1
	return li
}

// MaxLines returns the ring's capacity.
func (li *LineIndex) MaxLines() int { return len(li.lines) }

// Count returns the number of occupied line records (saturates at MaxLines).
func (li *LineIndex) Count() int { return li.lineCount }

// CurrentIndex returns the ring index of the line currently being appended to.
func (li *LineIndex) CurrentIndex() int { return li.currentLineIndex }

// Current returns a pointer to the line currently being appended to.
func (li *LineIndex) Current() *LineRecord { return &li.lines[li.currentLineIndex] }

// At returns the line record at the given ring index.
func (li *LineIndex) At(ringIndex int) *LineRecord { return &li.lines[ringIndex] }

// AppendToCurrent extends the open line's end to onePastLast.
func (li *LineIndex) AppendToCurrent(onePastLast uint64) {
	li.lines[li.currentLineIndex].OnePastLast = onePastLast
}

// LineFeed closes the current line at splitAt, then opens a new line at
// nextStart with the given starting props. Advancing past the end of the
// ring wraps and silently overwrites the oldest record.
func (li *LineIndex) LineFeed(splitAt, nextStart uint64, startingProps GlyphProps) {
	li.lines[li.currentLineIndex].OnePastLast = splitAt
	li.currentLineIndex++
	if li.currentLineIndex == len(li.lines) {
		li.currentLineIndex = 0
	}
	li.lines[li.currentLineIndex] = LineRecord{
		First:         nextStart,
		OnePastLast:   nextStart,
		StartingProps: startingProps,
	}
	if li.lineCount < len(li.lines) {
		li.lineCount++
	}
}

// MarkComplex flags the current line as requiring shaping.
func (li *LineIndex) MarkComplex() {
	li.lines[li.currentLineIndex].ContainsComplex = true
}
