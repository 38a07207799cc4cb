package refterm

import "testing"

func TestLineIndexStartsWithOneOpenLine(t *testing.T) {
	li := NewLineIndex(4)
	if li.Count() != 1 {
		t.Fatalf("Count() = %d, want 1", li.Count())
	}
	if li.CurrentIndex() != 0 {
		t.Fatalf("CurrentIndex() = %d, want 0", li.CurrentIndex())
	}
}

func TestLineIndexAppendToCurrent(t *testing.T) {
	li := NewLineIndex(4)
	li.AppendToCurrent(10)
	if li.Current().OnePastLast != 10 {
		t.Fatalf("OnePastLast = %d, want 10", li.Current().OnePastLast)
	}
}

func TestLineIndexLineFeedOpensNewLine(t *testing.T) {
	li := NewLineIndex(4)
	props := DefaultGlyphProps()
	props.FgRGB = 0xff0000
	li.AppendToCurrent(5)
	li.LineFeed(5, 6, props)

	if li.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", li.Count())
	}
	closed := li.At(0)
	if closed.OnePastLast != 5 {
		t.Fatalf("closed line OnePastLast = %d, want 5", closed.OnePastLast)
	}
	current := li.Current()
	if current.First != 6 || current.OnePastLast != 6 {
		t.Fatalf("new line = %+v, want First=OnePastLast=6", current)
	}
	if current.StartingProps.FgRGB != 0xff0000 {
		t.Fatalf("new line did not inherit starting props")
	}
}

func TestLineIndexWrapsAndSaturatesCount(t *testing.T) {
	li := NewLineIndex(2)
	for i := 0; i < 5; i++ {
		li.LineFeed(uint64(i), uint64(i+1), DefaultGlyphProps())
	}
	if li.Count() != 2 {
		t.Fatalf("Count() = %d, want 2 (saturated at MaxLines)", li.Count())
	}
	if li.MaxLines() != 2 {
		t.Fatalf("MaxLines() = %d, want 2", li.MaxLines())
	}
}

func TestLineIndexMarkComplex(t *testing.T) {
	li := NewLineIndex(4)
	if li.Current().ContainsComplex {
		t.Fatal("new line should not start complex")
	}
	li.MarkComplex()
	if !li.Current().ContainsComplex {
		t.Fatal("MarkComplex did not set ContainsComplex")
	}
	li.LineFeed(0, 1, DefaultGlyphProps())
	if li.At(0) != nil && !li.lines[0].ContainsComplex {
		// the closed line must retain the flag set before the feed
		t.Fatal("closed line lost ContainsComplex after LineFeed")
	}
}
