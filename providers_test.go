package refterm

import "testing"

func TestNoopChildIOReportsStreamGone(t *testing.T) {
	var c NoopChildIO
	if !c.Closed() {
		t.Fatal("NoopChildIO must report Closed")
	}
	if _, err := c.PeekPending(); err != ErrStreamGone {
		t.Fatalf("PeekPending err = %v, want ErrStreamGone", err)
	}
	if _, err := c.Read(make([]byte, 4)); err != ErrStreamGone {
		t.Fatalf("Read err = %v, want ErrStreamGone", err)
	}
}

func TestExecCommandProviderRunsTrueAndFalse(t *testing.T) {
	var p ExecCommandProvider
	if err := p.Execute("true", nil); err != nil {
		t.Fatalf("Execute(true) = %v, want nil", err)
	}
	if err := p.Execute("false", nil); err == nil {
		t.Fatal("Execute(false) should return a non-nil exit error")
	}
}
