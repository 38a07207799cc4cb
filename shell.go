package refterm

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CommandRecord is one entry of the prompt's command history: the line
// submitted and, once known, its exit status. This is a one-line-prompt
// rendition of the teacher's OSC 133 prompt marks (PromptMark in
// shell_integration.go / semantic_prompt.go) — this engine has a single
// "> " prompt line rather than scrollback-indexed mark rows, so the
// bookkeeping tracks submitted commands instead of cursor rows.
type CommandRecord struct {
	Line     string
	ExitCode int
	Done     bool
}

// History returns a copy of the recorded command history, oldest first.
func (t *Terminal) History() []CommandRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]CommandRecord, len(t.history))
	copy(out, t.history)
	return out
}

// ExecuteShellLine dispatches one line of the interactive command-line
// surface (spec.md §6's command list) and returns any output text to
// display above the next prompt. Built-ins are handled directly; any
// other leading word is forwarded to the CommandProvider as a spawn
// request, grounded in the teacher's shell-integration command dispatch
// but narrowed to this engine's fixed verb list.
func (t *Terminal) ExecuteShellLine(line string) (string, error) {
	fields := strings.Fields(line)
	t.mu.Lock()
	t.history = append(t.history, CommandRecord{Line: line, ExitCode: -1})
	t.mu.Unlock()

	if len(fields) == 0 {
		t.finishLast(0)
		return "", nil
	}

	name, args := fields[0], fields[1:]
	out, err := t.dispatch(name, args)
	code := 0
	if err != nil {
		code = 1
	}
	t.finishLast(code)
	return out, err
}

func (t *Terminal) finishLast(code int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.history); n > 0 {
		t.history[n-1].ExitCode = code
		t.history[n-1].Done = true
	}
}

func (t *Terminal) dispatch(name string, args []string) (string, error) {
	switch name {
	case "status":
		return t.statusLine(), nil
	case "fastpipe":
		return "", t.toggleFastPipe(args)
	case "linewrap":
		return "", t.toggleLineWrap(args)
	case "debug":
		return "", t.toggleDebug(args)
	case "throttle":
		return "", t.setThrottle(args)
	case "font":
		return "", t.setFont(args)
	case "fontsize":
		return "", t.setFontSize(args)
	case "kill", "break":
		return "", t.killChild()
	case "clear", "cls":
		t.clearScreen()
		return "", nil
	case "exit", "quit":
		return "", ErrShellExit
	case "echo", "print":
		return strings.Join(args, " "), nil
	default:
		return "", t.commands.Execute(name, args)
	}
}

func (t *Terminal) statusLine() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	stats := t.cache.Stats()
	return fmt.Sprintf(
		"dims=%dx%d fastpipe=%v linewrap=%v throttle=%s font=%s@%d glyphcache(hit=%d miss=%d recycle=%d)",
		t.dimX, t.dimY, t.fastPipe, t.lineWrap, t.throttle, t.fontName, t.fontSize,
		stats.Hits, stats.Misses, stats.Recycles,
	)
}

func (t *Terminal) toggleFastPipe(args []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fastPipe = parseToggle(args, t.fastPipe)
	return nil
}

func (t *Terminal) toggleLineWrap(args []string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lineWrap = parseToggle(args, t.lineWrap)
	t.layout.Wrap = t.lineWrap
	return nil
}

func (t *Terminal) toggleDebug(args []string) error {
	t.mu.Lock()
	cur := t.layout.DebugHighlighting
	t.mu.Unlock()
	t.SetDebugHighlighting(parseToggle(args, cur))
	return nil
}

func (t *Terminal) setThrottle(args []string) error {
	if len(args) == 0 {
		return nil
	}
	ms, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.throttle = time.Duration(ms) * time.Millisecond
	return nil
}

func (t *Terminal) setFont(args []string) error {
	if len(args) == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fontName = strings.Join(args, " ")
	return nil
}

func (t *Terminal) setFontSize(args []string) error {
	if len(args) == 0 {
		return nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fontSize = n
	return nil
}

// killChild asks the ChildIO to terminate, if it exposes an optional
// Kill method; ChildIO's core contract has no teardown verb beyond
// Closed, so this degrades to a no-op for implementations that don't.
func (t *Terminal) killChild() error {
	t.mu.RLock()
	child := t.childIO
	t.mu.RUnlock()
	if killer, ok := child.(interface{ Kill() error }); ok {
		return killer.Kill()
	}
	return nil
}

// clearScreen returns the view to the live tail (ViewingOffset 0). Lines
// already in the tail window stay visible, and the ring buffers are not
// touched.
func (t *Terminal) clearScreen() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.layout.ViewingOffset = 0
}

func parseToggle(args []string, current bool) bool {
	if len(args) == 0 {
		return !current
	}
	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		return true
	case "off", "false", "0":
		return false
	default:
		return current
	}
}
