// Command refterm is the demo binary wiring the refterm engine (packages
// A-F) to a real child process, the reference CPU renderer, and an
// interactive stdin command line, per spec.md §4.G/§9: it is the
// process-wide root with scoped acquisition and guaranteed release on
// every exit path.
package main

import (
	"bufio"
	"fmt"
	"image/color"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/refterm/refterm"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cols        = pflag.Int("cols", 80, "screen grid columns")
		rows        = pflag.Int("rows", 24, "screen grid rows")
		scrollback  = pflag.Uint64("scrollback", refterm.DefaultScrollbackCapacity, "scrollback ring capacity in bytes")
		maxLines    = pflag.Int("max-lines", refterm.DefaultMaxLines, "line index ring capacity")
		hashCount   = pflag.Int("hash-count", refterm.DefaultHashCount, "glyph cache hash table size")
		splitLineAt = pflag.Int("split-length", refterm.DefaultSplitLineAt, "forced line-split threshold in bytes")
		atlasW      = pflag.Int("atlas-width", refterm.DefaultAtlasWidth, "renderer atlas width in pixels")
		atlasH      = pflag.Int("atlas-height", refterm.DefaultAtlasHeight, "renderer atlas height in pixels")
		tileW       = pflag.Int("tile-width", 16, "glyph tile width in pixels")
		tileH       = pflag.Int("tile-height", 32, "glyph tile height in pixels")
		fontSize    = pflag.Int("fontsize", 13, "starting font size, points")
		fontName    = pflag.String("font", "", "starting font name")
		throttleMS  = pflag.Int("throttle", 0, "frame pacing interval in milliseconds, 0 for unthrottled")
		renderToPNG = pflag.String("render-to-png", "", "render one frame and write it to this PNG path, then exit")
		childCmd    = pflag.String("child", "", "child process command line to run under the terminal; empty runs with no child")
		debug       = pflag.Bool("debug", false, "set the layout's debug-highlighting flag (cells are not tinted by it)")
		verbose     = pflag.Bool("verbose", false, "enable debug-level logging")
	)
	pflag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	display := refterm.NewReferenceDisplay(nil, *tileW, *tileH)

	var child *spawnedChild
	var childIO refterm.ChildIO = refterm.NoopChildIO{}
	if *childCmd != "" {
		var err error
		child, err = spawnChild(*childCmd)
		if err != nil {
			log.Error().Err(err).Str("command", *childCmd).Msg("failed to spawn child process")
			return 1
		}
		childIO = refterm.NewPipeChildIO(child.stdout)
		log.Info().Str("command", *childCmd).Int("pid", child.cmd.Process.Pid).Msg("child process started")
	}

	term, err := refterm.New(
		refterm.WithDimensions(*cols, *rows),
		refterm.WithScrollbackCapacity(*scrollback),
		refterm.WithMaxLines(*maxLines),
		refterm.WithHashCount(*hashCount),
		refterm.WithSplitLineAt(*splitLineAt),
		refterm.WithAtlasSize(*atlasW, *atlasH),
		refterm.WithTileSize(*tileW, *tileH),
		refterm.WithRenderer(display),
		refterm.WithRasterizer(display),
		refterm.WithChildIO(childIO),
		refterm.WithCommandProvider(refterm.ExecCommandProvider{}),
	)
	if err != nil {
		log.Error().Err(err).Msg("failed to construct terminal: no renderer device")
		if child != nil {
			child.kill()
		}
		return 1
	}
	term.SetDebugHighlighting(*debug)
	if *throttleMS > 0 {
		term.ExecuteShellLine(fmt.Sprintf("throttle %d", *throttleMS))
	}
	if *fontName != "" {
		term.ExecuteShellLine(fmt.Sprintf("font %s", *fontName))
	}
	term.ExecuteShellLine(fmt.Sprintf("fontsize %d", *fontSize))

	defer func() {
		if err := term.Close(); err != nil {
			log.Warn().Err(err).Msg("error releasing terminal resources")
		}
		if child != nil {
			child.kill()
			log.Info().Msg("child process terminated")
		}
		log.Info().Msg("terminal shut down")
	}()

	if *renderToPNG != "" {
		return renderSnapshot(term, display, *renderToPNG, &log)
	}

	return eventLoop(term, &log)
}

// eventLoop is spec.md §5's single cooperative worker: it multiplexes
// child-pipe polling, a blink ticker, an interrupt signal, and interactive
// stdin lines in one select, the engine's single suspension point.
func eventLoop(term *refterm.Terminal, log *zerolog.Logger) int {
	pollInterval := func() time.Duration {
		if d := term.Throttle(); d > 0 {
			return d
		}
		return 4 * time.Millisecond
	}
	interval := pollInterval()
	pollTicker := time.NewTicker(interval)
	defer pollTicker.Stop()
	blinkTicker := time.NewTicker(500 * time.Millisecond)
	defer blinkTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	defer signal.Stop(sigCh)

	lineCh := make(chan string)
	go pumpStdinLines(lineCh)

	blinkOn := true
	childGone := false
	for {
		select {
		case <-sigCh:
			log.Info().Msg("interrupt received, shutting down")
			return 0

		case <-pollTicker.C:
			if !childGone {
				if err := term.PumpChildIO(); err != nil {
					log.Info().Err(err).Msg("child stream closed")
					childGone = true
				}
			}
			if _, err := term.Render(cursorColor(blinkOn)); err != nil {
				log.Warn().Err(err).Msg("render failed")
			}

		case <-blinkTicker.C:
			blinkOn = !blinkOn

		case line, ok := <-lineCh:
			if !ok {
				return 0
			}
			out, err := term.ExecuteShellLine(line)
			if err == refterm.ErrShellExit {
				log.Info().Msg("exit requested from command line")
				return 0
			}
			if d := pollInterval(); d != interval {
				interval = d
				pollTicker.Reset(d)
			}
			if out != "" {
				fmt.Println(out)
			}
		}
	}
}

func cursorColor(on bool) color.Color {
	if !on {
		return nil
	}
	return color.White
}

func pumpStdinLines(out chan<- string) {
	defer close(out)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		out <- scanner.Text()
	}
}

func renderSnapshot(term *refterm.Terminal, display *refterm.ReferenceDisplay, path string, log *zerolog.Logger) int {
	if _, err := term.Render(nil); err != nil {
		log.Error().Err(err).Msg("render failed")
		return 1
	}
	f, err := os.Create(path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to create snapshot file")
		return 1
	}
	defer f.Close()
	if err := display.WritePNG(f); err != nil {
		log.Error().Err(err).Msg("failed to encode snapshot")
		return 1
	}
	log.Info().Str("path", path).Msg("wrote snapshot")
	return 0
}

// spawnedChild owns an external process's stdout pipe, a surrogate for
// the original's PTY-backed child (spec.md §4.G): non-blocking reads are
// provided by refterm.PipeChildIO wrapping this pipe's read end.
type spawnedChild struct {
	cmd    *exec.Cmd
	stdout io.ReadCloser
}

func spawnChild(commandLine string) (*spawnedChild, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty child command line")
	}
	cmd := exec.Command(fields[0], fields[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &spawnedChild{cmd: cmd, stdout: stdout}, nil
}

func (c *spawnedChild) kill() {
	if c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	_ = c.cmd.Wait()
}
