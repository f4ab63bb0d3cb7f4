package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

const (
	timeFormat       = "01-02|15:04:05.000"
	termMsgJust      = 40
	termCtxMaxPadding = 40
)

type discardHandler struct{}

// DiscardHandler returns a no-op handler
func DiscardHandler() slog.Handler {
	return &discardHandler{}
}

func (h *discardHandler) Handle(_ context.Context, r slog.Record) error {
	return nil
}

func (h *discardHandler) Enabled(_ context.Context, level slog.Level) bool {
	return false
}

func (h *discardHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *discardHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

// TerminalHandler prints records in a human-friendly aligned format,
// optionally colorizing the level tag.
type TerminalHandler struct {
	mu       sync.Mutex
	wr       io.Writer
	lvl      slog.Level
	useColor bool
	attrs    []slog.Attr
}

// NewTerminalHandler returns a handler which formats log records at all levels
// optimized for human readability on a terminal with color-coded level output.
func NewTerminalHandler(wr io.Writer, useColor bool) *TerminalHandler {
	return NewTerminalHandlerWithLevel(wr, levelMaxVerbosity, useColor)
}

// NewTerminalHandlerWithLevel returns the same handler as NewTerminalHandler
// but only outputs records which are less than or equal to the specified verbosity level.
func NewTerminalHandlerWithLevel(wr io.Writer, lvl slog.Level, useColor bool) *TerminalHandler {
	return &TerminalHandler{
		wr:       wr,
		lvl:      lvl,
		useColor: useColor,
	}
}

func (h *TerminalHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var b strings.Builder
	lvl := LevelAlignedString(r.Level)
	if h.useColor {
		if color := levelColor(r.Level); color > 0 {
			lvl = fmt.Sprintf("\x1b[%dm%s\x1b[0m", color, lvl)
		}
	}
	fmt.Fprintf(&b, "%s[%s] %s", lvl, r.Time.Format(timeFormat), r.Message)

	// pad the message so attributes line up across records
	if pad := termMsgJust - len(r.Message); pad > 0 && (r.NumAttrs() > 0 || len(h.attrs) > 0) {
		b.WriteString(strings.Repeat(" ", pad))
	}
	for _, attr := range h.attrs {
		writeAttr(&b, attr)
	}
	r.Attrs(func(attr slog.Attr) bool {
		writeAttr(&b, attr)
		return true
	})
	b.WriteByte('\n')
	_, err := io.WriteString(h.wr, b.String())
	return err
}

func writeAttr(b *strings.Builder, attr slog.Attr) {
	val := attr.Value.String()
	if strings.ContainsAny(val, " \t\"") || val == "" {
		val = fmt.Sprintf("%q", val)
	}
	if len(val) > termCtxMaxPadding {
		// long values left untruncated, but no padding games
		fmt.Fprintf(b, " %s=%s", attr.Key, val)
		return
	}
	fmt.Fprintf(b, " %s=%s", attr.Key, val)
}

func levelColor(l slog.Level) int {
	switch l {
	case LevelCrit:
		return 35
	case slog.LevelError:
		return 31
	case slog.LevelWarn:
		return 33
	case slog.LevelInfo:
		return 32
	case slog.LevelDebug:
		return 36
	case LevelTrace:
		return 34
	}
	return 0
}

func (h *TerminalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.lvl
}

func (h *TerminalHandler) WithGroup(name string) slog.Handler {
	panic("group is not supported")
}

func (h *TerminalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TerminalHandler{
		wr:       h.wr,
		lvl:      h.lvl,
		useColor: h.useColor,
		attrs:    append(append([]slog.Attr{}, h.attrs...), attrs...),
	}
}
