// Package log scopes slog loggers to application components and carries
// them through request contexts.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is a slog.Logger tagged with a component attribute. The untagged
// parent is kept so WithComponent replaces the tag instead of stacking it.
type Logger struct {
	*slog.Logger
	parent    *slog.Logger
	component string
}

// Config selects the handler and component of a new Logger. A nil Handler
// writes text to stdout at Level.
type Config struct {
	Level     slog.Level
	Component string
	Handler   slog.Handler
}

func New(cfg Config) *Logger {
	h := cfg.Handler
	if h == nil {
		h = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})
	}
	return scoped(slog.New(h), cfg.Component)
}

func scoped(parent *slog.Logger, component string) *Logger {
	return &Logger{
		Logger:    parent.With(FieldComponent, component),
		parent:    parent,
		component: component,
	}
}

// With returns a logger carrying args in addition to the component.
func (l *Logger) With(args ...any) *Logger {
	return scoped(l.parent.With(args...), l.component)
}

// WithComponent returns the same logger tagged with another component.
func (l *Logger) WithComponent(component string) *Logger {
	return scoped(l.parent, component)
}

func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs l as the slog default.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values map to Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup builds a text logger writing to w at level, installs it as the slog
// default and returns it scoped to component.
func Setup(w io.Writer, level, component string) *Logger {
	if w == nil {
		w = os.Stdout
	}
	lvl := ParseLevel(level)
	l := New(Config{
		Level:     lvl,
		Component: component,
		Handler:   slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}),
	})
	SetDefault(l)
	return l
}
