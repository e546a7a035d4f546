package logger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Jayshxd/Open-Feast/internal/config"

	"github.com/fluent/fluent-logger-golang/fluent"
	"github.com/lmittmann/tint"
)

// Poster is the subset of *fluent.Fluent used by the fluent handler.
type Poster interface {
	Post(tag string, message interface{}) error
}

// New builds the process logger. Records always go to stderr through tint; when
// FLUENT_HOST is configured they are also shipped to Fluent Bit. The returned
// close func releases the fluent connection and is safe to call when disabled.
func New(cfg config.Config) (*slog.Logger, func() error) {
	level := ParseLevel(cfg.LogLevel)
	console := NewConsoleHandler(os.Stderr, level)

	if cfg.FluentHost == "" {
		return slog.New(console), func() error { return nil }
	}

	client, err := fluent.New(fluent.Config{
		FluentHost: cfg.FluentHost,
		FluentPort: cfg.FluentPort,
		Async:      true,
	})
	if err != nil {
		log := slog.New(console)
		log.Error("fluent client init failed, logging to stderr only", "error", err)
		return log, func() error { return nil }
	}

	tag := cfg.FluentTag
	if tag == "" {
		tag = "openfeast"
	}
	handler := NewFanout(console, NewFluentHandler(client, tag, level))
	return slog.New(handler), client.Close
}

func NewConsoleHandler(w io.Writer, level slog.Leveler) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: "2006-01-02 15:04:05",
	})
}

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

// FluentHandler posts every record as a flat map tagged "<tag>.<level>".
type FluentHandler struct {
	client Poster
	tag    string
	level  slog.Leveler
	attrs  []slog.Attr
	group  string
}

func NewFluentHandler(client Poster, tag string, level slog.Leveler) *FluentHandler {
	return &FluentHandler{client: client, tag: tag, level: level}
}

func (h *FluentHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *FluentHandler) Handle(_ context.Context, r slog.Record) error {
	data := make(map[string]interface{}, len(h.attrs)+r.NumAttrs()+3)
	for _, a := range h.attrs {
		data[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		data[h.key(a.Key)] = attrValue(a.Value)
		return true
	})
	data["level"] = strings.ToLower(r.Level.String())
	data["message"] = r.Message
	data["timestamp"] = r.Time.UTC().Format(time.RFC3339Nano)

	return h.client.Post(h.tag+"."+strings.ToLower(r.Level.String()), data)
}

func (h *FluentHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	next.attrs = append(next.attrs, h.attrs...)
	for _, a := range attrs {
		next.attrs = append(next.attrs, slog.Any(h.key(a.Key), attrValue(a.Value)))
	}
	return &next
}

func (h *FluentHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.group = h.key(name)
	return &next
}

func (h *FluentHandler) key(k string) string {
	if h.group == "" {
		return k
	}
	return h.group + "." + k
}

func attrValue(v slog.Value) interface{} {
	v = v.Resolve()
	if err, ok := v.Any().(error); ok {
		return err.Error()
	}
	if v.Kind() == slog.KindTime {
		return v.Time().UTC().Format(time.RFC3339Nano)
	}
	if v.Kind() == slog.KindDuration {
		return v.Duration().String()
	}
	return v.Any()
}

// Fanout sends each record to every handler that has the level enabled.
type Fanout struct {
	handlers []slog.Handler
}

func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{handlers: handlers}
}

func (f *Fanout) Enabled(ctx context.Context, l slog.Level) bool {
	for _, h := range f.handlers {
		if h.Enabled(ctx, l) {
			return true
		}
	}
	return false
}

func (f *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &Fanout{handlers: next}
}

func (f *Fanout) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(f.handlers))
	for i, h := range f.handlers {
		next[i] = h.WithGroup(name)
	}
	return &Fanout{handlers: next}
}

// Discard returns a logger that drops everything; used by tests and by
// components constructed without a logger.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}
