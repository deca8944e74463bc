package log

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
)

// Output formats accepted by New.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatCloud   = "cloud"
)

// New builds a Logger for the given output format.
func New(format string, w io.Writer, level Level) (Logger, error) {
	switch strings.ToLower(format) {
	case FormatJSON, "":
		return NewZerologLogger(w, level), nil
	case FormatConsole:
		return NewConsoleLogger(w, level), nil
	case FormatCloud:
		return NewCloudLogger(w, level), nil
	default:
		return nil, errors.Newf("unknown log format: %q", format)
	}
}

// NewCloudLogger returns a log/slog JSON Logger using CloudLogging attribute keys.
// Errors logged through it carry a stacktrace attribute extracted by ErrFmtHandler.
func NewCloudLogger(w io.Writer, level Level) Logger {
	ops := slog.HandlerOptions{
		AddSource: true,
		Level:     slog.Level(level),
		// Replace attributes to convert to CloudLogging format.
		ReplaceAttr: func(groups []string, attr slog.Attr) slog.Attr {
			switch attr.Key {
			case slog.LevelKey:
				attr = slog.Attr{
					Key:   "severity",
					Value: attr.Value,
				}
			case slog.MessageKey:
				attr = slog.Attr{
					Key:   "message",
					Value: attr.Value,
				}
			case slog.SourceKey:
				attr = slog.Attr{
					Key:   "logging.googleapis.com/sourceLocation",
					Value: attr.Value,
				}
			}
			return attr
		},
	}
	handler := slog.NewJSONHandler(w, &ops)
	return &slogLogger{sl: slog.New(WrapByErrFmtHandler(handler))}
}

// slogLogger adapts *slog.Logger to the Logger interface.
type slogLogger struct {
	sl *slog.Logger
}

func (l *slogLogger) Debug(msg string, fields ...any) { l.sl.Debug(msg, errFields(fields)...) }
func (l *slogLogger) Info(msg string, fields ...any)  { l.sl.Info(msg, errFields(fields)...) }
func (l *slogLogger) Warn(msg string, fields ...any)  { l.sl.Warn(msg, errFields(fields)...) }
func (l *slogLogger) Error(msg string, fields ...any) { l.sl.Error(msg, errFields(fields)...) }

// errFields turns a leading error into an ErrAttr so ErrFmtHandler can find it.
func errFields(fields []any) []any {
	err, rest := splitError(fields)
	if err == nil {
		return fields
	}
	return append([]any{ErrAttr(err)}, rest...)
}

func (l *slogLogger) With(fields ...any) Logger {
	return &slogLogger{sl: l.sl.With(fields...)}
}

func (l *slogLogger) Enabled(ctx context.Context, level Level) bool {
	return l.sl.Enabled(ctx, slog.Level(level))
}

const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr is a wrapper to pass err to slog.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
