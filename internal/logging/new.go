package logging

import (
	"context"
	"io"
)

// Log formats accepted by New.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatZap  = "zap"
)

// New picks a Logger implementation by format name. Unknown formats fall
// back to slog text output.
func New(format string, level string, w io.Writer) Logger {
	switch format {
	case FormatJSON:
		return NewJSONLogger(w, level)
	case FormatZap:
		return NewZapJSONLogger(w, level)
	default:
		return NewTextLogger(w, level)
	}
}

// Nop discards everything.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
