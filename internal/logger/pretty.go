// internal/logger/pretty.go
package logger

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ANSI sequences for the console level tags.
const (
	ansiReset  = "\033[0m"
	ansiBold   = "\033[1m"
	ansiDim    = "\033[2m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

var levelTags = map[zapcore.Level]string{
	zapcore.DebugLevel: ansiCyan + "[DEBUG]" + ansiReset,
	zapcore.InfoLevel:  ansiGreen + "[INFO]" + ansiReset,
	zapcore.WarnLevel:  ansiYellow + "[WARN]" + ansiReset,
	zapcore.ErrorLevel: ansiRed + "[ERROR]" + ansiReset,
	zapcore.FatalLevel: ansiRed + ansiBold + "[FATAL]" + ansiReset,
}

// prettyEncoder renders colored level tags and wall-clock time, no
// caller or stacktrace noise.
func prettyEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeLevelTag,
		EncodeTime:     encodeClock,
		EncodeDuration: zapcore.StringDurationEncoder,
	})
}

func encodeLevelTag(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	if tag, ok := levelTags[level]; ok {
		enc.AppendString(tag)
		return
	}
	enc.AppendString("[" + level.CapitalString() + "]")
}

func encodeClock(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("15:04:05"))
}

// CreatePrettyLogger creates a console-only logger for interactive
// tools: the probe command and anything else a human watches live.
// Structured fields render inline as dim key=value pairs after the
// message, one line per event.
func CreatePrettyLogger(debug bool) (*zap.Logger, error) {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	core := zapcore.NewCore(
		prettyEncoder(),
		zapcore.AddSync(zapcore.Lock(os.Stdout)),
		level,
	)

	return zap.New(inlineFieldCore{inner: core}), nil
}

// inlineFieldCore folds structured fields into the message text before
// handing the entry to the console encoder, which would otherwise
// render them as a trailing JSON object.
type inlineFieldCore struct {
	inner zapcore.Core
	with  []zapcore.Field
}

func (c inlineFieldCore) Enabled(level zapcore.Level) bool {
	return c.inner.Enabled(level)
}

func (c inlineFieldCore) With(fields []zapcore.Field) zapcore.Core {
	combined := make([]zapcore.Field, 0, len(c.with)+len(fields))
	combined = append(combined, c.with...)
	combined = append(combined, fields...)
	return inlineFieldCore{inner: c.inner, with: combined}
}

func (c inlineFieldCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c inlineFieldCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if len(c.with)+len(fields) > 0 {
		var b strings.Builder
		appendInlineFields(&b, c.with)
		appendInlineFields(&b, fields)
		entry.Message += ansiDim + b.String() + ansiReset
	}
	return c.inner.Write(entry, nil)
}

func (c inlineFieldCore) Sync() error {
	return c.inner.Sync()
}

func appendInlineFields(b *strings.Builder, fields []zapcore.Field) {
	for _, f := range fields {
		enc := zapcore.NewMapObjectEncoder()
		f.AddTo(enc)
		keys := make([]string, 0, len(enc.Fields))
		for k := range enc.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(" ")
			b.WriteString(k)
			b.WriteString("=")
			b.WriteString(formatInlineValue(enc.Fields[k]))
		}
	}
}

func formatInlineValue(v interface{}) string {
	switch v := v.(type) {
	case string:
		if strings.ContainsAny(v, " \t") {
			return strconv.Quote(v)
		}
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case time.Time:
		return v.Format("15:04:05.000")
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CreateTUILoggerWithBuffer creates a logger that never touches stdout:
// entries land in the in-memory buffer the dashboard renders, and in a
// rotating JSON file when logFile is set. Writing to the terminal would
// corrupt the TUI frame.
func CreateTUILoggerWithBuffer(debug bool, buffer *LogBuffer, logFile string) (*zap.Logger, error) {
	if buffer == nil {
		return nil, fmt.Errorf("buffer is required for TUI logger")
	}

	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "msg",
		LevelKey:       "level",
		TimeKey:        "time",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(buffer),
			level,
		),
	}

	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 3,
			MaxAge:     7,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotator),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}
