// Package log provides structured event logging.
// Events are named by the constants below and written as one JSON object
// per line (or as console text when attached to a terminal) through zap.
package log

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Event type constants.
const (
	EventServerReady       = "server_ready"
	EventServerStopped     = "server_stopped"
	EventIdentityLoaded    = "identity_loaded"
	EventIdentityEphemeral = "identity_ephemeral"
	EventConnectionOpened  = "connection_opened"
	EventConnectionClosed  = "connection_closed"
	EventHandshakeFailed   = "handshake_failed"
	EventProtocolError     = "protocol_error"
	EventChannelRejected   = "channel_rejected"
	EventSessionOpened     = "session_opened"
	EventSessionClosed     = "session_closed"
	EventCommandDispatched = "command_dispatched"
	EventHandlerFailed     = "handler_failed"
)

// eventLevels overrides the default info level for events that need
// attention. Unlisted events log at info.
var eventLevels = map[string]zapcore.Level{
	EventCommandDispatched: zapcore.DebugLevel,
	EventIdentityEphemeral: zapcore.WarnLevel,
	EventHandshakeFailed:   zapcore.WarnLevel,
	EventProtocolError:     zapcore.WarnLevel,
	EventChannelRejected:   zapcore.WarnLevel,
	EventHandlerFailed:     zapcore.ErrorLevel,
}

// LogEvent represents a single structured event written to the log.
type LogEvent struct {
	Time        time.Time              `json:"time"`
	Level       string                 `json:"level,omitempty"`
	Event       string                 `json:"event"`
	Message     string                 `json:"message,omitempty"`
	Session     string                 `json:"session,omitempty"`
	Remote      string                 `json:"remote,omitempty"`
	User        string                 `json:"user,omitempty"`
	Addr        string                 `json:"addr,omitempty"`
	Command     string                 `json:"command,omitempty"`
	Reason      string                 `json:"reason,omitempty"`
	Fingerprint string                 `json:"fingerprint,omitempty"`
	Path        string                 `json:"path,omitempty"`
	Width       int                    `json:"width,omitempty"`
	DurationMs  int64                  `json:"duration_ms,omitempty"`
	Error       string                 `json:"error,omitempty"`
	Data        map[string]interface{} `json:"data,omitempty"`
}

// Options configure a Logger.
type Options struct {
	// Level is the minimum level written: debug, info, warn or error.
	// Empty means info.
	Level string
	// Console selects the human-readable encoder instead of JSON.
	Console bool
}

// Logger writes events through a zap core. It is safe for concurrent use.
type Logger struct {
	z *zap.Logger
}

// NewLogger creates a Logger that writes to w. An unknown level falls back
// to info; config.Validate rejects those before a Logger is built.
func NewLogger(w io.Writer, opts Options) *Logger {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if l, err := zapcore.ParseLevel(opts.Level); err == nil {
			level = l
		}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "" // LogEvent.Time is written as a field
	encCfg.MessageKey = "event"
	encCfg.LevelKey = "level"
	encCfg.CallerKey = ""
	encCfg.EncodeTime = zapcore.RFC3339NanoTimeEncoder

	var enc zapcore.Encoder
	if opts.Console {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	} else {
		enc = zapcore.NewJSONEncoder(encCfg)
	}

	core := zapcore.NewCore(enc, zapcore.Lock(zapcore.AddSync(w)), zap.NewAtomicLevelAt(level))
	return &Logger{z: zap.New(core)}
}

// NewStderr creates a Logger on stderr, choosing the console encoder when
// stderr is a terminal.
func NewStderr(level string) *Logger {
	return NewLogger(os.Stderr, Options{
		Level:   level,
		Console: term.IsTerminal(int(os.Stderr.Fd())),
	})
}

// OpenFile creates a Logger that appends JSON lines to path.
// Does not truncate an existing log file.
func OpenFile(path, level string) (*Logger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return NewLogger(f, Options{Level: level}), f, nil
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{z: zap.NewNop()}
}

// Append writes a single LogEvent.
// If event.Time is the zero value, it is automatically set to time.Now().UTC().
func (l *Logger) Append(event LogEvent) error {
	if event.Event == "" {
		return fmt.Errorf("log event has no name")
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}

	level, ok := eventLevels[event.Event]
	if !ok {
		level = zapcore.InfoLevel
	}
	ce := l.z.Check(level, event.Event)
	if ce == nil {
		return nil
	}
	ce.Write(fields(event)...)
	return nil
}

// Sync flushes any buffered output.
func (l *Logger) Sync() error {
	return l.z.Sync()
}

func fields(e LogEvent) []zap.Field {
	fs := []zap.Field{zap.Time("time", e.Time)}
	str := func(key, val string) {
		if val != "" {
			fs = append(fs, zap.String(key, val))
		}
	}
	str("message", e.Message)
	str("session", e.Session)
	str("remote", e.Remote)
	str("user", e.User)
	str("addr", e.Addr)
	str("command", e.Command)
	str("reason", e.Reason)
	str("fingerprint", e.Fingerprint)
	str("path", e.Path)
	if e.Width != 0 {
		fs = append(fs, zap.Int("width", e.Width))
	}
	if e.DurationMs != 0 {
		fs = append(fs, zap.Int64("duration_ms", e.DurationMs))
	}
	str("error", e.Error)
	if len(e.Data) > 0 {
		fs = append(fs, zap.Any("data", e.Data))
	}
	return fs
}

// ReadAll parses JSON events written by a Logger, one per line. Blank lines
// are skipped.
func ReadAll(r io.Reader) ([]LogEvent, error) {
	var events []LogEvent
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var event LogEvent
		if err := json.Unmarshal([]byte(line), &event); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", lineNum, err)
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return events, nil
}
