// Package shell implements the interactive résumé shell: a byte-level input
// state machine, the command registry and the per-channel Session that ties
// them to a connection.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/log"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/render"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/resume"
)

// Messages written when a session ends or a command fails.
const (
	goodbyeMessage  = "Thanks for stopping by. Goodbye!"
	idleMessage     = "Session closed after being idle. Goodbye!"
	timeUpMessage   = "Session time limit reached. Goodbye!"
	shutdownMessage = "Server is shutting down. Goodbye!"
	failureMessage  = "Something went wrong running `%s`. Please try again."
)

// eraseSequence moves the cursor back, blanks the cell and moves back again.
const eraseSequence = "\b \b"

const readBufferSize = 1024

// Options configure a Session. Zero values pick defaults.
type Options struct {
	// ID correlates log events for this session.
	ID string
	// Width is the client's initial terminal width in columns. Values below
	// one select render.DefaultWidth.
	Width int
	// IdleTimeout closes the session after this long without input.
	// Zero disables it.
	IdleTimeout time.Duration
	// MaxDuration caps the lifetime of the session. Zero disables it.
	MaxDuration time.Duration
	Renderer    *render.Renderer
	Logger      *log.Logger
}

// Session is the server side of one interactive channel. It owns its input
// buffer and terminal width; nothing in a Session is shared with another.
// A Session is driven by a single goroutine (Run or Exec) and is not safe for
// concurrent use.
type Session struct {
	id       string
	out      io.Writer
	closer   io.Closer
	resume   *resume.Resume
	registry *Registry
	renderer *render.Renderer
	logger   *log.Logger
	opts     Options

	machine Machine
	width   int
	closed  bool
	started time.Time

	closeOnce sync.Once
}

// New creates a Session that writes to w and releases closer when it ends.
// The résumé and registry are shared read-only.
func New(w io.Writer, closer io.Closer, res *resume.Resume, registry *Registry, opts Options) *Session {
	if opts.Renderer == nil {
		opts.Renderer = render.Plain()
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}
	width := opts.Width
	if width < 1 {
		width = render.DefaultWidth
	}
	return &Session{
		id:       opts.ID,
		out:      crlfWriter{w: w},
		closer:   closer,
		resume:   res,
		registry: registry,
		renderer: opts.Renderer,
		logger:   opts.Logger,
		opts:     opts,
		machine:  NewMachine(),
		width:    width,
	}
}

// ID returns the session's correlation id.
func (s *Session) ID() string { return s.id }

// Width returns the terminal width used for the next render.
func (s *Session) Width() int { return s.width }

// State returns the session's lifecycle state.
func (s *Session) State() State { return s.machine.State() }

// Closed reports whether the session has ended.
func (s *Session) Closed() bool { return s.closed }

// Run opens the session and processes input from in and width updates from
// resizes until the session closes, the input ends or ctx is cancelled.
// A width already waiting on resizes when a chunk is taken from in is applied
// before that chunk. A nil resizes channel is allowed.
func (s *Session) Run(ctx context.Context, in io.Reader, resizes <-chan int) error {
	s.started = time.Now()
	s.logger.Append(log.LogEvent{Event: log.EventSessionOpened, Session: s.id, Width: s.width})
	defer func() {
		s.logger.Append(log.LogEvent{
			Event:      log.EventSessionClosed,
			Session:    s.id,
			DurationMs: time.Since(s.started).Milliseconds(),
		})
	}()

	s.open()
	if s.closed {
		return nil
	}

	chunks := make(chan []byte)
	readErr := make(chan error, 1)
	done := make(chan struct{})
	defer close(done)
	go func() {
		buf := make([]byte, readBufferSize)
		for {
			n, err := in.Read(buf)
			if n > 0 {
				select {
				case chunks <- bytes.Clone(buf[:n]):
				case <-done:
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	idle := newOptionalTimer(s.opts.IdleTimeout)
	defer idle.Stop()
	deadline := newOptionalTimer(s.opts.MaxDuration)
	defer deadline.Stop()

	for !s.closed {
		select {
		case <-ctx.Done():
			s.Close(shutdownMessage)
		case chunk := <-chunks:
			// A width offered before this chunk was read applies to it.
			select {
			case cols, ok := <-resizes:
				if ok {
					s.Resize(cols)
				} else {
					resizes = nil
				}
			default:
			}
			s.feed(chunk)
			idle.Reset(s.opts.IdleTimeout)
		case cols, ok := <-resizes:
			if !ok {
				resizes = nil
				continue
			}
			s.Resize(cols)
		case err := <-readErr:
			// The remote end went away; release the channel without writing.
			s.release()
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case <-idle.C():
			s.Close(idleMessage)
		case <-deadline.C():
			s.Close(timeUpMessage)
		}
	}
	return nil
}

// Exec runs a single command line without the welcome block or prompt, for
// non-interactive "ssh host command" use. It returns the exit status: 0 when
// the command ran, 1 when it is unknown or failed.
func (s *Session) Exec(line string) int {
	s.machine = s.machine.Close()
	name := Normalize(line)
	if name == "" {
		name = "help"
	}
	if !s.dispatch(name) {
		return 1
	}
	return 0
}

// Resize updates the width used by later renders. Non-positive values are
// ignored.
func (s *Session) Resize(cols int) {
	if cols > 0 {
		s.width = cols
	}
}

// WriteBlock writes a rendered block framed by blank lines.
func (s *Session) WriteBlock(block string) error {
	return s.write("\n" + block + "\n")
}

// Close writes message, if any, and closes the channel. Later calls are
// no-ops.
func (s *Session) Close(message string) {
	if s.closed {
		return
	}
	if message != "" {
		_ = s.write("\n" + s.renderer.Success(message) + "\n")
	}
	s.release()
}

func (s *Session) release() {
	s.closed = true
	s.machine = s.machine.Close()
	s.closeOnce.Do(func() {
		if s.closer != nil {
			_ = s.closer.Close()
		}
	})
}

func (s *Session) open() {
	var effects []Effect
	s.machine, effects = s.machine.Open()
	s.apply(effects)
}

// feed runs every byte of chunk through the machine, applying the effects of
// each byte before the next byte is read.
func (s *Session) feed(chunk []byte) {
	for _, b := range chunk {
		if s.closed {
			return
		}
		var effects []Effect
		s.machine, effects = Step(s.machine, b)
		s.apply(effects)
	}
}

func (s *Session) apply(effects []Effect) {
	for _, e := range effects {
		if s.closed {
			return
		}
		switch e.Kind {
		case EffectWelcome:
			_ = s.write(render.ClearScreen + s.renderer.Welcome(s.resume, s.width) + "\n")
		case EffectPrompt:
			_ = s.write("\n" + s.renderer.Prompt(s.resume))
		case EffectEcho:
			_ = s.write(e.Text)
		case EffectErase:
			_ = s.write(eraseSequence)
		case EffectDispatch:
			s.dispatch(e.Text)
		case EffectClose:
			s.Close(goodbyeMessage)
		}
	}
}

// dispatch runs the named command and reports whether it succeeded. Unknown
// names and failing handlers are reported to the client, never propagated.
func (s *Session) dispatch(name string) bool {
	if name == "" {
		return true
	}
	cmd, ok := s.registry.Lookup(name)
	if !ok {
		_ = s.WriteBlock(s.renderer.Warning(render.Unknown(name)))
		return false
	}

	s.logger.Append(log.LogEvent{Event: log.EventCommandDispatched, Session: s.id, Command: cmd.Name, Width: s.width})
	if err := s.invoke(cmd); err != nil {
		s.logger.Append(log.LogEvent{
			Event:   log.EventHandlerFailed,
			Session: s.id,
			Command: cmd.Name,
			Error:   err.Error(),
		})
		if !s.closed {
			_ = s.WriteBlock(s.renderer.Fallback("error", fmt.Sprintf(failureMessage, cmd.Name), s.width))
		}
		return false
	}
	return true
}

// invoke calls the handler, converting a returned error or a panic into a
// HandlerError.
func (s *Session) invoke(cmd Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &HandlerError{Command: cmd.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if herr := cmd.Handler(s); herr != nil {
		return &HandlerError{Command: cmd.Name, Err: herr}
	}
	return nil
}

// write sends p to the client. A failed write means the channel is gone, so
// the session is released.
func (s *Session) write(p string) error {
	if s.closed {
		return io.ErrClosedPipe
	}
	if _, err := io.WriteString(s.out, p); err != nil {
		s.release()
		return err
	}
	return nil
}

// crlfWriter translates "\n" to "\r\n" because client terminals are in raw
// mode and will not return the carriage on their own.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}

// optionalTimer is a time.Timer that may be disabled by a zero duration.
type optionalTimer struct {
	t *time.Timer
}

func newOptionalTimer(d time.Duration) *optionalTimer {
	if d <= 0 {
		return &optionalTimer{}
	}
	return &optionalTimer{t: time.NewTimer(d)}
}

// C returns the timer channel, or nil (blocks forever) when disabled.
func (o *optionalTimer) C() <-chan time.Time {
	if o.t == nil {
		return nil
	}
	return o.t.C
}

func (o *optionalTimer) Reset(d time.Duration) {
	if o.t == nil {
		return
	}
	if !o.t.Stop() {
		select {
		case <-o.t.C:
		default:
		}
	}
	o.t.Reset(d)
}

func (o *optionalTimer) Stop() {
	if o.t != nil {
		o.t.Stop()
	}
}
