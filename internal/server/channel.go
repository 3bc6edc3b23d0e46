package server

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/log"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/render"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/shell"
)

// Request payloads, RFC 4254 section 6.
type ptyRequest struct {
	Term     string
	Columns  uint32
	Rows     uint32
	WidthPx  uint32
	HeightPx uint32
	Modes    string
}

type windowChange struct {
	Columns  uint32
	Rows     uint32
	WidthPx  uint32
	HeightPx uint32
}

type envRequest struct {
	Name  string
	Value string
}

type execRequest struct {
	Command string
}

type exitStatus struct {
	Status uint32
}

// channelCloser sends an exit status and closes the channel exactly once,
// whichever of the session or the server gets there first.
type channelCloser struct {
	ch     ssh.Channel
	once   sync.Once
	status uint32
	mu     sync.Mutex
}

func (c *channelCloser) setStatus(code int) {
	c.mu.Lock()
	c.status = uint32(code)
	c.mu.Unlock()
}

func (c *channelCloser) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		status := c.status
		c.mu.Unlock()
		_, _ = c.ch.SendRequest("exit-status", false, ssh.Marshal(exitStatus{Status: status}))
		err = c.ch.Close()
	})
	return err
}

// terminal is what the client told us about its terminal before the shell
// started.
type terminal struct {
	term      string
	colorTerm string
	width     int
}

func (t terminal) renderer() *render.Renderer {
	return render.New(render.ProfileForTerm(t.term, t.colorTerm))
}

// channelState is the request-side state of one session channel. It is
// owned by the goroutine running serve.
type channelState struct {
	srv    *Server
	ctx    context.Context
	ch     ssh.Channel
	remote string
	closer *channelCloser

	term     terminal
	started  bool
	resizes  chan int
	finished chan struct{}

	// syncs carries requests from orderedInput to handle every queued
	// request before a data chunk is passed on. loopDone is closed when
	// serve returns.
	syncs    chan chan struct{}
	loopDone chan struct{}
}

// handleChannel serves the requests of one session channel. At most one
// shell or exec runs per channel; it returns once the channel is closed and
// that session has finished.
func (s *Server) handleChannel(ctx context.Context, ch ssh.Channel, requests <-chan *ssh.Request, remote string) {
	c := &channelState{
		srv:      s,
		ctx:      ctx,
		ch:       ch,
		remote:   remote,
		closer:   &channelCloser{ch: ch},
		resizes:  make(chan int, 1),
		finished: make(chan struct{}),
		syncs:    make(chan chan struct{}),
		loopDone: make(chan struct{}),
	}
	defer c.closer.Close()

	c.serve(requests)
	close(c.loopDone)
	if c.started {
		<-c.finished
	}
}

func (c *channelState) serve(requests <-chan *ssh.Request) {
	for {
		select {
		case req, ok := <-requests:
			if !ok {
				return
			}
			c.handle(req)
		case ack := <-c.syncs:
			open := c.drain(requests)
			close(ack)
			if !open {
				return
			}
		}
	}
}

// drain handles every request already queued on requests without waiting
// for more. It reports false if requests was closed.
func (c *channelState) drain(requests <-chan *ssh.Request) bool {
	for {
		select {
		case req, ok := <-requests:
			if !ok {
				return false
			}
			c.handle(req)
		default:
			return true
		}
	}
}

func (c *channelState) handle(req *ssh.Request) {
	s := c.srv
	switch req.Type {
	case "pty-req":
		var p ptyRequest
		if err := ssh.Unmarshal(req.Payload, &p); err != nil {
			s.logProtocolError(&ProtocolError{Remote: c.remote, Op: "pty-req", Err: err})
			reply(req, false)
			return
		}
		c.term.term = p.Term
		c.term.width = int(p.Columns)
		reply(req, true)

	case "env":
		var e envRequest
		if err := ssh.Unmarshal(req.Payload, &e); err == nil && e.Name == "COLORTERM" {
			c.term.colorTerm = strings.ToLower(e.Value)
		}
		reply(req, true)

	case "window-change":
		var w windowChange
		if err := ssh.Unmarshal(req.Payload, &w); err != nil {
			s.logProtocolError(&ProtocolError{Remote: c.remote, Op: "window-change", Err: err})
			return
		}
		if !c.started {
			c.term.width = int(w.Columns)
			return
		}
		offerWidth(c.resizes, int(w.Columns))

	case "shell":
		if c.started {
			reply(req, false)
			return
		}
		c.started = true
		reply(req, true)
		sess := s.newSession(c.ch, c.closer, c.term)
		in := orderedInput{r: c.ch, syncs: c.syncs, loopDone: c.loopDone}
		go func() {
			defer close(c.finished)
			_ = sess.Run(c.ctx, in, c.resizes)
		}()

	case "exec":
		if c.started {
			reply(req, false)
			return
		}
		var e execRequest
		if err := ssh.Unmarshal(req.Payload, &e); err != nil {
			s.logProtocolError(&ProtocolError{Remote: c.remote, Op: "exec", Err: err})
			reply(req, false)
			return
		}
		c.started = true
		reply(req, true)
		sess := s.newSession(c.ch, c.closer, c.term)
		go func() {
			defer close(c.finished)
			s.runExec(sess, c.closer, e.Command)
		}()

	default:
		reply(req, false)
	}
}

// orderedInput is the shell's view of channel data. The transport queues a
// channel request before any data that followed it on the wire, so handling
// every queued request before returning a chunk means a window-change always
// reaches the session ahead of the keystrokes typed after it.
type orderedInput struct {
	r        io.Reader
	syncs    chan<- chan struct{}
	loopDone <-chan struct{}
}

func (o orderedInput) Read(p []byte) (int, error) {
	n, err := o.r.Read(p)
	if n > 0 {
		o.sync()
	}
	return n, err
}

func (o orderedInput) sync() {
	ack := make(chan struct{})
	select {
	case o.syncs <- ack:
		<-ack
	case <-o.loopDone:
	}
}

func (s *Server) newSession(ch ssh.Channel, closer *channelCloser, term terminal) *shell.Session {
	return shell.New(ch, closer, s.opts.Resume, s.opts.Registry, shell.Options{
		ID:          uuid.NewString(),
		Width:       term.width,
		IdleTimeout: s.opts.IdleTimeout,
		MaxDuration: s.opts.MaxSession,
		Renderer:    term.renderer(),
		Logger:      s.logger,
	})
}

func (s *Server) runExec(sess *shell.Session, closer *channelCloser, command string) {
	started := time.Now()
	s.logger.Append(log.LogEvent{Event: log.EventSessionOpened, Session: sess.ID(), Command: shell.Normalize(command)})
	code := sess.Exec(command)
	closer.setStatus(code)
	_ = closer.Close()
	s.logger.Append(log.LogEvent{
		Event:      log.EventSessionClosed,
		Session:    sess.ID(),
		DurationMs: time.Since(started).Milliseconds(),
	})
}

// offerWidth hands the newest width to the session without blocking the
// request loop. Only the latest width matters, so a pending one is replaced.
func offerWidth(resizes chan int, cols int) {
	for {
		select {
		case resizes <- cols:
			return
		default:
		}
		select {
		case <-resizes:
		default:
		}
	}
}

func reply(req *ssh.Request, ok bool) {
	if req.WantReply {
		_ = req.Reply(ok, nil)
	}
}
