// Package server is the SSH listener. It accepts every client, negotiates
// session channels and runs one shell.Session per interactive channel.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/identity"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/log"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/resume"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/shell"
)

const serverVersion = "SSH-2.0-resume-ssh"

// Options configure a Server.
type Options struct {
	Addr     string // host:port; port 0 picks a free port
	Identity *identity.Identity
	Resume   *resume.Resume
	Registry *shell.Registry // nil selects shell.DefaultRegistry
	Logger   *log.Logger

	IdleTimeout      time.Duration // per session, 0 disables
	MaxSession       time.Duration // per session, 0 disables
	HandshakeTimeout time.Duration // 0 disables
}

// Server is the SSH résumé server.
type Server struct {
	opts      Options
	sshConfig *ssh.ServerConfig
	listener  net.Listener
	logger    *log.Logger

	mu    sync.Mutex
	conns map[net.Conn]struct{}

	wg        sync.WaitGroup
	stopCh    chan struct{}
	closeOnce sync.Once
}

// New creates a server bound to opts.Addr. It does not accept connections
// until Serve is called.
func New(opts Options) (*Server, error) {
	if opts.Identity == nil || opts.Identity.Signer == nil {
		return nil, errors.New("server: identity is required")
	}
	if opts.Resume == nil {
		return nil, errors.New("server: resume is required")
	}
	if opts.Registry == nil {
		opts.Registry = shell.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = log.Nop()
	}

	ln, err := net.Listen("tcp", opts.Addr)
	if err != nil {
		return nil, fmt.Errorf("server: binding listener: %w", err)
	}

	s := &Server{
		opts:      opts,
		sshConfig: newSSHConfig(opts.Identity.Signer),
		listener:  ln,
		logger:    opts.Logger,
		conns:     make(map[net.Conn]struct{}),
		stopCh:    make(chan struct{}),
	}
	return s, nil
}

// newSSHConfig builds a config that accepts every client. The résumé is
// public and read-only, so authentication is deliberately not enforced:
// "none", any password, any public key and any keyboard-interactive answer
// all succeed.
func newSSHConfig(signer ssh.Signer) *ssh.ServerConfig {
	cfg := &ssh.ServerConfig{
		NoClientAuth: true,
		PasswordCallback: func(ssh.ConnMetadata, []byte) (*ssh.Permissions, error) {
			return nil, nil
		},
		PublicKeyCallback: func(ssh.ConnMetadata, ssh.PublicKey) (*ssh.Permissions, error) {
			return nil, nil
		},
		KeyboardInteractiveCallback: func(ssh.ConnMetadata, ssh.KeyboardInteractiveChallenge) (*ssh.Permissions, error) {
			return nil, nil
		},
		ServerVersion: serverVersion,
	}
	cfg.AddHostKey(signer)
	return cfg
}

// Addr returns the address the server is listening on (e.g. "127.0.0.1:2222").
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled or Close is called. It
// returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context) error {
	host, port, _ := net.SplitHostPort(s.Addr().String())
	s.logger.Append(log.LogEvent{
		Event:       log.EventServerReady,
		Addr:        s.Addr().String(),
		Fingerprint: s.opts.Identity.Fingerprint(),
		Message:     fmt.Sprintf("résumé server ready: ssh -p %s %s", port, host),
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.Close()
		case <-s.stopCh:
		case <-done:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopCh:
				return nil
			default:
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return fmt.Errorf("server: accept: %w", err)
		}

		if !s.track(conn) {
			conn.Close()
			continue
		}
		go func() {
			defer s.wg.Done()
			defer s.untrack(conn)
			s.handleConn(ctx, conn)
		}()
	}
}

// Close stops accepting connections, closes live ones and waits for their
// goroutines to finish. It is safe to call more than once.
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.stopCh)
		err = s.listener.Close()

		s.mu.Lock()
		for c := range s.conns {
			c.Close()
		}
		s.mu.Unlock()

		s.wg.Wait()
		s.logger.Append(log.LogEvent{Event: log.EventServerStopped, Addr: s.Addr().String()})
	})
	return err
}

// track registers c and counts its goroutine. It returns false once Close
// has started.
func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.stopCh:
		return false
	default:
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// handleConn runs one client connection. Every failure here is confined to
// this connection.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	remote := conn.RemoteAddr().String()
	defer func() {
		if r := recover(); r != nil {
			s.logProtocolError(&ProtocolError{Remote: remote, Op: "serve", Err: fmt.Errorf("panic: %v", r)})
			conn.Close()
		}
	}()

	if s.opts.HandshakeTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.opts.HandshakeTimeout))
	}
	sconn, chans, reqs, err := ssh.NewServerConn(conn, s.sshConfig)
	if err != nil {
		s.logProtocolError(&ProtocolError{Remote: remote, Op: "handshake", Err: err})
		conn.Close()
		return
	}
	_ = conn.SetDeadline(time.Time{})
	defer sconn.Close()

	opened := time.Now()
	s.logger.Append(log.LogEvent{
		Event:  log.EventConnectionOpened,
		Remote: remote,
		User:   sconn.User(),
		Data:   map[string]interface{}{"client_version": string(sconn.ClientVersion())},
	})

	var chWG sync.WaitGroup
	chWG.Add(1)
	go func() {
		defer chWG.Done()
		ssh.DiscardRequests(reqs)
	}()

	for nc := range chans {
		if nc.ChannelType() != "session" {
			_ = nc.Reject(ssh.UnknownChannelType, "only session channels are supported")
			s.logger.Append(log.LogEvent{
				Event:  log.EventChannelRejected,
				Remote: remote,
				Reason: nc.ChannelType(),
			})
			continue
		}
		ch, requests, err := nc.Accept()
		if err != nil {
			s.logProtocolError(&ProtocolError{Remote: remote, Op: "accept channel", Err: err})
			continue
		}
		chWG.Add(1)
		go func() {
			defer chWG.Done()
			s.handleChannel(ctx, ch, requests, remote)
		}()
	}

	// chans is closed once the connection is gone.
	chWG.Wait()
	s.logger.Append(log.LogEvent{
		Event:      log.EventConnectionClosed,
		Remote:     remote,
		DurationMs: time.Since(opened).Milliseconds(),
	})
}

func (s *Server) logProtocolError(err *ProtocolError) {
	event := log.EventProtocolError
	if err.Op == "handshake" {
		event = log.EventHandshakeFailed
	}
	s.logger.Append(log.LogEvent{
		Event:  event,
		Remote: err.Remote,
		Reason: err.Op,
		Error:  err.Error(),
	})
}
