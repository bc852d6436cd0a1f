package daemon

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/albertocavalcante/classwatch/cmd/classwatch/internal/watch"
	"github.com/albertocavalcante/classwatch/internal/log"
)

// Session is the watch session a daemon hosts.
type Session interface {
	Run(ctx context.Context) error
	Stats() watch.WatchStats
}

// Server hosts a Session and listens on a Unix socket for clients.
type Server struct {
	paths     *Paths
	session   Session
	handler   *Handler
	listener  net.Listener
	startTime time.Time
	version   string
	root      string

	clients   map[*clientConn]struct{}
	clientsMu sync.Mutex

	// Session state, read by status requests.
	sessionMu     sync.Mutex
	running       bool
	stopReason    string
	cancelSession context.CancelFunc
	sessionDone   chan struct{}

	shutdown    chan struct{}
	shutdownMu  sync.Mutex
	isShutdown  bool
	wg          sync.WaitGroup
	shutdownErr error
}

type clientConn struct {
	conn      net.Conn
	encoder   *json.Encoder
	decoder   *json.Decoder
	encoderMu sync.Mutex
	closeOnce sync.Once
}

// ServerConfig configures the daemon server.
type ServerConfig struct {
	Paths   *Paths
	Session Session
	Version string

	// Root is the source root the session watches, reported by ping.
	Root string
}

// NewServer creates a new daemon server.
func NewServer(cfg ServerConfig) *Server {
	s := &Server{
		paths:       cfg.Paths,
		session:     cfg.Session,
		version:     cfg.Version,
		root:        cfg.Root,
		clients:     make(map[*clientConn]struct{}),
		shutdown:    make(chan struct{}),
		sessionDone: make(chan struct{}),
		startTime:   time.Now(),
	}
	s.handler = &Handler{server: s}
	return s
}

// Start listens on the socket, runs the session and blocks until the
// context is cancelled, a signal or shutdown request arrives, or the
// session ends. A session that stops because every watched directory
// is gone is not an error.
func (s *Server) Start(ctx context.Context) error {
	logger := log.Component("daemon")

	if _, err := CleanupStale(s.paths); err != nil {
		logger.Warn("failed to clean up stale files", "error", err)
	}
	if err := s.paths.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create daemon directory: %w", err)
	}

	listener, err := net.Listen("unix", s.paths.Socket)
	if err != nil {
		return fmt.Errorf("failed to create socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.paths.Socket, 0o600); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}
	if err := s.paths.WritePID(); err != nil {
		_ = listener.Close()
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	logger.Info("daemon started", "pid", os.Getpid(), "socket", s.paths.Socket, "version", s.version)

	sessionErr := make(chan error, 1)
	s.startSession(sessionErr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	s.wg.Add(1)
	go s.acceptLoop()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
	case <-s.shutdown:
		logger.Info("shutdown requested via RPC")
	case err := <-sessionErr:
		if err != nil && !errors.Is(err, watch.ErrNoWatchedDirectories) {
			runErr = err
		}
		logger.Info("watch session ended, shutting down", "reason", s.StopReason())
	}

	if err := s.Shutdown(); err != nil && runErr == nil {
		return err
	}
	return runErr
}

func (s *Server) startSession(errCh chan<- error) {
	ctx, cancel := context.WithCancel(context.Background())

	s.sessionMu.Lock()
	s.running = true
	s.cancelSession = cancel
	s.sessionMu.Unlock()

	go func() {
		defer close(s.sessionDone)
		err := s.session.Run(ctx)

		reason := "stopped"
		switch {
		case errors.Is(err, watch.ErrNoWatchedDirectories):
			reason = "every watched directory is gone"
		case err != nil:
			reason = err.Error()
		}

		s.sessionMu.Lock()
		s.running = false
		s.stopReason = reason
		s.sessionMu.Unlock()

		errCh <- err
	}()
}

// acceptLoop accepts new client connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()
	logger := log.Component("daemon")

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.shuttingDown() || errors.Is(err, net.ErrClosed) {
				return
			}
			logger.Warn("accept error", "error", err)
			continue
		}

		client := &clientConn{
			conn:    conn,
			encoder: json.NewEncoder(conn),
			decoder: json.NewDecoder(bufio.NewReader(conn)),
		}

		s.clientsMu.Lock()
		s.clients[client] = struct{}{}
		clientCount := len(s.clients)
		s.clientsMu.Unlock()

		logger.Debug("client connected", "client_count", clientCount)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleClient(client)
		}()
	}
}

// handleClient processes requests from a single client.
func (s *Server) handleClient(client *clientConn) {
	logger := log.Component("daemon")
	defer func() {
		client.close()
		s.clientsMu.Lock()
		delete(s.clients, client)
		s.clientsMu.Unlock()
	}()

	for {
		var req Request
		if err := client.decoder.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
				return
			}
			// The decoder cannot resync after bad input, so the
			// connection ends after the parse error is reported.
			logger.Debug("failed to decode request", "error", err)
			_ = client.send(NewErrorResponse(nil, ErrCodeParseError, "Parse error: %v", err))
			return
		}

		if req.JSONRPC != JSONRPCVersion {
			resp := NewErrorResponse(req.ID, ErrCodeInvalidRequest, "Invalid Request: unsupported JSON-RPC version %q", req.JSONRPC)
			if err := client.send(resp); err != nil {
				return
			}
			continue
		}

		if resp := s.handler.HandleRequest(&req); resp != nil {
			if err := client.send(resp); err != nil {
				logger.Debug("failed to send response", "error", err)
				return
			}
		}
	}
}

// Shutdown stops the session, disconnects clients and removes the daemon
// files. It is safe to call more than once.
func (s *Server) Shutdown() error {
	s.shutdownMu.Lock()
	if s.isShutdown {
		s.shutdownMu.Unlock()
		return s.shutdownErr
	}
	s.isShutdown = true
	s.shutdownMu.Unlock()

	logger := log.Component("daemon")
	logger.Info("shutting down daemon")

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			logger.Warn("failed to close listener", "error", err)
		}
	}

	s.sessionMu.Lock()
	cancel := s.cancelSession
	s.sessionMu.Unlock()
	if cancel != nil {
		cancel()
		select {
		case <-s.sessionDone:
		case <-time.After(5 * time.Second):
			logger.Warn("shutdown timed out waiting for the watch session")
		}
	}

	s.clientsMu.Lock()
	for client := range s.clients {
		client.close()
	}
	s.clientsMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("shutdown timed out waiting for clients")
	}

	if err := s.paths.Cleanup(); err != nil {
		logger.Warn("failed to clean up daemon files", "error", err)
		s.shutdownErr = err
	}

	logger.Info("daemon stopped")
	return s.shutdownErr
}

// RequestShutdown asks Start to return.
func (s *Server) RequestShutdown() {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	if s.isShutdown {
		return
	}
	select {
	case <-s.shutdown:
	default:
		close(s.shutdown)
	}
}

func (s *Server) shuttingDown() bool {
	s.shutdownMu.Lock()
	defer s.shutdownMu.Unlock()
	return s.isShutdown
}

// Status reports the hosted session.
func (s *Server) Status() StatusResult {
	s.sessionMu.Lock()
	running, reason := s.running, s.stopReason
	s.sessionMu.Unlock()

	stats := s.session.Stats()
	return StatusResult{
		Watching:    running,
		Root:        stats.Root,
		Strategy:    stats.Strategy,
		Directories: stats.Directories,
		Changes:     stats.ChangeCount,
		Deletions:   stats.DeletionCount,
		Overflows:   stats.OverflowCount,
		Errors:      stats.ErrorCount,
		StopReason:  reason,
	}
}

// StopReason describes why the session ended, or is empty while it runs.
func (s *Server) StopReason() string {
	s.sessionMu.Lock()
	defer s.sessionMu.Unlock()
	return s.stopReason
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	return time.Since(s.startTime)
}

func (c *clientConn) send(msg any) error {
	c.encoderMu.Lock()
	defer c.encoderMu.Unlock()
	return c.encoder.Encode(msg)
}

func (c *clientConn) close() {
	c.closeOnce.Do(func() { _ = c.conn.Close() })
}
