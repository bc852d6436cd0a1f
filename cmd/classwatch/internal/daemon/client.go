package daemon

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

var (
	// ErrNotConnected is returned once the connection has been closed.
	ErrNotConnected = errors.New("not connected to daemon")

	// ErrDaemonNotRunning is returned when nothing listens on the socket.
	ErrDaemonNotRunning = errors.New("daemon not running")
)

const (
	dialTimeout = 5 * time.Second
	callTimeout = 10 * time.Second
)

// Client talks to a running daemon. Calls are serialized.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	encoder *json.Encoder
	decoder *json.Decoder
	lastID  int64
}

// Connect dials the daemon socket at socketPath.
func Connect(socketPath string) (*Client, error) {
	conn, err := net.DialTimeout("unix", socketPath, dialTimeout)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) {
			return nil, ErrDaemonNotRunning
		}
		return nil, fmt.Errorf("failed to connect to daemon: %w", err)
	}

	return &Client{
		conn:    conn,
		encoder: json.NewEncoder(conn),
		decoder: json.NewDecoder(bufio.NewReader(conn)),
	}, nil
}

// Close closes the connection. Later calls return ErrNotConnected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// call sends method and decodes the matching response into result. A
// daemon that does not answer within callTimeout fails the call.
func (c *Client) call(method string, result any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		return ErrNotConnected
	}
	if err := c.conn.SetDeadline(time.Now().Add(callTimeout)); err != nil {
		return fmt.Errorf("failed to set deadline: %w", err)
	}

	c.lastID++
	if err := c.encoder.Encode(NewRequest(c.lastID, method)); err != nil {
		return fmt.Errorf("failed to send %s: %w", method, err)
	}

	var resp Response
	if err := c.decoder.Decode(&resp); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrNotConnected
		}
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}
	if resp.Error == nil && (resp.ID == nil || *resp.ID != c.lastID) {
		return fmt.Errorf("%s: response does not match request %d", method, c.lastID)
	}
	return resp.Decode(result)
}

// Ping identifies the daemon.
func (c *Client) Ping() (*PingResult, error) {
	var result PingResult
	if err := c.call(MethodPing, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Shutdown asks the daemon to stop.
func (c *Client) Shutdown() (*ShutdownResult, error) {
	var result ShutdownResult
	if err := c.call(MethodShutdown, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Status returns the state of the daemon's watch session.
func (c *Client) Status() (*StatusResult, error) {
	var result StatusResult
	if err := c.call(MethodStatus, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
