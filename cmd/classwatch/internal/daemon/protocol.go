// Package daemon runs a watch session in the background and answers
// status and shutdown requests over a Unix socket.
//
// Clients and the daemon exchange newline-delimited JSON-RPC 2.0 messages.
// None of the methods take parameters.
package daemon

import (
	"encoding/json"
	"fmt"
)

// JSONRPCVersion is the only protocol version the daemon speaks.
const JSONRPCVersion = "2.0"

// JSON-RPC 2.0 error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInternalError  = -32603
)

// RPC methods.
const (
	MethodPing     = "ping"
	MethodShutdown = "shutdown"
	MethodStatus   = "watch/status"
)

// Request is a JSON-RPC request. A nil ID marks a notification.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is a JSON-RPC response carrying either Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the error object of a failed call.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// NewRequest builds a call to method.
func NewRequest(id int64, method string) *Request {
	return &Request{JSONRPC: JSONRPCVersion, ID: &id, Method: method}
}

// NewResponse builds a successful response. A nil result is sent as an
// explicit null.
func NewResponse(id int64, result any) (*Response, error) {
	data := json.RawMessage("null")
	if result != nil {
		var err error
		if data, err = json.Marshal(result); err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
	}
	return &Response{JSONRPC: JSONRPCVersion, ID: &id, Result: data}, nil
}

// NewErrorResponse builds an error response. id may be nil when the
// request could not be read.
func NewErrorResponse(id *int64, code int, format string, args ...any) *Response {
	return &Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: fmt.Sprintf(format, args...)},
	}
}

// Decode returns the response error, or unmarshals Result into v.
func (r *Response) Decode(v any) error {
	if r.Error != nil {
		return r.Error
	}
	if v == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return nil
}

// PingResult identifies the daemon answering on a socket.
type PingResult struct {
	Version string `json:"version"`
	Root    string `json:"root"`
	PID     int    `json:"pid"`
	Uptime  string `json:"uptime"`
}

// ShutdownResult acknowledges a shutdown request.
type ShutdownResult struct {
	Message string `json:"message"`
}

// StatusResult is the response to watch/status.
type StatusResult struct {
	Watching    bool   `json:"watching"`
	Root        string `json:"root,omitempty"`
	Strategy    string `json:"strategy,omitempty"`
	Directories int    `json:"directories"`
	Changes     int    `json:"changes"`
	Deletions   int    `json:"deletions"`
	Overflows   int    `json:"overflows"`
	Errors      int    `json:"errors"`

	// StopReason is set once the session has ended on its own.
	StopReason string `json:"stop_reason,omitempty"`
}
