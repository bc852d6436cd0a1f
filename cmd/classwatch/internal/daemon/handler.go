package daemon

import (
	"os"
	"time"

	"github.com/albertocavalcante/classwatch/internal/log"
)

// shutdownDelay lets the shutdown response reach the client first.
const shutdownDelay = 100 * time.Millisecond

// Handler handles RPC method calls.
type Handler struct {
	server *Server
}

// HandleRequest dispatches a request. Notifications get no response.
func (h *Handler) HandleRequest(req *Request) *Response {
	log.Component("daemon").Debug("handling request", "method", req.Method, "id", req.ID)

	if req.ID == nil {
		return nil
	}

	switch req.Method {
	case MethodPing:
		return respond(req, PingResult{
			Version: h.server.version,
			Root:    h.server.root,
			PID:     os.Getpid(),
			Uptime:  h.server.Uptime().Round(time.Second).String(),
		})
	case MethodShutdown:
		resp := respond(req, ShutdownResult{Message: "daemon shutting down"})
		time.AfterFunc(shutdownDelay, h.server.RequestShutdown)
		return resp
	case MethodStatus:
		return respond(req, h.server.Status())
	default:
		return NewErrorResponse(req.ID, ErrCodeMethodNotFound, "Method not found: %s", req.Method)
	}
}

func respond(req *Request, result any) *Response {
	resp, err := NewResponse(*req.ID, result)
	if err != nil {
		return NewErrorResponse(req.ID, ErrCodeInternalError, "Failed to create response: %v", err)
	}
	return resp
}
