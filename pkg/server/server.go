package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/richard-senior/fplodds/internal/logger"
	"github.com/richard-senior/fplodds/pkg/protocol"
	"github.com/richard-senior/fplodds/pkg/transport"
)

const (
	serverName             = "fplodds"
	serverVersion          = "1.0.0"
	defaultProtocolVersion = "2024-11-05"
)

// HandlerFunc handles an MCP request. A nil result with a nil error means no response
type HandlerFunc func(ctx context.Context, params any) (any, error)

// Server represents an MCP server
type Server struct {
	transport transport.Transport
	mu        sync.RWMutex
	handlers  map[string]HandlerFunc
	tools     []protocol.Tool
	toolFuncs map[string]HandlerFunc
}

// New creates a server on the given transport with the protocol methods registered
func New(t transport.Transport) *Server {
	s := &Server{
		transport: t,
		handlers:  make(map[string]HandlerFunc),
		toolFuncs: make(map[string]HandlerFunc),
	}
	s.handlers[string(protocol.MethodInitialize)] = s.handleInitialize
	s.handlers[string(protocol.MethodInitialized)] = s.handleInitialized
	s.handlers[string(protocol.MethodPing)] = s.handlePing
	s.handlers[string(protocol.MethodToolsList)] = s.handleToolsList
	s.handlers[string(protocol.MethodToolsCall)] = s.handleToolsCall
	return s
}

// RegisterTool registers a tool with the server
func (s *Server) RegisterTool(tool protocol.Tool, handler HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools = append(s.tools, tool)
	s.toolFuncs[tool.Name] = handler
	logger.Info("Registered tool:", tool.Name)
}

// GetTools returns the list of registered tools
func (s *Server) GetTools() []protocol.Tool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ret := make([]protocol.Tool, len(s.tools))
	copy(ret, s.tools)
	return ret
}

// ProcessRequests handles requests until the client disconnects or ctx is cancelled.
// A clean disconnect returns nil
func (s *Server) ProcessRequests(ctx context.Context) error {
	logger.Info("Starting MCP server")
	reqs := make(chan inbound)
	errs := make(chan error, 1)

	// ReadRequest blocks on the transport so it cannot watch ctx itself
	go func() {
		defer close(reqs)
		for {
			var msg inbound
			req, err := s.transport.ReadRequest()
			if err != nil {
				// a malformed message still leaves the stream usable
				if !errors.As(err, &msg.rpcErr) {
					errs <- err
					return
				}
			}
			msg.req = req
			select {
			case reqs <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	var in <-chan inbound = reqs
	for {
		select {
		case <-ctx.Done():
			logger.Info("Stopping MCP server", ctx.Err())
			return nil
		case err := <-errs:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case msg, ok := <-in:
			if !ok {
				// the reader has exited, its error is waiting
				in = nil
				continue
			}
			var resp *protocol.JsonRpcResponse
			if msg.rpcErr != nil {
				resp = protocol.NewJsonRpcErrorResponse(msg.rpcErr.Code, msg.rpcErr.Message, nil, nil)
			} else {
				resp = s.handleRequest(ctx, msg.req)
			}
			if resp == nil {
				continue
			}
			if err := s.transport.WriteResponse(resp); err != nil {
				return err
			}
		}
	}
}

// inbound is either a request or the reason one could not be read
type inbound struct {
	req    *protocol.JsonRpcRequest
	rpcErr *protocol.JsonRpcError
}

// handleRequest processes a request and returns a response, or nil when none is due
func (s *Server) handleRequest(ctx context.Context, req *protocol.JsonRpcRequest) *protocol.JsonRpcResponse {
	logger.Info(">> ", req.Method)
	logger.Debug("Full request:", req.String())

	if strings.HasPrefix(req.Method, protocol.NotificationPrefix) {
		logger.Info("Received notification:", req.Method)
		return nil
	}

	s.mu.RLock()
	handler := s.handlers[req.Method]
	s.mu.RUnlock()
	if handler == nil {
		if req.IsNotification() {
			return nil
		}
		return protocol.NewJsonRpcErrorResponse(protocol.ErrMethodNotFound, fmt.Sprintf("Method not found: %s", req.Method), nil, req.ID)
	}

	result, err := handler(ctx, req.Params)
	if req.IsNotification() || (err == nil && result == nil) {
		return nil
	}
	if err != nil {
		var rpcErr *protocol.JsonRpcError
		if errors.As(err, &rpcErr) {
			return protocol.NewJsonRpcErrorResponse(rpcErr.Code, rpcErr.Message, nil, req.ID)
		}
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal, err.Error(), nil, req.ID)
	}

	resp, err := protocol.NewJsonRpcResponse(result, req.ID)
	if err != nil {
		return protocol.NewJsonRpcErrorResponse(protocol.ErrInternal, "Failed to marshal result: "+err.Error(), nil, req.ID)
	}
	return resp
}

// handleInitialize answers with the requested protocol version and our capabilities
func (s *Server) handleInitialize(ctx context.Context, params any) (any, error) {
	requestedProtocolVersion := defaultProtocolVersion

	var initParams struct {
		ProtocolVersion string `json:"protocolVersion"`
	}
	if raw, ok := params.(json.RawMessage); ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &initParams); err != nil {
			return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid initialize parameters: " + err.Error()}
		}
	}
	if initParams.ProtocolVersion != "" {
		requestedProtocolVersion = initParams.ProtocolVersion
	}
	logger.Info("Handling initialize request with", len(s.GetTools()), "tools, protocol", requestedProtocolVersion)

	type serverInfo struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	return struct {
		ProtocolVersion string         `json:"protocolVersion"`
		Capabilities    map[string]any `json:"capabilities"`
		ServerInfo      serverInfo     `json:"serverInfo"`
	}{
		ProtocolVersion: requestedProtocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo: serverInfo{Name: serverName, Version: serverVersion},
	}, nil
}

// handleInitialized handles the bare 'initialized' notification
func (s *Server) handleInitialized(ctx context.Context, params any) (any, error) {
	logger.Info("Handling initialized notification")
	return nil, nil
}

func (s *Server) handlePing(ctx context.Context, params any) (any, error) {
	return struct{}{}, nil
}

// handleToolsList handles the tools/list method
func (s *Server) handleToolsList(ctx context.Context, params any) (any, error) {
	logger.Info("Handling tools/list request")
	return protocol.ToolsResponse{Tools: s.GetTools()}, nil
}

// handleToolsCall runs a tool. Tool failures go back to the client as an error result
// so the caller can read them; only an unknown tool or bad params is a protocol error
func (s *Server) handleToolsCall(ctx context.Context, params any) (any, error) {
	var call protocol.ToolCallParams
	raw, _ := params.(json.RawMessage)
	if err := json.Unmarshal(raw, &call); err != nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "invalid tools/call parameters: " + err.Error()}
	}
	logger.Info("Tool call requested for:", call.Name)

	s.mu.RLock()
	handler := s.toolFuncs[call.Name]
	s.mu.RUnlock()
	if handler == nil {
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidParams, Message: "tool not found: " + call.Name}
	}
	if call.Arguments == nil {
		call.Arguments = map[string]any{}
	}

	result, err := handler(ctx, call.Arguments)
	if err != nil {
		logger.Warn("Tool execution failed", call.Name, err)
		return protocol.NewTextResult(err.Error(), true), nil
	}
	text, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return protocol.NewTextResult(string(text), false), nil
}
