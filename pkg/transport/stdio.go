package transport

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/richard-senior/fplodds/internal/logger"
	"github.com/richard-senior/fplodds/pkg/protocol"
)

// StdioTransport reads newline or whitespace separated JSON-RPC messages from one stream
// and writes one response per line to another
type StdioTransport struct {
	decoder *json.Decoder
	writer  *bufio.Writer
	mu      sync.Mutex
	// broken is set once the decoder has failed and can no longer be read from
	broken error
}

// NewStdioTransport creates a new transport that uses stdin/stdout
func NewStdioTransport() *StdioTransport {
	return NewStreamTransport(os.Stdin, os.Stdout)
}

// NewStreamTransport creates a transport over arbitrary streams
func NewStreamTransport(r io.Reader, w io.Writer) *StdioTransport {
	return &StdioTransport{
		decoder: json.NewDecoder(bufio.NewReader(r)),
		writer:  bufio.NewWriter(w),
	}
}

// ReadRequest blocks until a whole JSON value has arrived.
// io.EOF means the client went away. A *protocol.JsonRpcError means the message
// could not be parsed. After an ErrParse error every later read fails
func (t *StdioTransport) ReadRequest() (*protocol.JsonRpcRequest, error) {
	if t.broken != nil {
		return nil, t.broken
	}
	var raw json.RawMessage
	if err := t.decoder.Decode(&raw); err != nil {
		if err == io.EOF {
			logger.Info("Received EOF on stdin, client disconnected")
			return nil, err
		}
		// the decoder keeps returning the same error from here on
		t.broken = fmt.Errorf("failed to read request: %w", err)
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			logger.Error("Malformed JSON on stdin:", err)
			return nil, &protocol.JsonRpcError{Code: protocol.ErrParse, Message: "Parse error: " + err.Error()}
		}
		return nil, t.broken
	}
	logger.Debug("Received raw request:", string(raw))

	request, err := protocol.ParseJsonRpcRequest(raw)
	if err != nil {
		logger.Error("Failed to parse JSON-RPC request:", err)
		return nil, &protocol.JsonRpcError{Code: protocol.ErrInvalidRequest, Message: err.Error()}
	}
	return request, nil
}

// WriteResponse writes a JSON-RPC response as a single line
func (t *StdioTransport) WriteResponse(response *protocol.JsonRpcResponse) error {
	responseBytes, err := json.Marshal(response)
	if err != nil {
		logger.Error("Failed to marshal response:", err)
		return err
	}
	responseBytes = append(responseBytes, '\n')

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, err := t.writer.Write(responseBytes); err != nil {
		logger.Error("Failed to write response:", err)
		return err
	}
	if err := t.writer.Flush(); err != nil {
		logger.Error("Failed to flush response:", err)
		return err
	}
	logger.Debug("Sent response:", string(responseBytes))
	return nil
}
