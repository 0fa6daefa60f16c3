package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/richard-senior/fplodds/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioReadsSuccessiveRequests(t *testing.T) {
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"initialize","id":0}
{"jsonrpc":"2.0","method":"tools/call","params":{"name":"x","arguments":{"note":"}{"}},"id":1}
{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	tr := NewStreamTransport(in, io.Discard)

	req, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "initialize", req.Method)

	req, err = tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "tools/call", req.Method)
	assert.Contains(t, string(req.Params), `"}{"`)

	req, err = tr.ReadRequest()
	require.NoError(t, err)
	assert.True(t, req.IsNotification())

	_, err = tr.ReadRequest()
	assert.Equal(t, io.EOF, err)
}

func TestStdioRejectsWrongVersion(t *testing.T) {
	tr := NewStreamTransport(strings.NewReader(`{"jsonrpc":"1.0","method":"x","id":3}`), io.Discard)
	_, err := tr.ReadRequest()
	var rpcErr *protocol.JsonRpcError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, protocol.ErrInvalidRequest, rpcErr.Code)
}

func TestStdioReportsMalformedJSON(t *testing.T) {
	tr := NewStreamTransport(strings.NewReader(`{"jsonrpc":"2.0","method":"ping","id":1}
{"jsonrpc":"2.0",method}
{"jsonrpc":"2.0","method":"ping","id":2}`), io.Discard)

	req, err := tr.ReadRequest()
	require.NoError(t, err)
	assert.Equal(t, "ping", req.Method)

	_, err = tr.ReadRequest()
	var rpcErr *protocol.JsonRpcError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, protocol.ErrParse, rpcErr.Code)

	// the stream cannot be resynchronised
	_, err = tr.ReadRequest()
	require.Error(t, err)
	assert.False(t, errors.As(err, &rpcErr))
	assert.NotEqual(t, io.EOF, err)
}

func TestStdioWritesOneLinePerResponse(t *testing.T) {
	var out bytes.Buffer
	tr := NewStreamTransport(strings.NewReader(""), &out)

	resp, err := protocol.NewJsonRpcResponse(map[string]int{"answer": 42}, 7)
	require.NoError(t, err)
	require.NoError(t, tr.WriteResponse(resp))
	require.NoError(t, tr.WriteResponse(protocol.NewJsonRpcErrorResponse(protocol.ErrMethodNotFound, "nope", nil, 8)))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first protocol.JsonRpcResponse
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.JSONEq(t, `{"answer":42}`, string(first.Result))
	assert.Contains(t, lines[1], `"code":-32601`)
}
