package webkit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "valid request",
			input: `{"type":"appearance.getSnapshot","requestId":"rpc-1","payload":{}}`,
		},
		{
			name:  "fire and forget without requestId",
			input: `{"type":"window.new"}`,
		},
		{
			name:    "missing type",
			input:   `{"requestId":"rpc-1"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			input:   `nope{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := DecodeMessage([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, msg.Type)
		})
	}
}

// captureRouter returns a router whose responses are recorded instead of
// dispatched to a real webview.
func captureRouter(t *testing.T) (*MessageRouter, *[]rpcResponse) {
	t.Helper()
	router := NewMessageRouter(context.Background())
	var got []rpcResponse
	router.respond = func(_ context.Context, _ WebViewID, resp rpcResponse) {
		got = append(got, resp)
	}
	return router, &got
}

func TestRouteSuccess(t *testing.T) {
	router, responses := captureRouter(t)

	require.NoError(t, router.RegisterHandler("echo", MessageHandlerFunc(
		func(_ context.Context, _ WebViewID, payload json.RawMessage) (any, error) {
			return json.RawMessage(payload), nil
		})))

	router.Route(context.Background(), Message{
		Type:      "echo",
		RequestID: "rpc-1",
		Payload:   json.RawMessage(`{"hello":"world"}`),
	})

	require.Len(t, *responses, 1)
	resp := (*responses)[0]
	assert.Equal(t, "rpc-1", resp.RequestID)
	assert.True(t, resp.OK)
	assert.Nil(t, resp.Error)
}

func TestRouteCodedError(t *testing.T) {
	router, responses := captureRouter(t)

	require.NoError(t, router.RegisterHandler("boom", MessageHandlerFunc(
		func(_ context.Context, _ WebViewID, _ json.RawMessage) (any, error) {
			return nil, NewHandlerError(CodeInvalidArgument, "bad theme source %q", "neon")
		})))

	router.Route(context.Background(), Message{Type: "boom", RequestID: "rpc-2"})

	require.Len(t, *responses, 1)
	resp := (*responses)[0]
	assert.False(t, resp.OK)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeInvalidArgument, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "neon")
}

func TestRouteUncodedErrorMapsToInternal(t *testing.T) {
	router, responses := captureRouter(t)

	require.NoError(t, router.RegisterHandler("boom", MessageHandlerFunc(
		func(_ context.Context, _ WebViewID, _ json.RawMessage) (any, error) {
			return nil, errors.New("disk exploded")
		})))

	router.Route(context.Background(), Message{Type: "boom", RequestID: "rpc-3"})

	require.Len(t, *responses, 1)
	require.NotNil(t, (*responses)[0].Error)
	assert.Equal(t, CodeInternal, (*responses)[0].Error.Code)
}

func TestRouteUnknownType(t *testing.T) {
	router, responses := captureRouter(t)

	router.Route(context.Background(), Message{Type: "nope", RequestID: "rpc-4"})

	require.Len(t, *responses, 1)
	require.NotNil(t, (*responses)[0].Error)
	assert.Equal(t, CodeNotFound, (*responses)[0].Error.Code)
}

func TestRouteFireAndForgetGetsNoReply(t *testing.T) {
	router, responses := captureRouter(t)

	require.NoError(t, router.RegisterHandler("notify", MessageHandlerFunc(
		func(_ context.Context, _ WebViewID, _ json.RawMessage) (any, error) {
			return nil, nil
		})))

	router.Route(context.Background(), Message{Type: "notify"})

	assert.Empty(t, *responses)
}

func TestRegisterHandlerValidation(t *testing.T) {
	router := NewMessageRouter(context.Background())

	assert.Error(t, router.RegisterHandler("", MessageHandlerFunc(
		func(_ context.Context, _ WebViewID, _ json.RawMessage) (any, error) { return nil, nil })))
	assert.Error(t, router.RegisterHandler("x", nil))
}
