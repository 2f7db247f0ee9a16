package webkit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bnema/puregotk-webkit/javascriptcore"
	"github.com/bnema/puregotk-webkit/webkit"

	"github.com/lumenshell/lumen/internal/logging"
)

const (
	// MessageHandlerName is the script message handler registered with WebKit.
	MessageHandlerName = "lumen"
	// RPCResponseEvent carries request/response results back to the page.
	RPCResponseEvent = "lumen:rpc-response"
)

// Error codes surfaced to the JS side of the bridge.
const (
	CodeInvalidArgument   = "invalid_argument"
	CodePersistenceFailed = "persistence_failed"
	CodeNotFound          = "not_found"
	CodeInternal          = "internal_error"
)

// HandlerError is an error with a wire-level code. Handlers return it when
// the failure should be distinguishable on the JS side.
type HandlerError struct {
	Code    string
	Message string
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewHandlerError builds a coded handler error.
func NewHandlerError(code, format string, args ...any) *HandlerError {
	return &HandlerError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Message is the JS -> Go request envelope sent via postMessage.
type Message struct {
	Type      string          `json:"type"`
	RequestID string          `json:"requestId"`
	Payload   json.RawMessage `json:"payload"`
	WebViewID uint64          `json:"webviewId,omitempty"`
}

// rpcResponse is the Go -> JS reply dispatched as a CustomEvent detail.
type rpcResponse struct {
	RequestID string    `json:"requestId"`
	OK        bool      `json:"ok"`
	Result    any       `json:"result,omitempty"`
	Error     *rpcError `json:"error,omitempty"`
}

type rpcError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageHandler handles a decoded message payload.
type MessageHandler interface {
	Handle(ctx context.Context, webviewID WebViewID, payload json.RawMessage) (any, error)
}

// MessageHandlerFunc adapts a function to the MessageHandler interface.
type MessageHandlerFunc func(ctx context.Context, webviewID WebViewID, payload json.RawMessage) (any, error)

// Handle calls f(ctx, webviewID, payload).
func (f MessageHandlerFunc) Handle(ctx context.Context, webviewID WebViewID, payload json.RawMessage) (any, error) {
	return f(ctx, webviewID, payload)
}

// MessageRouter dispatches script-message events to registered handlers and
// sends replies back as CustomEvents keyed by requestId.
type MessageRouter struct {
	baseCtx context.Context

	mu        sync.RWMutex
	handlers  map[string]MessageHandler
	callbacks []interface{}
	signals   []uint32

	// respond is swapped out in tests; the default dispatches the
	// RPCResponseEvent on the originating webview.
	respond func(ctx context.Context, webviewID WebViewID, resp rpcResponse)
}

// NewMessageRouter creates a new message router.
func NewMessageRouter(ctx context.Context) *MessageRouter {
	if ctx == nil {
		ctx = context.Background()
	}

	r := &MessageRouter{
		baseCtx:  ctx,
		handlers: make(map[string]MessageHandler),
	}
	r.respond = r.dispatchResponse
	return r
}

// RegisterHandler registers a handler for a message type.
func (r *MessageRouter) RegisterHandler(msgType string, handler MessageHandler) error {
	if msgType == "" {
		return errors.New("message type cannot be empty")
	}
	if handler == nil {
		return errors.New("message handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[msgType] = handler
	return nil
}

// SetupMessageHandler wires the router into the given UserContentManager.
// The handler is registered in the main world, where webkit.messageHandlers
// is available.
func (r *MessageRouter) SetupMessageHandler(ucm *webkit.UserContentManager) (uint32, error) {
	log := logging.FromContext(r.baseCtx).With().Str("component", "message-router").Logger()

	if ucm == nil {
		return 0, errors.New("user content manager is nil")
	}

	// Connect to the signal before registering the handler, as the WebKit
	// documentation recommends.
	cb := func(ucm webkit.UserContentManager, valuePtr uintptr) {
		r.handleScriptMessage(ucm, valuePtr)
	}

	r.mu.Lock()
	r.callbacks = append(r.callbacks, cb) // keep callback alive
	r.mu.Unlock()

	signalID := uint32(ucm.ConnectScriptMessageReceivedWithDetail(MessageHandlerName, &cb))

	r.mu.Lock()
	r.signals = append(r.signals, signalID)
	r.mu.Unlock()

	// nil world = main world; an empty string would be a world named "".
	if ok := ucm.RegisterScriptMessageHandler(MessageHandlerName, nil); !ok {
		return 0, fmt.Errorf("failed to register script message handler %q in main world", MessageHandlerName)
	}

	log.Debug().
		Str("handler", MessageHandlerName).
		Uint32("signal_id", signalID).
		Msg("script message handler connected")

	return signalID, nil
}

// handleScriptMessage decodes the JSC value and routes it.
func (r *MessageRouter) handleScriptMessage(senderUCM webkit.UserContentManager, valuePtr uintptr) {
	log := logging.FromContext(r.baseCtx).With().Str("component", "message-router").Logger()

	if valuePtr == 0 {
		log.Warn().Msg("received script message with nil value pointer")
		return
	}

	jscValue := javascriptcore.ValueNewFromInternalPtr(valuePtr)
	if jscValue == nil {
		log.Warn().Msg("failed to wrap script message JSC value")
		return
	}

	rawJSON := jscValue.ToJson(0)
	if rawJSON == "" {
		log.Warn().Msg("script message JSON is empty")
		return
	}

	msg, err := DecodeMessage([]byte(rawJSON))
	if err != nil {
		log.Warn().Err(err).Str("json", rawJSON).Msg("malformed script message")
		return
	}

	if msg.WebViewID == 0 {
		if sender := globalRegistry.lookupByUCM(senderUCM.GoPointer()); sender != nil {
			msg.WebViewID = uint64(sender.ID())
		}
	}

	r.Route(r.baseCtx, msg)
}

// DecodeMessage parses and validates a request envelope. Payloads crossing
// the bridge are untrusted; anything without a type is rejected here.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	if msg.Type == "" {
		return Message{}, errors.New("message missing type")
	}
	return msg, nil
}

// Handle invokes the handler registered for msgType directly.
func (r *MessageRouter) Handle(ctx context.Context, msgType string, webviewID WebViewID, payload json.RawMessage) (any, error) {
	r.mu.RLock()
	handler, ok := r.handlers[msgType]
	r.mu.RUnlock()

	if !ok {
		return nil, NewHandlerError(CodeNotFound, "unknown operation %q", msgType)
	}
	return handler.Handle(ctx, webviewID, payload)
}

// Route invokes the handler for msg and dispatches the reply. Unknown types
// and handler failures are reported to the page as coded errors so a pending
// JS promise always settles.
func (r *MessageRouter) Route(ctx context.Context, msg Message) {
	log := logging.FromContext(r.baseCtx).With().Str("component", "message-router").Logger()

	webviewID := WebViewID(msg.WebViewID)

	log.Debug().
		Str("type", msg.Type).
		Uint64("webview_id", msg.WebViewID).
		Int("payload_len", len(msg.Payload)).
		Msg("received script message")

	result, err := r.Handle(ctx, msg.Type, webviewID, msg.Payload)
	if err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("message handler returned error")
	}
	r.reply(ctx, webviewID, msg.RequestID, result, err)
}

// reply builds the response envelope. Fire-and-forget requests (no
// requestId) get no reply.
func (r *MessageRouter) reply(ctx context.Context, webviewID WebViewID, requestID string, result any, err error) {
	if requestID == "" {
		return
	}

	resp := rpcResponse{RequestID: requestID}
	if err != nil {
		var coded *HandlerError
		if !errors.As(err, &coded) {
			coded = &HandlerError{Code: CodeInternal, Message: err.Error()}
		}
		resp.Error = &rpcError{Code: coded.Code, Message: coded.Message}
	} else {
		resp.OK = true
		resp.Result = result
	}

	r.respond(ctx, webviewID, resp)
}

// dispatchResponse pushes the reply to the originating webview.
func (r *MessageRouter) dispatchResponse(ctx context.Context, webviewID WebViewID, resp rpcResponse) {
	log := logging.FromContext(r.baseCtx).With().Str("component", "message-router").Logger()

	wv := LookupWebView(webviewID)
	if wv == nil {
		log.Warn().Uint64("webview_id", uint64(webviewID)).Msg("cannot dispatch response, webview not found")
		return
	}

	if err := wv.DispatchCustomEvent(ctx, RPCResponseEvent, resp); err != nil {
		log.Warn().Err(err).Uint64("webview_id", uint64(webviewID)).Msg("failed to dispatch response")
	}
}
