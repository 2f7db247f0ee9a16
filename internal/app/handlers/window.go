package handlers

import (
	"context"
	"encoding/json"

	"github.com/lumenshell/lumen/internal/webkit"
)

// WindowOpener opens a new shell window. Implemented by the shell; the
// handler runs on the GTK main loop because script messages are delivered
// there, so window creation is safe without extra dispatching.
type WindowOpener interface {
	OpenWindow(ctx context.Context, url string) (uint64, error)
}

type windowNewRequest struct {
	URL string `json:"url"`
}

// RegisterWindow wires window management operations into the router.
func RegisterWindow(router *webkit.MessageRouter, opener WindowOpener) error {
	return router.RegisterHandler("window.new", webkit.MessageHandlerFunc(
		func(ctx context.Context, _ webkit.WebViewID, payload json.RawMessage) (any, error) {
			var req windowNewRequest
			if len(payload) > 0 {
				if err := json.Unmarshal(payload, &req); err != nil {
					return nil, webkit.NewHandlerError(webkit.CodeInvalidArgument, "malformed payload: %v", err)
				}
			}

			id, err := opener.OpenWindow(ctx, req.URL)
			if err != nil {
				return nil, err
			}
			return map[string]any{"windowId": id}, nil
		}))
}

// RegisterAll wires every bridge operation.
func RegisterAll(router *webkit.MessageRouter, svc AppearanceService, store SettingsStore, opener WindowOpener) error {
	if err := RegisterAppearance(router, svc); err != nil {
		return err
	}
	if err := RegisterSettings(router, store); err != nil {
		return err
	}
	return RegisterWindow(router, opener)
}
