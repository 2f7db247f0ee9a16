// Package handlers implements the JS bridge operations exposed to shell
// pages: appearance state, settings storage, and window management.
package handlers

import (
	"context"
	"encoding/json"

	"github.com/lumenshell/lumen/internal/appearance"
	"github.com/lumenshell/lumen/internal/webkit"
)

// AppearanceService is the slice of the coordinator the bridge needs.
type AppearanceService interface {
	Snapshot() appearance.Snapshot
	SetThemeSource(ctx context.Context, src appearance.ThemeSource) (appearance.Snapshot, error)
}

type setThemeSourceRequest struct {
	ThemeSource string `json:"themeSource"`
}

// RegisterAppearance wires the appearance operations into the router.
func RegisterAppearance(router *webkit.MessageRouter, svc AppearanceService) error {
	if err := router.RegisterHandler("appearance.getSnapshot", webkit.MessageHandlerFunc(
		func(_ context.Context, _ webkit.WebViewID, _ json.RawMessage) (any, error) {
			return svc.Snapshot(), nil
		})); err != nil {
		return err
	}

	return router.RegisterHandler("appearance.setThemeSource", webkit.MessageHandlerFunc(
		func(ctx context.Context, _ webkit.WebViewID, payload json.RawMessage) (any, error) {
			var req setThemeSourceRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, webkit.NewHandlerError(webkit.CodeInvalidArgument, "malformed payload: %v", err)
			}

			src, err := appearance.ParseThemeSource(req.ThemeSource)
			if err != nil {
				return nil, webkit.NewHandlerError(webkit.CodeInvalidArgument, "invalid theme source %q", req.ThemeSource)
			}

			snap, err := svc.SetThemeSource(ctx, src)
			if err != nil {
				// The preference was applied and broadcast; only
				// durability failed. The page already received the new
				// state through the push channel, so the error carries
				// the persistence failure alone.
				return nil, webkit.NewHandlerError(webkit.CodePersistenceFailed,
					"theme applied but not saved: %v", err)
			}

			return snap, nil
		}))
}
