package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/lumenshell/lumen/internal/db"
	"github.com/lumenshell/lumen/internal/webkit"
)

// SettingsStore is the settings repository surface used by the bridge.
type SettingsStore interface {
	List(ctx context.Context) ([]db.Setting, error)
	Get(ctx context.Context, key string) (db.Setting, error)
	Put(ctx context.Context, key, value string) (db.Setting, error)
	Delete(ctx context.Context, key string) error
}

type settingKeyRequest struct {
	Key string `json:"key"`
}

type settingPutRequest struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// RegisterSettings wires the settings CRUD operations into the router.
func RegisterSettings(router *webkit.MessageRouter, store SettingsStore) error {
	if err := router.RegisterHandler("settings.list", webkit.MessageHandlerFunc(
		func(ctx context.Context, _ webkit.WebViewID, _ json.RawMessage) (any, error) {
			settings, err := store.List(ctx)
			if err != nil {
				return nil, err
			}
			if settings == nil {
				settings = []db.Setting{}
			}
			return settings, nil
		})); err != nil {
		return err
	}

	if err := router.RegisterHandler("settings.get", webkit.MessageHandlerFunc(
		func(ctx context.Context, _ webkit.WebViewID, payload json.RawMessage) (any, error) {
			key, err := decodeKey(payload)
			if err != nil {
				return nil, err
			}
			setting, err := store.Get(ctx, key)
			if errors.Is(err, db.ErrSettingNotFound) {
				return nil, webkit.NewHandlerError(webkit.CodeNotFound, "no setting for key %q", key)
			}
			if err != nil {
				return nil, err
			}
			return setting, nil
		})); err != nil {
		return err
	}

	if err := router.RegisterHandler("settings.put", webkit.MessageHandlerFunc(
		func(ctx context.Context, _ webkit.WebViewID, payload json.RawMessage) (any, error) {
			var req settingPutRequest
			if err := json.Unmarshal(payload, &req); err != nil {
				return nil, webkit.NewHandlerError(webkit.CodeInvalidArgument, "malformed payload: %v", err)
			}
			if req.Key == "" {
				return nil, webkit.NewHandlerError(webkit.CodeInvalidArgument, "setting key cannot be empty")
			}
			if len(req.Value) == 0 {
				return nil, webkit.NewHandlerError(webkit.CodeInvalidArgument, "setting value cannot be empty")
			}
			setting, err := store.Put(ctx, req.Key, string(req.Value))
			if err != nil {
				return nil, err
			}
			return setting, nil
		})); err != nil {
		return err
	}

	return router.RegisterHandler("settings.delete", webkit.MessageHandlerFunc(
		func(ctx context.Context, _ webkit.WebViewID, payload json.RawMessage) (any, error) {
			key, err := decodeKey(payload)
			if err != nil {
				return nil, err
			}
			if err := store.Delete(ctx, key); err != nil {
				if errors.Is(err, db.ErrSettingNotFound) {
					return nil, webkit.NewHandlerError(webkit.CodeNotFound, "no setting for key %q", key)
				}
				return nil, err
			}
			return map[string]any{"deleted": key}, nil
		}))
}

func decodeKey(payload json.RawMessage) (string, error) {
	var req settingKeyRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return "", webkit.NewHandlerError(webkit.CodeInvalidArgument, "malformed payload: %v", err)
	}
	if req.Key == "" {
		return "", webkit.NewHandlerError(webkit.CodeInvalidArgument, "setting key cannot be empty")
	}
	return req.Key, nil
}
