// Package apiclient talks to a keybridge server: one-shot requests for
// layouts and macros, and the long-lived keyboard event stream.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Alia5/keybridge/apitypes"
)

// Client provides a high-level interface to the keybridge API, handling request
// formatting, response parsing, and error handling.
type Client struct{ transport *Transport }

// New constructs a client for the server at addr (host:port).
func New(addr string) *Client { return &Client{transport: NewTransport(addr)} }

// NewWithConfig constructs a client with custom transport settings.
func NewWithConfig(addr string, cfg *Config) *Client {
	return &Client{transport: NewTransportWithConfig(addr, cfg)}
}

// WithTransport constructs a Client using a custom Transport, mostly for tests.
func WithTransport(t *Transport) *Client { return &Client{transport: t} }

// Transport returns the underlying transport.
func (c *Client) Transport() *Transport { return c.transport }

// Ping returns the identity and version of the server.
func (c *Client) Ping(ctx context.Context) (*apitypes.PingResponse, error) {
	return call[apitypes.PingResponse](ctx, c, "ping", nil, nil)
}

// LayoutList returns the registered layouts and the active one.
func (c *Client) LayoutList(ctx context.Context) (*apitypes.LayoutListResponse, error) {
	return call[apitypes.LayoutListResponse](ctx, c, "layout/list", nil, nil)
}

// LayoutSet activates a layout. Unknown names activate the default layout
// and report Fallback.
func (c *Client) LayoutSet(ctx context.Context, name string) (*apitypes.LayoutSetResponse, error) {
	return call[apitypes.LayoutSetResponse](ctx, c, "layout/set", name, nil)
}

// MacroList returns all stored macros in sort order.
func (c *Client) MacroList(ctx context.Context) (*apitypes.MacroListResponse, error) {
	return call[apitypes.MacroListResponse](ctx, c, "macro/list", nil, nil)
}

// MacroSave creates or replaces a macro. Rejections are returned as
// *apitypes.ApiError with Reason set.
func (c *Client) MacroSave(ctx context.Context, m apitypes.Macro) (*apitypes.Macro, error) {
	return call[apitypes.Macro](ctx, c, "macro/save", m, nil)
}

// MacroRemove deletes a macro.
func (c *Client) MacroRemove(ctx context.Context, id string) (*apitypes.MacroRemoveResponse, error) {
	return call[apitypes.MacroRemoveResponse](ctx, c, "macro/{id}/remove", nil, map[string]string{"id": id})
}

// MacroPlay starts a stored macro. It returns once the first step is sent.
func (c *Client) MacroPlay(ctx context.Context, id string) (*apitypes.MacroPlayResponse, error) {
	return call[apitypes.MacroPlayResponse](ctx, c, "macro/{id}/play", nil, map[string]string{"id": id})
}

// MacroCancel stops the playing macro, if any.
func (c *Client) MacroCancel(ctx context.Context) error {
	_, err := c.do(ctx, "macro/cancel", nil, nil)
	return err
}

// KeyboardReset releases every key.
func (c *Client) KeyboardReset(ctx context.Context) error {
	_, err := c.do(ctx, "keyboard/reset", nil, nil)
	return err
}

// KeyboardType types text through the active layout.
func (c *Client) KeyboardType(ctx context.Context, text string) (*apitypes.TypeResponse, error) {
	return call[apitypes.TypeResponse](ctx, c, "keyboard/type", text, nil)
}

// KeyboardState returns the last report, sticky latches and LEDs.
func (c *Client) KeyboardState(ctx context.Context) (*apitypes.KeyboardStateResponse, error) {
	return call[apitypes.KeyboardStateResponse](ctx, c, "keyboard/state", nil, nil)
}

// do runs a request whose success response is empty or ignored.
func (c *Client) do(ctx context.Context, path string, payload any, params map[string]string) (string, error) {
	raw, err := c.transport.DoCtx(ctx, path, payload, params)
	if err != nil {
		return "", err
	}
	if problem, ok := asProblem(raw); ok {
		return "", problem
	}
	return raw, nil
}

func call[T any](ctx context.Context, c *Client, path string, payload any, params map[string]string) (*T, error) {
	raw, err := c.transport.DoCtx(ctx, path, payload, params)
	if err != nil {
		return nil, err
	}
	return parse[T](raw)
}

func asProblem(data string) (*apitypes.ApiError, bool) {
	if data == "" {
		return nil, false
	}
	var problem apitypes.ApiError
	if err := json.Unmarshal([]byte(data), &problem); err == nil && (problem.Status != 0 || problem.Title != "") {
		return &problem, true
	}
	return nil, false
}

func parse[T any](data string) (*T, error) {
	if data == "" {
		return nil, errors.New("empty response")
	}
	if problem, ok := asProblem(data); ok {
		return nil, problem
	}
	var out T
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &out, nil
}
