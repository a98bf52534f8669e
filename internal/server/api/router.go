package api

import (
	"context"
	"log/slog"
	"net"
	"net/url"
	"strings"
)

// Request contains route parameters and additional args from the command.
type Request struct {
	Ctx     context.Context
	Params  map[string]string
	Payload string
}

// Response holds the JSON string to return to the client.
type Response struct {
	JSON string
}

// HandlerFunc processes a request and populates the response.
// Returns an error on failure. The logger provided is a connection-scoped logger
// enriched with remote address metadata by the API server.
type HandlerFunc func(req *Request, res *Response, logger *slog.Logger) error

// StreamHandlerFunc handles long-lived connections. The handler owns conn
// until it returns; the server closes it afterwards. A non-nil error is a
// terminal failure and is logged by the server.
type StreamHandlerFunc func(ctx context.Context, conn net.Conn, params map[string]string, logger *slog.Logger) error

// Router implements simple path pattern matching with placeholders in {name}.
// Static segments match case-insensitively; parameter values keep their case.
type Router struct {
	routes       []route[HandlerFunc]
	streamRoutes []route[StreamHandlerFunc]
}

type route[H any] struct {
	pattern string
	parts   []string
	handler H
}

// NewRouter returns a new Router instance.
func NewRouter() *Router { return &Router{} }

// Register registers a handler for a path pattern like "macro/{id}/play".
func (r *Router) Register(pattern string, handler HandlerFunc) {
	r.routes = append(r.routes, route[HandlerFunc]{pattern: pattern, parts: strings.Split(pattern, "/"), handler: handler})
}

// RegisterStream registers a StreamHandler for long-lived connections.
func (r *Router) RegisterStream(pattern string, handler StreamHandlerFunc) {
	r.streamRoutes = append(r.streamRoutes, route[StreamHandlerFunc]{pattern: pattern, parts: strings.Split(pattern, "/"), handler: handler})
}

// Patterns lists the registered request patterns in registration order.
func (r *Router) Patterns() []string {
	out := make([]string, 0, len(r.routes))
	for _, rt := range r.routes {
		out = append(out, rt.pattern)
	}
	return out
}

// Match returns the HandlerFunc and params if the given path matches any
// registered pattern. Returns nil if none match.
func (r *Router) Match(path string) (HandlerFunc, map[string]string) {
	return match(r.routes, path)
}

// MatchStream returns the StreamHandler and params if the given path matches
// any registered stream pattern. Returns nil if none match.
func (r *Router) MatchStream(path string) (StreamHandlerFunc, map[string]string) {
	return match(r.streamRoutes, path)
}

func match[H any](routes []route[H], path string) (H, map[string]string) {
	var zero H
	parts := strings.Split(path, "/")
	for _, rt := range routes {
		if params, ok := matchParts(rt.parts, parts); ok {
			return rt.handler, params
		}
	}
	return zero, nil
}

func matchParts(pattern, parts []string) (map[string]string, bool) {
	if len(pattern) != len(parts) {
		return nil, false
	}
	params := map[string]string{}
	for i, p := range pattern {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			v, err := url.PathUnescape(parts[i])
			if err != nil {
				v = parts[i]
			}
			params[p[1:len(p)-1]] = v
			continue
		}
		if !strings.EqualFold(p, parts[i]) {
			return nil, false
		}
	}
	return params, true
}
