// Package api serves the keybridge control protocol over TCP.
//
// A request is `<path>[ SP payload]\x00`; the server answers with one JSON
// line and closes the connection. Stream paths keep the connection open and
// hand it to a StreamHandlerFunc. A client may start with the auth
// handshake, after which the connection is encrypted.
package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/Alia5/keybridge/internal/server/api/auth"
)

// Server implements the TCP API.
type Server struct {
	addr   string
	ln     net.Listener
	logger *slog.Logger
	router *Router
	config ServerConfig
	key    []byte

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a server for config. A non-empty password enables the
// handshake.
func New(config ServerConfig, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Server{
		addr:   config.Addr,
		logger: logger,
		config: config,
		router: NewRouter(),
	}
	if config.Password != "" {
		key, err := auth.KeyBridge.DeriveKey(config.Password)
		if err != nil {
			return nil, err
		}
		a.key = key
	} else if config.RequireAuth {
		return nil, errors.New("require-auth needs a password")
	}
	return a, nil
}

// Router returns the router used by the API server so callers can register handlers.
func (a *Server) Router() *Router { return a.router }

// Config returns the server configuration.
func (a *Server) Config() ServerConfig { return a.config }

// Addr returns the bound address once started.
func (a *Server) Addr() string {
	if a.ln != nil {
		return a.ln.Addr().String()
	}
	return a.addr
}

// Start listens on the configured address and serves incoming API commands.
func (a *Server) Start() error {
	ln, err := net.Listen("tcp", a.addr)
	if err != nil {
		return err
	}
	a.ln = ln
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.logger.Info("API listening", "addr", ln.Addr().String(), "auth", a.key != nil)
	a.wg.Add(1)
	go a.serve()
	return nil
}

// Close stops accepting, cancels open streams and waits for them to end.
func (a *Server) Close() {
	if a.ln == nil {
		return
	}
	_ = a.ln.Close()
	a.cancel()
	a.wg.Wait()
}

func (a *Server) serve() {
	defer a.wg.Done()
	for {
		c, err := a.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				a.logger.Info("API server stopped")
				return
			}
			a.logger.Error("API accept error", "error", err)
			return
		}
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.handleConn(c)
		}()
	}
}

func writeError(w io.Writer, err error) {
	problemJSON, _ := json.Marshal(WrapError(err))
	fmt.Fprintf(w, "%s\n", problemJSON)
}

func writeOK(w io.Writer, rest string) {
	if rest == "" {
		fmt.Fprintln(w)
		return
	}
	fmt.Fprintf(w, "%s\n", rest)
}

// bufferedConn keeps bytes the request reader already pulled off the wire
// visible to stream handlers.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c bufferedConn) Read(p []byte) (int, error) { return c.r.Read(p) }

// secure runs the handshake when the client starts with one. It returns the
// connection and reader to use from then on.
func (a *Server) secure(conn net.Conn, r *bufio.Reader, logger *slog.Logger) (net.Conn, *bufio.Reader, error) {
	isAuth, err := auth.KeyBridge.IsHandshake(r)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, nil, err
	}
	if !isAuth {
		if a.config.RequireAuth {
			return nil, nil, ErrUnauthorized("authentication required")
		}
		return conn, r, nil
	}
	if a.key == nil {
		return nil, nil, ErrBadRequest("server has no password configured")
	}
	clientNonce, serverNonce, err := auth.KeyBridge.ServerHandshake(r, conn, a.key)
	if err != nil {
		return nil, nil, err
	}
	sc, err := auth.WrapConn(conn, auth.KeyBridge.DeriveSessionKey(a.key, serverNonce, clientNonce))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("api session encrypted")
	return sc, bufio.NewReader(sc), nil
}

func (a *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	connLogger := a.logger.With("remote", conn.RemoteAddr().String())
	if a.config.IdleTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(a.config.IdleTimeout))
	}

	w, r, err := a.secure(conn, bufio.NewReader(conn), connLogger)
	if err != nil {
		connLogger.Warn("api handshake failed", "error", err)
		writeError(conn, err)
		return
	}

	reqData, err := r.ReadString('\x00')
	if err != nil {
		if errors.Is(err, io.EOF) {
			connLogger.Debug("api incomplete request (no null terminator)")
		} else {
			connLogger.Error("read api data", "error", err)
		}
		return
	}
	reqData = strings.TrimSuffix(reqData, "\x00")
	if reqData == "" {
		connLogger.Error("api empty command")
		writeError(w, ErrBadRequest("empty request"))
		return
	}

	path, payload := reqData, ""
	if i := strings.IndexAny(reqData, " \t\r\n"); i >= 0 {
		path, payload = reqData[:i], reqData[i+1:]
	}
	if path == "" {
		connLogger.Error("api empty path")
		writeError(w, ErrBadRequest("empty path"))
		return
	}
	connLogger.Info("api cmd", "path", path)

	if h, params := a.router.Match(path); h != nil {
		req := &Request{Ctx: a.ctx, Params: params, Payload: payload}
		res := &Response{}
		if err := h(req, res, connLogger); err != nil {
			connLogger.Error("api handler error", "path", path, "error", err)
			writeError(w, err)
			return
		}
		connLogger.Debug("api handler success", "path", path)
		writeOK(w, res.JSON)
		return
	}

	if sh, params := a.router.MatchStream(path); sh != nil {
		_ = conn.SetReadDeadline(time.Time{})
		connLogger.Info("api stream begin", "path", path)

		ctx, cancel := context.WithCancel(a.ctx)
		defer cancel()
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()

		if err := sh(ctx, bufferedConn{Conn: w, r: r}, params, connLogger); err != nil && !errors.Is(err, context.Canceled) {
			connLogger.Error("api stream handler error", "path", path, "error", err)
		}
		connLogger.Info("api stream end", "path", path)
		return
	}

	connLogger.Error("api unknown path", "path", path)
	writeError(w, ErrNotFound(fmt.Sprintf("unknown path: %s", path)))
}
