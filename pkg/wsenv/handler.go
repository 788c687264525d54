package wsenv

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// SessionFunc receives the environment for one browser connection and
// returns a teardown run when the connection ends. A typical session
// constructs a hashnav.Engine on the environment and returns its Destroy.
type SessionFunc func(env *Environment) (teardown func())

// Handler upgrades HTTP requests to bridge connections.
type Handler struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger
	session  SessionFunc
	envOpts  []EnvOption
}

// NewHandler creates a websocket handler that runs session for every
// accepted connection.
func NewHandler(session SessionFunc, opts ...HandlerOption) *Handler {
	h := &Handler{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		logger:  slog.Default(),
		session: session,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger sets the handler logger. Default: slog.Default().
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithCheckOrigin sets the websocket origin check. Default: gorilla's
// same-origin policy.
func WithCheckOrigin(check func(*http.Request) bool) HandlerOption {
	return func(h *Handler) {
		h.upgrader.CheckOrigin = check
	}
}

// WithEnvOptions passes options through to each connection's Environment.
func WithEnvOptions(opts ...EnvOption) HandlerOption {
	return func(h *Handler) {
		h.envOpts = append(h.envOpts, opts...)
	}
}

// ServeHTTP upgrades the request, waits for the shim's init message, runs
// the session, and blocks in the bridge read loop until the connection
// closes.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	env, err := Accept(conn, h.envOpts...)
	if err != nil {
		h.logger.Error("bridge handshake failed", "error", err)
		conn.Close()
		return
	}

	teardown := h.session(env)
	env.Listen()
	if teardown != nil {
		teardown()
	}
}
