package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mobile-next/rendershell/commands"
	"github.com/mobile-next/rendershell/devices"
	"github.com/mobile-next/rendershell/utils"
	"golang.org/x/sync/errgroup"
)

const Version = "dev"

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Server error: Internal JSON-RPC error
	ErrCodeServerError = -32000

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602

	// Internal error: Internal JSON-RPC error
	ErrCodeInternalError = -32603
)

const (
	errTitleParseError     = "Parse error"
	errTitleInvalidReq     = "Invalid Request"
	errTitleMethodNotFound = "Method not found"
	errTitleInvalidParams  = "Invalid params"
	errTitleServerError    = "Server error"
	errTitleMethodNotSupp  = "Method not supported"

	errMsgParseError     = "expecting jsonrpc payload"
	errMsgInvalidJSONRPC = "'jsonrpc' must be '2.0'"
	errMsgIDRequired     = "'id' field is required"
	errMsgMethodRequired = "'method' is required"
	errMsgReplay         = "replay not supported over WebSocket, use HTTP /rpc endpoint"
	errMsgSubscribe      = "session_subscribe is only available over WebSocket /ws"
)

// Server timeouts
const (
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 10 * time.Second
	IdleTimeout     = 120 * time.Second
	ShutdownTimeout = 5 * time.Second
)

const (
	methodShutdown  = "server.shutdown"
	methodReplay    = "replay"
	methodSubscribe = "session_subscribe"
)

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// JSONRPCNotification is a server-initiated message without an id
type JSONRPCNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

type jsonRPCError struct {
	code    int
	message string
	data    string
}

func validateJSONRPCRequest(req JSONRPCRequest) *jsonRPCError {
	if req.JSONRPC != "2.0" {
		return &jsonRPCError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgInvalidJSONRPC}
	}
	if req.ID == nil {
		return &jsonRPCError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgIDRequired}
	}
	if req.Method == "" {
		return &jsonRPCError{ErrCodeInvalidRequest, errTitleInvalidReq, errMsgMethodRequired}
	}
	return nil
}

// errorFor maps a handler error onto a JSON-RPC error code
func errorFor(err error) *jsonRPCError {
	if errors.Is(err, ErrInvalidParams) {
		return &jsonRPCError{ErrCodeInvalidParams, errTitleInvalidParams, err.Error()}
	}
	return &jsonRPCError{ErrCodeServerError, errTitleServerError, err.Error()}
}

// Config holds the listener settings
type Config struct {
	Addr       string
	EnableCORS bool
	// Token, when set, must be presented as a bearer token on every request
	Token string
}

// Server serves the JSON-RPC API and streams render commands and device
// requests to WebSocket subscribers
type Server struct {
	cfg   Config
	hub   *Hub
	group *errgroup.Group
	ctx   context.Context
	hooks *devices.ShutdownHook

	mu       sync.Mutex
	runtimes map[string]*sessionRuntime

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// New creates a server and attaches it to the session layer. Render loops
// of sessions run until ctx is cancelled or the session closes.
func New(ctx context.Context, cfg Config) *Server {
	group, gctx := errgroup.WithContext(ctx)
	s := &Server{
		cfg:      cfg,
		hub:      NewHub(),
		group:    group,
		ctx:      gctx,
		hooks:    devices.NewShutdownHook(),
		runtimes: make(map[string]*sessionRuntime),
		shutdown: make(chan struct{}),
	}
	commands.SetSessionHooks(s.sessionHooks())
	return s
}

// Hub returns the subscriber hub
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler serving /, /rpc and /ws
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", sendBanner)
	mux.HandleFunc("/rpc", s.handleJSONRPC)
	mux.HandleFunc("/ws", s.handleWebSocket)

	var handler http.Handler = mux
	if s.cfg.Token != "" {
		handler = authMiddleware(s.cfg.Token, handler)
	}
	if s.cfg.EnableCORS {
		handler = corsMiddleware(handler)
	}
	return handler
}

// Shutdown asks ListenAndServe to stop; safe to call more than once
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
	})
}

// ListenAndServe serves until Shutdown is called or the context ends, then
// closes every session and waits for their render loops
func (s *Server) ListenAndServe() error {
	addr, err := normalizeAddr(s.cfg.Addr)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	s.hooks.Register("http", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(ctx)
	})
	s.hooks.Register("sessions", commands.CloseAllSessions)

	s.group.Go(func() error {
		utils.Info("Starting server on http://%s...", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	s.group.Go(func() error {
		select {
		case <-s.shutdown:
			utils.Info("Shutdown requested")
		case <-s.ctx.Done():
		}
		return s.hooks.Shutdown()
	})

	return s.group.Wait()
}

// StartServer runs a server until it is shut down over JSON-RPC
func StartServer(cfg Config) error {
	return New(context.Background(), cfg).ListenAndServe()
}

func normalizeAddr(addr string) (string, error) {
	// if host is missing, default to localhost
	if !strings.Contains(addr, ":") {
		port, err := strconv.Atoi(addr)
		if err != nil {
			return "", fmt.Errorf("invalid port: %v", err)
		}
		addr = fmt.Sprintf(":%d", port)
	}
	return addr, nil
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware rejects requests without the bearer token. Browsers cannot
// set headers on WebSocket upgrades, so a token query parameter is accepted too.
func authMiddleware(token string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		presented := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if presented == "" {
			presented = r.URL.Query().Get("token")
		}

		if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCError(w, nil, ErrCodeParseError, errTitleParseError, errMsgParseError)
		return
	}

	if rpcErr := validateJSONRPCRequest(req); rpcErr != nil {
		sendJSONRPCError(w, req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	utils.Verbose("Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	if req.Method == methodShutdown {
		sendJSONRPCResponse(w, req.ID, okResponse)
		s.Shutdown()
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case methodReplay:
		result, err = handleReplay(r.Context(), req.Params)
	case methodSubscribe:
		sendJSONRPCError(w, req.ID, ErrCodeMethodNotFound, errTitleMethodNotSupp, errMsgSubscribe)
		return
	default:
		handler, exists := GetMethodRegistry()[req.Method]
		if !exists {
			sendJSONRPCError(w, req.ID, ErrCodeMethodNotFound, errTitleMethodNotFound, fmt.Sprintf("Method '%s' not found", req.Method))
			return
		}
		result, err = handler(req.Params)
	}

	if err != nil {
		utils.Verbose("Error executing method %s: %v", req.Method, err)
		rpcErr := errorFor(err)
		sendJSONRPCError(w, req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	sendJSONRPCResponse(w, req.ID, result)
}

func sendJSONRPCResponse(w http.ResponseWriter, id interface{}, result interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendJSONRPCError(w http.ResponseWriter, id interface{}, code int, message string, data interface{}) {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "ok",
		"name":    "rendershell",
		"version": Version,
	})
}
