package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mobile-next/rendershell/commands"
	"github.com/mobile-next/rendershell/utils"
)

const (
	// pongWait is how long a silent peer is kept before the read fails
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	writeWait  = 10 * time.Second
)

type wsConnection struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func newUpgrader(enableCORS bool) *websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	if enableCORS {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	} else {
		upgrader.CheckOrigin = isSameOrigin
	}

	return &upgrader
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := newUpgrader(s.cfg.EnableCORS).Upgrade(w, r, nil)
	if err != nil {
		utils.Warn("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	wsConn := &wsConnection{conn: conn}
	defer s.hub.UnsubscribeConn(wsConn)

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go wsConn.keepAlive(done)

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// connection closed or error
			utils.Verbose("WebSocket connection closed: %v", err)
			break
		}

		if messageType != websocket.TextMessage {
			wsConn.sendError(nil, ErrCodeInvalidRequest, errTitleInvalidReq, "only text messages accepted for requests")
			continue
		}

		s.handleWSMessage(wsConn, message)
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

// validateWSRequest adds the WebSocket-only restrictions
func validateWSRequest(req JSONRPCRequest) *jsonRPCError {
	if err := validateJSONRPCRequest(req); err != nil {
		return err
	}
	if req.Method == methodReplay {
		return &jsonRPCError{ErrCodeMethodNotFound, errTitleMethodNotSupp, errMsgReplay}
	}
	return nil
}

func (s *Server) handleWSMessage(wsConn *wsConnection, message []byte) {
	var req JSONRPCRequest
	if err := json.Unmarshal(message, &req); err != nil {
		wsConn.sendError(nil, ErrCodeParseError, errTitleParseError, errMsgParseError)
		return
	}

	if rpcErr := validateWSRequest(req); rpcErr != nil {
		wsConn.sendError(req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	utils.Verbose("WebSocket Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	switch req.Method {
	case methodSubscribe:
		s.handleSubscribe(wsConn, req)
	case methodShutdown:
		wsConn.sendResponse(req.ID, okResponse)
		s.Shutdown()
	default:
		handleWSMethodCall(wsConn, req)
	}
}

// handleSubscribe attaches the connection to a session's notifications
func (s *Server) handleSubscribe(wsConn *wsConnection, req JSONRPCRequest) {
	var params commands.SessionRequest
	if err := decodeParams(req.Params, &params, "sessionId"); err != nil {
		wsConn.sendError(req.ID, ErrCodeInvalidParams, errTitleInvalidParams, err.Error())
		return
	}

	session, err := commands.FindSessionOrAutoSelect(params.SessionID)
	if err != nil {
		wsConn.sendError(req.ID, ErrCodeServerError, errTitleServerError, err.Error())
		return
	}

	id := s.hub.Subscribe(session.ID, wsConn)
	session.Log().Debugf("subscriber %s attached", id)

	wsConn.sendResponse(req.ID, map[string]interface{}{
		"sessionId":      session.ID,
		"subscriptionId": id,
	})
}

func handleWSMethodCall(wsConn *wsConnection, req JSONRPCRequest) {
	registry := GetMethodRegistry()
	handler, exists := registry[req.Method]
	if !exists {
		wsConn.sendError(req.ID, ErrCodeMethodNotFound, errTitleMethodNotFound, req.Method+" not found")
		return
	}

	result, err := handler(req.Params)
	if err != nil {
		utils.Verbose("Error executing method %s: %v", req.Method, err)
		rpcErr := errorFor(err)
		wsConn.sendError(req.ID, rpcErr.code, rpcErr.message, rpcErr.data)
		return
	}

	wsConn.sendResponse(req.ID, result)
}

func (wsc *wsConnection) keepAlive(done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := wsc.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				utils.Verbose("WebSocket ping failed: %v", err)
				return
			}
		}
	}
}

func (wsc *wsConnection) sendResponse(id interface{}, result interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Result:  result,
		ID:      id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendError(id interface{}, code int, message string, data interface{}) error {
	response := JSONRPCResponse{
		JSONRPC: "2.0",
		Error: map[string]interface{}{
			"code":    code,
			"message": message,
			"data":    data,
		},
		ID: id,
	}
	return wsc.sendJSON(response)
}

func (wsc *wsConnection) sendJSON(v interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	_ = wsc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return wsc.conn.WriteJSON(v)
}
