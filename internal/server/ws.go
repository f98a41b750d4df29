package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"quarto_go/internal/search"
)

const wsWriteTimeout = 5 * time.Second

// serveSearchWS 一个连接一次搜索：
//
//	→ {"type":"search","payload":{...moveRequest}}
//	← {"type":"depth",...} × n，最后 {"type":"result"} 或 {"type":"error"}
//
// 客户端发送 {"type":"cancel"} 或断开连接都会取消搜索。
func (s *Server) serveSearchWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	var msg wsMessage
	if err := conn.ReadJSON(&msg); err != nil {
		return
	}
	var req moveRequest
	if msg.Type != "search" || json.Unmarshal(msg.Payload, &req) != nil {
		sendWS(conn, "error", errorResponse{Error: "expected a search request"})
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			var in wsMessage
			if err := conn.ReadJSON(&in); err != nil {
				return
			}
			if in.Type == "cancel" {
				return
			}
		}
	}()

	// OnDepth 在搜索所在的 goroutine 里同步调用，写连接的始终只有这一个 goroutine
	resp, err := s.search(ctx, req, func(st search.Stats) {
		if err := sendWS(conn, "depth", toDepthDTO(st)); err != nil {
			cancel()
		}
	})
	if err != nil {
		s.log.Debug().Err(err).Msg("ws-search-failed")
		sendWS(conn, "error", errorResponse{Error: err.Error()})
		return
	}
	sendWS(conn, "result", resp)
}

func sendWS(conn *websocket.Conn, typ string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(wsMessage{Type: typ, Payload: raw})
}
