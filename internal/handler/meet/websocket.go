package meet

import (
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	meetmodel "github.com/prj-capstone-2025-syu/i-go-meet/internal/model/meet"
)

const wsWriteTimeout = 10 * time.Second

// handleWebSocket runs the conversation over one socket: every received text
// frame is a turn, every reply a TurnReply JSON frame. Anonymous connections
// get a generated user id so each socket keeps its own session.
func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = uuid.NewString()
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[meet-ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("[meet-ws] connected user=%s", userID)

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[meet-ws] read error user=%s: %v", userID, err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		reply, err := h.meetSvc.HandleTurn(r.Context(), userID, string(data))
		if err != nil {
			log.Printf("[meet-ws] turn failed user=%s: %v", userID, err)
			reply = &meetmodel.TurnReply{Kind: meetmodel.ReplyError, Message: "잠시 후 다시 시도해 주세요."}
		}

		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("[meet-ws] write failed user=%s: %v", userID, err)
			return
		}
	}
}
