package meet

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	meetservice "github.com/prj-capstone-2025-syu/i-go-meet/internal/service/meet"
	"github.com/prj-capstone-2025-syu/i-go-meet/pkg/utils"
)

// Handler exposes the conversation over REST and WebSocket.
type Handler struct {
	meetSvc  *meetservice.Service
	upgrader websocket.Upgrader
}

// New creates the meet handler.
func New(meetSvc *meetservice.Service) *Handler {
	return &Handler{
		meetSvc: meetSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes wires the conversation endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/meet/turn", h.handleTurn)
	r.Post("/meet/reset", h.handleReset)
	r.Get("/meet/ws", h.handleWebSocket)
}

type turnPayload struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (h *Handler) handleTurn(w http.ResponseWriter, r *http.Request) {
	var payload turnPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	reply, err := h.meetSvc.HandleTurn(r.Context(), payload.UserID, payload.Message)
	if err != nil {
		if errors.Is(err, meetservice.ErrUserIDRequired) {
			utils.RespondError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("[meet-http] turn failed for user=%s: %v", payload.UserID, err)
		utils.RespondError(w, http.StatusInternalServerError, "turn failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, reply)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		UserID string `json:"userId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.UserID == "" {
		utils.RespondError(w, http.StatusBadRequest, "userId is required")
		return
	}

	prompt, err := h.meetSvc.Reset(r.Context(), payload.UserID)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": prompt})
}
