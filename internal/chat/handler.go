package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/websocket"

	"github.com/knitec/iq-platform/internal/identity"
	"github.com/knitec/iq-platform/pkg/logging"
)

// userFacingModelError is shown when the hosted model call fails. The
// user's message is already in the transcript, so retrying is safe.
const userFacingModelError = "The assistant is unavailable right now. Your message was saved; please try again."

// Handler serves the chat HTTP and WebSocket endpoints.
type Handler struct {
	service *Service
	logger  *logging.Logger
}

// NewHandler creates a new chat handler.
func NewHandler(service *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// InboundMessage is what the browser sends over the socket.
type InboundMessage struct {
	Type      string `json:"type"` // "message", "ping"
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// OutboundMessage is what we send to the browser.
type OutboundMessage struct {
	Type      string           `json:"type"` // "session", "greeting", "history", "typing", "message", "error", "pong"
	Text      string           `json:"text,omitempty"`
	Role      string           `json:"role,omitempty"`
	SessionID string           `json:"session_id,omitempty"`
	Timestamp string           `json:"timestamp,omitempty"`
	Messages  []HistoryMessage `json:"messages,omitempty"`
}

// HistoryMessage is a simplified message for history responses.
type HistoryMessage struct {
	Role      string `json:"role"`
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func historyFrames(messages []Message) []HistoryMessage {
	out := make([]HistoryMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, HistoryMessage{
			Role:      m.Role,
			Text:      m.Content,
			Timestamp: m.Timestamp.Format(time.RFC3339),
		})
	}
	return out
}

// StartSession handles POST /chat/sessions requests
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID, err := h.service.StartSession(r.Context(), user.Username)
	if err != nil {
		h.logger.Error("failed to open session", "username", user.Username, "error", err)
		http.Error(w, "failed to open session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{
		"session_id": sessionID,
		"title":      TitleFor(sessionID, nil),
		"greeting":   h.service.Greeting(),
	})
}

// ListSessions handles GET /chat/sessions requests
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sessions, err := h.service.ListSessions(r.Context(), user.Username)
	if err != nil {
		h.logger.Error("failed to list sessions", "username", user.Username, "error", err)
		http.Error(w, "failed to list sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"sessions": sessions})
}

// Message handles POST /chat/message requests
func (h *Handler) Message(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
		Text      string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.service.ProcessMessage(r.Context(), user.Username, req.SessionID, req.Text)
	if err != nil {
		h.writeServiceError(w, err, req.SessionID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

// History handles GET /chat/history requests
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sessionID := r.URL.Query().Get("session")
	if sessionID == "" {
		http.Error(w, "session parameter required", http.StatusBadRequest)
		return
	}

	messages, err := h.service.History(r.Context(), user.Username, sessionID)
	if err != nil {
		h.writeServiceError(w, err, sessionID)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"messages": historyFrames(messages)})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, sessionID string) {
	switch {
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrInvalidSessionID),
		errors.Is(err, ErrInvalidUsername):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrSessionForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, ErrModelRequest):
		h.logger.Error("model call failed", "session_id", sessionID, "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"error": userFacingModelError})
	default:
		h.logger.Error("chat request failed", "session_id", sessionID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

// WebSocket handles GET /chat/ws upgrades for real-time messaging.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(conn, r)
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(conn *websocket.Conn, r *http.Request) {
	user, ok := identity.FromContext(r.Context())
	if !ok {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "unauthorized"})
		return
	}

	sessionID := r.URL.Query().Get("session")
	fresh := sessionID == ""
	if fresh {
		id, err := h.service.StartSession(r.Context(), user.Username)
		if err != nil {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: "failed to open session"})
			return
		}
		sessionID = id
	}

	_ = websocket.JSON.Send(conn, OutboundMessage{Type: "session", SessionID: sessionID})

	if fresh {
		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type: "greeting",
			Role: RoleAssistant,
			Text: h.service.Greeting(),
		})
	} else if messages, err := h.service.History(r.Context(), user.Username, sessionID); err == nil && len(messages) > 0 {
		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "history", Messages: historyFrames(messages)})
	}

	h.logger.Info("chat socket opened", "username", user.Username, "session_id", sessionID)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("chat socket closed", "username", user.Username, "error", err)
			return
		}

		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
			continue
		}
		if msg.Type != "message" || strings.TrimSpace(msg.Text) == "" {
			continue
		}

		target := msg.SessionID
		if target == "" {
			target = sessionID
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{Type: "typing"})

		reply, err := h.service.ProcessMessage(r.Context(), user.Username, target, msg.Text)
		if err != nil {
			h.logger.Error("chat turn failed", "session_id", target, "error", err)
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "error", Text: wsErrorText(err)})
			continue
		}

		_ = websocket.JSON.Send(conn, OutboundMessage{
			Type:      "message",
			Role:      RoleAssistant,
			Text:      reply.Message,
			SessionID: reply.SessionID,
			Timestamp: reply.Timestamp.Format(time.RFC3339),
		})
	}
}

func wsErrorText(err error) string {
	switch {
	case errors.Is(err, ErrModelRequest):
		return userFacingModelError
	case errors.Is(err, ErrSessionForbidden):
		return "forbidden"
	case errors.Is(err, ErrEmptyMessage):
		return ErrEmptyMessage.Error()
	case errors.Is(err, ErrInvalidSessionID):
		return ErrInvalidSessionID.Error()
	}
	return "Sorry, something went wrong. Please try again."
}
