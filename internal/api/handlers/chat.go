package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/nikhilbhutani/docchat/internal/chat"
)

type ChatHandler struct {
	assembler *chat.Assembler
}

func NewChatHandler(a *chat.Assembler) *ChatHandler {
	return &ChatHandler{assembler: a}
}

type chatRequest struct {
	Message    string     `json:"message"`
	DocumentID uuid.UUID  `json:"documentId"`
	SessionID  *uuid.UUID `json:"sessionId,omitempty"`
}

func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.DocumentID == uuid.Nil {
		writeFailure(w, http.StatusBadRequest, "documentId required")
		return
	}

	reply, err := h.assembler.Chat(r.Context(), chat.Request{
		DocumentID: req.DocumentID,
		UserID:     user,
		SessionID:  req.SessionID,
		Message:    req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeOK(w, http.StatusOK, map[string]any{
		"message":   reply.Content,
		"sessionId": reply.SessionID,
		"messageId": reply.MessageID,
	})
}

func (h *ChatHandler) Sessions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	docID, ok := urlID(r, "id")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid document ID")
		return
	}

	sessions, err := h.assembler.Sessions(r.Context(), user, docID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"sessions": sessions, "count": len(sessions)})
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	sessionID, ok := urlID(r, "id")
	if !ok {
		writeFailure(w, http.StatusBadRequest, "invalid session ID")
		return
	}

	msgs, err := h.assembler.Messages(r.Context(), user, sessionID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{"messages": msgs, "count": len(msgs)})
}
