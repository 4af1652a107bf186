package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"agrisense.app/plantcare/internal/store"
)

type ChatRequest struct {
	Message     string `json:"message"`
	MessageType string `json:"messageType,omitempty"`
	Language    string `json:"language,omitempty"`
}

// ChatHandler always returns 200 with some assistant reply for a well-formed
// authenticated request; upstream failures are masked by fallback bodies.
func (h *APIHandler) ChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "Message cannot be empty")
		return
	}

	reply, err := h.chat.Respond(r.Context(), userID, req.Message, req.MessageType, req.Language)
	if err != nil {
		log.Printf("Error generating chat reply for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to process message")
		return
	}

	body := map[string]any{
		"success":  true,
		"message":  "Chat message saved",
		"response": reply.Response,
	}
	if reply.Persisted {
		body["messageId"] = reply.MessageID
	} else {
		body["message"] = "Response generated (database temporarily unavailable)"
		body["messageId"] = nil
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *APIHandler) ChatHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	messages, err := h.chat.History(userID)
	if err != nil {
		log.Printf("Error loading chat history for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to load chat history")
		return
	}
	if messages == nil {
		messages = []store.ChatMessage{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}

func (h *APIHandler) ClearChatHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	if err := h.chat.ClearHistory(userID); err != nil {
		log.Printf("Error clearing chat history for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to clear chat history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Chat history cleared successfully",
	})
}
