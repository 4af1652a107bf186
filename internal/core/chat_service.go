package core

import (
	"context"
	"fmt"
	"log"
	"strings"

	"agrisense.app/plantcare/internal/store"
)

const chatHistoryCap = 100

type ChatStore interface {
	CreateChatMessage(msg *store.ChatMessage) error
	GetChatMessagesByUser(userID string, limit int) ([]store.ChatMessage, error)
	ClearChatMessages(userID string) error
}

type ChatService struct {
	dbStore ChatStore
	llm     Generator
}

func NewChatService(db ChatStore, llm Generator) *ChatService {
	return &ChatService{dbStore: db, llm: llm}
}

// ChatReply carries the assistant response plus the persisted record id.
// MessageID is empty when the store write failed; the reply is still valid.
type ChatReply struct {
	Response  string
	MessageID string
	Persisted bool
}

// Respond generates an assistant reply for the user's message and persists the
// exchange. The reply never fails for a well-formed message: on any provider
// failure a static language-matched fallback body is returned, and a failed
// store write degrades the result instead of discarding the reply.
func (s *ChatService) Respond(ctx context.Context, userID, message, messageType, language string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("message cannot be empty")
	}
	language = NormalizeLanguage(language)

	prompt := fmt.Sprintf("%s\n\nUser question: %s\n\nPlease provide a comprehensive, well-formatted response using proper markdown with clear headings, bold text for important terms, and good spacing between sections:",
		chatSystemPrompt(language), message)

	response, err := s.llm.GenerateText(ctx, prompt)
	if err != nil || strings.TrimSpace(response) == "" {
		log.Printf("Chat generation failed for user %s, using fallback reply: %v", userID, err)
		response = chatFallbackBody(language)
	}

	msg := store.ChatMessage{
		UserID:      userID,
		Message:     message,
		Response:    response,
		MessageType: messageType,
		Language:    language,
	}
	if err := s.dbStore.CreateChatMessage(&msg); err != nil {
		log.Printf("Failed to persist chat message for user %s, returning degraded reply: %v", userID, err)
		return &ChatReply{Response: response}, nil
	}

	return &ChatReply{Response: response, MessageID: msg.ID, Persisted: true}, nil
}

// History returns the user's most recent messages in chronological order.
func (s *ChatService) History(userID string) ([]store.ChatMessage, error) {
	return s.dbStore.GetChatMessagesByUser(userID, chatHistoryCap)
}

// ClearHistory deletes all of the user's messages. Idempotent.
func (s *ChatService) ClearHistory(userID string) error {
	return s.dbStore.ClearChatMessages(userID)
}
