package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"chat-relay/internal/domain"
)

// inboundRequest mirrors the invocation body. Message is a pointer so an
// absent field can be told apart from an empty one.
type inboundRequest struct {
	Message             *string              `json:"message"`
	ConversationHistory []domain.ChatMessage `json:"conversationHistory"`
}

// DecodeInput parses an invocation body. The body must be a single JSON object
// with a string message; conversationHistory is optional.
func DecodeInput(body string) (RelayInput, error) {
	if strings.TrimSpace(body) == "" {
		return RelayInput{}, newError(ErrorMalformedRequest, "request body is empty", nil)
	}

	var in inboundRequest
	dec := json.NewDecoder(bytes.NewBufferString(body))
	if err := dec.Decode(&in); err != nil {
		return RelayInput{}, newError(ErrorMalformedRequest, "request body is not valid JSON", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("multiple JSON values")
		}
		return RelayInput{}, newError(ErrorMalformedRequest, "request body is not valid JSON", fmt.Errorf("trailing data: %w", err))
	}
	if in.Message == nil {
		return RelayInput{}, newError(ErrorMalformedRequest, "message is required", nil)
	}
	return RelayInput{
		Message: *in.Message,
		History: in.ConversationHistory,
	}, nil
}

// buildMessages returns history followed by the new user turn. The result
// never shares a backing array with history.
func buildMessages(history []domain.ChatMessage, message string) []domain.ChatMessage {
	messages := domain.CloneHistory(history, 2)
	return append(messages, domain.ChatMessage{
		Role:    domain.RoleUser,
		Content: message,
	})
}
