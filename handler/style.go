package handler

import (
	"fmt"
	"net/http"
	"strings"

	"chat-relay/internal/domain"
	"chat-relay/internal/usecase"
)

// Style shapes relay results into response bodies and headers. Each upstream
// profile has a matching style.
type Style interface {
	Success(out usecase.RelayOutput) (int, any)
	Failure(err *usecase.Error) (int, any)
	Headers() map[string]string
	// Preflight reports whether OPTIONS requests are answered without relaying.
	Preflight() bool
}

const (
	StyleCompletion = "completion"
	StyleMessages   = "messages"
)

// StyleFor returns the style for a profile name. allowOrigin is used by styles
// that send CORS headers.
func StyleFor(profile, allowOrigin string) (Style, error) {
	switch strings.ToLower(strings.TrimSpace(profile)) {
	case StyleCompletion:
		return CompletionStyle{}, nil
	case StyleMessages:
		return NewConversationStyle(allowOrigin), nil
	default:
		return nil, fmt.Errorf("handler: unknown style %q", profile)
	}
}

type completionBody struct {
	Completion string `json:"completion"`
}

type errorBody struct {
	Error string `json:"error"`
}

// CompletionStyle answers {"completion": ...} and passes upstream HTTP statuses
// through on failure.
type CompletionStyle struct{}

func (CompletionStyle) Success(out usecase.RelayOutput) (int, any) {
	return http.StatusOK, completionBody{Completion: out.Reply}
}

func (CompletionStyle) Failure(err *usecase.Error) (int, any) {
	return err.UpstreamStatus(), errorBody{Error: err.Reason}
}

func (CompletionStyle) Headers() map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func (CompletionStyle) Preflight() bool { return false }

type conversationBody struct {
	Success             bool                 `json:"success"`
	Response            string               `json:"response"`
	ConversationHistory []domain.ChatMessage `json:"conversationHistory"`
}

type conversationErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// ConversationStyle answers with the updated conversation history, sends CORS
// headers and collapses every failure to 500.
type ConversationStyle struct {
	AllowOrigin string
}

func NewConversationStyle(allowOrigin string) ConversationStyle {
	allowOrigin = strings.TrimSpace(allowOrigin)
	if allowOrigin == "" {
		allowOrigin = "*"
	}
	return ConversationStyle{AllowOrigin: allowOrigin}
}

func (ConversationStyle) Success(out usecase.RelayOutput) (int, any) {
	history := out.History
	if history == nil {
		history = []domain.ChatMessage{}
	}
	return http.StatusOK, conversationBody{
		Success:             true,
		Response:            out.Reply,
		ConversationHistory: history,
	}
}

func (ConversationStyle) Failure(err *usecase.Error) (int, any) {
	return http.StatusInternalServerError, conversationErrorBody{Success: false, Error: err.Reason}
}

func (s ConversationStyle) Headers() map[string]string {
	return map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  s.AllowOrigin,
		"Access-Control-Allow-Headers": "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token",
		"Access-Control-Allow-Methods": "OPTIONS,POST",
	}
}

func (ConversationStyle) Preflight() bool { return true }
