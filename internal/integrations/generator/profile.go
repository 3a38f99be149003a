package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"chat-relay/internal/domain"
)

// Profile is one upstream wire contract: how a message sequence becomes a
// request body and how a 2xx body becomes reply text.
type Profile interface {
	Name() string
	EncodeRequest(messages []domain.ChatMessage) ([]byte, error)
	DecodeResponse(body []byte) (string, error)
}

const (
	ProfileCompletion = "completion"
	ProfileMessages   = "messages"
)

// ProfileByName returns the built-in profile registered under name.
func ProfileByName(name string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProfileCompletion:
		return NewCompletionProfile(), nil
	case ProfileMessages:
		return MessagesProfile{}, nil
	default:
		return nil, fmt.Errorf("generator: unknown profile %q", name)
	}
}

// SamplingParams are the generation knobs sent with the completion profile.
type SamplingParams struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	DoSample     bool    `json:"do_sample"`
	Temperature  float64 `json:"temperature"`
	TopP         float64 `json:"top_p"`
}

func DefaultSamplingParams() SamplingParams {
	return SamplingParams{
		MaxNewTokens: 512,
		DoSample:     true,
		Temperature:  0.7,
		TopP:         0.9,
	}
}

// CompletionProfile speaks the prompt-plus-sampling contract and reads
// generated_text. A missing generated_text is an empty reply.
type CompletionProfile struct {
	Params SamplingParams
}

func NewCompletionProfile() CompletionProfile {
	return CompletionProfile{Params: DefaultSamplingParams()}
}

type completionRequest struct {
	Prompt []domain.ChatMessage `json:"prompt"`
	SamplingParams
}

type completionResponse struct {
	GeneratedText string `json:"generated_text"`
}

func (CompletionProfile) Name() string { return ProfileCompletion }

func (p CompletionProfile) EncodeRequest(messages []domain.ChatMessage) ([]byte, error) {
	return json.Marshal(completionRequest{Prompt: nonNil(messages), SamplingParams: p.Params})
}

func (CompletionProfile) DecodeResponse(body []byte) (string, error) {
	var payload completionResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &ContractError{Profile: ProfileCompletion, Err: fmt.Errorf("decode response: %w", err)}
	}
	return payload.GeneratedText, nil
}

// MessagesProfile speaks the bare messages contract and requires a response field.
type MessagesProfile struct{}

type messagesRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type messagesResponse struct {
	Response *string `json:"response"`
}

func (MessagesProfile) Name() string { return ProfileMessages }

func (MessagesProfile) EncodeRequest(messages []domain.ChatMessage) ([]byte, error) {
	return json.Marshal(messagesRequest{Messages: nonNil(messages)})
}

func (MessagesProfile) DecodeResponse(body []byte) (string, error) {
	var payload messagesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", &ContractError{Profile: ProfileMessages, Err: fmt.Errorf("decode response: %w", err)}
	}
	if payload.Response == nil {
		return "", &ContractError{Profile: ProfileMessages, Err: errors.New("response field missing")}
	}
	return *payload.Response, nil
}

func nonNil(messages []domain.ChatMessage) []domain.ChatMessage {
	if messages == nil {
		return []domain.ChatMessage{}
	}
	return messages
}
