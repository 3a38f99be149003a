package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"chat-relay/internal/domain"
)

type Generator interface {
	Generate(ctx context.Context, messages []domain.ChatMessage) (string, error)
}

type httpStatusCoder interface {
	HTTPStatusCode() int
	Reason() string
}

type unreachableError interface {
	Unreachable() bool
	Unwrap() error
}

type contractViolationError interface {
	ContractViolation() bool
}

type RelayInput struct {
	Message string
	History []domain.ChatMessage
}

// RelayOutput carries the reply and the full sequence: the caller's history,
// the new user turn and the assistant turn.
type RelayOutput struct {
	Reply   string
	History []domain.ChatMessage
}

type RelayService struct {
	generator Generator
	modelID   string
	logger    *slog.Logger
}

type Option func(*RelayService)

func WithLogger(logger *slog.Logger) Option {
	return func(s *RelayService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewRelayService creates the relay. modelID is only logged.
func NewRelayService(g Generator, modelID string, opts ...Option) (*RelayService, error) {
	if g == nil {
		return nil, errors.New("usecase: generator must not be nil")
	}
	s := &RelayService{
		generator: g,
		modelID:   strings.TrimSpace(modelID),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Relay sends the conversation upstream exactly once. Every failure is an
// *Error.
func (s *RelayService) Relay(ctx context.Context, in RelayInput) (RelayOutput, error) {
	messages := buildMessages(in.History, in.Message)

	s.logger.InfoContext(ctx, "relaying message",
		"model_id", s.modelID,
		"history_len", len(in.History),
		"message_len", len(in.Message),
	)

	reply, err := s.generator.Generate(ctx, messages)
	if err != nil {
		classified := classify(err)
		s.logger.WarnContext(ctx, "generator call failed",
			"model_id", s.modelID,
			"code", string(classified.Code),
			"status", classified.Status,
			"err", err,
		)
		return RelayOutput{}, classified
	}

	messages = append(messages, domain.ChatMessage{
		Role:    domain.RoleAssistant,
		Content: reply,
	})
	return RelayOutput{
		Reply:   reply,
		History: messages,
	}, nil
}

func classify(err error) *Error {
	var statusErr httpStatusCoder
	if errors.As(err, &statusErr) {
		e := newError(ErrorUpstreamHTTP, statusErr.Reason(), err)
		e.Status = statusErr.HTTPStatusCode()
		return e
	}
	var unreachable unreachableError
	if errors.As(err, &unreachable) && unreachable.Unreachable() {
		reason := err.Error()
		if cause := unreachable.Unwrap(); cause != nil {
			reason = cause.Error()
		}
		return newError(ErrorUpstreamUnreachable, reason, err)
	}
	var contract contractViolationError
	if errors.As(err, &contract) && contract.ContractViolation() {
		return newError(ErrorUpstreamContractViolation, "upstream response did not match the expected contract", err)
	}
	return Unexpected(err)
}
