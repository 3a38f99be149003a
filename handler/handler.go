package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"chat-relay/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

type Relayer interface {
	Relay(ctx context.Context, in usecase.RelayInput) (usecase.RelayOutput, error)
}

type Handler struct {
	relay  Relayer
	style  Style
	logger *slog.Logger
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func NewHandler(relay Relayer, style Style, opts ...Option) (*Handler, error) {
	if relay == nil {
		return nil, errors.New("handler: relay must not be nil")
	}
	if style == nil {
		return nil, errors.New("handler: style must not be nil")
	}
	h := &Handler{relay: relay, style: style, logger: slog.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Handle turns an API Gateway proxy event into a response envelope. It never
// returns an error: every failure, panics included, becomes a failure envelope.
func (h *Handler) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
	logger := h.logger.With("correlation_id", correlationID(event))

	defer func() {
		if r := recover(); r != nil {
			logger.ErrorContext(ctx, "panic while handling invocation", "panic", r)
			resp = h.failure(ctx, logger, usecase.Unexpected(fmt.Errorf("panic: %v", r)))
			err = nil
		}
	}()

	if h.style.Preflight() && strings.EqualFold(event.HTTPMethod, http.MethodOptions) {
		return h.respond(ctx, logger, http.StatusOK, nil), nil
	}

	if user := callerIdentity(event); user != "" {
		logger.InfoContext(ctx, "authenticated user", "user", user)
	}

	in, err := usecase.DecodeInput(event.Body)
	if err != nil {
		return h.failure(ctx, logger, asRelayError(err)), nil
	}
	logger.InfoContext(ctx, "processing message", "history_len", len(in.History))

	out, err := h.relay.Relay(ctx, in)
	if err != nil {
		return h.failure(ctx, logger, asRelayError(err)), nil
	}

	status, body := h.style.Success(out)
	return h.respond(ctx, logger, status, body), nil
}

func (h *Handler) failure(ctx context.Context, logger *slog.Logger, relayErr *usecase.Error) events.APIGatewayProxyResponse {
	status, body := h.style.Failure(relayErr)
	logger.WarnContext(ctx, "invocation failed",
		"code", string(relayErr.Code),
		"status", status,
		"err", relayErr,
	)
	return h.respond(ctx, logger, status, body)
}

func (h *Handler) respond(ctx context.Context, logger *slog.Logger, status int, body any) events.APIGatewayProxyResponse {
	encoded := ""
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			logger.ErrorContext(ctx, "failed to encode response body", "err", err)
			status = http.StatusInternalServerError
			buf = []byte(`{"error":"failed to encode response"}`)
		}
		encoded = string(buf)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    h.style.Headers(),
		Body:       encoded,
	}
}

func asRelayError(err error) *usecase.Error {
	var relayErr *usecase.Error
	if errors.As(err, &relayErr) {
		return relayErr
	}
	return usecase.Unexpected(err)
}

// callerIdentity returns the email claim, or the Cognito username when there
// is no email. Claims come from a Cognito user pool authorizer.
func callerIdentity(event events.APIGatewayProxyRequest) string {
	claims, ok := event.RequestContext.Authorizer["claims"].(map[string]any)
	if !ok {
		return ""
	}
	for _, key := range []string{"email", "cognito:username"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func correlationID(event events.APIGatewayProxyRequest) string {
	if id := strings.TrimSpace(event.RequestContext.RequestID); id != "" {
		return id
	}
	for k, v := range event.Headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}
