package usecase

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/domain"
	"chat-relay/internal/integrations/generator"
)

type mockGenerator struct {
	reply     string
	err       error
	calls     int
	lastInput []domain.ChatMessage
}

func (m *mockGenerator) Generate(_ context.Context, messages []domain.ChatMessage) (string, error) {
	m.calls++
	m.lastInput = append([]domain.ChatMessage(nil), messages...)
	return m.reply, m.err
}

func newTestService(t *testing.T, g Generator) *RelayService {
	t.Helper()
	svc, err := NewRelayService(g, "us.amazon.nova-lite-v1:0")
	require.NoError(t, err)
	return svc
}

func expectRelayError(t *testing.T, err error, code ErrorCode) *Error {
	t.Helper()
	var relayErr *Error
	require.ErrorAs(t, err, &relayErr)
	require.Equal(t, code, relayErr.Code)
	return relayErr
}

func TestNewRelayService_ValidatesDependencies(t *testing.T) {
	_, err := NewRelayService(nil, "model")
	require.Error(t, err)

	svc, err := NewRelayService(&mockGenerator{}, " model ", WithLogger(nil))
	require.NoError(t, err)
	require.Equal(t, "model", svc.modelID)
	require.NotNil(t, svc.logger)
}

func TestRelay_SingleUserTurn(t *testing.T) {
	g := &mockGenerator{reply: "hello"}
	svc := newTestService(t, g)

	out, err := svc.Relay(context.Background(), RelayInput{Message: "hi"})
	require.NoError(t, err)
	require.Equal(t, 1, g.calls)
	require.Equal(t, []domain.ChatMessage{{Role: "user", Content: "hi"}}, g.lastInput)
	require.Equal(t, "hello", out.Reply)
	require.Equal(t, []domain.ChatMessage{
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
	}, out.History)
}

func TestRelay_PreservesHistoryOrder(t *testing.T) {
	history := []domain.ChatMessage{
		{Role: "user", Content: "one"},
		{Role: "assistant", Content: "two"},
		{Role: "user", Content: "three"},
		{Role: "assistant", Content: "four"},
	}
	g := &mockGenerator{reply: "six"}
	svc := newTestService(t, g)

	out, err := svc.Relay(context.Background(), RelayInput{Message: "five", History: history})
	require.NoError(t, err)
	require.Equal(t, append(append([]domain.ChatMessage(nil), history...), domain.ChatMessage{Role: "user", Content: "five"}), g.lastInput)
	require.Len(t, out.History, 6)
	require.Equal(t, history, out.History[:4])
	require.Equal(t, domain.ChatMessage{Role: "assistant", Content: "six"}, out.History[5])
}

func TestRelay_DoesNotMutateCallerHistory(t *testing.T) {
	history := make([]domain.ChatMessage, 1, 8)
	history[0] = domain.ChatMessage{Role: "user", Content: "earlier"}
	svc := newTestService(t, &mockGenerator{reply: "ok"})

	_, err := svc.Relay(context.Background(), RelayInput{Message: "now", History: history})
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, domain.ChatMessage{}, history[:2][1])
}

func TestRelay_PassesRolesThrough(t *testing.T) {
	history := []domain.ChatMessage{{Role: "system", Content: "be brief"}}
	g := &mockGenerator{reply: "ok"}
	svc := newTestService(t, g)

	_, err := svc.Relay(context.Background(), RelayInput{Message: "hi", History: history})
	require.NoError(t, err)
	require.Equal(t, "system", g.lastInput[0].Role)
}

func TestRelay_ClassifiesGeneratorErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		code   ErrorCode
		reason string
		status int
	}{
		{
			name:   "http status",
			err:    &generator.HTTPStatusError{StatusCode: http.StatusServiceUnavailable, URL: "http://gen/generate"},
			code:   ErrorUpstreamHTTP,
			reason: "Service Unavailable",
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "unreachable",
			err:    &generator.TransportError{URL: "http://gen/generate", Err: errors.New("connection refused")},
			code:   ErrorUpstreamUnreachable,
			reason: "connection refused",
			status: http.StatusInternalServerError,
		},
		{
			name:   "contract violation",
			err:    &generator.ContractError{Profile: "messages", Err: errors.New("response field missing")},
			code:   ErrorUpstreamContractViolation,
			reason: "upstream response did not match the expected contract",
			status: http.StatusInternalServerError,
		},
		{
			name:   "unexpected",
			err:    errors.New("generator: resolve endpoint: boom"),
			code:   ErrorUnexpected,
			reason: "generator: resolve endpoint: boom",
			status: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, &mockGenerator{err: tc.err})
			_, err := svc.Relay(context.Background(), RelayInput{Message: "hi"})
			relayErr := expectRelayError(t, err, tc.code)
			require.Equal(t, tc.reason, relayErr.Reason)
			require.Equal(t, tc.status, relayErr.UpstreamStatus())
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestRelay_Idempotent(t *testing.T) {
	svc := newTestService(t, &mockGenerator{reply: "same"})
	in := RelayInput{Message: "hi", History: []domain.ChatMessage{{Role: "assistant", Content: "welcome"}}}

	first, err := svc.Relay(context.Background(), in)
	require.NoError(t, err)
	second, err := svc.Relay(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestDecodeInput(t *testing.T) {
	in, err := DecodeInput(`{"message":"hi"}`)
	require.NoError(t, err)
	require.Equal(t, "hi", in.Message)
	require.Empty(t, in.History)

	in, err = DecodeInput(`{"message":"","conversationHistory":[{"role":"user","content":"a"},{"role":"assistant","content":"b"}],"extra":1}`)
	require.NoError(t, err)
	require.Equal(t, "", in.Message)
	require.Equal(t, []domain.ChatMessage{{Role: "user", Content: "a"}, {Role: "assistant", Content: "b"}}, in.History)
}

func TestDecodeInput_Malformed(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"blank":           "   ",
		"not json":        "not-json",
		"missing message": `{"conversationHistory":[]}`,
		"null message":    `{"message":null}`,
		"wrong type":      `{"message":42}`,
		"bad history":     `{"message":"hi","conversationHistory":"nope"}`,
		"array body":      `[]`,
		"trailing data":   `{"message":"hi"}{"message":"again"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeInput(body)
			expectRelayError(t, err, ErrorMalformedRequest)
		})
	}
}

func TestError_UpstreamStatus(t *testing.T) {
	require.Equal(t, http.StatusBadGateway, (&Error{Code: ErrorUpstreamHTTP, Status: http.StatusBadGateway}).UpstreamStatus())
	require.Equal(t, http.StatusInternalServerError, (&Error{Code: ErrorUpstreamHTTP}).UpstreamStatus())
	require.Equal(t, http.StatusInternalServerError, (&Error{Code: ErrorMalformedRequest, Status: 418}).UpstreamStatus())

	var nilErr *Error
	require.Equal(t, http.StatusInternalServerError, nilErr.UpstreamStatus())
	require.Empty(t, nilErr.Error())
}
