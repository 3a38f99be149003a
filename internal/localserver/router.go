package localserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// Invoker is the Lambda handler entrypoint.
type Invoker interface {
	Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
}

// NewRouter serves the invoker over plain HTTP the way API Gateway would.
func NewRouter(inv Invoker, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	invoke := invokeHandler(inv, logger)
	r.Post("/chat", invoke)
	r.Options("/chat", invoke)

	return r
}

func invokeHandler(inv Invoker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			http.Error(w, "failed to read request body", http.StatusBadRequest)
			return
		}

		resp, err := inv.Handle(r.Context(), toEvent(r, body))
		if err != nil {
			logger.ErrorContext(r.Context(), "handler returned error", "err", err)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		for k, v := range resp.Headers {
			w.Header().Set(k, v)
		}
		w.WriteHeader(resp.StatusCode)
		_, _ = io.WriteString(w, resp.Body)
	}
}

// toEvent builds a REST API proxy event. Multi-value headers keep the last
// value, as API Gateway does for the single-value map.
func toEvent(r *http.Request, body []byte) events.APIGatewayProxyRequest {
	headers := make(map[string]string, len(r.Header))
	for k, vs := range r.Header {
		if len(vs) > 0 {
			headers[k] = vs[len(vs)-1]
		}
	}
	query := make(map[string]string, len(r.URL.Query()))
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 {
			query[k] = vs[len(vs)-1]
		}
	}
	return events.APIGatewayProxyRequest{
		HTTPMethod:            strings.ToUpper(r.Method),
		Path:                  r.URL.Path,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  chimiddleware.GetReqID(r.Context()),
			HTTPMethod: strings.ToUpper(r.Method),
			Path:       r.URL.Path,
		},
	}
}
