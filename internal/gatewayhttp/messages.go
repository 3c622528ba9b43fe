package gatewayhttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/openai/openai-go/v3"

	"github.com/relaykit/messages-gateway/internal/correlate"
	"github.com/relaykit/messages-gateway/internal/messagesapi"
	"github.com/relaykit/messages-gateway/internal/observability"
	"github.com/relaykit/messages-gateway/internal/translate"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

// validate checks decoded request bodies against the messagesapi struct
// tags. A single instance is reused across requests: it caches struct
// metadata internally and is safe for concurrent use.
var validate = validator.New(validator.WithRequiredStructEnabled())

// MessagesHandler is the request coordinator (C7): per HTTP request it
// resolves a conversation, invokes the request translator, dispatches to
// the streaming or non-streaming path, and persists correlation updates.
type MessagesHandler struct {
	Client         *upstream.Client
	Store          *correlate.Store
	EventLog       *observability.EventLog
	PingInterval   time.Duration
	RequestTimeout time.Duration
}

func (h *MessagesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params messagesapi.MessageCreateParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeJSONError(ctx, w, messagesapi.NewErrorResponse("invalid_request_error", http.StatusText(http.StatusRequestEntityTooLarge)))
			return
		}
		writeJSONError(ctx, w, messagesapi.NewErrorResponse("invalid_request_error", "invalid request body: "+err.Error()))
		return
	}

	if err := validate.Struct(params); err != nil {
		writeJSONError(ctx, w, messagesapi.NewErrorResponse("invalid_request_error", err.Error()))
		return
	}

	conversationID := resolveConversationID(r)
	conv := h.Store.GetOrCreate(conversationID)
	defer h.Store.Release(conv)

	req, err := translate.BuildUpstreamRequest(params, h.Client.Model(), conv)
	h.Store.Touch(conv)
	if err != nil {
		writeJSONError(ctx, w, messagesapi.NewErrorResponse("invalid_request_error", err.Error()))
		return
	}
	h.EventLog.Record("inbound", conversationID, params)

	if h.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.RequestTimeout)
		defer cancel()
	}

	if isStreamingRequest(r) {
		h.streamResponse(ctx, w, req, conv, conversationID)
		return
	}
	h.writeResponse(ctx, w, req, conv, conversationID)
}

func (h *MessagesHandler) writeResponse(ctx context.Context, w http.ResponseWriter, req upstream.UpstreamRequest, conv *correlate.Conversation, conversationID string) {
	params := upstream.BuildParams(req)
	resp, err := h.Client.CreateResponse(ctx, params)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			w.WriteHeader(499)
			return
		}
		slog.ErrorContext(ctx, "upstream request failed", "error", err)
		writeJSONError(ctx, w, upstreamErrorResponse(err))
		return
	}

	result := upstream.ConvertResponse(resp)
	msg, bindings := translate.TranslateResponse(result, h.Client.Model())
	conv.Update(result.ID, bindings)
	h.Store.Touch(conv)
	h.EventLog.Record("outbound", conversationID, msg)

	writeJSON(ctx, w, msg, http.StatusOK)
}

func (h *MessagesHandler) streamResponse(ctx context.Context, w http.ResponseWriter, req upstream.UpstreamRequest, conv *correlate.Conversation, conversationID string) {
	sse, err := NewSSEWriter(w)
	if err != nil {
		slog.ErrorContext(ctx, "SSE not supported", "error", err)
		writeJSONError(ctx, w, messagesapi.NewErrorResponse("api_error", http.StatusText(http.StatusInternalServerError)))
		return
	}

	emitter := NewMessagesEmitter(sse)
	session := translate.NewSession(emitter, h.Client.Model())
	session.Start(h.PingInterval)

	params := upstream.BuildParams(req)
	stream := h.Client.CreateResponseStream(ctx, params)

	for stream.Next() {
		if ctx.Err() != nil {
			sse.MarkClosed()
			break
		}
		ev := upstream.FromSDK(stream.Current())
		session.Handle(ev)
		h.EventLog.Record("outbound-event", conversationID, ev)
	}
	if err := stream.Err(); err != nil && ctx.Err() == nil {
		session.Handle(upstream.Event{Kind: upstream.EventError, ErrorMessage: err.Error()})
	}
	_ = stream.Close()

	responseID, bindings, observedCompletion := session.Finish()
	if observedCompletion {
		conv.Update(responseID, bindings)
	}
	h.Store.Touch(conv)
}

// resolveConversationID picks the conversation id from x-conversation-id or
// x-session-id, falling back to a per-request id already set by the request
// id middleware.
func resolveConversationID(r *http.Request) string {
	if id := r.Header.Get("x-conversation-id"); id != "" {
		return id
	}
	if id := r.Header.Get("x-session-id"); id != "" {
		return id
	}
	return observability.RequestIDFromContext(r.Context())
}

// isStreamingRequest reports whether the client asked for an SSE response.
func isStreamingRequest(r *http.Request) bool {
	return r.Header.Get("x-stainless-helper-method") == "stream"
}

// upstreamErrorResponse maps an upstream error into the downstream error
// taxonomy. openai-go surfaces HTTP-level failures as *openai.Error, which
// carries the upstream status code and body; this inspects that to preserve
// the status instead of collapsing every upstream failure to a 500. Errors
// that never reached the HTTP layer (context cancellation, dial failures)
// have no status to inspect and fall back to api_error/500.
func upstreamErrorResponse(err error) *messagesapi.ErrorResponse {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return messagesapi.NewErrorResponse("api_error", err.Error())
	}

	message := apiErr.Error()
	switch {
	case apiErr.StatusCode == http.StatusUnauthorized:
		return messagesapi.NewErrorResponse("authentication_error", message)
	case apiErr.StatusCode == http.StatusForbidden:
		return messagesapi.NewErrorResponse("permission_error", message)
	case apiErr.StatusCode == http.StatusNotFound:
		return messagesapi.NewErrorResponse("not_found_error", message)
	case apiErr.StatusCode == http.StatusTooManyRequests:
		return messagesapi.NewErrorResponse("rate_limit_error", message)
	case apiErr.StatusCode == http.StatusServiceUnavailable:
		return messagesapi.NewErrorResponse("overloaded_error", message)
	case apiErr.StatusCode >= 400 && apiErr.StatusCode < 500:
		return messagesapi.NewErrorResponse("invalid_request_error", message)
	default:
		return messagesapi.NewErrorResponse("api_error", message)
	}
}
