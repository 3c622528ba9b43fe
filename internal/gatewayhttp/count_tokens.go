package gatewayhttp

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/relaykit/messages-gateway/internal/messagesapi"
)

const countTokensEncoding = "cl100k_base"

// CountTokensHandler serves POST /v1/messages/count_tokens using an
// off-the-shelf tokenizer over the concatenated system and message text,
// standing in for a model-specific tokenizer the upstream doesn't expose.
type CountTokensHandler struct{}

func (h *CountTokensHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var params messagesapi.CountTokensParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeJSONError(ctx, w, messagesapi.NewErrorResponse("invalid_request_error", "invalid request body: "+err.Error()))
		return
	}

	enc, err := tiktoken.GetEncoding(countTokensEncoding)
	if err != nil {
		writeJSONError(ctx, w, messagesapi.NewErrorResponse("api_error", "tokenizer unavailable"))
		return
	}

	var sb strings.Builder
	if systemText, err := decodeSystemForCounting(params.System); err == nil {
		sb.WriteString(systemText)
		sb.WriteString("\n")
	}
	for _, m := range params.Messages {
		text, blocks, isBlocks, err := m.DecodeContent()
		if err != nil {
			continue
		}
		if isBlocks {
			for _, b := range blocks {
				sb.WriteString(b.Text)
				sb.WriteString("\n")
			}
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	tokens := enc.Encode(sb.String(), nil, nil)
	writeJSON(ctx, w, messagesapi.CountTokensResult{InputTokens: len(tokens)}, http.StatusOK)
}

func decodeSystemForCounting(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, nil
	}
	var blocks []messagesapi.ContentBlockParam
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, b := range blocks {
		sb.WriteString(b.Text)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
