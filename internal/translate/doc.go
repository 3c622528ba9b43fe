// Package translate holds the request, response and stream translators that
// sit between the downstream Messages-API wire shapes (internal/messagesapi)
// and the upstream Responses-API call. It depends on internal/upstream only
// for the small provider-neutral DTOs that package exposes (UpstreamRequest,
// ResponseResult, Event), never on the openai-go SDK's own types, so the
// translation logic here can be unit tested without constructing SDK values.
package translate
