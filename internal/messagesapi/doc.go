// Package messagesapi defines the wire types for the downstream, Anthropic
// Messages-shaped surface this gateway serves.
//
// These types are hand-written rather than imported from
// github.com/anthropics/anthropic-sdk-go for the same reason the upstream
// OpenAI-facing adapter this gateway is modeled on avoids reusing a client
// SDK for its server-side shapes:
//
//  1. SERVER-SIDE vs CLIENT-SIDE. anthropic-sdk-go is built for placing
//     outbound calls TO the Anthropic API (its param types use
//     param.Opt[T] wrappers tuned for building a request, not decoding
//     an arbitrary one). This package instead decodes inbound requests
//     FROM Messages-API clients and encodes outbound responses and SSE
//     frames TO them — the opposite direction.
//  2. STANDARD JSON. Plain structs with *T fields and encoding/json tags
//     decode directly via json.NewDecoder, with no adapter shim.
//  3. STREAM EVENT SHAPES. The state machine in internal/translate needs
//     to construct partially-filled event payloads (a content_block_delta
//     carries only the block that changed); modeling that as hand-written
//     unions keeps zero-value semantics obvious.
package messagesapi
