package translate

import (
	"log/slog"

	"github.com/relaykit/messages-gateway/internal/messagesapi"
	"github.com/relaykit/messages-gateway/internal/schema"
	"github.com/relaykit/messages-gateway/internal/upstream"
)

// builtinTools maps known downstream built-in tool names to canonical
// function-tool definitions. Real deployments would source these from the
// integrator's own tool catalogue; this gateway ships a minimal set covering
// the names the specification calls out by example.
var builtinTools = map[string]upstream.UpstreamTool{
	"bash": {
		Kind:        upstream.ToolKindFunction,
		Name:        "bash",
		Description: "Run a shell command and return its output.",
		Parameters:  []byte(`{"type":"object","properties":{"command":{"type":"string"}},"required":["command"]}`),
	},
	"text_editor": {
		Kind:        upstream.ToolKindFunction,
		Name:        "text_editor",
		Description: "View or edit a text file.",
		Parameters:  []byte(`{"type":"object","properties":{"command":{"type":"string"},"path":{"type":"string"},"content":{"type":"string"}},"required":["command","path"]}`),
	},
}

// ConvertTools translates a downstream tool list into upstream tools: client
// tools become strict function tools after schema normalization, known
// built-ins map to their canonical definition, unknown built-ins are dropped
// with a warning, and the upstream web-search tool is appended unconditionally.
func ConvertTools(tools []messagesapi.ToolParam) []upstream.UpstreamTool {
	out := make([]upstream.UpstreamTool, 0, len(tools)+1)

	for _, t := range tools {
		if len(t.InputSchema) > 0 {
			out = append(out, upstream.UpstreamTool{
				Kind:        upstream.ToolKindFunction,
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schema.Normalize(t.InputSchema),
			})
			continue
		}
		if builtin, ok := builtinTools[t.Name]; ok {
			out = append(out, builtin)
			continue
		}
		slog.Warn("dropping unknown built-in tool", "name", t.Name)
	}

	out = append(out, upstream.UpstreamTool{Kind: upstream.ToolKindWebSearch})
	return out
}

// ConvertToolChoice maps a downstream tool_choice directive to its upstream
// equivalent: "tool"+name to an explicit function choice, "any" to
// "required", everything else (including absence) to "auto".
func ConvertToolChoice(choice *messagesapi.ToolChoiceParam) *upstream.UpstreamToolChoice {
	if choice == nil {
		return &upstream.UpstreamToolChoice{Mode: upstream.ToolChoiceAuto}
	}
	switch choice.Type {
	case "tool":
		return &upstream.UpstreamToolChoice{Mode: upstream.ToolChoiceNamed, Name: choice.Name}
	case "any":
		return &upstream.UpstreamToolChoice{Mode: upstream.ToolChoiceRequired}
	case "none":
		return &upstream.UpstreamToolChoice{Mode: upstream.ToolChoiceNone}
	default:
		return &upstream.UpstreamToolChoice{Mode: upstream.ToolChoiceAuto}
	}
}
