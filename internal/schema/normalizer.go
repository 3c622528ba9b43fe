// Package schema rewrites client-supplied JSON Schema tool definitions so
// they satisfy the upstream's strict-mode constraints.
package schema

import "encoding/json"

// deniedFormats lists "format" values the upstream rejects under strict
// mode. Anything not in this set passes through unchanged.
var deniedFormats = map[string]bool{
	"uri": true,
}

// Normalize clones and rewrites an arbitrary JSON Schema object so it is
// acceptable to the upstream's strict function-calling mode:
//
//  1. every object node's "required" becomes the union of its declared
//     value and all of its property names,
//  2. every object node gets "additionalProperties": false,
//  3. denylisted "format" values are stripped.
//
// The input is never mutated and any JSON shape is tolerated: malformed JSON
// is returned as an unmodified copy, empty input yields {}, and rule 3 is
// applied to every JSON object in the input, including non-object schemas.
func Normalize(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		out := make(json.RawMessage, len(raw))
		copy(out, raw)
		return out
	}

	normalized := normalizeValue(v)

	out, err := json.Marshal(normalized)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return out
}

func normalizeValue(v any) any {
	switch node := v.(type) {
	case map[string]any:
		return normalizeObject(node)
	case []any:
		out := make([]any, len(node))
		for i, item := range node {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func normalizeObject(node map[string]any) map[string]any {
	out := make(map[string]any, len(node))
	for k, v := range node {
		out[k] = normalizeValue(v)
	}

	if isObjectSchema(out) {
		propsAny, hasProps := out["properties"]
		props, _ := propsAny.(map[string]any)

		if hasProps {
			required := stringSet(out["required"])
			for name := range props {
				required[name] = struct{}{}
			}
			out["required"] = sortedKeys(required)
		}

		out["additionalProperties"] = false
	}

	if formatAny, ok := out["format"]; ok {
		if format, ok := formatAny.(string); ok && deniedFormats[format] {
			delete(out, "format")
		}
	}

	return out
}

// isObjectSchema reports whether node describes a JSON object, either via an
// explicit "type": "object" or implicitly via the presence of "properties".
func isObjectSchema(node map[string]any) bool {
	if t, ok := node["type"].(string); ok {
		return t == "object"
	}
	_, hasProps := node["properties"]
	return hasProps
}

func stringSet(v any) map[string]struct{} {
	set := make(map[string]struct{})
	arr, ok := v.([]any)
	if !ok {
		return set
	}
	for _, item := range arr {
		if s, ok := item.(string); ok {
			set[s] = struct{}{}
		}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	// Deterministic order keeps request bodies (and tests) stable across
	// runs despite Go's randomized map iteration.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
