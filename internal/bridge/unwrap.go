package bridge

import "encoding/json"

const FallbackText = "I received your message but have no response."

// Unwrap pulls display text out of an agent reply. Probes run in a fixed
// order and the first match wins:
//
//	content[0].text.value  (content-block array)
//	content                (bare string)
//	response               (string)
//
// Anything else yields FallbackText.
func Unwrap(reply any) string {
	obj, ok := reply.(map[string]any)
	if !ok {
		return FallbackText
	}

	if blocks, ok := obj["content"].([]any); ok && len(blocks) > 0 {
		if block, ok := blocks[0].(map[string]any); ok {
			if text, ok := block["text"].(map[string]any); ok {
				if v, ok := text["value"].(string); ok {
					return v
				}
			}
		}
	}

	if s, ok := obj["content"].(string); ok {
		return s
	}
	if s, ok := obj["response"].(string); ok {
		return s
	}
	return FallbackText
}

// UnwrapJSON is Unwrap over raw bytes; undecodable input gets FallbackText.
func UnwrapJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return FallbackText
	}
	return Unwrap(v)
}
