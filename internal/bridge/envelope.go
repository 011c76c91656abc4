// Package bridge normalises voice-provider webhooks into a single agent query
// and re-encodes the answer into the envelope the provider expects.
//
// Every function here is pure; the HTTP layer owns IO and the downstream call.
package bridge

import (
	"bytes"
	"encoding/json"
	"net/url"
)

// Kind tags which provider shape an inbound webhook arrived in.
type Kind string

const (
	KindVapiToolCall     Kind = "vapi_tool_call"
	KindVapiFunctionCall Kind = "vapi_function_call"
	KindElevenLabs       Kind = "elevenlabs_tool_call"
	KindUnrecognized     Kind = "unrecognized"
)

// Envelope is the classified inbound webhook. Exactly one Kind is set per
// request; CallID is only populated for VAPI kinds.
type Envelope struct {
	Kind      Kind
	CallID    string
	ToolName  string
	Arguments map[string]any
	Raw       map[string]any
}

func (e Envelope) IsVapi() bool {
	return e.Kind == KindVapiToolCall || e.Kind == KindVapiFunctionCall
}

// Detector classifies bodies. Top-level tool_name is only trusted when it
// names a tool the detector knows about.
type Detector struct {
	known map[string]struct{}
}

func NewDetector(toolNames ...string) Detector {
	known := make(map[string]struct{}, len(toolNames))
	for _, n := range toolNames {
		if n != "" {
			known[n] = struct{}{}
		}
	}
	return Detector{known: known}
}

func (d Detector) Known(name string) bool {
	_, ok := d.known[name]
	return ok
}

// Detect applies the fixed precedence: VAPI toolCalls, VAPI legacy
// function-call, ElevenLabs tool_name, then unrecognized.
func (d Detector) Detect(body map[string]any) Envelope {
	env := Envelope{Kind: KindUnrecognized, Raw: body, Arguments: map[string]any{}}

	msg, _ := body["message"].(map[string]any)

	if calls, ok := msg["toolCalls"].([]any); ok && len(calls) > 0 {
		call, _ := calls[0].(map[string]any)
		fn, _ := call["function"].(map[string]any)

		env.Kind = KindVapiToolCall
		env.CallID = stringOf(call["id"])
		env.ToolName = stringOf(fn["name"])
		env.Arguments = argumentsOf(fn["arguments"])
		return env
	}

	if stringOf(msg["type"]) == "function-call" {
		if fc, ok := msg["functionCall"].(map[string]any); ok {
			env.Kind = KindVapiFunctionCall
			env.CallID = stringOf(fc["id"])
			env.ToolName = stringOf(fc["name"])
			env.Arguments = argumentsOf(fc["parameters"])
			return env
		}
	}

	if name, ok := body["tool_name"].(string); ok && d.Known(name) {
		env.Kind = KindElevenLabs
		env.ToolName = name
		env.Arguments = argumentsOf(body["parameters"])
		return env
	}

	return env
}

// DecodeJSON reads a webhook body into a generic map. A body that is valid
// JSON but not an object decodes to an empty map so it falls through to
// KindUnrecognized.
func DecodeJSON(data []byte) (map[string]any, error) {
	var v any
	if err := json.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, err
	}
	if m, ok := v.(map[string]any); ok {
		return m, nil
	}
	return map[string]any{}, nil
}

// FromForm flattens a form-encoded webhook: tool_name stays top-level and
// every other field becomes a parameter.
func FromForm(values url.Values) map[string]any {
	body := map[string]any{}
	params := map[string]any{}
	for k := range values {
		v := values.Get(k)
		if k == "tool_name" {
			body[k] = v
			continue
		}
		params[k] = v
	}
	body["parameters"] = params
	return body
}

// argumentsOf accepts an object or a JSON-encoded object string; VAPI sends
// either depending on the assistant's tool configuration.
func argumentsOf(v any) map[string]any {
	switch a := v.(type) {
	case map[string]any:
		return a
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(a), &m); err == nil && m != nil {
			return m
		}
	}
	return map[string]any{}
}

func stringOf(v any) string {
	s, _ := v.(string)
	return s
}
