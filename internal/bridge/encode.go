package bridge

// Canned texts spoken back to the caller when the agent cannot answer.
const (
	NotConfiguredText = "Sorry, the AI agent is not configured properly."
	FailureText       = "Sorry, something went wrong."
	FailureError      = "Internal server error"
)

type ToolCallResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

type VapiResponse struct {
	Error   string           `json:"error,omitempty"`
	Results []ToolCallResult `json:"results"`
}

type ElevenLabsResponse struct {
	Error  string `json:"error,omitempty"`
	Result string `json:"result"`
}

type Acknowledgement struct {
	Status string `json:"status"`
}

func Acknowledge() Acknowledgement {
	return Acknowledgement{Status: "received"}
}

// Encode wraps text in the envelope the originating provider expects.
func Encode(env Envelope, text string) any {
	switch {
	case env.IsVapi():
		return VapiResponse{Results: []ToolCallResult{{ToolCallID: env.CallID, Result: text}}}
	case env.Kind == KindElevenLabs:
		return ElevenLabsResponse{Result: text}
	default:
		return Acknowledge()
	}
}

// EncodeFailure carries both a machine-readable error and something the
// voice agent can still speak.
func EncodeFailure(env Envelope, errMsg, text string) any {
	if env.IsVapi() {
		return VapiResponse{
			Error:   errMsg,
			Results: []ToolCallResult{{ToolCallID: env.CallID, Result: text}},
		}
	}
	return ElevenLabsResponse{Error: errMsg, Result: text}
}
