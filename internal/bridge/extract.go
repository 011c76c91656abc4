package bridge

import (
	"errors"
	"strconv"
	"strings"

	"github.com/yoockh/hotelbridge/internal/utils"
)

// UtteranceArg is the tool parameter carrying what the caller said.
const UtteranceArg = "message"

// MsgNoMessage is returned to the caller verbatim with HTTP 400.
const MsgNoMessage = "No message provided"

var ErrNoQuery = errors.New("bridge: envelope carries no query")

// Query is what the downstream agent is asked. CorrelationToken is echoed
// back to VAPI so it can match the pending tool call.
type Query struct {
	Utterance        string
	CorrelationToken string
}

func Extract(env Envelope) (Query, error) {
	const op = "bridge.Extract"

	if env.Kind == KindUnrecognized {
		return Query{}, ErrNoQuery
	}

	u := strings.TrimSpace(StringArg(env.Arguments, UtteranceArg))
	if u == "" {
		return Query{}, utils.E(utils.CodeInvalidArgument, op, MsgNoMessage, nil)
	}

	q := Query{Utterance: u}
	if env.IsVapi() {
		q.CorrelationToken = env.CallID
	}
	return q, nil
}

func StringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// IntArg reads a numeric argument that may arrive as a JSON number or a
// numeric string.
func IntArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
