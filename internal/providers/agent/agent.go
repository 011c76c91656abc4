package agent

import (
	"context"
	"errors"
	"fmt"
)

// Client asks the downstream agent a single question.
type Client interface {
	// Ask returns the decoded JSON reply; its shape is not guaranteed.
	Ask(ctx context.Context, utterance string) (Reply, error)
}

// Reply is whatever JSON value the agent returned.
type Reply = any

var ErrNotConfigured = errors.New("agent: endpoint url is not configured")

// StatusError is a non-2xx answer from the agent endpoint.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("agent: unexpected status %d: %s", e.StatusCode, e.Body)
}
