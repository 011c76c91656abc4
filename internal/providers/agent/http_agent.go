package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Address family preferences for the outbound dial.
const (
	FamilyIPv4 = "ipv4"
	FamilyIPv6 = "ipv6"
	FamilyAny  = "any"
)

const (
	defaultTimeout = 25 * time.Second
	maxErrorBody   = 4 << 10
)

type Config struct {
	EndpointURL   string
	APIKey        string
	Timeout       time.Duration
	AddressFamily string
}

type HTTPAgent struct {
	cfg    Config
	client *http.Client
	log    logrus.FieldLogger
}

func NewHTTPAgent(cfg Config, log logrus.FieldLogger) *HTTPAgent {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.AddressFamily = NormalizeFamily(cfg.AddressFamily)
	if log == nil {
		log = logrus.New()
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	network := dialNetwork(cfg.AddressFamily)

	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = func(ctx context.Context, _, addr string) (net.Conn, error) {
		return dialer.DialContext(ctx, network, addr)
	}

	return &HTTPAgent{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout, Transport: tr},
		log:    log,
	}
}

func NormalizeFamily(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case FamilyIPv6, "6", "tcp6":
		return FamilyIPv6
	case FamilyAny, "dual", "tcp":
		return FamilyAny
	default:
		return FamilyIPv4
	}
}

func dialNetwork(family string) string {
	switch family {
	case FamilyIPv6:
		return "tcp6"
	case FamilyAny:
		return "tcp"
	default:
		return "tcp4"
	}
}

func (a *HTTPAgent) Configured() bool { return strings.TrimSpace(a.cfg.EndpointURL) != "" }

type askRequest struct {
	UserInput string `json:"userInput"`
}

// Ask makes exactly one attempt; retries are left to the voice provider.
func (a *HTTPAgent) Ask(ctx context.Context, utterance string) (Reply, error) {
	if !a.Configured() {
		return nil, ErrNotConfigured
	}

	start := time.Now()
	log := a.log.WithFields(logrus.Fields{
		"endpoint": a.cfg.EndpointURL,
		"family":   a.cfg.AddressFamily,
	})

	body, err := json.Marshal(askRequest{UserInput: utterance})
	if err != nil {
		return nil, fmt.Errorf("agent: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.EndpointURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("agent: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if a.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		log.WithError(err).WithField("latency_ms", time.Since(start).Milliseconds()).Error("agent request failed")
		return nil, fmt.Errorf("agent: send request: %w", err)
	}
	defer resp.Body.Close()

	log = log.WithFields(logrus.Fields{
		"status":     resp.StatusCode,
		"latency_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		se := &StatusError{StatusCode: resp.StatusCode, Body: string(text)}
		log.WithField("body", se.Body).Error("agent returned error status")
		return nil, se
	}

	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		// an unreadable 2xx is treated like an unknown shape
		log.WithError(err).Warn("agent reply is not JSON")
		return nil, nil
	}

	log.Info("agent replied")
	return reply, nil
}
