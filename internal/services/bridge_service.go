package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/hotelbridge/internal/bridge"
	"github.com/yoockh/hotelbridge/internal/providers/agent"
	"github.com/yoockh/hotelbridge/internal/utils"
)

// Tool names the voice assistants are configured with.
const (
	ToolQueryIntegrationExpert = "query_integration_expert"
	ToolUpdateSlide            = "update_slide"
)

// ToolFunc answers one classified tool call with the text to speak back.
type ToolFunc func(ctx context.Context, env bridge.Envelope) (string, error)

type BridgeService interface {
	Detector() bridge.Detector
	// Answer dispatches env by tool name, falling back to defaultTool when
	// the name is empty or unregistered.
	Answer(ctx context.Context, env bridge.Envelope, defaultTool string) (string, error)
	// Ask sends one utterance to the downstream agent and unwraps the reply.
	Ask(ctx context.Context, utterance string) (string, error)
}

type bridgeService struct {
	agent  agent.Client
	slides SlideService
	tools  map[string]ToolFunc
	log    logrus.FieldLogger
}

func NewBridgeService(a agent.Client, slides SlideService, log logrus.FieldLogger) BridgeService {
	if log == nil {
		log = logrus.New()
	}
	s := &bridgeService{agent: a, slides: slides, log: log}
	s.tools = map[string]ToolFunc{
		ToolQueryIntegrationExpert: s.queryAgent,
		ToolUpdateSlide:            s.updateSlide,
	}
	return s
}

func (s *bridgeService) Detector() bridge.Detector {
	names := make([]string, 0, len(s.tools))
	for n := range s.tools {
		names = append(names, n)
	}
	return bridge.NewDetector(names...)
}

func (s *bridgeService) Answer(ctx context.Context, env bridge.Envelope, defaultTool string) (string, error) {
	const op = "BridgeService.Answer"

	fn, ok := s.tools[env.ToolName]
	if !ok {
		fn, ok = s.tools[defaultTool]
	}
	if !ok {
		return "", utils.E(utils.CodeInternal, op, "no tool registered", fmt.Errorf("tool %q, default %q", env.ToolName, defaultTool))
	}
	return fn(ctx, env)
}

func (s *bridgeService) Ask(ctx context.Context, utterance string) (string, error) {
	const op = "BridgeService.Ask"

	reply, err := s.agent.Ask(ctx, utterance)
	if errors.Is(err, agent.ErrNotConfigured) {
		return "", utils.E(utils.CodeNotConfigured, op, bridge.NotConfiguredText, err)
	}
	if err != nil {
		return "", utils.E(utils.CodeUpstream, op, "agent call failed", err)
	}
	return bridge.Unwrap(reply), nil
}

func (s *bridgeService) queryAgent(ctx context.Context, env bridge.Envelope) (string, error) {
	q, err := bridge.Extract(env)
	if err != nil {
		return "", err
	}
	return s.Ask(ctx, q.Utterance)
}

func (s *bridgeService) updateSlide(ctx context.Context, env bridge.Envelope) (string, error) {
	slide, err := s.slides.UpdateFromArgs(ctx, env.Arguments)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Slide updated to %d: %s", slide.SlideIndex, slide.Topic), nil
}
