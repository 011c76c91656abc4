package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hotelbridge/internal/bridge"
	"github.com/yoockh/hotelbridge/internal/services"
	"github.com/yoockh/hotelbridge/internal/utils"
)

// WebhookHandler bridges voice-provider tool calls to the registered tools.
type WebhookHandler struct {
	bridge   services.BridgeService
	slides   services.SlideService
	detector bridge.Detector
	log      logrus.FieldLogger
}

func NewWebhookHandler(b services.BridgeService, slides services.SlideService, log logrus.FieldLogger) *WebhookHandler {
	if log == nil {
		log = logrus.New()
	}
	return &WebhookHandler{bridge: b, slides: slides, detector: b.Detector(), log: log}
}

func (h *WebhookHandler) Vapi(c *gin.Context) {
	h.handle(c, services.ToolQueryIntegrationExpert)
}

func (h *WebhookHandler) ElevenLabs(c *gin.Context) {
	h.handle(c, services.ToolQueryIntegrationExpert)
}

func (h *WebhookHandler) IntegrationExpert(c *gin.Context) {
	h.handle(c, services.ToolQueryIntegrationExpert)
}

// SlideUpdate accepts the update_slide tool in either provider shape, plus a
// bare {slideIndex, topic, content, sessionId} body from the presenter page.
func (h *WebhookHandler) SlideUpdate(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		h.log.WithError(err).Warn("undecodable slide update body")
	}

	env := h.detector.Detect(body)
	if env.Kind == bridge.KindUnrecognized {
		if _, ok := body["slideIndex"]; ok {
			slide, err := h.slides.UpdateFromArgs(c.Request.Context(), body)
			if err != nil {
				c.JSON(utils.HTTPStatus(err), gin.H{"error": utils.SafeMessage(err, bridge.FailureError)})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "slide": slide})
			return
		}
	}

	h.answer(c, env, services.ToolUpdateSlide)
}

func (h *WebhookHandler) handle(c *gin.Context, defaultTool string) {
	body, err := readBody(c)
	if err != nil {
		// malformed bodies degrade to an acknowledgement
		h.log.WithError(err).Warn("undecodable webhook body")
	}
	h.answer(c, h.detector.Detect(body), defaultTool)
}

func (h *WebhookHandler) answer(c *gin.Context, env bridge.Envelope, defaultTool string) {
	start := time.Now()

	if env.Kind == bridge.KindUnrecognized {
		h.audit(c, env, http.StatusOK, start, nil)
		c.JSON(http.StatusOK, bridge.Acknowledge())
		return
	}

	text, err := h.bridge.Answer(c.Request.Context(), env, defaultTool)

	var status int
	var resp any
	switch {
	case err == nil:
		status, resp = http.StatusOK, bridge.Encode(env, text)
	case utils.IsCode(err, utils.CodeInvalidArgument):
		status, resp = http.StatusBadRequest, gin.H{"error": utils.SafeMessage(err, bridge.MsgNoMessage)}
	case utils.IsCode(err, utils.CodeNotConfigured):
		status, resp = http.StatusOK, bridge.Encode(env, bridge.NotConfiguredText)
	default:
		status, resp = http.StatusInternalServerError, bridge.EncodeFailure(env, bridge.FailureError, bridge.FailureText)
	}

	h.audit(c, env, status, start, err)
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, resp)
}

// audit records one interaction in the webhooks log.
func (h *WebhookHandler) audit(c *gin.Context, env bridge.Envelope, status int, start time.Time, err error) {
	reqID, _ := c.Get("request_id")
	bridge.BestEffort(h.log, "webhook_audit", func() error {
		entry := h.log.WithFields(logrus.Fields{
			"request_id": reqID,
			"path":       c.FullPath(),
			"kind":       env.Kind,
			"tool":       env.ToolName,
			"call_id":    env.CallID,
			"status":     status,
			"latency_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Warn("webhook answered with error")
			return nil
		}
		entry.Info("webhook answered")
		return nil
	})
}
