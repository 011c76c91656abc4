package handlers

import (
	"encoding/xml"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/hotelbridge/internal/bridge"
	"github.com/yoockh/hotelbridge/internal/services"
	"github.com/yoockh/hotelbridge/internal/utils"
)

const (
	twilioGreeting = "Welcome to the hotel concierge. How can I help you today?"
	twilioFollowUp = "Is there anything else I can help you with?"
	twilioVoice    = "Polly.Joanna"
)

type twimlSay struct {
	Voice string `xml:"voice,attr,omitempty"`
	Text  string `xml:",chardata"`
}

type twimlGather struct {
	Input         string    `xml:"input,attr"`
	Action        string    `xml:"action,attr"`
	Method        string    `xml:"method,attr"`
	SpeechTimeout string    `xml:"speechTimeout,attr"`
	Say           *twimlSay `xml:"Say,omitempty"`
}

type twimlResponse struct {
	XMLName xml.Name     `xml:"Response"`
	Say     *twimlSay    `xml:"Say,omitempty"`
	Gather  *twimlGather `xml:"Gather,omitempty"`
}

// TwilioHandler answers Twilio voice webhooks with TwiML, relaying each
// recognised utterance to the agent.
type TwilioHandler struct {
	bridge services.BridgeService
	action string
	log    logrus.FieldLogger
}

func NewTwilioHandler(b services.BridgeService, action string, log logrus.FieldLogger) *TwilioHandler {
	if log == nil {
		log = logrus.New()
	}
	return &TwilioHandler{bridge: b, action: action, log: log}
}

func (h *TwilioHandler) gather(prompt string) *twimlGather {
	return &twimlGather{
		Input:         "speech",
		Action:        h.action,
		Method:        http.MethodPost,
		SpeechTimeout: "auto",
		Say:           &twimlSay{Voice: twilioVoice, Text: prompt},
	}
}

func (h *TwilioHandler) Voice(c *gin.Context) {
	speech := strings.TrimSpace(c.PostForm("SpeechResult"))
	log := h.log.WithField("call_sid", c.PostForm("CallSid"))

	if speech == "" {
		h.writeTwiML(c, twimlResponse{Gather: h.gather(twilioGreeting)})
		return
	}

	text, err := h.bridge.Ask(c.Request.Context(), speech)
	switch {
	case err == nil:
	case utils.IsCode(err, utils.CodeNotConfigured):
		text = bridge.NotConfiguredText
	default:
		log.WithError(err).Error("twilio agent call failed")
		text = bridge.FailureText
	}

	log.WithField("speech", speech).Info("twilio turn answered")
	h.writeTwiML(c, twimlResponse{
		Say:    &twimlSay{Voice: twilioVoice, Text: text},
		Gather: h.gather(twilioFollowUp),
	})
}

func (h *TwilioHandler) writeTwiML(c *gin.Context, r twimlResponse) {
	out, err := xml.Marshal(r)
	if err != nil {
		h.log.WithError(err).Error("twiml marshal failed")
		out = []byte("<Response><Say>" + bridge.FailureText + "</Say></Response>")
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", append([]byte(xml.Header), out...))
}
