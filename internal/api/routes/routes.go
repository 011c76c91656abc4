package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hotelbridge/internal/api/handlers"
	"github.com/yoockh/hotelbridge/internal/api/middleware"
)

// TwilioVoicePath is also the Gather action Twilio posts speech back to.
const TwilioVoicePath = "/api/twilio/voice"

type Deps struct {
	Webhook *handlers.WebhookHandler
	Slides  *handlers.SlideHandler
	Records *handlers.RecordHandler
	Twilio  *handlers.TwilioHandler

	WebhookSecret string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// Voice provider webhooks
	hooks := api.Group("/")
	hooks.Use(middleware.WebhookSecret(d.WebhookSecret))
	hooks.POST("/vapi/webhook", d.Webhook.Vapi)
	hooks.POST("/elevenlabs/webhook", d.Webhook.ElevenLabs)
	hooks.POST("/integration-expert", d.Webhook.IntegrationExpert)
	hooks.POST("/slide-update", d.Webhook.SlideUpdate)

	// Presentation page
	api.GET("/slide-update", d.Slides.Current)
	api.GET("/slide-update/ws", d.Slides.Stream)

	// Telephony
	api.POST("/twilio/voice", d.Twilio.Voice)

	// Hotel records
	hotel := api.Group("/hotel/:kind")
	hotel.GET("", d.Records.List)
	hotel.POST("", d.Records.Create)
	hotel.GET("/:id", d.Records.Get)
	hotel.PUT("/:id", d.Records.Replace)
	hotel.DELETE("/:id", d.Records.Delete)
}
