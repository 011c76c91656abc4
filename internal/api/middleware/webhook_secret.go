package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hotelbridge/internal/utils"
)

type apiError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

// Headers the voice providers can be configured to send the shared secret in.
var secretHeaders = []string{"X-Vapi-Secret", "X-Webhook-Secret"}

// WebhookSecret rejects webhook deliveries whose secret header does not
// match. An empty secret disables the check.
func WebhookSecret(secret string) gin.HandlerFunc {
	secret = strings.TrimSpace(secret)

	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		for _, h := range secretHeaders {
			got := c.GetHeader(h)
			if got != "" && subtle.ConstantTimeCompare([]byte(got), []byte(secret)) == 1 {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, apiError{
			Code:    utils.CodeUnauthorized,
			Message: "invalid webhook secret",
		})
	}
}
