package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hotelbridge/internal/bridge"
	"github.com/yoockh/hotelbridge/internal/utils"
)

// maxBodyBytes bounds inbound webhook and record bodies.
const maxBodyBytes = 1 << 20

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	status := utils.HTTPStatus(err)

	var ae *utils.AppError
	if errors.As(err, &ae) {
		c.JSON(status, APIError{
			Code:    ae.Code,
			Message: ae.Message,
		})
		return
	}

	c.JSON(status, APIError{
		Code:    utils.CodeInternal,
		Message: http.StatusText(status),
	})
}

// readBody decodes a webhook body sent either as JSON or as a form. A body
// that cannot be decoded yields an empty map and the decode error.
func readBody(c *gin.Context) (map[string]any, error) {
	const op = "handlers.readBody"

	ct := c.ContentType()
	if ct == gin.MIMEPOSTForm || ct == gin.MIMEMultipartPOSTForm {
		if err := c.Request.ParseMultipartForm(maxBodyBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return map[string]any{}, utils.E(utils.CodeInvalidArgument, op, "invalid form body", err)
		}
		return bridge.FromForm(c.Request.PostForm), nil
	}

	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		return map[string]any{}, utils.E(utils.CodeInvalidArgument, op, "failed to read body", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return map[string]any{}, nil
	}
	body, err := bridge.DecodeJSON(data)
	if err != nil {
		return map[string]any{}, utils.E(utils.CodeInvalidArgument, op, "invalid json body", err)
	}
	return body, nil
}
