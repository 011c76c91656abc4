package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yoockh/hotelbridge/internal/services"
	"github.com/yoockh/hotelbridge/internal/utils"
)

// RecordHandler exposes CRUD over the hotel entities the admin pages edit.
type RecordHandler struct {
	svc services.RecordService
}

func NewRecordHandler(svc services.RecordService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

func (h *RecordHandler) List(c *gin.Context) {
	docs, err := h.svc.List(c.Request.Context(), c.Param("kind"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, docs)
}

func (h *RecordHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Param("kind"), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *RecordHandler) Create(c *gin.Context) {
	var doc services.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RecordHandler.Create", "invalid request body", err))
		return
	}

	out, err := h.svc.Create(c.Request.Context(), c.Param("kind"), doc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *RecordHandler) Replace(c *gin.Context) {
	var doc services.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "RecordHandler.Replace", "invalid request body", err))
		return
	}

	out, err := h.svc.Replace(c.Request.Context(), c.Param("kind"), c.Param("id"), doc)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RecordHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("kind"), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
