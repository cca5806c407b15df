package handler

import (
	"net/http"

	"go-gin-helpdesk/internal/service"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	service service.TicketService
}

func NewUploadHandler(service service.TicketService) *UploadHandler {
	return &UploadHandler{service: service}
}

func (h *UploadHandler) RegisterRoutes(r gin.IRouter, requireAuth gin.HandlerFunc) {
	r.GET("/uploads/:filename", requireAuth, h.Download)
}

// Download streams an attachment; any logged-in user may fetch any file.
func (h *UploadHandler) Download(c *gin.Context) {
	attachment, err := h.service.OpenAttachment(c.Request.Context(), c.Param("filename"))
	if err != nil {
		handleError(c, err, "Download")
		return
	}
	defer attachment.Body.Close()

	c.DataFromReader(http.StatusOK, attachment.Size, attachment.ContentType, attachment.Body, nil)
}
