package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go-gin-helpdesk/internal/middleware"
	"go-gin-helpdesk/internal/web"
	apperrors "go-gin-helpdesk/pkg/app_errors"
	"go-gin-helpdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var errMissingFormField = errors.New("missing form field")

// BindForm binds a urlencoded or multipart form, answering 400 when one of
// fields is absent. A field sent with an empty value counts as present.
func BindForm(c *gin.Context, obj interface{}, fields ...string) error {
	for _, field := range fields {
		if _, ok := c.GetPostForm(field); !ok {
			c.String(http.StatusBadRequest, "Bad Request")
			return fmt.Errorf("%w: %s", errMissingFormField, field)
		}
	}
	if err := c.ShouldBind(obj); err != nil {
		c.String(http.StatusBadRequest, "Bad Request")
		return err
	}
	return nil
}

// render 加上目前登入者與 flash 訊息後輸出頁面
func render(c *gin.Context, flashes *web.FlashStore, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Identity"] = middleware.IdentityFrom(c)
	data["Flashes"] = flashes.Pop(c)
	c.HTML(status, name, data)
}

// parseTicketID answers 404 for an id that is not a positive integer.
func parseTicketID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.String(http.StatusNotFound, "Ticket not found")
		return 0, false
	}
	return id, true
}

func handleError(c *gin.Context, err error, operation string) {
	log := logger.WithComponent("handler").With(zap.String("operation", operation), zap.Error(err))
	switch {
	case errors.Is(err, apperrors.ErrTicketNotFound):
		log.Warn("Ticket not found")
		c.String(http.StatusNotFound, "Ticket not found")
	case errors.Is(err, apperrors.ErrAttachmentNotFound):
		log.Warn("Attachment not found")
		c.String(http.StatusNotFound, "File not found")
	case errors.Is(err, apperrors.ErrInvalidInput):
		log.Warn("Invalid input")
		c.String(http.StatusBadRequest, "Invalid input")
	case errors.Is(err, apperrors.ErrUnauthenticated):
		log.Warn("Unauthenticated")
		c.Redirect(http.StatusFound, "/login")
	default:
		log.Error("Unexpected error")
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Internal server error")
	}
}
