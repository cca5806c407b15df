package handler

import (
	"errors"
	"fmt"
	"net/http"

	"go-gin-helpdesk/internal/middleware"
	"go-gin-helpdesk/internal/model"
	"go-gin-helpdesk/internal/service"
	"go-gin-helpdesk/internal/web"
	"go-gin-helpdesk/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type TicketHandler struct {
	service service.TicketService
	flashes *web.FlashStore
}

func NewTicketHandler(service service.TicketService, flashes *web.FlashStore) *TicketHandler {
	return &TicketHandler{service: service, flashes: flashes}
}

func (h *TicketHandler) RegisterRoutes(r gin.IRouter, requireAuth gin.HandlerFunc) {
	router := r.Group("/", requireAuth)
	{
		router.GET("ticket", h.CreateForm)
		router.POST("ticket", h.Create)
		router.GET("dashboard", h.Dashboard)
		router.GET("ticket/:id", h.Detail)
		router.GET("ticket/:id/edit", h.EditForm)
		router.POST("ticket/:id/edit", h.Edit)
		router.POST("ticket/:id/delete", h.Delete)
	}
}

func (h *TicketHandler) CreateForm(c *gin.Context) {
	render(c, h.flashes, http.StatusOK, "create_ticket.html", gin.H{"Title": "New ticket"})
}

func (h *TicketHandler) Create(c *gin.Context) {
	var req model.CreateTicketRequest
	if err := BindForm(c, &req, "priority", "subject", "message"); err != nil {
		return
	}

	var upload *service.AttachmentUpload
	fh, err := c.FormFile("file")
	switch {
	case err == nil && fh.Filename != "":
		f, err := fh.Open()
		if err != nil {
			handleError(c, err, "Create")
			return
		}
		defer f.Close()
		upload = &service.AttachmentUpload{
			Filename:    fh.Filename,
			Size:        fh.Size,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     f,
		}
	case err == nil, errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// 沒有附件
	default:
		c.String(http.StatusBadRequest, "Bad Request")
		return
	}

	ticket, err := h.service.Create(c.Request.Context(), middleware.IdentityFrom(c), req, upload)
	if err != nil {
		handleError(c, err, "Create")
		return
	}
	render(c, h.flashes, http.StatusOK, "ticket_created.html", gin.H{"Title": "Ticket created", "Ticket": ticket})
}

func (h *TicketHandler) Dashboard(c *gin.Context) {
	tickets, err := h.service.ListForOwner(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		handleError(c, err, "Dashboard")
		return
	}
	render(c, h.flashes, http.StatusOK, "dashboard.html", gin.H{"Title": "My tickets", "Tickets": tickets})
}

func (h *TicketHandler) Detail(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, "Detail")
		return
	}

	history, err := h.service.History(c.Request.Context(), id)
	if err != nil {
		// 歷史紀錄不影響工單顯示
		logger.WithComponent("handler").Warn("failed to load ticket history", zap.Int("ticket_id", id), zap.Error(err))
	}

	render(c, h.flashes, http.StatusOK, "ticket_detail.html", gin.H{
		"Title":   fmt.Sprintf("Ticket #%d", id),
		"Ticket":  ticket,
		"History": history,
	})
}

func (h *TicketHandler) EditForm(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	ticket, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err, "EditForm")
		return
	}
	render(c, h.flashes, http.StatusOK, "edit_ticket.html", gin.H{"Title": "Edit ticket", "Ticket": ticket})
}

func (h *TicketHandler) Edit(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	// 先確認工單存在，再檢查表單
	if _, err := h.service.GetByID(c.Request.Context(), id); err != nil {
		handleError(c, err, "Edit")
		return
	}

	var req model.UpdateTicketRequest
	if err := BindForm(c, &req, "subject", "message", "status"); err != nil {
		return
	}

	params := model.UpdateTicketParams{
		Subject: req.Subject,
		Message: req.Message,
		Status:  req.Status,
	}
	if _, err := h.service.Update(c.Request.Context(), middleware.IdentityFrom(c), id, params); err != nil {
		handleError(c, err, "Edit")
		return
	}
	c.Redirect(http.StatusFound, fmt.Sprintf("/ticket/%d", id))
}

func (h *TicketHandler) Delete(c *gin.Context) {
	id, ok := parseTicketID(c)
	if !ok {
		return
	}

	// 不是自己的工單時不刪除，但回應相同
	if _, err := h.service.Delete(c.Request.Context(), middleware.IdentityFrom(c), id); err != nil {
		handleError(c, err, "Delete")
		return
	}
	h.flashes.Add(c, web.FlashSuccess, "Ticket deleted.")
	c.Redirect(http.StatusFound, "/dashboard")
}
