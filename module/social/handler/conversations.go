package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"linkup/middleware"
	"linkup/module/social/conversation"
	"linkup/tools/errs"
)

type ConversationHandler struct {
	svc *conversation.Service
}

func NewConversationHandler(svc *conversation.Service) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

func (h *ConversationHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"conversations": items})
}

type createDirectReq struct {
	RecipientID string `json:"recipientId" binding:"required"`
	Content     string `json:"content" binding:"required"`
}

func (h *ConversationHandler) CreateDirect(c *gin.Context) {
	var req createDirectReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrBadRequest.WrapMsg("recipientId and content are required"))
		return
	}
	conv, msg, err := h.svc.CreateDirect(c.Request.Context(), middleware.UserID(c), req.RecipientID, req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"conversation": conv, "message": msg})
}

// Messages pages history. Query params: limit, before (RFC3339 cursor,
// exclusive), markAsSeen.
func (h *ConversationHandler) Messages(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			fail(c, errs.ErrBadRequest.WrapMsg("before must be an RFC3339 timestamp"))
			return
		}
		before = &t
	}
	markAsSeen := c.DefaultQuery("markAsSeen", "true") == "true"

	page, err := h.svc.FetchMessages(c.Request.Context(),
		c.Param("id"), middleware.UserID(c), limit, before, markAsSeen)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, page)
}

type sendMessageReq struct {
	Content string `json:"content" binding:"required"`
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrBadRequest.WrapMsg("content is required"))
		return
	}
	msg, err := h.svc.SendMessage(c.Request.Context(), c.Param("id"), middleware.UserID(c), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"message": msg})
}

func (h *ConversationHandler) Accept(c *gin.Context) {
	if err := h.svc.AcceptInvite(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *ConversationHandler) Reject(c *gin.Context) {
	if err := h.svc.RejectInvite(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}
