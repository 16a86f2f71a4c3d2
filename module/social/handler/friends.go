package handler

import (
	"github.com/gin-gonic/gin"

	"linkup/middleware"
	"linkup/module/social/friends"
	"linkup/module/social/model"
	"linkup/tools/errs"
)

type FriendHandler struct {
	svc *friends.Service
}

func NewFriendHandler(svc *friends.Service) *FriendHandler { return &FriendHandler{svc: svc} }

type friendRequestReq struct {
	UserID string `json:"userId" binding:"required"`
}

func (h *FriendHandler) SendRequest(c *gin.Context) {
	var req friendRequestReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrBadRequest.WrapMsg("userId is required"))
		return
	}
	requestID, err := h.svc.SendRequest(c.Request.Context(), middleware.UserID(c), req.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"requestId": requestID})
}

func (h *FriendHandler) Accept(c *gin.Context) {
	if err := h.svc.Accept(c.Request.Context(), c.Param("requestId"), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *FriendHandler) Ignore(c *gin.Context) {
	if err := h.svc.Ignore(c.Request.Context(), c.Param("requestId"), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *FriendHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), c.Param("requestId"), middleware.UserID(c)); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *FriendHandler) Remove(c *gin.Context) {
	if err := h.svc.Remove(c.Request.Context(), middleware.UserID(c), c.Param("friendId")); err != nil {
		fail(c, err)
		return
	}
	ok(c, nil)
}

func (h *FriendHandler) List(c *gin.Context) {
	rows, err := h.svc.ListByStatus(c.Request.Context(), middleware.UserID(c), model.FriendStatusAccepted)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"friends": rows})
}

func (h *FriendHandler) ListRequests(c *gin.Context) {
	rows, err := h.svc.ListByStatus(c.Request.Context(), middleware.UserID(c), model.FriendStatusPendingReceived)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"requests": rows})
}

func (h *FriendHandler) ListSent(c *gin.Context) {
	rows, err := h.svc.ListByStatus(c.Request.Context(), middleware.UserID(c), model.FriendStatusPendingSent)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"requests": rows})
}

func (h *FriendHandler) ListIgnored(c *gin.Context) {
	rows, err := h.svc.ListByStatus(c.Request.Context(), middleware.UserID(c), model.FriendStatusIgnored)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"requests": rows})
}

func (h *FriendHandler) Status(c *gin.Context) {
	status, err := h.svc.Status(c.Request.Context(), middleware.UserID(c), c.Param("userId"))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"status": status})
}
