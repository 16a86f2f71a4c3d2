package handler

import (
	"github.com/gin-gonic/gin"

	"linkup/middleware"
	"linkup/module/social/model"
	"linkup/module/social/users"
	"linkup/tools/errs"
)

// userView is the public shape of an account; the password hash never
// leaves the service layer.
type userView struct {
	ID            string `json:"id"`
	Username      string `json:"username"`
	DisplayName   string `json:"displayName"`
	AvatarURL     string `json:"avatarUrl,omitempty"`
	OnlinePrivacy string `json:"onlinePrivacy"`
}

func toUserView(u *model.User) userView {
	return userView{
		ID:            u.ID,
		Username:      u.Username,
		DisplayName:   u.Name(),
		AvatarURL:     u.AvatarURL,
		OnlinePrivacy: u.OnlinePrivacy,
	}
}

type UserHandler struct {
	svc *users.Service
}

func NewUserHandler(svc *users.Service) *UserHandler { return &UserHandler{svc: svc} }

type signupReq struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req signupReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrBadRequest.WrapMsg("username and password are required"))
		return
	}
	u, err := h.svc.Signup(c.Request.Context(), users.SignupInput{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"user": toUserView(u)})
}

type loginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errs.ErrBadRequest.WrapMsg("username and password are required"))
		return
	}
	u, token, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"user": toUserView(u), "token": token})
}

func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}
	ok(c, gin.H{"user": toUserView(u)})
}
