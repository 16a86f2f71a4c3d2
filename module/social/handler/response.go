package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"linkup/logger"
	"linkup/tools/errs"
)

// Body is the uniform response envelope.
type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func ok(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

func fail(c *gin.Context, err error) {
	status := errs.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("[http] %s %s: %+v", c.Request.Method, c.FullPath(), err)
	}
	msg := "internal error"
	var ce *errs.CodeError
	if errors.As(err, &ce) && status < http.StatusInternalServerError {
		msg = ce.Msg
		if ce.Detail != "" {
			msg = ce.Detail
		}
	}
	c.JSON(status, Body{Success: false, Message: msg})
}
