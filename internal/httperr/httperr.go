package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type HTTPError struct {
	Code    string   `json:"error_code"`
	Message string   `json:"message"`
	Fields  []string `json:"fields,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

// statusByCode maps business codes to their HTTP status. Unknown codes are 422.
var statusByCode = map[string]int{
	"booking_not_found":       http.StatusNotFound,
	"invalid_state":           http.StatusConflict,
	"concurrent_modification": http.StatusConflict,
	"out_of_window":           http.StatusUnprocessableEntity,
	"validation_failed":       http.StatusBadRequest,
	"invalid_request":         http.StatusBadRequest,
	"forbidden":               http.StatusForbidden,
}

// Respond writes err as a JSON error. Non-business errors are logged and
// reported as internal_error without leaking their text.
func Respond(c *gin.Context, err error) {
	var be BusinessError
	if !errors.As(err, &be) {
		zap.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		Internal(c, "internal_error", "unexpected error")
		return
	}

	status, ok := statusByCode[be.Code]
	if !ok {
		status = http.StatusUnprocessableEntity
	}

	msg := be.Message
	if msg == "" {
		msg = be.Code
	}

	c.JSON(status, HTTPError{
		Code:    be.Code,
		Message: msg,
		Fields:  be.Fields,
	})
}
