package httputil

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/jwalitptl/consult-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

func RespondWithSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, NewSuccessResponse(data))
}

// RespondWithError writes err as an error envelope. AppErrors choose the
// status and message; anything else is a 500 with a generic message.
func RespondWithError(c *gin.Context, err error) {
	status, resp := ErrorBody(err)
	c.AbortWithStatusJSON(status, resp)
}

func ErrorBody(err error) (int, *Response) {
	var unavailable *apperrors.UnavailableError
	if errors.As(err, &unavailable) {
		resp := NewErrorResponse(unavailable.Message)
		resp.Data = gin.H{"day": unavailable.Day}
		return unavailable.StatusCode(), resp
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Code != apperrors.ErrInternal {
		return appErr.StatusCode(), NewErrorResponse(appErr.Message)
	}

	return http.StatusInternalServerError, NewErrorResponse("internal server error")
}
