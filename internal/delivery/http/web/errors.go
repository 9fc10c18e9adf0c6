package web

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type pageError struct {
	Code    int
	Message string
}

func newPageError(code int, message string) pageError {
	return pageError{
		Code:    code,
		Message: message,
	}
}

func (e pageError) Error() string {
	return e.Message
}

// abort renders the error page and stops the handler chain.
func (h *handlerImpl) abort(c *gin.Context, err pageError) {
	data := h.newViewData(c, http.StatusText(err.Code))
	data.Message = err.Message
	render(c, err.Code, "error", data)
	c.Abort()
}

func newStatusTextError(status int) pageError {
	return newPageError(status, http.StatusText(status))
}

func newBadRequestError(message string) pageError {
	return newPageError(http.StatusBadRequest, message)
}

func newNotFoundError(message string) pageError {
	return newPageError(http.StatusNotFound, message)
}
