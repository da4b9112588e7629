package handler

import (
	"log"
	"net/http"

	"tussles/internal/apperror"
	"tussles/pkg/response"

	"github.com/gin-gonic/gin"
)

const genericErrorMessage = "Internal server error"

// respondError renders err in the standard envelope. Causes of 500s are
// logged and only shown to clients in gin debug mode.
func respondError(c *gin.Context, err error) {
	appErr, ok := apperror.As(err)
	if !ok {
		appErr = apperror.Upstream(genericErrorMessage, err)
	}

	status := appErr.HTTPStatus()
	switch {
	case status >= http.StatusInternalServerError:
		log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
		message := genericErrorMessage
		if gin.IsDebugging() {
			message = appErr.Error()
		}
		c.JSON(status, response.Error(message))
	case appErr.Kind == apperror.KindValidation:
		c.JSON(status, response.ValidationError(appErr.Message, appErr.Fields))
	default:
		c.JSON(status, response.Error(appErr.Message))
	}
}

// bindError turns a gin binding failure into a validation error.
func bindError(err error) error {
	return apperror.Validation("Invalid request payload: "+err.Error(), nil)
}
