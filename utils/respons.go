package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/restobar/pos/apperr"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
		Data:    nil,
	})
}

// RespondAppError maps the application error taxonomy to HTTP statuses.
func RespondAppError(c *gin.Context, err error) {
	RespondError(c, StatusFor(err), err)
}

func StatusFor(err error) int {
	var (
		validation  *apperr.ValidationError
		notFound    *apperr.NotFoundError
		permission  *apperr.PermissionError
		dependency  *apperr.DependencyError
		computation *apperr.ComputationError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusUnprocessableEntity
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &permission):
		return http.StatusForbidden
	case errors.As(err, &dependency):
		return http.StatusBadGateway
	case errors.As(err, &computation):
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
