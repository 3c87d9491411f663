package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mkalinins/dashvault/internal/common"
	"github.com/mkalinins/dashvault/internal/githost"
)

// writeError maps the error taxonomy onto response codes. Auth failures are
// deliberately uniform and backend failures are reported without internals.
func writeError(c *gin.Context, err error) {
	var backendErr *githost.BackendError

	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, common.ErrValidation):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrUnauthorized), errors.Is(err, common.ErrInvalidToken):
		status, message = http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, common.ErrForbidden):
		status, message = http.StatusForbidden, "forbidden"
	case errors.Is(err, common.ErrNotFound):
		status, message = http.StatusNotFound, "not found"
	case errors.Is(err, common.ErrConflict):
		status, message = http.StatusConflict, "conflicting update, try again"
	case errors.As(err, &backendErr):
		status, message = http.StatusBadGateway, "storage backend unavailable"
	}

	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
