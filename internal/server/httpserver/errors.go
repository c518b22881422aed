package httpserver

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/oclus/internal/common"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type errorBody struct {
	Kind  string `json:"kind"`
	Field string `json:"field,omitempty"`
}

// classify maps an error from the taxonomy to its status and wire kind.
// Anything unknown is internal.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, common.ErrorInvalidData):
		return http.StatusBadRequest, "invalid_data"
	case errors.Is(err, common.ErrorRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(c *gin.Context, err error) {
	status, kind := classify(err)
	body := errorBody{Kind: kind}
	if field, ok := common.ConflictField(err); ok {
		body.Field = field
	}
	c.AbortWithStatusJSON(status, body)
}

// writeBindError reports a body that failed to decode or validate. The
// first failing field is named by its JSON key.
func writeBindError(c *gin.Context, err error) {
	body := errorBody{Kind: "invalid_data"}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		body.Field = ve[0].Field()
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}
