package mw

import (
	"github.com/gin-gonic/gin"

	"elevator-access-backend/internal/errs"
)

// AbortWithError writes the error body every endpoint uses and stops the
// handler chain.
func AbortWithError(c *gin.Context, err error) {
	kind := errs.KindOf(err)
	c.AbortWithStatusJSON(errs.HTTPStatus(kind), gin.H{
		"error":   kind,
		"message": errs.MessageOf(err),
	})
}
