package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"elevator-access-backend/internal/errs"
	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/mw"
)

// respondError writes the error body and logs internal failures with their
// cause.
func (h *Handler) respondError(c *gin.Context, err error) {
	if errs.KindOf(err) == errs.KindInternal {
		h.logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	_ = c.Error(err)
	mw.AbortWithError(c, err)
}

// bindError converts a binding failure into a validation error naming the
// offending fields.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return errs.Wrap(errs.KindValidation, err, "request body is not valid JSON")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return errs.Wrap(errs.KindValidation, err, "%s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "url":
		return field + " must be a URL"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "cardtype":
		return field + " must be one of A, B, C"
	case "action":
		return field + " must be ACTIVATE or DEACTIVATE"
	case "unitnumber":
		return field + " may contain only letters, digits and dashes"
	}
	return fmt.Sprintf("%s failed the %s check", field, fe.Tag())
}

// currentUser returns the authenticated user. Routes using it sit behind
// mw.RequireAuth.
func currentUser(c *gin.Context) model.User {
	user, _ := mw.CurrentUser(c)
	return user
}

func idParam(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.New(errs.KindValidation, "%s must be a positive integer", name)
	}
	return id, nil
}
