package api

import (
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"elevator-access-backend/internal/model"
	"elevator-access-backend/internal/parse"
)

var registerOnce sync.Once

// registerValidators adds the domain tags used in request structs to gin's
// validator.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		// Report JSON names in validation messages.
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("cardtype", func(fl validator.FieldLevel) bool {
			return model.CardType(fl.Field().String()).Valid()
		})
		_ = v.RegisterValidation("action", func(fl validator.FieldLevel) bool {
			_, ok := model.ParseAction(fl.Field().String())
			return ok
		})
		_ = v.RegisterValidation("unitnumber", func(fl validator.FieldLevel) bool {
			return parse.ValidUnitNumber(fl.Field().String())
		})
	})
}
