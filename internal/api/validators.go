package api

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lalith-99/deliverypro/internal/tenant"
)

// RegisterValidators adds the domain tags used in request structs:
// slug (storefront domain) and rgbhex (#RRGGBB color). Call once at startup
// before serving.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding validator %T", binding.Validator.Engine())
	}
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return tenant.ValidSlug(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register slug validator: %w", err)
	}
	if err := v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
		return tenant.ValidColor(fl.Field().String())
	}); err != nil {
		return fmt.Errorf("register rgbhex validator: %w", err)
	}
	return nil
}
