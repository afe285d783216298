package style

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("pagesize", func(fl validator.FieldLevel) bool {
		return validPageSize(fl.Field().String())
	})
	_ = validate.RegisterValidation("drawiostyle", func(fl validator.FieldLevel) bool {
		return ValidateStyle(fl.Field().String()) == nil
	})
}

// Validate checks value ranges and style string syntax.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func validPageSize(s string) bool {
	if s == AutoSize {
		return true
	}
	v, err := strconv.ParseFloat(s, 64)
	return err == nil && v > 0
}

func formatValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return tderrors.Wrap(tderrors.ErrCodeInvalidStyle, err, "validate style")
	}

	e := verrs[0]
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch e.Tag() {
	case "gt":
		return tderrors.New(tderrors.ErrCodeInvalidStyle, "%s: must be greater than %s", field, e.Param())
	case "gte":
		return tderrors.New(tderrors.ErrCodeInvalidStyle, "%s: must not be negative", field)
	case "pagesize":
		return tderrors.New(tderrors.ErrCodeInvalidStyle, "%s: must be %q or a positive number, got %q", field, AutoSize, e.Value())
	case "drawiostyle":
		return tderrors.New(tderrors.ErrCodeInvalidStyle, "%s: %v", field, ValidateStyle(e.Value().(string)))
	case "hexcolor|eq=none":
		return tderrors.New(tderrors.ErrCodeInvalidStyle, "%s: must be a hex color or none, got %q", field, e.Value())
	default:
		return tderrors.New(tderrors.ErrCodeInvalidStyle, "%s: validation failed (%s)", field, e.Tag())
	}
}
