package http

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"orbitlend-backend/internal/domain/loan"
	"orbitlend-backend/pkg/id"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				continue
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	// decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(fv reflect.Value) any {
		if d, ok := fv.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("ulid", func(fl validator.FieldLevel) bool {
		return id.Valid(fl.Field().String())
	})
	_ = v.RegisterValidation("purpose", func(fl validator.FieldLevel) bool {
		return loan.ValidPurpose(fl.Field().String())
	})
	// max 2 decimal places
	_ = v.RegisterValidation("dec2", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.Equal(d.Truncate(2))
	})
	_ = v.RegisterValidation("dec_positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.IsPositive()
	})
	// dec_range=lo:hi, inclusive
	_ = v.RegisterValidation("dec_range", func(fl validator.FieldLevel) bool {
		lo, hi, ok := decRange(fl.Param())
		if !ok {
			return false
		}
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.GreaterThanOrEqual(lo) && d.LessThanOrEqual(hi)
	})

	return &CustomValidator{v: v}
}

func decRange(param string) (decimal.Decimal, decimal.Decimal, bool) {
	parts := strings.SplitN(param, ":", 2)
	if len(parts) != 2 {
		return decimal.Zero, decimal.Zero, false
	}
	lo, err1 := decimal.NewFromString(parts[0])
	hi, err2 := decimal.NewFromString(parts[1])
	return lo, hi, err1 == nil && err2 == nil
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		var msg string
		switch e.Tag() {
		case "required":
			msg = "is required"
		case "ulid":
			msg = "must be a valid id"
		case "purpose":
			msg = "must be one of " + purposes()
		case "dec2":
			msg = "must have at most 2 decimal places"
		case "dec_positive":
			msg = "must be greater than 0"
		case "dec_range":
			msg = "must be between " + strings.Replace(e.Param(), ":", " and ", 1)
		case "eth_addr":
			msg = "must be a valid Ethereum address"
		case "email":
			msg = "must be a valid email address"
		case "url":
			msg = "must be a valid URL"
		case "oneof":
			msg = "must be one of " + strings.ReplaceAll(e.Param(), " ", ", ")
		case "min":
			msg = "must be at least " + e.Param() + " characters"
		case "max":
			msg = "must be at most " + e.Param() + " characters"
		case "gte":
			msg = "must be greater than or equal to " + e.Param()
		case "lte":
			msg = "must be less than or equal to " + e.Param()
		case "nefield":
			msg = "must differ from " + e.Param()
		default:
			msg = e.Tag() + " validation failed"
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	return out
}

func purposes() string {
	s := make([]string, 0, len(loan.Purposes))
	for _, p := range loan.Purposes {
		s = append(s, string(p))
	}
	return strings.Join(s, ", ")
}
