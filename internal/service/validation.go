package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so errors match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs tag validation on s and merges extra rule violations.
func validateStruct(s any, extra ...FieldError) error {
	var fields []FieldError
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fieldPath(fe), Message: fieldMessage(fe)})
		}
	}
	fields = append(fields, extra...)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// fieldPath drops the root struct name: "CreateOrderInput.items[0].quantity" -> "items[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "uuid":
		return "must be a valid id"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		switch fe.Kind() {
		case reflect.Slice, reflect.Array:
			return fmt.Sprintf("must have at least %s item(s)", fe.Param())
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		default:
			return "must be at least " + fe.Param()
		}
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	default:
		return "is invalid"
	}
}

// maxMoney is the largest amount a DECIMAL(10,2) column holds.
var maxMoney = decimal.RequireFromString("99999999.99")

// moneyErrors checks that an amount is non-negative, has at most two decimal
// places and fits the storage range.
func moneyErrors(field string, d *decimal.Decimal) []FieldError {
	if d == nil {
		return nil
	}
	var out []FieldError
	if d.IsNegative() {
		out = append(out, FieldError{Field: field, Message: "must be at least 0"})
	}
	if !d.Equal(d.Round(2)) {
		out = append(out, FieldError{Field: field, Message: "must have at most 2 decimal places"})
	}
	if d.GreaterThan(maxMoney) {
		out = append(out, FieldError{Field: field, Message: "must be at most " + maxMoney.StringFixed(2)})
	}
	return out
}
