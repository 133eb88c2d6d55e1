package validator

import (
	"fmt"
	"reflect"
	"strings"

	"marketplace/internal/usecase"

	"github.com/go-playground/validator/v10"
)

// echo.Validator の実装。エラーは ValidationError（項目ごとの詳細つき）
type RequestValidator struct {
	v *validator.Validate
}

func New() *RequestValidator {
	v := validator.New()
	//エラーのキーは json 名
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" || tag == "-" {
			return f.Name
		}
		return tag
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.v.Struct(i); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return usecase.WrapHTTPError(usecase.KindValidation, err, "validation failed")
	}
	details := map[string]string{}
	first := ""
	for _, fe := range errs {
		field := strings.TrimPrefix(fe.Namespace(), rootNamespace(fe))
		msg := validationMessage(fe)
		details[field] = msg
		if first == "" {
			first = field + " " + msg
		}
	}
	return usecase.WithDetails(usecase.NewHTTPError(usecase.KindValidation, first), details)
}

// "placeOrderRequest.cartItems[0].quantity" -> "cartItems[0].quantity"
func rootNamespace(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[:i+1]
	}
	return ""
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be > %s", fe.Param())
	case "email":
		return "must be a valid email"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	}
	return "is invalid"
}
