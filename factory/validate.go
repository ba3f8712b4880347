package factory

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/payroll"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the pay engine's custom tags
// registered:
//
//	decimal      - parses as a decimal number
//	timeofday    - HH:MM, 24:00 allowed
//	weekday      - English day name, full or three letters
//	localdate    - YYYY-MM-DD
//	period_type  - weekly, fortnightly or monthly
//
// Field names in errors use the json tag.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()

		_ = validate.RegisterValidation("decimal", validateDecimal)
		_ = validate.RegisterValidation("timeofday", validateTimeOfDay)
		_ = validate.RegisterValidation("weekday", validateWeekday)
		_ = validate.RegisterValidation("localdate", validateLocalDate)
		_ = validate.RegisterValidation("period_type", validatePeriodType)

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

func validateDecimal(fl validator.FieldLevel) bool {
	_, err := decimal.NewFromString(fl.Field().String())
	return err == nil
}

func validateTimeOfDay(fl validator.FieldLevel) bool {
	_, err := payroll.ParseTimeOfDay(fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	_, err := payroll.ParseWeekday(fl.Field().String())
	return err == nil
}

func validateLocalDate(fl validator.FieldLevel) bool {
	_, err := payroll.ParseLocalDate(fl.Field().String())
	return err == nil
}

func validatePeriodType(fl validator.FieldLevel) bool {
	_, err := payroll.ParsePeriodType(fl.Field().String())
	return err == nil
}

// FieldError is one failed validation rule, keyed by json field path.
type FieldError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

func (e FieldError) String() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: failed %s=%s", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("%s: failed %s", e.Field, e.Tag)
}

// ValidateStruct runs struct tag validation and flattens the result.
// A nil slice means v is valid.
func ValidateStruct(v any) []FieldError {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Tag: err.Error()}}
	}
	out := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Namespace(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// validationError joins field errors into a single guide error.
func validationError(id string, errs []FieldError) error {
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.String()
	}
	return &payroll.GuideError{GuideID: payroll.GuideID(id), Field: "document", Reason: strings.Join(parts, "; ")}
}
