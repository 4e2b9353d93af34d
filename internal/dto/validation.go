package dto

import (
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	academicYearPattern = regexp.MustCompile(`^([0-9]{4})/([0-9]{4})$`)
	courseCodePattern   = regexp.MustCompile(`^[A-Za-z0-9]+$`)
)

// NewValidator returns a validator with the academic field rules registered:
//
//	academic_year  YYYY/YYYY where the second year follows the first
//	birth_date     YYYY-MM-DD calendar date
//	course_code    letters and digits only
//	not_numeric    rejects values made only of digits
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		return ValidAcademicYear(fl.Field().String())
	})
	_ = v.RegisterValidation("birth_date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse("2006-01-02", fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("course_code", func(fl validator.FieldLevel) bool {
		return courseCodePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("not_numeric", func(fl validator.FieldLevel) bool {
		value := strings.TrimSpace(fl.Field().String())
		if value == "" {
			return true
		}
		_, err := strconv.ParseUint(value, 10, 64)
		return err != nil
	})
	return v
}

// ValidAcademicYear reports whether value looks like "2023/2024".
func ValidAcademicYear(value string) bool {
	match := academicYearPattern.FindStringSubmatch(value)
	if match == nil {
		return false
	}
	start, _ := strconv.Atoi(match[1])
	end, _ := strconv.Atoi(match[2])
	return end == start+1
}
