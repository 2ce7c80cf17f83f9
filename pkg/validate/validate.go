// Package validate implements declarative struct validation driven by
// `validate:"..."` tags:
//
//	type RegisterRequest struct {
//		Username string `json:"username" validate:"required,min:3,max:30"`
//		Email    string `json:"email"    validate:"required,email"`
//		Password string `json:"password" validate:"required,min:6"`
//	}
//
//	if errs := validate.Struct(req); len(errs) > 0 { ... }
//
// Supported rules: required, email, min:N, max:N, gte:N, lte:N,
// in:a;b;c, numeric, integer, nullable.
package validate

import (
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Struct validates v against its `validate` tags and returns a map of
// field name → first failed rule message. An empty map means valid.
func Struct(v interface{}) map[string]string {
	errs := make(map[string]string)

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return errs
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return errs
	}

	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		tag := field.Tag.Get("validate")
		if tag == "" || tag == "-" {
			continue
		}

		name := jsonName(field)
		value := rv.Field(i)

		if msg := checkField(name, value, tag); msg != "" {
			errs[name] = msg
		}
	}

	return errs
}

func checkField(name string, value reflect.Value, tag string) string {
	rules := strings.Split(tag, ",")

	// nullable short-circuits every other rule when the value is zero.
	if contains(rules, "nullable") && isZero(value) {
		return ""
	}

	for _, rule := range rules {
		rule = strings.TrimSpace(rule)
		if rule == "" || rule == "nullable" {
			continue
		}

		parts := strings.SplitN(rule, ":", 2)
		op := parts[0]
		arg := ""
		if len(parts) == 2 {
			arg = parts[1]
		}

		if msg := apply(name, value, op, arg); msg != "" {
			return msg
		}
	}

	return ""
}

func apply(name string, value reflect.Value, op, arg string) string {
	switch op {
	case "required":
		if isZero(value) {
			return fmt.Sprintf("The %s field is required", name)
		}
	case "email":
		s, ok := asString(value)
		if ok && s != "" && !emailRe.MatchString(s) {
			return fmt.Sprintf("The %s field must be a valid email address", name)
		}
	case "min":
		n, _ := strconv.ParseFloat(arg, 64)
		if s, ok := asString(value); ok {
			if len(s) < int(n) {
				return fmt.Sprintf("The %s field must be at least %s characters", name, arg)
			}
		} else if f, ok := asNumber(value); ok && f < n {
			return fmt.Sprintf("The %s field must be at least %s", name, arg)
		}
	case "max":
		n, _ := strconv.ParseFloat(arg, 64)
		if s, ok := asString(value); ok {
			if len(s) > int(n) {
				return fmt.Sprintf("The %s field may not be greater than %s characters", name, arg)
			}
		} else if f, ok := asNumber(value); ok && f > n {
			return fmt.Sprintf("The %s field may not be greater than %s", name, arg)
		}
	case "gte":
		n, _ := strconv.ParseFloat(arg, 64)
		if f, ok := asNumber(value); ok && f < n {
			return fmt.Sprintf("The %s field must be greater than or equal to %s", name, arg)
		}
	case "lte":
		n, _ := strconv.ParseFloat(arg, 64)
		if f, ok := asNumber(value); ok && f > n {
			return fmt.Sprintf("The %s field must be less than or equal to %s", name, arg)
		}
	case "in":
		allowed := strings.Split(arg, ";")
		s, _ := asString(value)
		if s != "" && !contains(allowed, s) {
			return fmt.Sprintf("The %s field must be one of: %s", name, strings.Join(allowed, ", "))
		}
	case "numeric":
		if s, ok := asString(value); ok && s != "" {
			if _, err := strconv.ParseFloat(s, 64); err != nil {
				return fmt.Sprintf("The %s field must be numeric", name)
			}
		}
	case "integer":
		if s, ok := asString(value); ok && s != "" {
			if _, err := strconv.Atoi(s); err != nil {
				return fmt.Sprintf("The %s field must be an integer", name)
			}
		}
	}

	return ""
}

func jsonName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" || tag == "-" {
		return strings.ToLower(field.Name)
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return strings.ToLower(field.Name)
	}
	return tag
}

func isZero(value reflect.Value) bool {
	switch value.Kind() {
	case reflect.Ptr, reflect.Interface:
		return value.IsNil()
	case reflect.Slice, reflect.Map:
		return value.Len() == 0
	default:
		return value.IsZero()
	}
}

func asString(value reflect.Value) (string, bool) {
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return "", true
		}
		value = value.Elem()
	}
	if value.Kind() == reflect.String {
		return value.String(), true
	}
	return "", false
}

func asNumber(value reflect.Value) (float64, bool) {
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return 0, false
		}
		value = value.Elem()
	}
	switch value.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(value.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(value.Uint()), true
	case reflect.Float32, reflect.Float64:
		return value.Float(), true
	}
	return 0, false
}

func contains(list []string, want string) bool {
	for _, item := range list {
		if strings.TrimSpace(item) == want {
			return true
		}
	}
	return false
}
