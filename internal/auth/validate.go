package auth

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ovaphlow/pitchfork/service-auth-go/internal/user"
)

// FieldError is one entry of a ValidationError response.
type FieldError struct {
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

type fieldErrors map[string]FieldError

func (fe fieldErrors) add(path, location, msg string) {
	if _, ok := fe[path]; !ok {
		fe[path] = FieldError{Msg: msg, Path: path, Location: location}
	}
}

var messages = map[string]string{
	"email.required":    "E-mail is required",
	"email.max":         "E-mail must be less than 50 characters",
	"email.email":       "Invalid e-mail address",
	"password.required": "Password is required",
	"password.min":      "Password must be at least 8 characters long",
	"password.pwbytes":  "Password must be at most 72 bytes long",
	"role.oneof":        "Role must be either admin or user",
	"firstName.max":     "First name must be less than 20 characters",
	"lastName.max":      "Last name must be less than 20 characters",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	// bcrypt's input limit is in bytes, which max= does not measure.
	_ = v.RegisterValidation("pwbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= user.MaxPasswordBytes
	})
	return v
}

// validateBody runs struct validation and returns nil when req is valid.
func validateBody(v *validator.Validate, req any) fieldErrors {
	err := v.Struct(req)
	if err == nil {
		return nil
	}
	out := fieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out.add("body", "body", "Invalid request body")
		return out
	}
	for _, fe := range verrs {
		path := fe.Namespace()
		if i := strings.IndexByte(path, '.'); i >= 0 {
			path = path[i+1:]
		}
		out.add(path, "body", messageFor(path, fe))
	}
	return out
}

func messageFor(path string, fe validator.FieldError) string {
	if msg, ok := messages[path+"."+fe.Tag()]; ok {
		return msg
	}
	switch fe.Tag() {
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", path, fe.Param())
	case "url":
		return fmt.Sprintf("%s must be a valid url", path)
	}
	return fmt.Sprintf("%s is invalid", path)
}
