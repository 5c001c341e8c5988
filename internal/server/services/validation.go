package services

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/recipehub/internal/common"
	"github.com/go-playground/validator/v10"
)

// RegisterInput is the registration payload. The password cap is in bytes,
// matching the longest input bcrypt accepts.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,min=3"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=5,maxbytes=72"`
}

func (in *RegisterInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)
}

type newPasswordInput struct {
	Password string `json:"password" validate:"required,min=5,maxbytes=72"`
}

// RecipeInput carries the editable recipe fields.
type RecipeInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Ingredients []string `json:"ingredients" validate:"required,min=1,dive,required"`
	Category    string   `json:"category" validate:"required"`
}

func (in *RecipeInput) normalize() {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	items := make([]string, 0, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	in.Ingredients = items
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			return ""
		case "":
			return f.Name
		}
		return name
	})
	if err := v.RegisterValidation("maxbytes", maxBytes); err != nil {
		panic(err)
	}
	return v
}

// maxBytes limits the UTF-8 encoded length of a string field.
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// validateInput returns a *common.ValidationError listing every violated
// field, or nil.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &common.ValidationError{}
	for _, fe := range ves {
		out.Fields = append(out.Fields, common.FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	label := fe.Field()
	if label != "" {
		label = strings.ToUpper(label[:1]) + label[1:]
	}

	switch fe.Tag() {
	case "required":
		return label + " is required"
	case "email":
		return "Please enter a valid Email"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s should have at least %s items", label, fe.Param())
		}
		return fmt.Sprintf("%s should be at least %s characters", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s should be at most %s characters", label, fe.Param())
	case "maxbytes":
		return fmt.Sprintf("%s should be at most %s bytes", label, fe.Param())
	}
	return label + " is invalid"
}

// mergeValidation appends extra field errors to err, which may be nil or a
// *common.ValidationError.
func mergeValidation(err error, extra ...common.FieldError) error {
	if len(extra) == 0 {
		return err
	}
	var ve *common.ValidationError
	if err == nil {
		ve = &common.ValidationError{}
	} else if !errors.As(err, &ve) {
		return err
	}
	ve.Fields = append(ve.Fields, extra...)
	return ve
}
