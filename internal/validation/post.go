package validation

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrMissingFields is reported when the title or body is blank.
var ErrMissingFields = errors.New("please fill in both fields")

// PostInput is the editor payload before it becomes a storage.Post.
type PostInput struct {
	Title string `validate:"required,max=300"`
	Body  string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidatePost trims both fields and reports which ones are missing or too long.
// The returned input carries the trimmed values.
func ValidatePost(title, body string) (PostInput, error) {
	in := PostInput{
		Title: strings.TrimSpace(title),
		Body:  strings.TrimSpace(body),
	}

	err := validate.Struct(in)
	if err == nil {
		return in, nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return in, err
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return in, ErrMissingFields
		}
	}
	return in, &FieldError{Field: verrs[0].Field(), Tag: verrs[0].Tag(), Param: verrs[0].Param()}
}

// FieldError describes a constraint other than presence.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

func (e *FieldError) Error() string {
	if e.Tag == "max" {
		return strings.ToLower(e.Field) + " is too long (max " + e.Param + " characters)"
	}
	return strings.ToLower(e.Field) + " is invalid"
}
