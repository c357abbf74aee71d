package utils

import (
	"errors"
	"net/http"

	appErrors "github.com/aaravmahajanofficial/cart-service/internal/errors"
	"github.com/aaravmahajanofficial/cart-service/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// ParseAndValidate decodes a required JSON body into dest and validates it. On failure the
// error response has already been written and false is returned.
func ParseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {
	return parseAndValidate(r, w, dest, validate, false)
}

// ParseOptionalAndValidate behaves like ParseAndValidate but accepts an empty body, leaving
// dest untouched.
func ParseOptionalAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate) bool {
	return parseAndValidate(r, w, dest, validate, true)
}

func parseAndValidate(r *http.Request, w http.ResponseWriter, dest any, validate *validator.Validate, optional bool) bool {
	if err := DecodeJSONBody(r, dest); err != nil {
		if optional && errors.Is(err, ErrEmptyBody) {
			return true
		}

		response.Error(w, appErrors.BadRequestError("Failed to parse request").WithError(err))
		return false
	}

	if err := ValidateStruct(validate, dest); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			response.ValidationError(w, validationErrs)
			return false
		}

		response.Error(w, appErrors.InternalError("Failed to validate request").WithError(err))
		return false
	}

	return true
}
