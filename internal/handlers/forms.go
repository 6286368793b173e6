package handlers

import (
	"errors"
	"fmt"
	"strings"

	"banking_portal/internal/money"

	"github.com/go-playground/validator/v10"
)

// signupInput mirrors the registration form. Lengths count runes.
type signupInput struct {
	Name     string `form:"name" json:"name" binding:"min=1,max=50"`
	Username string `form:"username" json:"username" binding:"min=4,max=25"`
	Email    string `form:"email" json:"email" binding:"min=6,max=50"`
	Password string `form:"password" json:"password" binding:"required,eqfield=Confirm"`
	Confirm  string `form:"confirm" json:"confirm"`
}

type loginInput struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

const (
	msgPasswordsMismatch = "Passwords do not match"
	msgUsernameTaken     = "Username already taken"
	msgFieldRequired     = "This field is required."
	msgInvalidInput      = "Invalid input"
)

// fieldErrors turns a binding error into per-field messages keyed by the
// form field name. Non-validation errors land under "".
func fieldErrors(err error) map[string]string {
	out := map[string]string{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out[""] = msgInvalidInput
		return out
	}
	for _, fe := range verrs {
		key := strings.ToLower(fe.Field())
		if _, seen := out[key]; seen {
			continue
		}
		out[key] = fieldMessage(fe)
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return msgFieldRequired
	case "eqfield":
		return msgPasswordsMismatch
	case "min":
		if fe.Param() == "1" {
			return msgFieldRequired
		}
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	}
	return msgInvalidInput
}

// amountMessage explains why an amount was rejected.
func amountMessage(err error) string {
	switch {
	case errors.Is(err, money.ErrEmpty):
		return "Please enter an amount"
	case errors.Is(err, money.ErrNegative):
		return "Amount must not be negative"
	case errors.Is(err, money.ErrPrecision):
		return "Amount can have at most 2 decimal places"
	case errors.Is(err, money.ErrTooLarge):
		return "Amount is too large"
	}
	return "Amount must be a number"
}
