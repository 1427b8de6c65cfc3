package apperrors

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindBusinessRule
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindBusinessRule:
		return "business_rule"
	default:
		return "internal"
	}
}

// Error is the error type every service returns for a client-visible failure.
// Fields carries per-field messages for validation failures.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %v", e.Code, e.Fields)
	}
	return e.Code
}

const (
	CodeInvalidRequest      = "invalid_request"
	CodeNotFound            = "not_found"
	CodeUnauthorized        = "unauthorized"
	CodeForbidden           = "forbidden"
	CodeInsufficientStock   = "insufficient_stock"
	CodeInsufficientCredit  = "insufficient_credit"
	CodeInvalidDenomination = "invalid_denomination"
)

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidRequest, Message: "Invalid request", Fields: fields}
}

// Field is shorthand for a validation error on a single field.
func Field(name, message string) *Error {
	return Validation(map[string]string{name: message})
}

func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: what + " not found"}
}

func Unauthenticated(message string) *Error {
	return &Error{Kind: KindAuthentication, Code: CodeUnauthorized, Message: message}
}

func Forbidden(reason string) *Error {
	return &Error{Kind: KindAuthorization, Code: CodeForbidden, Message: reason}
}

func BusinessRule(code, message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: message}
}

func InsufficientStock(available int, productName string) *Error {
	return BusinessRule(CodeInsufficientStock, fmt.Sprintf("Only %d of %s are remaining", available, productName))
}

func InsufficientCredit(username string) *Error {
	return BusinessRule(CodeInsufficientCredit, fmt.Sprintf("%s's deposit is less than total cost", username))
}

func InvalidDenomination(amount int) *Error {
	return BusinessRule(CodeInvalidDenomination, fmt.Sprintf("%d is not an accepted coin", amount))
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}
