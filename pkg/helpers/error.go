package helpers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/moogar0880/problems"
)

var (
	// ErrPrivateKeyMissing error for empty private key
	ErrPrivateKeyMissing = NewError("ERR_PRIVATE_KEY_MISSING")

	// ErrInternalServerError error for internal server error
	ErrInternalServerError = NewError("INTERNAL_SERVER_ERROR")

	// ErrCredentialValidationFailed error for credential validation failed
	ErrCredentialValidationFailed = NewError("CREDENTIAL_VALIDATION_FAILED")
)

// Error is a struct that represents an error
type Error struct {
	Title string `json:"title" `
	Err   any    `json:"details"`
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("Error: [%s] %+v", e.Title, e.Err)
	}
	return fmt.Sprintf("Error: [%s]", e.Title)
}

// ErrorResponse is a struct that represents an error response in JSON from REST API
type ErrorResponse struct {
	Error *Error `json:"error"`
}

func NewError(title string) *Error {
	return &Error{Title: title}
}

func NewErrorDetails(title string, err any) *Error {
	return &Error{Title: title, Err: err}
}

// NewErrorFromError creates a new Error from an error
func NewErrorFromError(err error) *Error {
	if err == nil {
		return nil
	}

	if pbErr, ok := err.(*Error); ok {
		return pbErr
	}

	if jsonUnmarshalTypeError, ok := err.(*json.UnmarshalTypeError); ok {
		return &Error{Title: "json_type_error", Err: formatJSONUnmarshalTypeError(jsonUnmarshalTypeError)}
	}
	if jsonSyntaxError, ok := err.(*json.SyntaxError); ok {
		return &Error{Title: "json_syntax_error", Err: map[string]any{"position": jsonSyntaxError.Offset, "error": jsonSyntaxError.Error()}}
	}
	if validatorErr, ok := err.(validator.ValidationErrors); ok {
		return &Error{Title: "validation_error", Err: formatValidationErrors(validatorErr)}
	}

	return NewErrorDetails("internal_server_error", err.Error())
}

func formatValidationErrors(err validator.ValidationErrors) []map[string]any {
	v := make([]map[string]any, 0)
	for _, e := range err {
		splits := strings.SplitN(e.Namespace(), ".", 2)
		v = append(v, map[string]any{
			"field":           e.Field(),
			"namespace":       splits[1],
			"type":            e.Kind().String(),
			"validation":      e.Tag(),
			"validationParam": e.Param(),
			"value":           e.Value(),
		})
	}
	return v
}

func formatJSONUnmarshalTypeError(err *json.UnmarshalTypeError) []map[string]any {
	return []map[string]any{
		{
			"field":    err.Field,
			"expected": err.Type.Kind().String(),
			"actual":   err.Value,
		},
	}
}

// ToProblem renders an Error as an RFC 7807 problem document carrying the
// given HTTP status, for callers that surface wallet-core failures over HTTP.
func ToProblem(status int, err *Error) *problems.Problem {
	problem := problems.NewStatusProblem(status)
	if err == nil {
		return problem
	}
	problem.Title = err.Title
	problem.Detail = err.Error()
	return problem
}
