package outcome

import (
	"errors"
	"fmt"
)

type Category int

const (
	Success Category = iota
	Mismatch
	PolicyViolation
	AuthenticationFailure
	DirectoryConstraintViolation
	DirectoryUnreachable
	DirectoryProtocolError
)

const (
	MsgSuccess         = "Password has been changed."
	MsgMismatch        = "The new password and its confirmation don't match."
	MsgPolicyViolation = "The requirements on password strength are not fulfilled. Please choose another password."
	MsgAuthentication  = "Username or old password is incorrect."
	MsgUnreachable     = "Unable to connect to the remote server."
	MsgProtocol        = "Unexpected error while communicating with the remote server."
)

var categoryNames = map[Category]string{
	Success:                      "success",
	Mismatch:                     "mismatch",
	PolicyViolation:              "policy_violation",
	AuthenticationFailure:        "authentication_failure",
	DirectoryConstraintViolation: "constraint_violation",
	DirectoryUnreachable:         "unreachable",
	DirectoryProtocolError:       "protocol_error",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Failure is the error returned by the validator and the directory layer.
// Message is safe to show to the user, Cause never is.
type Failure struct {
	Category Category
	Message  string
	Cause    error
}

func (f *Failure) Error() string {
	if f.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", f.Category, f.Message, f.Cause)
	}
	return fmt.Sprintf("%s: %s", f.Category, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Cause
}

func NewFailure(category Category, message string, cause error) *Failure {
	return &Failure{Category: category, Message: message, Cause: cause}
}

// Outcome is what the presentation layer renders.
type Outcome struct {
	Category Category
	Message  string
}

func (o Outcome) OK() bool {
	return o.Category == Success
}

func Succeeded() Outcome {
	return Outcome{Category: Success, Message: MsgSuccess}
}

// FromError turns the result of a validation or directory call into an Outcome.
// Errors that are not a *Failure are reported as protocol errors.
func FromError(err error) Outcome {
	if err == nil {
		return Succeeded()
	}
	var f *Failure
	if errors.As(err, &f) {
		return Outcome{Category: f.Category, Message: f.Message}
	}
	return Outcome{Category: DirectoryProtocolError, Message: MsgProtocol}
}
