package ldap

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"strings"
	"unicode"
	"unicode/utf8"

	"passui/internal/outcome"

	"github.com/go-ldap/ldap/v3"
	"github.com/pkg/errors"
)

// constraintMarker precedes the human readable reason in diagnostics
// emitted by password policy overlays.
const constraintMarker = "check_password_restrictions: "

var (
	// ErrMissingBindDN means neither bind_dn nor a resolved user DN is
	// available for the bind step.
	ErrMissingBindDN = errors.New("no DN to bind with")
	// ErrUserNotFound means the user search returned no entries.
	ErrUserNotFound = errors.New("user not found")
)

type step string

const (
	stepDial     step = "dial"
	stepStartTLS step = "starttls"
	stepBind     step = "bind"
	stepSearch   step = "search"
	stepModify   step = "modify"
)

// opError records which directory step produced err.
type opError struct {
	step step
	err  error
}

func (e *opError) Error() string {
	return fmt.Sprintf("%s: %v", e.step, e.err)
}

func (e *opError) Unwrap() error {
	return e.err
}

func at(s step, err error) error {
	if err == nil {
		return nil
	}
	return &opError{step: s, err: err}
}

// Classify maps an error raised while talking to the directory onto a
// user facing failure.
func Classify(err error) *outcome.Failure {
	var failure *outcome.Failure
	if stderrors.As(err, &failure) {
		return failure
	}

	switch {
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		return unreachable(err)
	case stderrors.Is(err, ErrMissingBindDN), stderrors.Is(err, ErrUserNotFound):
		return outcome.NewFailure(outcome.AuthenticationFailure, outcome.MsgAuthentication, err)
	}

	// A refused StartTLS or failed handshake reached the server.
	var op *opError
	if stderrors.As(err, &op) && op.step == stepStartTLS {
		return outcome.NewFailure(outcome.DirectoryProtocolError, outcome.MsgProtocol, err)
	}

	var ldapErr *ldap.Error
	if stderrors.As(err, &ldapErr) {
		switch ldapErr.ResultCode {
		case ldap.ErrorNetwork:
			return unreachable(err)
		case ldap.LDAPResultInvalidCredentials, ldap.ErrorEmptyPassword:
			return outcome.NewFailure(outcome.AuthenticationFailure, outcome.MsgAuthentication, err)
		case ldap.LDAPResultConstraintViolation:
			return outcome.NewFailure(outcome.DirectoryConstraintViolation, constraintMessage(ldapErr), err)
		}
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return unreachable(err)
	}

	if stderrors.As(err, &op) {
		switch op.step {
		case stepDial:
			return unreachable(err)
		case stepBind:
			return outcome.NewFailure(outcome.AuthenticationFailure, outcome.MsgAuthentication, err)
		}
	}

	return outcome.NewFailure(outcome.DirectoryProtocolError, outcome.MsgProtocol, err)
}

func unreachable(err error) *outcome.Failure {
	return outcome.NewFailure(outcome.DirectoryUnreachable, outcome.MsgUnreachable, err)
}

// constraintMessage extracts the reason after the last marker and
// capitalizes it. Diagnostics without the marker are shown as sent.
func constraintMessage(e *ldap.Error) string {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	if i := strings.LastIndex(msg, constraintMarker); i >= 0 {
		msg = msg[i+len(constraintMarker):]
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return ldap.LDAPResultCodeMap[ldap.LDAPResultConstraintViolation]
	}
	return capitalize(msg)
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// rootCause returns the innermost error for logging its concrete type.
func rootCause(err error) error {
	for {
		next := stderrors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}
