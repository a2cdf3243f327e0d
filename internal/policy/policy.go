// Package policy checks a candidate password against the configured strength
// policy. It never touches the network.
package policy

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"passui/internal/config"
	"passui/internal/outcome"

	"github.com/nbutton23/zxcvbn-go"
)

// Request carries the raw form values of one change attempt.
type Request struct {
	Username        string
	OldPassword     string
	NewPassword     string
	ConfirmPassword string
}

type classes struct {
	lowers, uppers, digits, specials int
}

// count tallies each class independently, so a rune listed as special that
// is also a letter is counted twice.
func count(password, specials string) classes {
	var c classes
	for _, r := range password {
		if unicode.IsLower(r) {
			c.lowers++
		}
		if unicode.IsUpper(r) {
			c.uppers++
		}
		if unicode.IsDigit(r) {
			c.digits++
		}
		if strings.ContainsRune(specials, r) {
			c.specials++
		}
	}
	return c
}

// Validate returns nil when the request may be sent to the directory, or an
// *outcome.Failure. The confirmation is compared even if the policy is
// disabled. All policy failures share one message.
func Validate(p config.PasswordPolicy, req Request) error {
	if req.NewPassword != req.ConfirmPassword {
		return outcome.NewFailure(outcome.Mismatch, outcome.MsgMismatch, nil)
	}

	if !p.Enable {
		return nil
	}

	if !satisfied(p, req) {
		return outcome.NewFailure(outcome.PolicyViolation, outcome.MsgPolicyViolation, nil)
	}
	return nil
}

func satisfied(p config.PasswordPolicy, req Request) bool {
	pw := req.NewPassword
	length := utf8.RuneCountInString(pw)

	if length < p.MinLength {
		return false
	}
	if p.MaxLength > 0 && length > p.MaxLength {
		return false
	}

	c := count(pw, p.Specials)
	switch {
	case c.lowers < p.MinLowers:
		return false
	case c.uppers < p.MinUppers:
		return false
	case c.digits < p.MinDigits:
		return false
	case c.specials < p.MinSpecials:
		return false
	}

	// The class sums must account for every rune exactly once.
	if p.ForbidOthers && c.lowers+c.uppers+c.digits+c.specials != length {
		return false
	}

	if p.ForbidUsername && strings.Contains(strings.ToLower(pw), strings.ToLower(strings.TrimSpace(req.Username))) {
		return false
	}

	if p.ForbidReuse && pw == req.OldPassword {
		return false
	}

	if p.MinScore > 0 && zxcvbn.PasswordStrength(pw, []string{req.Username}).Score < p.MinScore {
		return false
	}

	return true
}
