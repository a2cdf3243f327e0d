package passwd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"passui/internal/config"
	"passui/internal/outcome"
	"passui/internal/policy"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeCall struct {
	username, oldPassword, newPassword string
}

type fakeChanger struct {
	calls []changeCall
	err   error
}

func (f *fakeChanger) ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error {
	f.calls = append(f.calls, changeCall{username, oldPassword, newPassword})
	return f.err
}

type recordingObserver struct {
	categories []outcome.Category
}

func (r *recordingObserver) ObserveChange(category outcome.Category, elapsed time.Duration) {
	r.categories = append(r.categories, category)
}

var strict = config.PasswordPolicy{
	Enable:         true,
	MinLength:      8,
	MinDigits:      1,
	ForbidUsername: true,
	ForbidReuse:    true,
	Specials:       config.DefaultSpecials,
}

func request(user, old, new string) policy.Request {
	return policy.Request{Username: user, OldPassword: old, NewPassword: new, ConfirmPassword: new}
}

func TestChangeSuccess(t *testing.T) {
	changer := &fakeChanger{}
	obs := &recordingObserver{}
	var logs bytes.Buffer
	s := NewService(strict, changer, zerolog.New(&logs), WithObserver(obs))

	got := s.Change(context.Background(), request("bob", "old-secret1", "longenough1"))

	assert.True(t, got.OK())
	assert.Equal(t, outcome.MsgSuccess, got.Message)
	assert.Equal(t, []changeCall{{"bob", "old-secret1", "longenough1"}}, changer.calls)
	assert.Equal(t, []outcome.Category{outcome.Success}, obs.categories)
	assert.Contains(t, logs.String(), `"level":"info"`)
	assert.Contains(t, logs.String(), `"username":"bob"`)
	assert.NotContains(t, logs.String(), "longenough1")
}

func TestChangePolicyFailuresNeverReachDirectory(t *testing.T) {
	tests := []struct {
		name     string
		req      policy.Request
		category outcome.Category
	}{
		{
			name:     "mismatch",
			req:      policy.Request{Username: "bob", OldPassword: "x", NewPassword: "longenough1", ConfirmPassword: "longenough2"},
			category: outcome.Mismatch,
		},
		{name: "too short", req: request("bob", "x", "short1"), category: outcome.PolicyViolation},
		{name: "contains username", req: request("alice", "x", "alice1234"), category: outcome.PolicyViolation},
		{name: "reuse", req: request("bob", "longenough1", "longenough1"), category: outcome.PolicyViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changer := &fakeChanger{}
			s := NewService(strict, changer, zerolog.Nop())

			got := s.Change(context.Background(), tt.req)
			assert.Equal(t, tt.category, got.Category)
			assert.Empty(t, changer.calls)
		})
	}
}

func TestChangeDirectoryFailure(t *testing.T) {
	changer := &fakeChanger{err: outcome.NewFailure(outcome.DirectoryConstraintViolation, "Password too short", errors.New("raw"))}
	obs := &recordingObserver{}
	var logs bytes.Buffer
	s := NewService(config.PasswordPolicy{}, changer, zerolog.New(&logs), WithObserver(obs))

	got := s.Change(context.Background(), request("bob", "old", "new"))

	assert.Equal(t, outcome.DirectoryConstraintViolation, got.Category)
	assert.Equal(t, "Password too short", got.Message)
	assert.Equal(t, []outcome.Category{outcome.DirectoryConstraintViolation}, obs.categories)
	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), `"category":"constraint_violation"`)
}

func TestChangeUnclassifiedError(t *testing.T) {
	s := NewService(config.PasswordPolicy{}, &fakeChanger{err: errors.New("boom")}, zerolog.Nop())

	got := s.Change(context.Background(), request("bob", "old", "new"))
	require.False(t, got.OK())
	assert.Equal(t, outcome.DirectoryProtocolError, got.Category)
	assert.Equal(t, outcome.MsgProtocol, got.Message)
}
