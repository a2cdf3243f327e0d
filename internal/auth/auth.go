package auth

import "context"

// PasswordChanger changes a user's own password, authorising the change with
// the old password. Implementations return nil or an *outcome.Failure.
type PasswordChanger interface {
	ChangePassword(ctx context.Context, username, oldPassword, newPassword string) error
}
