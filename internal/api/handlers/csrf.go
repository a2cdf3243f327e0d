package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

const csrfSessionKey = "csrf_token"

// csrfToken returns the session's token, creating and saving one on first use.
func csrfToken(c *gin.Context) (string, error) {
	session := sessions.Default(c)
	if token, ok := session.Get(csrfSessionKey).(string); ok && token != "" {
		return token, nil
	}

	token := uuid.NewString()
	session.Set(csrfSessionKey, token)
	if err := session.Save(); err != nil {
		return "", errors.Wrap(err, "save session")
	}
	return token, nil
}

// CSRFRequired rejects form posts whose csrf_token does not match the session.
func CSRFRequired(c *gin.Context) {
	expected, _ := sessions.Default(c).Get(csrfSessionKey).(string)
	got := c.PostForm("csrf_token")
	if expected == "" || subtle.ConstantTimeCompare([]byte(expected), []byte(got)) != 1 {
		c.String(http.StatusForbidden, "Invalid or missing CSRF token")
		c.Abort()
		return
	}
	c.Next()
}
