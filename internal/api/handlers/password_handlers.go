package handlers

import (
	"net/http"

	"passui/internal/config"
	"passui/internal/outcome"
	"passui/internal/policy"

	"github.com/gin-gonic/gin"
)

type alert struct {
	Kind    string
	Message string
}

type page struct {
	Title     string
	Alerts    []alert
	Username  string
	CSRFToken string
	Policy    config.PasswordPolicy
	// PolicyHints is rendered as JSON for the client side checks, nil when
	// the policy is disabled.
	PolicyHints *config.PasswordPolicy
}

type changeForm struct {
	Username        string `form:"username"`
	OldPassword     string `form:"old_password"`
	NewPassword     string `form:"new_password"`
	ConfirmPassword string `form:"confirm_password"`
}

func (h *Handler) render(c *gin.Context, status int, p page) {
	pol := h.changer.Policy()
	p.Title = h.title
	p.Policy = pol
	if pol.Enable {
		p.PolicyHints = &pol
	}
	token, err := csrfToken(c)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to save session")
		c.String(http.StatusInternalServerError, "Failed to save session")
		return
	}
	p.CSRFToken = token
	c.HTML(status, "index.html", p)
}

// Index renders the empty form.
func (h *Handler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, page{})
}

// ChangePassword handles a form submission. The username is kept in the
// form after a failure and cleared after a success.
func (h *Handler) ChangePassword(c *gin.Context) {
	var form changeForm
	if err := c.ShouldBind(&form); err != nil {
		h.render(c, http.StatusBadRequest, page{Alerts: []alert{{"error", "Invalid form submission."}}})
		return
	}

	result := h.changer.Change(c.Request.Context(), policy.Request{
		Username:        form.Username,
		OldPassword:     form.OldPassword,
		NewPassword:     form.NewPassword,
		ConfirmPassword: form.ConfirmPassword,
	})

	if result.OK() {
		h.render(c, http.StatusOK, page{Alerts: []alert{{"success", result.Message}}})
		return
	}
	h.render(c, StatusFor(result.Category), page{
		Username: form.Username,
		Alerts:   []alert{{"error", result.Message}},
	})
}

// StatusFor maps an outcome category to the response status code.
func StatusFor(category outcome.Category) int {
	switch category {
	case outcome.Success:
		return http.StatusOK
	case outcome.AuthenticationFailure:
		return http.StatusUnauthorized
	case outcome.DirectoryUnreachable:
		return http.StatusServiceUnavailable
	case outcome.DirectoryProtocolError:
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}
