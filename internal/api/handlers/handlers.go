package handlers

import (
	"context"
	"net/http"

	"passui/internal/config"
	"passui/internal/outcome"
	"passui/internal/policy"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Changer runs password changes for the form handlers.
type Changer interface {
	Change(ctx context.Context, req policy.Request) outcome.Outcome
	Policy() config.PasswordPolicy
}

type Handler struct {
	changer Changer
	title   string
	logger  zerolog.Logger
}

func New(changer Changer, html config.Html, logger zerolog.Logger) *Handler {
	return &Handler{
		changer: changer,
		title:   html.PageTitle,
		logger:  logger,
	}
}

// HealthCheck reports that the process is serving requests. It does not
// contact the directory.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
