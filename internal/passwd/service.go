// Package passwd runs one password change from form values to outcome.
package passwd

import (
	"context"
	"time"

	"passui/internal/auth"
	"passui/internal/config"
	"passui/internal/outcome"
	"passui/internal/policy"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Observer receives the category and duration of every finished change.
type Observer interface {
	ObserveChange(category outcome.Category, elapsed time.Duration)
}

type Service struct {
	policy   config.PasswordPolicy
	changer  auth.PasswordChanger
	logger   zerolog.Logger
	observer Observer
	tracer   trace.Tracer
}

type Option func(*Service)

func WithObserver(o Observer) Option {
	return func(s *Service) {
		s.observer = o
	}
}

func NewService(p config.PasswordPolicy, changer auth.PasswordChanger, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		policy:  p,
		changer: changer,
		logger:  logger.With().Str("component", "passwd").Logger(),
		tracer:  otel.Tracer("passui/internal/passwd"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Policy returns the policy new passwords are checked against.
func (s *Service) Policy() config.PasswordPolicy {
	return s.policy
}

// Change validates req and, when it passes, changes the password in the
// directory. Failures of either step come back as a failed Outcome.
func (s *Service) Change(ctx context.Context, req policy.Request) outcome.Outcome {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "passwd.Change", trace.WithAttributes(attribute.String("passwd.username", req.Username)))
	defer span.End()

	result := s.change(ctx, req)

	span.SetAttributes(attribute.String("passwd.outcome", result.Category.String()))
	if result.OK() {
		s.logger.Info().Str("username", req.Username).Msg("password changed")
	} else {
		span.SetStatus(codes.Error, result.Message)
		s.logger.Warn().
			Str("username", req.Username).
			Stringer("category", result.Category).
			Str("detail", result.Message).
			Msg("password change failed")
	}

	if s.observer != nil {
		s.observer.ObserveChange(result.Category, time.Since(start))
	}
	return result
}

func (s *Service) change(ctx context.Context, req policy.Request) outcome.Outcome {
	if err := policy.Validate(s.policy, req); err != nil {
		return outcome.FromError(err)
	}
	if err := s.changer.ChangePassword(ctx, req.Username, req.OldPassword, req.NewPassword); err != nil {
		return outcome.FromError(err)
	}
	return outcome.Succeeded()
}
